// Package main provides the command-line interface for slide keyframe
// extraction.
//
// # Overview
//
// keyframes reads a raw 8-bit grayscale video stream, runs it through an
// extractor.Pipeline in fixed-size batches and writes every emitted keyframe
// to an output directory.
//
// # Usage
//
// Decode a recording with ffmpeg and pipe it in:
//
//	ffmpeg -i talk.mp4 -vf fps=2,scale=640:-2 -f rawvideo -pix_fmt gray - |
//	    keyframes -width 640 -height 360 -fps 2 -out slides
//
// Read from a file with a tuned preset and a config override:
//
//	keyframes -in talk.gray -width 640 -height 360 -preset high-motion -config keyframes.yaml
//
// # Output
//
// Keyframes are named <frameNumber>_<timestamp>ms.<ext>, where the extension
// follows the configured encoder format. Run statistics are printed when the
// stream ends or the process is interrupted.
package main
