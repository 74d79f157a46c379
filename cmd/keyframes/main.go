package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/keyframe/config"
	"github.com/opd-ai/keyframe/extractor"
	"github.com/opd-ai/keyframe/frame"
	"github.com/opd-ai/keyframe/limits"
)

// CLI configuration
type CLIConfig struct {
	input      string
	outDir     string
	width      int
	height     int
	fps        float64
	batchSize  int
	configPath string
	preset     string
	logLevel   string
	help       bool
}

// parseCLIFlags parses args into a CLIConfig using its own flag set.
func parseCLIFlags(args []string) (*CLIConfig, *flag.FlagSet, error) {
	cli := &CLIConfig{}
	fs := flag.NewFlagSet("keyframes", flag.ContinueOnError)

	// Input
	fs.StringVar(&cli.input, "in", "-", "Raw gray stream path (- for stdin)")
	fs.IntVar(&cli.width, "width", 0, "Frame width in pixels")
	fs.IntVar(&cli.height, "height", 0, "Frame height in pixels")
	fs.Float64Var(&cli.fps, "fps", 1, "Frame rate of the stream, used for timestamps")
	fs.IntVar(&cli.batchSize, "batch", 32, "Frames per ProcessBatch call")

	// Output
	fs.StringVar(&cli.outDir, "out", "keyframes", "Directory for extracted keyframes")

	// Tuning
	fs.StringVar(&cli.configPath, "config", "", "YAML or INI config file")
	fs.StringVar(&cli.preset, "preset", "default", "Tuning preset (default, high-motion, low-motion)")

	// Logging
	fs.StringVar(&cli.logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")

	fs.BoolVar(&cli.help, "help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return cli, fs, nil
}

// printUsage prints the usage information.
func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "Slide Keyframe Extractor")
	fmt.Fprintln(out, "========================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Reads raw 8-bit grayscale frames and keeps the ones that show")
	fmt.Fprintln(out, "settled, text-heavy content.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  %s -width W -height H [options]\n", fs.Name())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Example:")
	fmt.Fprintf(out, "  ffmpeg -i talk.mp4 -vf fps=2 -f rawvideo -pix_fmt gray - | %s -width 1280 -height 720 -fps 2\n", fs.Name())
}

// validateCLIConfig validates the CLI configuration.
func validateCLIConfig(cli *CLIConfig) error {
	if err := limits.ValidateDimensions(cli.width, cli.height); err != nil {
		return fmt.Errorf("invalid frame size %dx%d: %w", cli.width, cli.height, err)
	}

	if cli.fps <= 0 {
		return fmt.Errorf("fps must be positive")
	}

	if cli.batchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}

	if cli.outDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	if cli.input == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if _, err := logrus.ParseLevel(cli.logLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

// buildPipelineConfig resolves the preset and overlays the config file.
func buildPipelineConfig(cli *CLIConfig) (config.Config, error) {
	cfg, err := config.Preset(cli.preset)
	if err != nil {
		return config.Config{}, err
	}
	if cli.configPath == "" {
		return cfg, nil
	}
	return config.Load(cli.configPath, cfg)
}

// frameReader slices a raw gray stream into numbered frames.
type frameReader struct {
	r      io.Reader
	width  int
	height int
	fps    float64
	next   uint64
}

func newFrameReader(r io.Reader, width, height int, fps float64) *frameReader {
	return &frameReader{r: r, width: width, height: height, fps: fps}
}

// ReadBatch reads up to n frames. It returns io.EOF once the stream is
// exhausted; a trailing partial frame is discarded with a warning.
func (fr *frameReader) ReadBatch(n int) ([]frame.RawFrame, error) {
	batch := make([]frame.RawFrame, 0, n)
	size := fr.width * fr.height

	for len(batch) < n {
		luma := make([]byte, size)
		read, err := io.ReadFull(fr.r, luma)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				logrus.WithFields(logrus.Fields{
					"function": "frameReader.ReadBatch",
					"bytes":    read,
					"expected": size,
				}).Warn("Discarding truncated trailing frame")
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				if len(batch) == 0 {
					return nil, io.EOF
				}
				return batch, nil
			}
			return batch, fmt.Errorf("read frame %d: %w", fr.next, err)
		}

		batch = append(batch, frame.RawFrame{
			Width:       fr.width,
			Height:      fr.height,
			Luma:        luma,
			TimestampMs: int64(float64(fr.next) * 1000 / fr.fps),
			FrameNumber: fr.next,
		})
		fr.next++
	}
	return batch, nil
}

// keyframeFileName returns <frameNumber>_<ts>ms.<ext>.
func keyframeFileName(kf extractor.Keyframe) string {
	ext := kf.Format
	if ext == config.FormatJPEG {
		ext = "jpg"
	}
	return fmt.Sprintf("%06d_%dms.%s", kf.FrameNumber, kf.TimestampMs, ext)
}

func writeKeyframe(dir string, kf extractor.Keyframe) (string, error) {
	path := filepath.Join(dir, keyframeFileName(kf))
	if err := os.WriteFile(path, kf.Data, 0o644); err != nil {
		return "", fmt.Errorf("write keyframe %d: %w", kf.FrameNumber, err)
	}
	return path, nil
}

// run drives the pipeline until the stream ends or ctx is cancelled.
func run(ctx context.Context, cli *CLIConfig, cfg config.Config, in io.Reader, opts ...extractor.Option) (extractor.Stats, error) {
	if err := os.MkdirAll(cli.outDir, 0o755); err != nil {
		return extractor.Stats{}, fmt.Errorf("create output directory: %w", err)
	}

	pipeline, err := extractor.NewPipeline(cfg, opts...)
	if err != nil {
		return extractor.Stats{}, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"function": "run",
		"run_id":   pipeline.RunID().String(),
	})
	defer func() {
		if err := pipeline.Dispose(); err != nil {
			logger.WithError(err).Warn("Failed to dispose pipeline")
		}
	}()
	logger.WithFields(logrus.Fields{
		"width":  cli.width,
		"height": cli.height,
		"fps":    cli.fps,
		"batch":  cli.batchSize,
	}).Info("Starting keyframe extraction")

	reader := newFrameReader(in, cli.width, cli.height, cli.fps)
	for {
		if err := ctx.Err(); err != nil {
			return pipeline.Stats(), err
		}

		batch, readErr := reader.ReadBatch(cli.batchSize)
		if len(batch) > 0 {
			kept, err := pipeline.ProcessBatch(batch)
			if err != nil {
				return pipeline.Stats(), err
			}
			for _, kf := range kept {
				path, err := writeKeyframe(cli.outDir, kf)
				if err != nil {
					return pipeline.Stats(), err
				}
				logger.WithFields(logrus.Fields{
					"frame":      kf.FrameNumber,
					"ts_ms":      kf.TimestampMs,
					"confidence": kf.Confidence,
					"path":       path,
				}).Info("Wrote keyframe")
			}
		}

		if errors.Is(readErr, io.EOF) {
			return pipeline.Stats(), nil
		}
		if readErr != nil {
			return pipeline.Stats(), readErr
		}
	}
}

// openInput returns the stream named by path, or stdin for "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// setupSignalHandling cancels ctx on interrupt.
func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	go func() {
		sig := <-sigChan
		logrus.WithField("signal", sig.String()).Warn("Received signal, stopping after current batch")
		cancel()
	}()
}

func printStats(stats extractor.Stats) {
	fmt.Printf("Processed: %d  Extracted: %d  Dropped: %d (malformed %d, out-of-order %d)\n",
		stats.ProcessedFrames, stats.ExtractedFrames, stats.Dropped(),
		stats.MalformedFrames, stats.OutOfOrderFrames)
	fmt.Printf("Scene cuts: %d  Duplicates rejected: %d  Stale timestamps: %d  Encode failures: %d\n",
		stats.SceneCuts, stats.DuplicatesRejected, stats.StaleTimestamps, stats.EncodeFailures)
}

func main() {
	cli, fs, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if cli.help {
		printUsage(fs)
		os.Exit(0)
	}

	if err := validateCLIConfig(cli); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Use -help for usage information.\n")
		os.Exit(1)
	}

	level, _ := logrus.ParseLevel(cli.logLevel)
	logrus.SetLevel(level)

	cfg, err := buildPipelineConfig(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid pipeline configuration: %v\n", err)
		os.Exit(1)
	}

	in, err := openInput(cli.input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	stats, err := run(ctx, cli, cfg, in)
	printStats(stats)

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		in.Close()
		os.Exit(1)
	}
}
