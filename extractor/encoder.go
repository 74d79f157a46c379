package extractor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/keyframe/config"
)

// Encoder compresses a luma plane into a single-channel image.
type Encoder interface {
	// Encode compresses a width x height luma plane. The returned slice is
	// owned by the caller.
	Encode(width, height int, luma []byte) ([]byte, error)
	// Format returns the image format name (e.g. "jpeg").
	Format() string
	// Close releases encoder resources
	Close() error
}

// NewEncoder creates the encoder selected by cfg.
func NewEncoder(cfg config.EncodeConfig) (Encoder, error) {
	switch cfg.Format {
	case config.FormatJPEG:
		return NewJPEGEncoder(cfg.Quality)
	case config.FormatPNG:
		return NewPNGEncoder(), nil
	default:
		return nil, fmt.Errorf("%w: unknown encoder format %q", config.ErrInvalidConfig, cfg.Format)
	}
}

// grayImage wraps a luma plane without copying it.
func grayImage(width, height int, luma []byte) (*image.Gray, error) {
	if width <= 0 || height <= 0 || len(luma) != width*height {
		return nil, fmt.Errorf("luma length %d does not match %dx%d", len(luma), width, height)
	}
	return &image.Gray{
		Pix:    luma,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// JPEGEncoder produces lossy grayscale JPEGs.
type JPEGEncoder struct {
	quality int
	buf     *bytes.Buffer
}

// NewJPEGEncoder creates a JPEG encoder with quality in 1..100.
func NewJPEGEncoder(quality int) (*JPEGEncoder, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("%w: jpeg quality %d out of range 1..100", config.ErrInvalidConfig, quality)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewJPEGEncoder",
		"quality":  quality,
	}).Debug("Created JPEG keyframe encoder")

	return &JPEGEncoder{quality: quality, buf: new(bytes.Buffer)}, nil
}

// Encode compresses the luma plane as a single-component JPEG.
func (e *JPEGEncoder) Encode(width, height int, luma []byte) ([]byte, error) {
	img, err := grayImage(width, height, luma)
	if err != nil {
		return nil, err
	}
	if e.buf == nil {
		e.buf = new(bytes.Buffer)
	}

	e.buf.Reset()
	if err := jpeg.Encode(e.buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return bytes.Clone(e.buf.Bytes()), nil
}

// Format returns "jpeg".
func (e *JPEGEncoder) Format() string {
	return config.FormatJPEG
}

// Quality returns the configured JPEG quality.
func (e *JPEGEncoder) Quality() int {
	return e.quality
}

// Close drops the scratch buffer.
func (e *JPEGEncoder) Close() error {
	e.buf = nil
	return nil
}

// PNGEncoder produces lossless grayscale PNGs.
type PNGEncoder struct {
	enc png.Encoder
	buf *bytes.Buffer
}

// NewPNGEncoder creates a PNG encoder tuned for speed.
func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{
		enc: png.Encoder{CompressionLevel: png.BestSpeed},
		buf: new(bytes.Buffer),
	}
}

// Encode compresses the luma plane as an 8-bit grayscale PNG.
func (e *PNGEncoder) Encode(width, height int, luma []byte) ([]byte, error) {
	img, err := grayImage(width, height, luma)
	if err != nil {
		return nil, err
	}
	if e.buf == nil {
		e.buf = new(bytes.Buffer)
	}

	e.buf.Reset()
	if err := e.enc.Encode(e.buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return bytes.Clone(e.buf.Bytes()), nil
}

// Format returns "png".
func (e *PNGEncoder) Format() string {
	return config.FormatPNG
}

// Close drops the scratch buffer.
func (e *PNGEncoder) Close() error {
	e.buf = nil
	return nil
}
