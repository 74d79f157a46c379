package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/keyframe/config"
	"github.com/opd-ai/keyframe/extractor"
)

const (
	streamWidth  = 64
	streamHeight = 48
)

// textPlane draws dense vertical strokes over the top half.
func textPlane() []byte {
	luma := bytes.Repeat([]byte{255}, streamWidth*streamHeight)
	for y := 0; y < streamHeight/2; y++ {
		for x := 0; x < streamWidth; x++ {
			if x%4 < 2 {
				luma[y*streamWidth+x] = 0
			}
		}
	}
	return luma
}

func rawStream(planes ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range planes {
		buf.Write(p)
	}
	return buf.Bytes()
}

func validCLI(t *testing.T) *CLIConfig {
	return &CLIConfig{
		input:     "-",
		outDir:    t.TempDir(),
		width:     streamWidth,
		height:    streamHeight,
		fps:       2,
		batchSize: 4,
		preset:    "default",
		logLevel:  "ERROR",
	}
}

func TestParseCLIFlags(t *testing.T) {
	cli, _, err := parseCLIFlags([]string{
		"-width", "640", "-height", "360", "-fps", "2.5", "-batch", "8",
		"-out", "slides", "-preset", "low-motion", "-log-level", "DEBUG",
	})
	require.NoError(t, err)

	assert.Equal(t, 640, cli.width)
	assert.Equal(t, 360, cli.height)
	assert.Equal(t, 2.5, cli.fps)
	assert.Equal(t, 8, cli.batchSize)
	assert.Equal(t, "slides", cli.outDir)
	assert.Equal(t, "low-motion", cli.preset)
	assert.Equal(t, "DEBUG", cli.logLevel)
	assert.Equal(t, "-", cli.input)
}

func TestParseCLIFlags_Unknown(t *testing.T) {
	_, fs, err := parseCLIFlags([]string{"-bogus"})
	fs.SetOutput(io.Discard)
	assert.Error(t, err)
}

func TestValidateCLIConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *CLIConfig)
		wantErr     bool
		errContains string
	}{
		{name: "valid config", mutate: func(c *CLIConfig) {}},
		{name: "zero width", mutate: func(c *CLIConfig) { c.width = 0 }, wantErr: true, errContains: "invalid frame size"},
		{name: "negative height", mutate: func(c *CLIConfig) { c.height = -1 }, wantErr: true, errContains: "invalid frame size"},
		{name: "zero fps", mutate: func(c *CLIConfig) { c.fps = 0 }, wantErr: true, errContains: "fps must be positive"},
		{name: "zero batch", mutate: func(c *CLIConfig) { c.batchSize = 0 }, wantErr: true, errContains: "batch size"},
		{name: "empty output", mutate: func(c *CLIConfig) { c.outDir = "" }, wantErr: true, errContains: "output directory"},
		{name: "empty input", mutate: func(c *CLIConfig) { c.input = "" }, wantErr: true, errContains: "input cannot be empty"},
		{name: "bad log level", mutate: func(c *CLIConfig) { c.logLevel = "LOUD" }, wantErr: true, errContains: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := validCLI(t)
			tt.mutate(cli)
			err := validateCLIConfig(cli)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestBuildPipelineConfig(t *testing.T) {
	cli := validCLI(t)

	cfg, err := buildPipelineConfig(cli)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	cli.preset = "nope"
	_, err = buildPipelineConfig(cli)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	path := filepath.Join(t.TempDir(), "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte("encode:\n  format: png\n"), 0o644))
	cli.preset = "high-motion"
	cli.configPath = path

	cfg, err = buildPipelineConfig(cli)
	require.NoError(t, err)
	assert.Equal(t, config.FormatPNG, cfg.Encode.Format)
	assert.Equal(t, config.HighMotion().Diff, cfg.Diff)
}

func TestFrameReader_ReadBatch(t *testing.T) {
	plane := textPlane()
	data := rawStream(plane, plane, plane, plane, plane)
	data = append(data, 1, 2, 3) // truncated trailing frame

	fr := newFrameReader(bytes.NewReader(data), streamWidth, streamHeight, 2)

	first, err := fr.ReadBatch(3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, uint64(0), first[0].FrameNumber)
	assert.Equal(t, int64(1000), first[2].TimestampMs)

	second, err := fr.ReadBatch(3)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, uint64(4), second[1].FrameNumber)
	assert.Equal(t, int64(1500), second[0].TimestampMs)

	_, err = fr.ReadBatch(3)
	assert.ErrorIs(t, err, io.EOF)
}

func TestKeyframeFileName(t *testing.T) {
	assert.Equal(t, "000012_6000ms.jpg",
		keyframeFileName(extractor.Keyframe{FrameNumber: 12, TimestampMs: 6000, Format: config.FormatJPEG}))
	assert.Equal(t, "000003_1500ms.png",
		keyframeFileName(extractor.Keyframe{FrameNumber: 3, TimestampMs: 1500, Format: config.FormatPNG}))
}

func TestRun_WritesKeyframes(t *testing.T) {
	cli := validCLI(t)
	blank := bytes.Repeat([]byte{255}, streamWidth*streamHeight)
	in := bytes.NewReader(rawStream(blank, textPlane(), textPlane(), textPlane(), textPlane(), textPlane()))

	stats, err := run(context.Background(), cli, config.Default(), in)
	require.NoError(t, err)

	assert.Equal(t, uint64(6), stats.ProcessedFrames)
	assert.Equal(t, uint64(1), stats.ExtractedFrames)

	entries, err := os.ReadDir(cli.outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "000002_1000ms.jpg", entries[0].Name())
}

func TestRun_Cancelled(t *testing.T) {
	cli := validCLI(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := run(ctx, cli, config.Default(), strings.NewReader(""))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.ProcessedFrames)
}

func TestRun_EmptyStream(t *testing.T) {
	cli := validCLI(t)

	stats, err := run(context.Background(), cli, config.Default(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, extractor.Stats{}, stats)
}

// failingCloser is a PNG encoder whose Close always fails.
type failingCloser struct {
	extractor.Encoder
}

func (e failingCloser) Close() error {
	return errors.New("flush failed")
}

func TestRun_LogsDisposeFailure(t *testing.T) {
	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	defer logrus.SetOutput(os.Stderr)

	cli := validCLI(t)
	enc := failingCloser{Encoder: extractor.NewPNGEncoder()}

	_, err := run(context.Background(), cli, config.Default(), strings.NewReader(""), extractor.WithEncoder(enc))
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Failed to dispose pipeline")
	assert.Contains(t, output, "flush failed")
	assert.Contains(t, output, "level=warning")
}
