package extractor

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/keyframe/config"
)

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.EncodeConfig
		wantFormat string
		expectErr  bool
	}{
		{"jpeg", config.EncodeConfig{Format: config.FormatJPEG, Quality: 70}, config.FormatJPEG, false},
		{"png", config.EncodeConfig{Format: config.FormatPNG}, config.FormatPNG, false},
		{"jpeg bad quality", config.EncodeConfig{Format: config.FormatJPEG, Quality: 101}, "", true},
		{"unknown", config.EncodeConfig{Format: "gif"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncoder(tt.cfg)
			if tt.expectErr {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, enc.Format())
			assert.NoError(t, enc.Close())
		})
	}
}

func TestJPEGEncoder_QualityAffectsSize(t *testing.T) {
	low, err := NewJPEGEncoder(10)
	require.NoError(t, err)
	high, err := NewJPEGEncoder(95)
	require.NoError(t, err)
	assert.Equal(t, 10, low.Quality())

	small, err := low.Encode(testWidth, testHeight, stepThree)
	require.NoError(t, err)
	large, err := high.Encode(testWidth, testHeight, stepThree)
	require.NoError(t, err)

	assert.Less(t, len(small), len(large))
}

func TestJPEGEncoder_OutputIsOwnedByCaller(t *testing.T) {
	enc, err := NewJPEGEncoder(70)
	require.NoError(t, err)

	first, err := enc.Encode(testWidth, testHeight, stepOne)
	require.NoError(t, err)
	snapshot := bytes.Clone(first)

	_, err = enc.Encode(testWidth, testHeight, stepTwo)
	require.NoError(t, err)

	assert.Equal(t, snapshot, first, "later encodes must not overwrite earlier output")
}

func TestJPEGEncoder_RoundTrip(t *testing.T) {
	enc, err := NewJPEGEncoder(90)
	require.NoError(t, err)

	data, err := enc.Encode(testWidth, testHeight, blankLuma(128))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, _, _, _ := img.At(10, 10).RGBA()
	assert.InDelta(t, 128, r>>8, 2)
}

func TestEncoders_RejectBadInput(t *testing.T) {
	jpegEnc, err := NewJPEGEncoder(70)
	require.NoError(t, err)

	for _, enc := range []Encoder{jpegEnc, NewPNGEncoder()} {
		_, err := enc.Encode(4, 4, make([]byte, 15))
		assert.Error(t, err, enc.Format())

		_, err = enc.Encode(0, 4, nil)
		assert.Error(t, err, enc.Format())
	}
}

func TestEncoders_UsableAfterClose(t *testing.T) {
	jpegEnc, err := NewJPEGEncoder(70)
	require.NoError(t, err)

	for _, enc := range []Encoder{jpegEnc, NewPNGEncoder()} {
		require.NoError(t, enc.Close())
		data, err := enc.Encode(testWidth, testHeight, stepOne)
		require.NoError(t, err, enc.Format())
		assert.NotEmpty(t, data)
	}
}
