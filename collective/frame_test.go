package collective

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrames(t *testing.T) {
	small := []byte("small")
	large := bytes.Repeat([]byte("selected inversion "), 1000)
	tests := []struct {
		name     string
		payload  []byte
		compress bool
		header   byte
	}{
		{"empty", nil, true, frameRaw},
		{"small compressed", small, true, frameRaw},
		{"large raw", large, false, frameRaw},
		{"large compressed", large, true, frameZstd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := encodeFrame(tt.payload, tt.compress)
			require.NoError(t, err)
			assert.Equal(t, tt.header, frame[0])
			if tt.header == frameZstd {
				assert.Less(t, len(frame), len(tt.payload))
			}
			got, err := decodeFrame(frame)
			require.NoError(t, err)
			assert.Equal(t, len(tt.payload), len(got))
			assert.True(t, bytes.Equal(tt.payload, got))
		})
	}

	_, err := decodeFrame(nil)
	assert.Error(t, err)
	_, err = decodeFrame([]byte{9, 1})
	assert.Error(t, err)
}
