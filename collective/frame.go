package collective

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	frameRaw byte = iota
	frameZstd
)

// Payloads below this size are sent uncompressed even when compression is on.
const compressThreshold = 1 << 10

const maxDecodedFrame = 1 << 34

var encoderPool, decoderPool sync.Pool

func getEncoder() (*zstd.Encoder, error) {
	if enc, ok := encoderPool.Get().(*zstd.Encoder); ok && enc != nil {
		return enc, nil
	}
	return zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(runtime.GOMAXPROCS(0)),
		zstd.WithEncoderLevel(zstd.SpeedFastest),
	)
}

func getDecoder() (*zstd.Decoder, error) {
	if dec, ok := decoderPool.Get().(*zstd.Decoder); ok && dec != nil {
		return dec, nil
	}
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxDecodedFrame),
	)
}

// encodeFrame prefixes payload with a one-byte header that says whether the
// rest is zstd compressed.
func encodeFrame(payload []byte, compress bool) ([]byte, error) {
	if !compress || len(payload) < compressThreshold {
		frame := make([]byte, 1, 1+len(payload))
		frame[0] = frameRaw
		return append(frame, payload...), nil
	}
	enc, err := getEncoder()
	if err != nil {
		return nil, err
	}
	defer encoderPool.Put(enc)
	return enc.EncodeAll(payload, []byte{frameZstd}), nil
}

func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("collective: empty frame")
	}
	switch frame[0] {
	case frameRaw:
		return frame[1:], nil
	case frameZstd:
		dec, err := getDecoder()
		if err != nil {
			return nil, err
		}
		defer decoderPool.Put(dec)
		return dec.DecodeAll(frame[1:], nil)
	}
	return nil, fmt.Errorf("collective: unknown frame header %v", frame[0])
}
