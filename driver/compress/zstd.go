package compress

import (
	"github.com/klauspost/compress/zstd"
)

// ZstdLevel represents zstd compression levels.
type ZstdLevel int

const (
	// ZstdSpeedFastest provides the fastest compression speed.
	ZstdSpeedFastest ZstdLevel = iota + 1

	// ZstdSpeedDefault provides a good balance of speed and compression.
	// This is the recommended level for most use cases.
	ZstdSpeedDefault

	// ZstdSpeedBetterCompression provides better compression at slower speed.
	ZstdSpeedBetterCompression

	// ZstdSpeedBestCompression provides the best compression ratio.
	// Significantly slower than other levels.
	ZstdSpeedBestCompression
)

// toZstdLevel converts our level to the zstd library's level.
func (l ZstdLevel) toZstdLevel() zstd.EncoderLevel {
	switch l {
	case ZstdSpeedFastest:
		return zstd.SpeedFastest
	case ZstdSpeedDefault:
		return zstd.SpeedDefault
	case ZstdSpeedBetterCompression:
		return zstd.SpeedBetterCompression
	case ZstdSpeedBestCompression:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

type zstdCodec struct {
	level zstd.EncoderLevel
}

// Zstd returns a Zstandard codec with the default compression level.
//
// Zstandard offers better compression ratios than gzip at similar
// speeds, and significantly faster decompression.
func Zstd() Codec {
	return ZstdLevelCodec(ZstdSpeedDefault)
}

// ZstdLevelCodec returns a Zstandard codec with the specified level.
func ZstdLevelCodec(level ZstdLevel) Codec {
	return &zstdCodec{level: level.toZstdLevel()}
}

func (c *zstdCodec) Name() string { return "zstd" }

func (c *zstdCodec) Encode(content []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(c.level))
	if err != nil {
		return nil, err
	}
	compressed := enc.EncodeAll(content, nil)
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return compressed, nil
}

func (c *zstdCodec) Decode(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, nil)
}
