package compress

import (
	"bytes"
	"compress/gzip"
	"io"
)

// GzipLevel represents gzip compression levels.
type GzipLevel int

const (
	// GzipNoCompression provides no compression.
	GzipNoCompression GzipLevel = gzip.NoCompression
	// GzipBestSpeed provides fastest compression.
	GzipBestSpeed GzipLevel = gzip.BestSpeed
	// GzipBestCompression provides best compression ratio.
	GzipBestCompression GzipLevel = gzip.BestCompression
	// GzipDefaultCompression provides a balance of speed and compression.
	GzipDefaultCompression GzipLevel = gzip.DefaultCompression
)

type gzipCodec struct {
	level int
}

// Gzip returns a gzip codec with the default compression level.
func Gzip() Codec {
	return GzipLevelCodec(GzipDefaultCompression)
}

// GzipLevelCodec returns a gzip codec with the specified level.
func GzipLevelCodec(level GzipLevel) Codec {
	return &gzipCodec{level: int(level)}
}

func (c *gzipCodec) Name() string { return "gzip" }

func (c *gzipCodec) Encode(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(content); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *gzipCodec) Decode(compressed []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer func() { _ = gr.Close() }()
	return io.ReadAll(gr)
}
