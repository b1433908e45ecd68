package compression

import (
	"bytes"
	"compress/zlib"
	"io"
	"sync"
)

// ZlibCompressor codes buffers as zlib streams. Writers are pooled because compare runs one
// compressor across many goroutines.
type ZlibCompressor struct {
	level   int
	writers sync.Pool
}

func NewZlib() *ZlibCompressor {
	c, _ := NewZlibLevel(zlib.DefaultCompression)
	return c
}

// NewZlibLevel fails for levels compress/zlib does not accept.
func NewZlibLevel(level int) (*ZlibCompressor, error) {
	if _, err := zlib.NewWriterLevel(io.Discard, level); err != nil {
		return nil, err
	}
	return &ZlibCompressor{level: level}, nil
}

func (c *ZlibCompressor) Type() CompressionType {
	return Compress_zlib
}

func (c *ZlibCompressor) TypeString() string {
	return "zlib"
}

func (c *ZlibCompressor) Compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w, _ := c.writers.Get().(*zlib.Writer)
	if w == nil {
		var err error
		if w, err = zlib.NewWriterLevel(&b, c.level); err != nil {
			return nil, err
		}
	} else {
		w.Reset(&b)
	}
	defer c.writers.Put(w)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (c *ZlibCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
