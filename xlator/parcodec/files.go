package parcodec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/zhengshuai-xiao/HuffPar/internal"
)

const fileBufferSize = 1 << 20

type runFunc func(ctx context.Context, r io.Reader, w io.Writer, opts Options) (*Stats, error)

// CompressFile compresses the file at in into out. out only appears once the run succeeded.
func CompressFile(ctx context.Context, in, out string, opts Options) (*Stats, error) {
	return processFile(ctx, in, out, opts, RunCompress)
}

// DecompressFile decompresses the file at in into out. A malformed input leaves no out file.
func DecompressFile(ctx context.Context, in, out string, opts Options) (*Stats, error) {
	return processFile(ctx, in, out, opts, RunDecompress)
}

func processFile(ctx context.Context, in, out string, opts Options, run runFunc) (*Stats, error) {
	inPath, err := internal.NormalizePath(in)
	if err != nil {
		return nil, err
	}
	outPath, err := internal.NormalizePath(out)
	if err != nil {
		return nil, err
	}
	fi, err := internal.CheckInputFile(inPath)
	if err != nil {
		return nil, err
	}
	if inPath == outPath || internal.SameFile(inPath, outPath) {
		return nil, fmt.Errorf("%s: %w", inPath, internal.ErrSameInOutput)
	}
	for _, l := range opts.Listeners {
		if ll, ok := l.(*LogListener); ok && ll.Total == 0 {
			ll.Total = fi.Size()
		}
	}

	src, err := os.Open(inPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := internal.CreateAtomic(outPath)
	if err != nil {
		return nil, err
	}
	defer dst.Abort()

	bw := bufio.NewWriterSize(dst, fileBufferSize)
	stats, err := run(ctx, bufio.NewReaderSize(src, fileBufferSize), bw, opts)
	if err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := dst.Commit(); err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"chunks": stats.Chunks,
		"in":     stats.InputBytes,
		"out":    stats.OutputBytes,
		"took":   stats.Elapsed,
	}).Infof("%s -> %s", inPath, outPath)
	return stats, nil
}
