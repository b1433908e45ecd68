package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/zhengshuai-xiao/HuffPar/pkg/storage"
	"github.com/zhengshuai-xiao/HuffPar/xlator/parcodec"
)

func cmdCompress() *cli.Command {
	return &cli.Command{
		Name:      "compress",
		Aliases:   []string{"c"},
		Action:    compress,
		Category:  "CODEC",
		Usage:     "Compress a file chunk by chunk",
		ArgsUsage: "INPUT OUTPUT",
		Description: `
Splits INPUT into fixed-size chunks, Huffman-codes every chunk on its own table using
a pool of worker threads, and writes the records to OUTPUT in input order. INPUT and
OUTPUT may be local paths, file:// URLs or s3://bucket/key objects.

Examples:
$ huffpar compress --threads 8 --chunk-size 4MB big.log big.log.huf
$ huffpar compress -t 4 data.bin s3://archive/data.bin.huf`,
		Flags: expandFlags(codecFlags(), storageFlags()),
	}
}

func cmdDecompress() *cli.Command {
	return &cli.Command{
		Name:      "decompress",
		Aliases:   []string{"d"},
		Action:    decompress,
		Category:  "CODEC",
		Usage:     "Restore a file written by compress",
		ArgsUsage: "INPUT OUTPUT",
		Description: `
Reads the records of INPUT, decodes them in parallel and writes the original bytes to
OUTPUT. A malformed INPUT fails the command and leaves no OUTPUT behind.

Examples:
$ huffpar decompress big.log.huf big.log
$ huffpar decompress --max-in-flight 16 s3://archive/data.bin.huf data.bin`,
		Flags: expandFlags(codecFlags(), storageFlags()),
	}
}

func compress(c *cli.Context) error {
	return runCodec(c, "compress", parcodec.CompressFile)
}

func decompress(c *cli.Context) error {
	return runCodec(c, "decompress", parcodec.DecompressFile)
}

type fileCodec func(ctx context.Context, in, out string, opts parcodec.Options) (*parcodec.Stats, error)

func runCodec(c *cli.Context, what string, run fileCodec) error {
	if err := checkArgs(c, 2); err != nil {
		return err
	}
	opts, err := codecOptions(c)
	if err != nil {
		return err
	}
	inLoc, err := storage.ParseLocation(c.Args().Get(0))
	if err != nil {
		return err
	}
	outLoc, err := storage.ParseLocation(c.Args().Get(1))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stager, err := newStager(c, inLoc, outLoc)
	if err != nil {
		return err
	}
	defer stager.Cleanup()

	closeEvents, err := addEventListeners(c, &opts)
	if err != nil {
		return err
	}
	defer closeEvents()

	inPath, err := stager.Input(ctx, inLoc)
	if err != nil {
		return err
	}
	outPath, publish, err := stager.Output(outLoc)
	if err != nil {
		return err
	}

	logger.Debugf("%s %s -> %s with %d threads, chunk size %d, max in flight %d",
		what, inLoc, outLoc, opts.Threads, opts.ChunkSize, opts.MaxInFlight)
	stats, err := run(ctx, inPath, outPath, opts)
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, inLoc, err)
	}
	if err := publish(ctx); err != nil {
		return fmt.Errorf("failed to store %s: %w", outLoc, err)
	}

	if !c.Bool("quiet") {
		printStats(c.App.Writer, what, inLoc.String(), outLoc.String(), stats)
	}
	return nil
}

func codecOptions(c *cli.Context) (parcodec.Options, error) {
	opts := parcodec.DefaultOptions()
	opts.Threads = c.Int("threads")
	opts.MaxInFlight = c.Int("max-in-flight")
	size, err := parcodec.ParseChunkSize(c.String("chunk-size"))
	if err != nil {
		return opts, err
	}
	opts.ChunkSize = size
	return opts, opts.Validate()
}

func addEventListeners(c *cli.Context, opts *parcodec.Options) (func(), error) {
	closeFn := func() {}
	if c.Bool("progress") {
		opts.Listeners = append(opts.Listeners, parcodec.NewLogListener(0))
	}
	if addr := c.String("events-redis"); addr != "" {
		rl, err := parcodec.NewRedisListener(addr, c.String("events-channel"), runID())
		if err != nil {
			return closeFn, err
		}
		opts.Listeners = append(opts.Listeners, rl)
		closeFn = func() {
			if err := rl.Close(); err != nil {
				logger.Warnf("failed to close redis event publisher: %v", err)
			}
		}
	}
	return closeFn, nil
}

// newStager only builds an S3 client when one of the locations needs it.
func newStager(c *cli.Context, locs ...storage.Location) (*storage.Stager, error) {
	var s3 storage.Backend
	for _, loc := range locs {
		if loc.Scheme != storage.SchemeS3 {
			continue
		}
		b, err := storage.NewS3Backend(storage.S3Config{
			Endpoint:  c.String("s3-endpoint"),
			AccessKey: c.String("s3-access-key"),
			SecretKey: c.String("s3-secret-key"),
			UseSSL:    c.Bool("s3-ssl"),
		})
		if err != nil {
			return nil, err
		}
		s3 = b
		break
	}
	return storage.NewStager(c.String("tmp-dir"), s3), nil
}
