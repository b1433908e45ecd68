package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"github.com/zhengshuai-xiao/HuffPar/internal/compression"
	"github.com/zhengshuai-xiao/HuffPar/pkg/storage"
	"github.com/zhengshuai-xiao/HuffPar/xlator/parcodec"
	"golang.org/x/sync/errgroup"
)

func cmdCompare() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Action:    compare,
		Category:  "INSPECTOR",
		Usage:     "Compare per-chunk Huffman with other codecs on the same file",
		ArgsUsage: "FILE",
		Description: `
Cuts FILE into the same fixed-size chunks compress would use and runs every codec over
each chunk independently, so the numbers are comparable with huffpar's own output.

Examples:
$ huffpar compare --chunk-size 256KB big.log
$ huffpar compare --codecs huffman,zstd data.bin`,
		Flags: expandFlags([]cli.Flag{
			&cli.StringFlag{
				Name:  "codecs",
				Value: strings.Join(compression.Names(), ","),
				Usage: "comma separated codecs to compare",
			},
			&cli.StringFlag{
				Name:    "chunk-size",
				Aliases: []string{"c"},
				Value:   "1MB",
				Usage:   "bytes per chunk",
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"t"},
				Value:   4,
				Usage:   "codecs measured at the same time",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "decompress every chunk and compare it with the input",
			},
		}, storageFlags()),
	}
}

type codecResult struct {
	name       string
	compressed int64
	elapsed    time.Duration
}

func compare(c *cli.Context) error {
	if err := checkArgs(c, 1); err != nil {
		return err
	}
	chunkSize, err := parcodec.ParseChunkSize(c.String("chunk-size"))
	if err != nil {
		return err
	}
	var compressors []compression.Compressor
	for _, name := range strings.Split(c.String("codecs"), ",") {
		comp, err := compression.GetCompressorViaString(strings.TrimSpace(name))
		if err != nil {
			return fmt.Errorf("codec %q: %w", name, err)
		}
		if comp != nil {
			compressors = append(compressors, comp)
		}
	}

	loc, err := storage.ParseLocation(c.Args().Get(0))
	if err != nil {
		return err
	}
	stager, err := newStager(c, loc)
	if err != nil {
		return err
	}
	defer stager.Cleanup()
	path, err := stager.Input(c.Context, loc)
	if err != nil {
		return err
	}
	chunks, total, err := readChunks(path, chunkSize)
	if err != nil {
		return err
	}

	results, err := measureCodecs(compressors, chunks, c.Int("threads"), c.Bool("verify"))
	if err != nil {
		return err
	}
	printComparison(c.App.Writer, loc.String(), total, len(chunks), results)
	return nil
}

func readChunks(path string, chunkSize int) ([][]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	chunker, err := (&parcodec.FixedSplitter{ChunkSize: chunkSize}).NewChunker(bufio.NewReader(f))
	if err != nil {
		return nil, 0, err
	}
	var chunks [][]byte
	var total int64
	for {
		chunk, err := chunker.Next()
		if err == io.EOF {
			return chunks, total, nil
		}
		if err != nil {
			return nil, 0, err
		}
		chunks = append(chunks, chunk.Data)
		total += int64(len(chunk.Data))
	}
}

func measureCodecs(compressors []compression.Compressor, chunks [][]byte, threads int, verify bool) ([]codecResult, error) {
	results := make([]codecResult, len(compressors))
	var g errgroup.Group
	if threads > 0 {
		g.SetLimit(threads)
	}
	for i, comp := range compressors {
		i, comp := i, comp
		g.Go(func() error {
			res := codecResult{name: comp.TypeString()}
			start := time.Now()
			for id, chunk := range chunks {
				out, err := comp.Compress(chunk)
				if err != nil {
					return fmt.Errorf("%s: chunk %d: %w", res.name, id, err)
				}
				res.compressed += int64(len(out))
				if !verify {
					continue
				}
				back, err := comp.Decompress(out)
				if err != nil {
					return fmt.Errorf("%s: chunk %d: %w", res.name, id, err)
				}
				if !bytes.Equal(back, chunk) {
					return fmt.Errorf("%s: chunk %d does not round trip", res.name, id)
				}
			}
			res.elapsed = time.Since(start)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(a, b int) bool { return results[a].compressed < results[b].compressed })
	return results, nil
}

func printComparison(w io.Writer, name string, total int64, chunks int, results []codecResult) {
	fmt.Fprintf(w, "%s: %s in %d chunks\n", name, humanize.IBytes(uint64(total)), chunks)
	fmt.Fprintf(w, "%-8s %14s %10s %12s\n", "CODEC", "COMPRESSED", "RATIO", "TIME")
	for _, r := range results {
		ratio := 0.0
		if total > 0 {
			ratio = float64(r.compressed) / float64(total) * 100
		}
		fmt.Fprintf(w, "%-8s %14s %9.2f%% %12s\n", r.name, humanize.IBytes(uint64(r.compressed)), ratio, r.elapsed.Round(time.Microsecond))
	}
}
