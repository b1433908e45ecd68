package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"github.com/zhengshuai-xiao/HuffPar/pkg/huffman"
	"github.com/zhengshuai-xiao/HuffPar/pkg/storage"
)

func cmdInspect() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Action:    inspect,
		Category:  "INSPECTOR",
		Usage:     "List the records of a compressed file",
		ArgsUsage: "FILE",
		Description: `
Prints one line per record: its index, the number of code table entries, the original
and packed lengths and the record size on disk. Nothing is decoded unless --verify is set.

Examples:
$ huffpar inspect big.log.huf
$ huffpar inspect --codes --verify s3://archive/data.bin.huf`,
		Flags: expandFlags([]cli.Flag{
			&cli.BoolFlag{
				Name:  "codes",
				Usage: "print the code table of every record",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "decode every record to check it is well formed",
			},
		}, storageFlags()),
	}
}

func inspect(c *cli.Context) error {
	if err := checkArgs(c, 1); err != nil {
		return err
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

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return listRecords(c.App.Writer, bufio.NewReader(f), c.Bool("codes"), c.Bool("verify"))
}

func listRecords(w io.Writer, r io.Reader, codes, verify bool) error {
	fmt.Fprintf(w, "%8s %8s %14s %14s %14s\n", "RECORD", "ENTRIES", "ORIGINAL", "PACKED", "ON DISK")
	var records int
	var original, onDisk int64
	for {
		rec, err := huffman.ReadRecord(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", records, err)
		}
		if verify {
			if _, err := rec.Decode(); err != nil {
				return fmt.Errorf("record %d: %w", records, err)
			}
		}
		size := huffman.RecordSize(rec)
		fmt.Fprintf(w, "%8d %8d %14d %14d %14d\n", records, len(rec.Table), rec.Length, len(rec.Packed), size)
		if codes {
			for _, s := range rec.Table.Symbols() {
				fmt.Fprintf(w, "%17s 0x%02x %s\n", "", s, rec.Table[s])
			}
		}
		records++
		original += int64(rec.Length)
		onDisk += size
	}
	fmt.Fprintln(w, strings.Repeat("-", 62))
	fmt.Fprintf(w, "%d records, %s original, %s compressed\n", records,
		humanize.IBytes(uint64(original)), humanize.IBytes(uint64(onDisk)))
	return nil
}
