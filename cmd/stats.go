package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zhengshuai-xiao/HuffPar/xlator/parcodec"
)

func printStats(w io.Writer, what, in, out string, s *parcodec.Stats) {
	fmt.Fprintf(w, "%s finished:\n", what)
	fmt.Fprintf(w, "  Input:       %s (%s)\n", in, humanize.IBytes(uint64(s.InputBytes)))
	fmt.Fprintf(w, "  Output:      %s (%s)\n", out, humanize.IBytes(uint64(s.OutputBytes)))
	fmt.Fprintf(w, "  Ratio:       %.2f%%\n", s.Ratio()*100)
	fmt.Fprintf(w, "  Chunks:      %s of up to %s\n", humanize.Comma(int64(s.Chunks)), humanize.IBytes(uint64(s.ChunkSize)))
	fmt.Fprintf(w, "  Threads:     %d\n", s.Threads)
	fmt.Fprintf(w, "  Time taken:  %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Throughput:  %s/s\n", humanize.IBytes(throughput(s.InputBytes, s.Elapsed)))
}

func throughput(n int64, d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(float64(n) / d.Seconds())
}
