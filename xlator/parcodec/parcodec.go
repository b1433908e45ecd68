// Package parcodec splits a stream into chunks, Huffman-codes them on a pool of workers
// and writes the results back in input order.
package parcodec

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/zhengshuai-xiao/HuffPar/internal"
	"github.com/zhengshuai-xiao/HuffPar/pkg/huffman"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var logger = internal.GetLogger("parcodec")

// Stats summarises a finished run.
type Stats struct {
	Chunks      int
	InputBytes  int64
	OutputBytes int64
	Threads     int
	ChunkSize   int
	Elapsed     time.Duration
}

// Ratio is output size over input size, 0 for an empty input.
func (s *Stats) Ratio() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.OutputBytes) / float64(s.InputBytes)
}

// pipeline wires a chunk source, a per-chunk coder and an ordered sink to the worker pool.
type pipeline[In, Out any] struct {
	opts    Options
	events  notifier
	source  func() (In, error)
	process func(In) (Out, error)
	inSize  func(In) int64
	outSize func(Out) int64
	sink    func(Out) (int64, error)

	stats Stats
}

// RunCompress reads r in chunks of opts.ChunkSize and writes one record per chunk to w.
// An empty input produces an empty output.
func RunCompress(ctx context.Context, r io.Reader, w io.Writer, opts Options) (*Stats, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	splitter := &FixedSplitter{ChunkSize: opts.ChunkSize}
	chunker, err := splitter.NewChunker(r)
	if err != nil {
		return nil, err
	}

	p := &pipeline[[]byte, *huffman.EncodedChunk]{
		opts:   opts,
		events: notifier(opts.Listeners),
		source: func() ([]byte, error) {
			c, err := chunker.Next()
			return c.Data, err
		},
		process: huffman.EncodeChunk,
		inSize:  func(b []byte) int64 { return int64(len(b)) },
		outSize: huffman.RecordSize,
		sink: func(c *huffman.EncodedChunk) (int64, error) {
			return huffman.WriteRecord(w, c)
		},
	}
	return p.execute(ctx, EvtCompressionStart, EvtCompressionEnd)
}

// RunDecompress reads records from r and writes the decoded bytes to w in record order.
// A malformed record fails the run with huffman.ErrMalformedRecord; in the default mode
// nothing has been written to w at that point.
func RunDecompress(ctx context.Context, r io.Reader, w io.Writer, opts Options) (*Stats, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rr := &recordReader{r: r}

	p := &pipeline[*huffman.EncodedChunk, []byte]{
		opts:    opts,
		events:  notifier(opts.Listeners),
		source:  rr.Next,
		process: (*huffman.EncodedChunk).Decode,
		inSize:  huffman.RecordSize,
		outSize: func(b []byte) int64 { return int64(len(b)) },
		sink: func(b []byte) (int64, error) {
			n, err := internal.WriteAll(w, b)
			return int64(n), err
		},
	}
	return p.execute(ctx, EvtDecompressionStart, EvtDecompressionEnd)
}

func (p *pipeline[In, Out]) execute(ctx context.Context, startEvt, endEvt EventType) (*Stats, error) {
	p.stats = Stats{Threads: p.opts.Threads, ChunkSize: p.opts.ChunkSize}
	start := time.Now()
	p.events.notify(startEvt, -1, 0, 0)

	var err error
	if p.opts.MaxInFlight > 0 {
		err = p.runBounded(ctx)
	} else {
		err = p.runAll(ctx)
	}
	p.stats.Elapsed = time.Since(start)
	if err != nil {
		return nil, err
	}
	p.events.notify(endEvt, -1, p.stats.InputBytes, p.stats.OutputBytes)
	logger.Debugf("%s: %d chunks, %d -> %d bytes with %d threads in %v", endEvt, p.stats.Chunks,
		p.stats.InputBytes, p.stats.OutputBytes, p.stats.Threads, p.stats.Elapsed)
	return &p.stats, nil
}

func (p *pipeline[In, Out]) newPool() *pool[In, Out] {
	wp := newPool(p.opts.Threads, p.process)
	wp.inSize = p.inSize
	wp.outSize = p.outSize
	wp.events = p.events
	return wp
}

// read pulls the next item from the source, logging and counting it.
func (p *pipeline[In, Out]) read(id int) (In, error) {
	item, err := p.source()
	if err != nil {
		return item, err
	}
	size := p.inSize(item)
	p.stats.Chunks++
	p.stats.InputBytes += size
	p.events.notify(EvtChunkRead, id, size, 0)
	return item, nil
}

func (p *pipeline[In, Out]) write(r Result[Out]) error {
	n, err := p.sink(r.Payload)
	p.stats.OutputBytes += n
	if err != nil {
		return fmt.Errorf("failed to write chunk %d: %w", r.ID, err)
	}
	p.events.notify(EvtChunkWritten, r.ID, r.InSize, n)
	return nil
}

// runAll dispatches the whole input, waits for every worker to stop and only then writes
// the results in id order. A failing chunk means nothing is written at all.
func (p *pipeline[In, Out]) runAll(ctx context.Context) error {
	wp := p.newPool()
	defer wp.close()

	var workers errgroup.Group
	wp.start(&workers, nil)

	var readErr error
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}
		item, err := p.read(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = err
			break
		}
		wp.input.Push(Task[In]{ID: n, Payload: item})
		n++
	}
	wp.stop()

	if err := workers.Wait(); err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}

	results := make([]Result[Out], n)
	got := make([]bool, n)
	for !wp.output.IsEmpty() {
		r := wp.output.Pop()
		results[r.ID] = r
		got[r.ID] = true
	}
	for id := range results {
		if !got[id] {
			return fmt.Errorf("%w: no result for chunk %d", ErrThreadPoolFailure, id)
		}
		if results[id].Err != nil {
			return &ChunkError{ID: id, Err: results[id].Err}
		}
	}
	for _, r := range results {
		if err := p.write(r); err != nil {
			return err
		}
	}
	return nil
}

// runBounded keeps at most MaxInFlight chunks between reading and writing. A collector
// writes results as soon as the next id in order is available, so output starts before
// the input is fully read.
func (p *pipeline[In, Out]) runBounded(ctx context.Context) error {
	wp := p.newPool()
	defer wp.close()

	sem := semaphore.NewWeighted(int64(p.opts.MaxInFlight))
	g, gctx := errgroup.WithContext(ctx)

	var alive sync.WaitGroup
	alive.Add(p.opts.Threads)
	wp.start(g, alive.Done)

	g.Go(func() error {
		pending := make(map[int]Result[Out])
		next := 0
		for {
			r, err := wp.output.PopContext(gctx)
			if err != nil {
				return err
			}
			if r.End {
				if len(pending) > 0 {
					return fmt.Errorf("%w: %d chunks left unwritten", ErrThreadPoolFailure, len(pending))
				}
				return nil
			}
			if r.Err != nil {
				return &ChunkError{ID: r.ID, Err: r.Err}
			}
			pending[r.ID] = r
			for {
				ready, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := p.write(ready); err != nil {
					return err
				}
				sem.Release(1)
				next++
			}
		}
	})

	g.Go(func() error {
		var readErr error
		for n := 0; ; n++ {
			if err := sem.Acquire(gctx, 1); err != nil {
				readErr = err
				break
			}
			item, err := p.read(n)
			if err == io.EOF {
				sem.Release(1)
				break
			}
			if err != nil {
				readErr = err
				break
			}
			wp.input.Push(Task[In]{ID: n, Payload: item})
		}
		wp.stop()
		alive.Wait()
		wp.output.Push(Result[Out]{End: true})
		return readErr
	})

	return g.Wait()
}
