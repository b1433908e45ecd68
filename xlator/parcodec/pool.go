package parcodec

import (
	"fmt"
	"runtime/debug"

	"github.com/zhengshuai-xiao/HuffPar/pkg/queue"
	"golang.org/x/sync/errgroup"
)

// Task is what workers pop from the input queue. A Stop task ends the worker that takes it;
// every other task carries one chunk.
type Task[In any] struct {
	Stop    bool
	ID      int
	Payload In
}

// Result is what workers push to the output queue. End is pushed once by the orchestrator
// after all workers are gone and never by a worker.
type Result[Out any] struct {
	End     bool
	ID      int
	Payload Out
	InSize  int64
	Err     error
}

type pool[In, Out any] struct {
	threads int
	process func(In) (Out, error)
	inSize  func(In) int64
	outSize func(Out) int64
	events  notifier

	input  *queue.Queue[Task[In]]
	output *queue.Queue[Result[Out]]
}

func newPool[In, Out any](threads int, process func(In) (Out, error)) *pool[In, Out] {
	return &pool[In, Out]{
		threads: threads,
		process: process,
		input:   queue.New[Task[In]](),
		output:  queue.New[Result[Out]](),
	}
}

// start launches the workers on g. Each one returns when it pops a Stop task.
func (p *pool[In, Out]) start(g *errgroup.Group, done func()) {
	for i := 0; i < p.threads; i++ {
		worker := i
		g.Go(func() error {
			if done != nil {
				defer done()
			}
			return p.work(worker)
		})
	}
}

// stop queues one Stop task per worker, behind any chunk already queued.
func (p *pool[In, Out]) stop() {
	for i := 0; i < p.threads; i++ {
		p.input.Push(Task[In]{Stop: true})
	}
}

// close drops any tasks and results left behind by a failed run. Every producer must have
// returned before it is called.
func (p *pool[In, Out]) close() {
	p.input.Discard()
	p.output.Discard()
}

func (p *pool[In, Out]) work(worker int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("worker %d died: %v\n%s", worker, r, debug.Stack())
			err = fmt.Errorf("%w: worker %d: %v", ErrThreadPoolFailure, worker, r)
		}
	}()

	for {
		t := p.input.Pop()
		if t.Stop {
			logger.Tracef("worker %d stopped", worker)
			return nil
		}
		out, perr := p.run(t.Payload)
		res := Result[Out]{ID: t.ID, Payload: out, Err: perr}
		if p.inSize != nil {
			res.InSize = p.inSize(t.Payload)
		}
		if perr != nil {
			logger.Warnf("worker %d: chunk %d failed: %v", worker, t.ID, perr)
		} else {
			var outSize int64
			if p.outSize != nil {
				outSize = p.outSize(out)
			}
			p.events.notify(EvtChunkDone, t.ID, res.InSize, outSize)
		}
		p.output.Push(res)
	}
}

// run applies process to one payload and turns a panic inside it into an error for that chunk.
func (p *pool[In, Out]) run(payload In) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while coding chunk: %v", r)
		}
	}()
	return p.process(payload)
}
