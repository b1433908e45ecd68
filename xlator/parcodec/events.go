package parcodec

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

type EventType int

const (
	EvtCompressionStart EventType = iota
	EvtDecompressionStart
	EvtChunkRead    // a chunk or record was taken from the input
	EvtChunkDone    // a worker finished coding a chunk
	EvtChunkWritten // a chunk reached the output
	EvtCompressionEnd
	EvtDecompressionEnd
)

var eventNames = map[EventType]string{
	EvtCompressionStart:   "COMPRESSION_START",
	EvtDecompressionStart: "DECOMPRESSION_START",
	EvtChunkRead:          "CHUNK_READ",
	EvtChunkDone:          "CHUNK_DONE",
	EvtChunkWritten:       "CHUNK_WRITTEN",
	EvtCompressionEnd:     "COMPRESSION_END",
	EvtDecompressionEnd:   "DECOMPRESSION_END",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EVENT_%d", int(t))
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event describes progress of a run. ID is the chunk id, or -1 for run-level events.
// InSize and OutSize are byte counts of the chunk before and after coding, when known.
type Event struct {
	Type    EventType `json:"type"`
	ID      int       `json:"id"`
	InSize  int64     `json:"in_size"`
	OutSize int64     `json:"out_size"`
	Time    time.Time `json:"time"`
}

func (e *Event) String() string {
	return fmt.Sprintf(`{ "type":"%s", "id":%d, "in":%d, "out":%d, "time":%d }`,
		e.Type, e.ID, e.InSize, e.OutSize, e.Time.UnixMilli())
}

// Listener receives events. ProcessEvent is called from worker goroutines as well as from
// the reading and writing side, so implementations must be safe for concurrent use.
type Listener interface {
	ProcessEvent(evt *Event)
}

type notifier []Listener

func (n notifier) notify(typ EventType, id int, in, out int64) {
	if len(n) == 0 {
		return
	}
	evt := &Event{Type: typ, ID: id, InSize: in, OutSize: out, Time: time.Now()}
	for _, l := range n {
		l.ProcessEvent(evt)
	}
}

// LogListener logs progress every time another tenth of the input has been written.
// Total is the input size in bytes; when it is unknown (0) only chunk counts are logged.
type LogListener struct {
	Total int64

	mu      sync.Mutex
	done    int64
	out     int64
	chunks  int
	step    int64
	started time.Time
}

func NewLogListener(total int64) *LogListener {
	return &LogListener{Total: total}
}

func (l *LogListener) ProcessEvent(evt *Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch evt.Type {
	case EvtCompressionStart, EvtDecompressionStart:
		l.started = evt.Time
		logger.Debugf("%s: %s input", evt.Type, humanize.IBytes(uint64(l.Total)))
	case EvtChunkWritten:
		l.chunks++
		l.done += evt.InSize
		l.out += evt.OutSize
		if l.Total <= 0 {
			logger.Debugf("chunk %d written, %d chunks so far", evt.ID, l.chunks)
			return
		}
		if step := l.done * 10 / l.Total; step > l.step {
			l.step = step
			logger.Infof("progress: %d%% (%s of %s)", l.done*100/l.Total,
				humanize.IBytes(uint64(l.done)), humanize.IBytes(uint64(l.Total)))
		}
	case EvtCompressionEnd, EvtDecompressionEnd:
		logger.Infof("%s: %d chunks, %s in, %s out, took %v", evt.Type, l.chunks,
			humanize.IBytes(uint64(l.done)), humanize.IBytes(uint64(l.out)), evt.Time.Sub(l.started))
	}
}
