package sched

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
)

// Recorder consumes status events, logs them and keeps per-task dispatch
// counts. It can also mirror every event to a CSV file.
type Recorder struct {
	mu         sync.Mutex
	log        *slog.Logger
	dispatches *treemap.Map // TaskID -> int64
	idle       int64

	csvCloser io.Closer
	csvWriter *csv.Writer
}

// TaskTally is the number of times a task was dispatched.
type TaskTally struct {
	ID         TaskID
	Dispatches int64
}

// NewRecorder returns a recorder that logs through logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log:        logger,
		dispatches: treemap.NewWith(compareTaskID),
	}
}

// EnableCSVLogging opens the given file path for CSV logging of events.
// Must be called before Consume.
func (r *Recorder) EnableCSVLogging(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	r.csvCloser = f
	return r.EnableCSVWriter(f)
}

// EnableCSVWriter mirrors events as CSV records to w.
func (r *Recorder) EnableCSVWriter(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "event", "task_id", "index", "elapsed_ticks"}); err != nil {
		return err
	}
	cw.Flush()
	r.csvWriter = cw
	return cw.Error()
}

// Consume handles events until ch is closed.
func (r *Recorder) Consume(ch <-chan StatusEvent) {
	for ev := range ch {
		r.Handle(ev)
	}
}

// Handle records a single event.
func (r *Recorder) Handle(ev StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case StatusDispatch:
		var n int64
		if v, ok := r.dispatches.Get(ev.TaskID); ok {
			n = v.(int64)
		}
		r.dispatches.Put(ev.TaskID, n+1)
		r.log.Debug("dispatch", "task", ev.TaskID, "index", ev.Index, "elapsed_ticks", ev.ElapsedTicks)
	case StatusIdle:
		r.idle++
		r.log.Debug("idle", "cursor", ev.Index)
	default:
		r.log.Info(ev.Kind.String(), "task", ev.TaskID, "index", ev.Index)
	}

	if r.csvWriter != nil {
		rec := []string{
			ev.Time.Format(time.RFC3339Nano),
			ev.Kind.String(),
			strconv.FormatUint(uint64(ev.TaskID), 10),
			strconv.Itoa(ev.Index),
			strconv.FormatUint(ev.ElapsedTicks, 10),
		}
		if err := r.csvWriter.Write(rec); err != nil {
			r.log.Error("writing trace record", "err", err)
		}
		r.csvWriter.Flush()
	}
}

// Idle returns how many ticks found nothing runnable.
func (r *Recorder) Idle() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idle
}

// Summary returns dispatch counts ordered by task id.
func (r *Recorder) Summary() []TaskTally {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]TaskTally, 0, r.dispatches.Size())
	it := r.dispatches.Iterator()
	for it.Next() {
		out = append(out, TaskTally{ID: it.Key().(TaskID), Dispatches: it.Value().(int64)})
	}
	return out
}

// Close flushes and closes the CSV output, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.csvWriter != nil {
		r.csvWriter.Flush()
	}
	if r.csvCloser != nil {
		return r.csvCloser.Close()
	}
	return nil
}

func compareTaskID(a, b any) int {
	ka, kb := a.(TaskID), b.(TaskID)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}
