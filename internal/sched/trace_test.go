package sched

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"testing"
)

func TestRecorderTalliesAndCSV(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := r.EnableCSVWriter(&buf); err != nil {
		t.Fatalf("EnableCSVWriter() error = %v", err)
	}

	events := make(chan StatusEvent, 8)
	events <- StatusEvent{Kind: StatusCreate, TaskID: 5}
	events <- StatusEvent{Kind: StatusDispatch, TaskID: 5, Index: 1}
	events <- StatusEvent{Kind: StatusDispatch, TaskID: 2, Index: 0}
	events <- StatusEvent{Kind: StatusDispatch, TaskID: 5, Index: 1}
	events <- StatusEvent{Kind: StatusIdle}
	close(events)
	r.Consume(events)

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := r.Idle(); got != 1 {
		t.Errorf("Idle() = %d, want 1", got)
	}

	sum := r.Summary()
	if len(sum) != 2 || sum[0] != (TaskTally{ID: 2, Dispatches: 1}) || sum[1] != (TaskTally{ID: 5, Dispatches: 2}) {
		t.Errorf("Summary() = %+v", sum)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("csv has %d records, want 6 (header + 5)", len(records))
	}
	if records[2][1] != "Dispatch" || records[2][2] != "5" || records[2][3] != "1" {
		t.Errorf("dispatch record = %v", records[2])
	}
}
