package ipc

import (
	"errors"
	"testing"

	"ticksched/internal/hal"
	"ticksched/internal/sched"
)

func TestNewMessageTruncates(t *testing.T) {
	long := make([]byte, MaxPayload+10)
	for i := range long {
		long[i] = byte(i)
	}
	msg := NewMessage(KindGetc, long)
	if msg.Len != MaxPayload {
		t.Fatalf("Len = %d, want %d", msg.Len, MaxPayload)
	}
	if got := msg.Payload(); len(got) != MaxPayload || got[MaxPayload-1] != MaxPayload-1 {
		t.Fatalf("Payload() = %v", got)
	}
}

func TestTrySendNoInbox(t *testing.T) {
	r := NewRouter(2, nil, nil)
	if err := r.TrySend(TTY, NewMessage(KindGetc, []byte{1})); !errors.Is(err, ErrNoInbox) {
		t.Fatalf("TrySend() error = %v, want ErrNoInbox", err)
	}
}

func TestTrySendFullDropsWithoutBlocking(t *testing.T) {
	r := NewRouter(2, nil, nil)
	r.Open(TTY)

	for i := byte(1); i <= 2; i++ {
		if err := r.TrySend(TTY, NewMessage(KindGetc, []byte{i})); err != nil {
			t.Fatalf("TrySend(%d) error = %v", i, err)
		}
	}
	if err := r.TrySend(TTY, NewMessage(KindGetc, []byte{3})); !errors.Is(err, ErrInboxFull) {
		t.Fatalf("TrySend() on full inbox error = %v, want ErrInboxFull", err)
	}
	r.Send(TTY, NewMessage(KindGetc, []byte{4}))
	if r.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", r.Dropped())
	}

	// oldest messages survive, in order
	for want := byte(1); want <= 2; want++ {
		msg, ok := r.Recv(TTY)
		if !ok || msg.Data[0] != want {
			t.Fatalf("Recv() = %+v, %v, want payload %d", msg, ok, want)
		}
	}
	if _, ok := r.Recv(TTY); ok {
		t.Fatal("Recv() on empty inbox ok = true")
	}
}

func TestRouterMaintainsPendingCount(t *testing.T) {
	s := sched.New(hal.NewMachine())
	if err := s.Create(TTY, 0x1000); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	r := NewRouter(4, s, nil)
	r.Open(TTY)

	r.Send(TTY, NewMessage(KindGetc, []byte{'a'}))
	r.Send(TTY, NewMessage(KindGetc, []byte{'b'}))

	index, _ := s.FindIndex(TTY)
	if got := s.GetByIndex(index).PendingMessages; got != 2 {
		t.Fatalf("PendingMessages = %d, want 2", got)
	}

	if _, ok := r.Recv(TTY); !ok {
		t.Fatal("Recv() ok = false")
	}
	if got := s.GetByIndex(index).PendingMessages; got != 1 {
		t.Fatalf("PendingMessages after Recv = %d, want 1", got)
	}
}
