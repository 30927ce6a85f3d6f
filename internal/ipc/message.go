// Package ipc delivers fixed-size messages to per-task inboxes. Sends never
// block: a full inbox drops the message.
package ipc

import "ticksched/internal/sched"

// MaxPayload is the largest payload a message can carry.
const MaxPayload = 32

// Well-known task ids.
const (
	TTY sched.TaskID = 2
)

// Message kinds.
const (
	KindGetc uint16 = iota + 1 // one keyboard scan code for the tty
)

// Message is a fixed-size envelope.
type Message struct {
	Kind uint16
	Len  uint8
	Data [MaxPayload]byte
}

// NewMessage copies payload into a message, truncating it to MaxPayload.
func NewMessage(kind uint16, payload []byte) Message {
	if len(payload) > MaxPayload {
		payload = payload[:MaxPayload]
	}
	msg := Message{Kind: kind, Len: uint8(len(payload))}
	copy(msg.Data[:], payload)
	return msg
}

// Payload returns the used part of Data.
func (m *Message) Payload() []byte {
	n := int(m.Len)
	if n > MaxPayload {
		n = MaxPayload
	}
	return m.Data[:n]
}
