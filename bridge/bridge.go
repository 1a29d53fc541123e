// Package bridge is the one-directional state synchronizer between the
// interactive and offscreen surfaces. Each message kind travels through its
// own latest-wins mailbox: sends never block, an undrained value is replaced
// rather than queued, and delivery is at-most-once. The periodic resend of
// audio snapshots (every tick) and settings (on change) self-heals any drop
// within one tick.
package bridge

import (
	"github.com/pthm-cable/comet/audio"
	"github.com/pthm-cable/comet/settings"
)

// Mailbox is a single-slot conflating channel: Put replaces any unconsumed
// value, Take drains the latest if present. Safe for one producer and one
// consumer on different goroutines; also fine when both run on the same loop.
type Mailbox[T any] struct {
	ch chan T
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, 1)}
}

// Put stores v, replacing an unconsumed previous value. Never blocks.
func (m *Mailbox[T]) Put(v T) {
	for {
		select {
		case m.ch <- v:
			return
		default:
		}
		// Slot full: discard the stale value and retry.
		select {
		case <-m.ch:
		default:
		}
	}
}

// Take returns the latest value if one is pending.
func (m *Mailbox[T]) Take() (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Bridge carries the four synchronized state kinds. Kinds are independent:
// there is no cross-kind ordering guarantee, which is safe because each kind
// targets disjoint simulation fields on the receiving surface.
type Bridge struct {
	Settings *Mailbox[settings.Snapshot]
	Audio    *Mailbox[audio.Bands]
	Scene    *Mailbox[string]
	Elapsed  *Mailbox[float64]
}

// New creates a bridge with empty mailboxes.
func New() *Bridge {
	return &Bridge{
		Settings: NewMailbox[settings.Snapshot](),
		Audio:    NewMailbox[audio.Bands](),
		Scene:    NewMailbox[string](),
		Elapsed:  NewMailbox[float64](),
	}
}
