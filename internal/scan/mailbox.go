// Package scan implements the relay between barcode/RFID kiosk
// hardware and the admin UI. A kiosk posts a scanned value; the UI
// polls and consumes it. The relay is a single time-stamped slot
// guarded by a mutex: a new scan overwrites the previous one, a read
// consumes the slot, and values expire after a short TTL.
package scan

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Value is what the mailbox hands back on a successful read.
type Value struct {
	Value     string    `json:"value"`      // scanned ISBN or RFID tag
	Token     string    `json:"token"`      // unique id of this scan
	ScannedAt time.Time `json:"scanned_at"` // when the kiosk posted it
}

// Mailbox is the single-slot store. The zero value is not usable;
// construct with NewMailbox.
type Mailbox struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time // injectable clock for tests
	value   string
	token   string
	setAt   time.Time
	present bool
}

// NewMailbox returns a mailbox whose entries expire after ttl.
func NewMailbox(ttl time.Duration) *Mailbox {
	return &Mailbox{ttl: ttl, now: time.Now}
}

// Put stores a scanned value, overwriting whatever was in the slot,
// and returns the token identifying this scan. Concurrent kiosks
// overwrite each other; the last write wins.
func (m *Mailbox) Put(value string) Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.token = uuid.NewString()
	m.setAt = m.now()
	m.present = true
	return Value{Value: m.value, Token: m.token, ScannedAt: m.setAt}
}

// Consume returns the slot's value and empties the slot. The second
// return is false when the slot is empty or the value has expired;
// an expired value is cleared as a side effect.
func (m *Mailbox) Consume() (Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return Value{}, false
	}
	if m.now().Sub(m.setAt) > m.ttl {
		m.clearLocked()
		return Value{}, false
	}
	v := Value{Value: m.value, Token: m.token, ScannedAt: m.setAt}
	m.clearLocked()
	return v, true
}

// Peek reports whether a live value is waiting without consuming it.
func (m *Mailbox) Peek() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return false
	}
	if m.now().Sub(m.setAt) > m.ttl {
		m.clearLocked()
		return false
	}
	return true
}

func (m *Mailbox) clearLocked() {
	m.value = ""
	m.token = ""
	m.setAt = time.Time{}
	m.present = false
}
