// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package signals keeps small in-memory feeds of recently posted JSON events,
// bounded both by count and by age.
package signals

import (
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// TimestampField is the key stamped onto every stored signal (Unix millis).
const TimestampField = "timestamp"

// ErrNotObject reports a payload that is not a JSON object.
var ErrNotObject = errors.New("signal payload must be a JSON object")

// Signal is one stored event.
type Signal struct {
	Fields     map[string]any
	ReceivedAt time.Time
}

// Buffer is a fixed-capacity FIFO. Eviction by age happens lazily in Prune,
// which every read runs first.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	items    []Signal
}

// NewBuffer creates a buffer holding at most capacity signals no older than window.
func NewBuffer(capacity int, window time.Duration) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		capacity: capacity,
		window:   window,
		items:    make([]Signal, 0, capacity),
	}
}

// Capacity returns the maximum number of retained signals.
func (b *Buffer) Capacity() int { return b.capacity }

// Window returns the retention window.
func (b *Buffer) Window() time.Duration { return b.window }

// Push stores a copy of fields stamped with now, evicting the oldest signal
// when full.
func (b *Buffer) Push(fields map[string]any, now time.Time) Signal {
	stored := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		stored[k] = v
	}
	stored[TimestampField] = now.UnixMilli()
	sig := Signal{Fields: stored, ReceivedAt: now}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= b.capacity {
		n := copy(b.items, b.items[len(b.items)-b.capacity+1:])
		clear(b.items[n:])
		b.items = b.items[:n]
	}
	b.items = append(b.items, sig)
	return sig
}

// Prune drops signals older than the window at now and returns how many were dropped.
func (b *Buffer) Prune(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pruneLocked(now)
}

func (b *Buffer) pruneLocked(now time.Time) int {
	cutoff := now.Add(-b.window)
	kept := b.items[:0]
	for _, sig := range b.items {
		if !sig.ReceivedAt.Before(cutoff) {
			kept = append(kept, sig)
		}
	}
	dropped := len(b.items) - len(kept)
	clear(b.items[len(kept):])
	b.items = kept
	return dropped
}

// List prunes at now and returns the remaining signals oldest first.
func (b *Buffer) List(now time.Time) []Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked(now)
	out := make([]Signal, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of stored signals without pruning.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// MarshalJSON encodes the stored fields, timestamp included.
func (s Signal) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(s.Fields)
}

// DecodeObject parses a raw request body into signal fields.
func DecodeObject(raw []byte) (map[string]any, error) {
	var fields map[string]any
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return nil, ErrNotObject
	}
	if fields == nil {
		return nil, ErrNotObject
	}
	return fields, nil
}
