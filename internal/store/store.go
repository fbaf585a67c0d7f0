// Package store holds the persisted entity collections: tasks, habits,
// groceries and expenses. Each store keeps its whole collection in memory,
// serializes it to one key-value slot after every mutation and reloads it on
// construction.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KV is the durable key-value storage a store persists to.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

type options struct {
	now   func() time.Time
	log   *zap.Logger
	newID func() string
	slot  string
}

type Option func(*options)

// WithClock injects the time source used for "today" and for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithSlot overrides the storage slot name.
func WithSlot(slot string) Option {
	return func(o *options) { o.slot = slot }
}

func buildOptions(defaultSlot string, opts []Option) options {
	o := options{
		now:   time.Now,
		log:   zap.NewNop(),
		newID: uuid.NewString,
		slot:  defaultSlot,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// collection is the in-memory copy of one slot. It is not safe for
// concurrent use; stores serialize access.
type collection[T any] struct {
	kv    KV
	slot  string
	log   *zap.Logger
	items []T
}

func loadCollection[T any](kv KV, slot string, log *zap.Logger) collection[T] {
	c := collection[T]{kv: kv, slot: slot, log: log}
	raw, ok, err := kv.Get(slot)
	if err != nil {
		log.Warn("read slot, starting empty", zap.String("slot", slot), zap.Error(err))
		return c
	}
	if !ok || len(raw) == 0 {
		return c
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warn("corrupt slot, starting empty", zap.String("slot", slot), zap.Error(err))
		return c
	}
	c.items = items
	return c
}

// persist writes the full collection. On failure the in-memory items stay
// authoritative and a *PersistError is returned.
func (c *collection[T]) persist() error {
	items := c.items
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return &PersistError{Slot: c.slot, Err: fmt.Errorf("encode: %w", err)}
	}
	if err := c.kv.Set(c.slot, raw); err != nil {
		c.log.Warn("persist slot", zap.String("slot", c.slot), zap.Int("items", len(items)), zap.Error(err))
		return &PersistError{Slot: c.slot, Err: err}
	}
	return nil
}

// snapshot returns a copy safe to hand to callers.
func (c *collection[T]) snapshot() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) filter(keep func(T) bool) []T {
	var out []T
	for _, it := range c.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// removeWhere drops matching items and reports how many were removed.
func (c *collection[T]) removeWhere(match func(T) bool) int {
	kept := make([]T, 0, len(c.items))
	for _, it := range c.items {
		if !match(it) {
			kept = append(kept, it)
		}
	}
	removed := len(c.items) - len(kept)
	c.items = kept
	return removed
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
