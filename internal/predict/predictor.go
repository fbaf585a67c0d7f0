// Package predict suggests task titles from the times they were completed before.
//
// It is a frequency table keyed by title, weekday and hour. Completions on the
// same weekday within an hour of an existing record bump that record's count.
// Suggestions look at records on the current weekday within two hours and rank
// them by count.
package predict

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"life-organizer/internal/model"
)

const (
	mergeWindowHours   = 1
	suggestWindowHours = 2
	maxSuggestions     = 3
)

// DefaultSlot is where the completion log is persisted.
const DefaultSlot = "life-os-predictions"

// Storage is the durable key-value slot the log is written to.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Predictor records completions and proposes titles for the current time.
type Predictor struct {
	mu          sync.Mutex
	storage     Storage
	slot        string
	now         func() time.Time
	log         *zap.Logger
	maxPerTitle int
	records     []model.CompletionRecord
}

type Option func(*Predictor)

func WithClock(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Predictor) { p.log = log }
}

func WithSlot(slot string) Option {
	return func(p *Predictor) { p.slot = slot }
}

// WithMaxPerTitle caps how many records a single title may keep. The records
// with the highest counts survive. Zero or less keeps everything.
func WithMaxPerTitle(n int) Option {
	return func(p *Predictor) { p.maxPerTitle = n }
}

// New loads the completion log. A missing or unreadable log starts empty.
func New(storage Storage, opts ...Option) *Predictor {
	p := &Predictor{
		storage: storage,
		slot:    DefaultSlot,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.records = p.load()
	return p
}

func (p *Predictor) load() []model.CompletionRecord {
	raw, ok, err := p.storage.Get(p.slot)
	if err != nil {
		p.log.Warn("read completion log, starting empty", zap.String("slot", p.slot), zap.Error(err))
		return nil
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	var records []model.CompletionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		p.log.Warn("corrupt completion log, starting empty", zap.String("slot", p.slot), zap.Error(err))
		return nil
	}
	valid := records[:0]
	for _, r := range records {
		if r.Title == "" || r.DayOfWeek < 0 || r.DayOfWeek > 6 || r.Hour < 0 || r.Hour > 23 || r.Count < 1 {
			continue
		}
		valid = append(valid, r)
	}
	return valid
}

// RecordCompletion notes that title was completed now.
func (p *Predictor) RecordCompletion(title string) error {
	return p.RecordCompletionAt(title, p.now())
}

// RecordCompletionAt notes that title was completed at t and persists the log.
func (p *Predictor) RecordCompletionAt(title string, t time.Time) error {
	if title == "" {
		return nil
	}
	day, hour := int(t.Weekday()), t.Hour()

	p.mu.Lock()
	defer p.mu.Unlock()

	found := false
	for i := range p.records {
		r := &p.records[i]
		if r.Title == title && r.DayOfWeek == day && absInt(r.Hour-hour) <= mergeWindowHours {
			r.Count++
			found = true
			break
		}
	}
	if !found {
		p.records = append(p.records, model.CompletionRecord{
			Title:     title,
			DayOfWeek: day,
			Hour:      hour,
			Count:     1,
		})
		p.enforceRetention(title)
	}
	return p.persist()
}

// enforceRetention keeps at most maxPerTitle records for title, dropping the
// lowest counts. Ties keep the older record.
func (p *Predictor) enforceRetention(title string) {
	if p.maxPerTitle <= 0 {
		return
	}
	var idx []int
	for i, r := range p.records {
		if r.Title == title {
			idx = append(idx, i)
		}
	}
	if len(idx) <= p.maxPerTitle {
		return
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.records[idx[a]].Count > p.records[idx[b]].Count
	})
	drop := make(map[int]bool, len(idx)-p.maxPerTitle)
	for _, i := range idx[p.maxPerTitle:] {
		drop[i] = true
	}
	kept := p.records[:0]
	for i, r := range p.records {
		if !drop[i] {
			kept = append(kept, r)
		}
	}
	p.records = kept
}

func (p *Predictor) persist() error {
	raw, err := json.Marshal(p.records)
	if err != nil {
		return fmt.Errorf("encode completion log: %w", err)
	}
	if err := p.storage.Set(p.slot, raw); err != nil {
		return fmt.Errorf("write completion log: %w", err)
	}
	return nil
}

// Suggestions returns up to three titles likely to be completed now.
func (p *Predictor) Suggestions() []string {
	return p.SuggestionsAt(p.now())
}

// SuggestionsAt ranks the records of t's weekday within two hours of t by
// count. Equal counts keep insertion order. A title appears at most once.
func (p *Predictor) SuggestionsAt(t time.Time) []string {
	day, hour := int(t.Weekday()), t.Hour()

	p.mu.Lock()
	relevant := make([]model.CompletionRecord, 0, len(p.records))
	for _, r := range p.records {
		if r.DayOfWeek == day && absInt(r.Hour-hour) <= suggestWindowHours {
			relevant = append(relevant, r)
		}
	}
	p.mu.Unlock()

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].Count > relevant[j].Count
	})

	titles := make([]string, 0, maxSuggestions)
	seen := make(map[string]bool, maxSuggestions)
	for _, r := range relevant {
		if seen[r.Title] {
			continue
		}
		seen[r.Title] = true
		titles = append(titles, r.Title)
		if len(titles) == maxSuggestions {
			break
		}
	}
	return titles
}

// Reset forgets the whole completion history.
func (p *Predictor) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = nil
	if err := p.storage.Delete(p.slot); err != nil {
		return fmt.Errorf("delete completion log: %w", err)
	}
	return nil
}

// Records returns a copy of the completion log.
func (p *Predictor) Records() []model.CompletionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.CompletionRecord, len(p.records))
	copy(out, p.records)
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
