package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ajramos/courrier/internal/bus"
	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/mirror"
)

// RecordStoreImpl implements RecordStore over a mirror and a bus
type RecordStoreImpl struct {
	direction courrier.Direction
	mirror    *mirror.Mirror
	bus       bus.Bus
	origin    string

	clock  func() time.Time
	newID  func() string
	logger *log.Logger

	mu      sync.RWMutex
	records []courrier.Record
	state   LoadState

	lmu       sync.Mutex
	listeners map[int]func([]courrier.Record)
	nextL     int

	unsubscribe func()
}

// Option configures a RecordStoreImpl
type Option func(*RecordStoreImpl)

// WithClock replaces the time source
func WithClock(clock func() time.Time) Option {
	return func(s *RecordStoreImpl) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator replaces the record id generator
func WithIDGenerator(gen func() string) Option {
	return func(s *RecordStoreImpl) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the logger for debug output
func WithLogger(logger *log.Logger) Option {
	return func(s *RecordStoreImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRecordStore creates the store of direction d and subscribes it to b.
// The collection stays empty until Load is called. A nil bus disables
// announcements.
func NewRecordStore(d courrier.Direction, m *mirror.Mirror, b bus.Bus, opts ...Option) *RecordStoreImpl {
	s := &RecordStoreImpl{
		direction: d,
		mirror:    m,
		bus:       b,
		origin:    courrier.NewID(),
		clock:     courrier.Now,
		newID:     courrier.NewID,
		logger:    log.New(io.Discard, "", 0),
		records:   []courrier.Record{},
		listeners: make(map[int]func([]courrier.Record)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if b != nil {
		s.unsubscribe = b.Subscribe(s.handleEvent)
	}
	return s
}

// Direction returns the direction this store owns
func (s *RecordStoreImpl) Direction() courrier.Direction {
	return s.direction
}

// Load reads the mirror and replaces the collection
func (s *RecordStoreImpl) Load(ctx context.Context) []courrier.Record {
	s.mu.Lock()
	s.state = StateLoading
	list := s.mirror.Read(ctx, s.direction)
	s.records = list
	s.state = StateReady
	out := courrier.CloneRecords(list)
	s.mu.Unlock()

	s.notify(out)
	return courrier.CloneRecords(out)
}

// Add builds a record from f: fresh id, next sequence number when none is
// given, status PENDING when none is given, both timestamps set to now.
func (s *RecordStoreImpl) Add(ctx context.Context, f courrier.Fields) (*courrier.Record, error) {
	if f.Status != nil {
		st, err := canonicalStatus(*f.Status)
		if err != nil {
			return nil, err
		}
		f.Status = &st
	}

	s.mu.Lock()
	now := s.clock()
	rec := courrier.Record{
		ID:        s.newID(),
		Direction: s.direction,
		Status:    courrier.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.Apply(&rec)
	if strings.TrimSpace(rec.SequenceNumber) == "" {
		rec.SequenceNumber = courrier.NextSequence(s.records)
	}
	next := make([]courrier.Record, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)
	list, v, err := s.commit(ctx, next)
	s.mu.Unlock()

	s.announce(list, v, err)
	if err != nil {
		return nil, fmt.Errorf("add %s record: %w", s.direction, err)
	}
	out := rec.Clone()
	return &out, nil
}

// Update merges f into record id and refreshes updatedAt. Overlapping
// calls run one after the other; the later one wins on shared fields.
func (s *RecordStoreImpl) Update(ctx context.Context, id string, f courrier.Fields) (*courrier.Record, error) {
	if f.Status != nil {
		st, err := canonicalStatus(*f.Status)
		if err != nil {
			return nil, err
		}
		f.Status = &st
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, nil
	}
	next := courrier.CloneRecords(s.records)
	rec := &next[idx]
	f.Apply(rec)
	rec.UpdatedAt = s.tick(rec.UpdatedAt)
	updated := rec.Clone()
	list, v, err := s.commit(ctx, next)
	s.mu.Unlock()

	s.announce(list, v, err)
	if err != nil {
		return nil, fmt.Errorf("update %s record %s: %w", s.direction, id, err)
	}
	return &updated, nil
}

// SetStatus moves record id to status
func (s *RecordStoreImpl) SetStatus(ctx context.Context, id string, status courrier.Status) (*courrier.Record, error) {
	return s.Update(ctx, id, courrier.StatusFields(status))
}

// SetStatusAsync runs SetStatus in the background and delivers its result
// on the returned channel, which is closed afterwards
func (s *RecordStoreImpl) SetStatusAsync(ctx context.Context, id string, status courrier.Status) <-chan StatusResult {
	ch := make(chan StatusResult, 1)
	go func() {
		defer close(ch)
		rec, err := s.SetStatus(ctx, id, status)
		ch <- StatusResult{Record: rec, Err: err}
	}()
	return ch
}

// Remove deletes record id. Removing an absent id writes nothing and
// announces nothing.
func (s *RecordStoreImpl) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return nil
	}
	next := make([]courrier.Record, 0, len(s.records))
	for _, r := range s.records {
		if r.ID != id {
			next = append(next, r)
		}
	}
	list, v, err := s.commit(ctx, next)
	s.mu.Unlock()

	s.announce(list, v, err)
	if err != nil {
		return fmt.Errorf("remove %s record %s: %w", s.direction, id, err)
	}
	return nil
}

// Restore writes rec back into the collection
func (s *RecordStoreImpl) Restore(ctx context.Context, rec courrier.Record) (*courrier.Record, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, fmt.Errorf("%w: record without id", ErrInvalidInput)
	}
	rec = rec.Clone()
	rec.Direction = s.direction

	s.mu.Lock()
	next := courrier.CloneRecords(s.records)
	if idx := s.indexOf(rec.ID); idx >= 0 {
		rec.UpdatedAt = s.tick(next[idx].UpdatedAt)
		next[idx] = rec
	} else {
		rec.UpdatedAt = s.tick(rec.UpdatedAt)
		next = append([]courrier.Record{rec}, next...)
	}
	list, v, err := s.commit(ctx, next)
	s.mu.Unlock()

	s.announce(list, v, err)
	if err != nil {
		return nil, fmt.Errorf("restore %s record %s: %w", s.direction, rec.ID, err)
	}
	out := rec.Clone()
	return &out, nil
}

// Get returns a copy of record id, or nil
func (s *RecordStoreImpl) Get(id string) *courrier.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		out := s.records[idx].Clone()
		return &out
	}
	return nil
}

// Records returns a copy of the collection, newest first
func (s *RecordStoreImpl) Records() []courrier.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return courrier.CloneRecords(s.records)
}

// Query returns the records passing f
func (s *RecordStoreImpl) Query(f courrier.Filter) []courrier.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return courrier.ApplyFilter(s.records, f)
}

// Stats counts the current collection
func (s *RecordStoreImpl) Stats() courrier.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return courrier.ComputeStats(s.records)
}

// State returns the load state
func (s *RecordStoreImpl) State() LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OnChange registers fn. It runs on the goroutine that made the change.
func (s *RecordStoreImpl) OnChange(fn func([]courrier.Record)) func() {
	if fn == nil {
		return func() {}
	}
	s.lmu.Lock()
	id := s.nextL
	s.nextL++
	s.listeners[id] = fn
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			delete(s.listeners, id)
			s.lmu.Unlock()
		})
	}
}

// Close detaches the store from the bus and drops its listeners
func (s *RecordStoreImpl) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.lmu.Lock()
	s.listeners = make(map[int]func([]courrier.Record))
	s.lmu.Unlock()
}

// commit installs next as the collection and writes it, returning the slot
// version the write produced. Memory keeps next even when the write fails.
// Callers hold mu.
func (s *RecordStoreImpl) commit(ctx context.Context, next []courrier.Record) ([]courrier.Record, int64, error) {
	s.records = next
	if s.state == StateUninitialized {
		s.state = StateReady
	}
	out := courrier.CloneRecords(next)
	v, err := s.mirror.Write(ctx, s.direction, next)
	if err != nil {
		s.logger.Printf("ERROR: persisting %s collection: %v", s.direction, err)
		return out, 0, err
	}
	return out, v, nil
}

// announce runs after mu is released: listeners always see the new
// collection, the bus only hears about successful writes
func (s *RecordStoreImpl) announce(list []courrier.Record, version int64, err error) {
	s.notify(list)
	if err != nil || s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{Direction: s.direction, Records: list, Origin: s.origin, Version: version})
}

func (s *RecordStoreImpl) notify(list []courrier.Record) {
	s.lmu.Lock()
	fns := make([]func([]courrier.Record), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()
	for _, fn := range fns {
		fn(courrier.CloneRecords(list))
	}
}

func (s *RecordStoreImpl) handleEvent(ev bus.Event) {
	if ev.Origin == s.origin || !ev.Concerns(s.direction) {
		return
	}
	s.logger.Printf("reconciling %s collection (origin %q)", s.direction, ev.Origin)
	s.Load(context.Background())
}

func (s *RecordStoreImpl) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// tick returns the clock, moved past prev when the clock has not advanced
func (s *RecordStoreImpl) tick(prev time.Time) time.Time {
	now := s.clock()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func canonicalStatus(st courrier.Status) (courrier.Status, error) {
	c := st.Canonical()
	if c == courrier.StatusUnknown {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
	}
	return c, nil
}
