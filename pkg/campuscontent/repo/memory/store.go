package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/campus-content/pkg/campuscontent"
)

// Store implements campuscontent.Store using in-memory storage
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*record
	seq         int64
	last        time.Time
	now         func() time.Time
}

type record struct {
	doc campuscontent.Document
	seq int64
}

// Option configures the in-memory store
type Option func(*Store)

// WithClock overrides the time source used for createdAt
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a new in-memory document store
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]map[string]*record),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Insert(ctx context.Context, collection string, fields map[string]any) (*campuscontent.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// createdAt must be strictly increasing even when the clock is coarse
	createdAt := s.now().UTC().Truncate(time.Microsecond)
	if !createdAt.After(s.last) {
		createdAt = s.last.Add(time.Microsecond)
	}
	s.last = createdAt
	s.seq++

	rec := &record{
		doc: campuscontent.Document{
			ID:         uuid.NewString(),
			Collection: collection,
			CreatedAt:  createdAt,
			Fields:     campuscontent.CloneFields(fields),
		},
		seq: s.seq,
	}

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]*record)
		s.collections[collection] = docs
	}
	docs[rec.doc.ID] = rec

	return copyDoc(rec), nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*campuscontent.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, campuscontent.ErrNotFound
	}
	return copyDoc(rec), nil
}

func (s *Store) Query(ctx context.Context, q campuscontent.Query) ([]*campuscontent.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]*record, 0, len(s.collections[q.Collection]))
	for _, rec := range s.collections[q.Collection] {
		if q.Where != nil && !matches(rec.doc.Fields, q.Where) {
			continue
		}
		matched = append(matched, rec)
	}
	s.mu.RUnlock()

	desc := q.OrderBy.Direction == campuscontent.Desc
	slices.SortFunc(matched, func(a, b *record) int {
		c := compareBy(a, b, q.OrderBy.Field)
		if c == 0 {
			c = cmp.Compare(a.seq, b.seq)
		}
		if desc {
			return -c
		}
		return c
	})

	result := make([]*campuscontent.Document, len(matched))
	for i, rec := range matched {
		result[i] = copyDoc(rec)
	}
	return result, nil
}

func (s *Store) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	if !campuscontent.ValidFieldName(field) {
		return fmt.Errorf("%w: bad field %q", campuscontent.ErrInvalidQuery, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return campuscontent.ErrNotFound
	}
	rec.doc.Fields[field] = value
	return nil
}

func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if !campuscontent.ValidFieldName(field) {
		return fmt.Errorf("%w: bad field %q", campuscontent.ErrInvalidQuery, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return campuscontent.ErrNotFound
	}
	rec.doc.Fields[field] = campuscontent.FieldInt64(rec.doc.Fields, field) + delta
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return campuscontent.ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections, collection)
	return nil
}

func copyDoc(rec *record) *campuscontent.Document {
	doc := rec.doc
	doc.Fields = campuscontent.CloneFields(rec.doc.Fields)
	return &doc
}

func matches(fields map[string]any, cond *campuscontent.Condition) bool {
	want := fmt.Sprint(cond.Value)
	switch cond.Op {
	case campuscontent.OpEqual:
		v, ok := fields[cond.Field]
		return ok && fmt.Sprint(v) == want
	case campuscontent.OpArrayContains:
		for _, e := range campuscontent.FieldStrings(fields, cond.Field) {
			if e == want {
				return true
			}
		}
	}
	return false
}

func compareBy(a, b *record, field string) int {
	if field == "" || field == campuscontent.FieldCreatedAt {
		return a.doc.CreatedAt.Compare(b.doc.CreatedAt)
	}
	av, aok := campuscontent.ToFloat64(a.doc.Fields[field])
	bv, bok := campuscontent.ToFloat64(b.doc.Fields[field])
	switch {
	case aok && bok:
		return cmp.Compare(av, bv)
	case aok:
		return 1
	case bok:
		return -1
	}
	return cmp.Compare(
		campuscontent.FieldString(a.doc.Fields, field),
		campuscontent.FieldString(b.doc.Fields, field),
	)
}
