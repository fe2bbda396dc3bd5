package campuscontent

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// FallbackMode selects what a list read returns when the store denies it.
type FallbackMode string

const (
	// FallbackEmpty returns an empty list
	FallbackEmpty FallbackMode = "empty"
	// FallbackDemo returns the demo dataset for types that have one
	FallbackDemo FallbackMode = "demo"
)

// ParseFallbackMode validates a mode name. The empty string means empty.
func ParseFallbackMode(s string) (FallbackMode, error) {
	switch FallbackMode(s) {
	case "", FallbackEmpty:
		return FallbackEmpty, nil
	case FallbackDemo:
		return FallbackDemo, nil
	}
	return "", fmt.Errorf("unknown fallback mode %q", s)
}

//go:embed demo.yaml
var demoYAML []byte

// DemoDataset holds records shown in place of denied reads.
type DemoDataset struct {
	Notes    []Note
	Listings []Listing
	Events   []Event

	// resolvedAt is the time relative offsets were resolved against. Zero
	// for datasets built in code, whose times are absolute.
	resolvedAt time.Time
}

// At returns a copy of the dataset with its relative times resolved
// against now instead of the load time.
func (d *DemoDataset) At(now time.Time) *DemoDataset {
	var shift time.Duration
	if !d.resolvedAt.IsZero() {
		shift = now.Sub(d.resolvedAt)
	}
	out := &DemoDataset{
		Notes:      slices.Clone(d.Notes),
		Listings:   slices.Clone(d.Listings),
		Events:     slices.Clone(d.Events),
		resolvedAt: d.resolvedAt,
	}
	if shift == 0 {
		return out
	}
	out.resolvedAt = now
	for i := range out.Notes {
		out.Notes[i].CreatedAt = out.Notes[i].CreatedAt.Add(shift)
	}
	for i := range out.Listings {
		out.Listings[i].CreatedAt = out.Listings[i].CreatedAt.Add(shift)
	}
	for i := range out.Events {
		out.Events[i].CreatedAt = out.Events[i].CreatedAt.Add(shift)
		out.Events[i].Date = out.Events[i].Date.Add(shift)
	}
	return out
}

type demoTiming struct {
	Age string `yaml:"age"`
	In  string `yaml:"in"`
}

type demoFile struct {
	Notes []struct {
		Note       `yaml:",inline"`
		demoTiming `yaml:",inline"`
	} `yaml:"notes"`
	Listings []struct {
		Listing    `yaml:",inline"`
		demoTiming `yaml:",inline"`
	} `yaml:"listings"`
	Events []struct {
		Event      `yaml:",inline"`
		demoTiming `yaml:",inline"`
	} `yaml:"events"`
}

func (t demoTiming) resolve(now time.Time) (createdAt, at time.Time, err error) {
	createdAt, at = now, now
	if t.Age != "" {
		d, err := time.ParseDuration(t.Age)
		if err != nil {
			return createdAt, at, fmt.Errorf("bad age %q: %w", t.Age, err)
		}
		createdAt = now.Add(-d)
	}
	if t.In != "" {
		d, err := time.ParseDuration(t.In)
		if err != nil {
			return createdAt, at, fmt.Errorf("bad offset %q: %w", t.In, err)
		}
		at = now.Add(d)
	}
	return createdAt, at, nil
}

// LoadDemoDataset parses a demo dataset, resolving relative times against
// now. A nil data slice loads the built-in dataset.
func LoadDemoDataset(data []byte, now time.Time) (*DemoDataset, error) {
	if data == nil {
		data = demoYAML
	}

	var f demoFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse demo dataset: %w", err)
	}

	ds := &DemoDataset{resolvedAt: now}
	for _, n := range f.Notes {
		created, _, err := n.resolve(now)
		if err != nil {
			return nil, err
		}
		n.Note.CreatedAt = created
		ds.Notes = append(ds.Notes, n.Note)
	}
	for _, l := range f.Listings {
		created, _, err := l.resolve(now)
		if err != nil {
			return nil, err
		}
		l.Listing.CreatedAt = created
		ds.Listings = append(ds.Listings, l.Listing)
	}
	for _, e := range f.Events {
		created, date, err := e.resolve(now)
		if err != nil {
			return nil, err
		}
		e.Event.CreatedAt = created
		e.Event.Date = date
		ds.Events = append(ds.Events, e.Event)
	}
	return ds, nil
}

// Fallback downgrades permission faults on list reads. Any other fault is
// returned as a ReadError.
type Fallback struct {
	mode     FallbackMode
	demo     *DemoDataset
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// FallbackOption configures a Fallback
type FallbackOption func(*Fallback)

// WithFallbackClock sets the time demo records are resolved against
func WithFallbackClock(now func() time.Time) FallbackOption {
	return func(f *Fallback) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFallback creates a fallback provider. A nil dataset in demo mode
// behaves like empty mode.
func NewFallback(mode FallbackMode, demo *DemoDataset, logger *slog.Logger, recorder Recorder, opts ...FallbackOption) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NewNoopRecorder()
	}
	f := &Fallback{mode: mode, demo: demo, logger: logger, recorder: recorder, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolve inspects the outcome of a list read of kind. On success items are
// returned as-is; on AccessDenied the fallback list is returned with a nil
// error.
func Resolve[T ContentItem](f *Fallback, kind Kind, items []T, err error) ([]T, error) {
	if err == nil {
		return items, nil
	}

	if IsAccessDenied(err) {
		f.logger.Warn("read denied, serving fallback", "kind", kind, "mode", f.mode, "error", err)
		f.recorder.FallbackServed(kind, f.mode)
		if f.mode == FallbackDemo && f.demo != nil {
			return demoItems[T](f.demo.At(f.now())), nil
		}
		return []T{}, nil
	}

	var rerr *ReadError
	if errors.As(err, &rerr) {
		return nil, err
	}
	return nil, &ReadError{Kind: kind, Err: err}
}

func demoItems[T ContentItem](d *DemoDataset) []T {
	var out []T
	switch p := any(&out).(type) {
	case *[]Note:
		*p = slices.Clone(d.Notes)
	case *[]Listing:
		*p = slices.Clone(d.Listings)
	case *[]Event:
		*p = slices.Clone(d.Events)
	}
	if out == nil {
		out = []T{}
	}
	return out
}
