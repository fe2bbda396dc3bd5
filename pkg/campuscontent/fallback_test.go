package campuscontent_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

func TestLoadDemoDataset_BuiltIn(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ds, err := campuscontent.LoadDemoDataset(nil, now)
	require.NoError(t, err)

	require.Len(t, ds.Notes, 2)
	assert.Equal(t, "demo1", ds.Notes[0].ID)
	assert.Equal(t, now, ds.Notes[0].CreatedAt)
	assert.Equal(t, now.Add(-24*time.Hour), ds.Notes[1].CreatedAt)
	assert.Equal(t, []string{"calculus", "derivatives", "math"}, ds.Notes[1].Tags)

	require.Len(t, ds.Listings, 2)
	assert.Equal(t, 45000.0, ds.Listings[0].Price)
	assert.Equal(t, campuscontent.ListingStatusAvailable, ds.Listings[1].Status)

	require.Len(t, ds.Events, 1)
	assert.Equal(t, now.Add(7*24*time.Hour), ds.Events[0].Date)
	require.NotNil(t, ds.Events[0].MaxParticipants)
	assert.EqualValues(t, 100, *ds.Events[0].MaxParticipants)
}

func TestLoadDemoDataset_Custom(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	data := []byte(`
notes:
  - id: n1
    age: 2h
    title: Custom
`)
	ds, err := campuscontent.LoadDemoDataset(data, now)
	require.NoError(t, err)
	require.Len(t, ds.Notes, 1)
	assert.Equal(t, now.Add(-2*time.Hour), ds.Notes[0].CreatedAt)
	assert.Empty(t, ds.Listings)

	_, err = campuscontent.LoadDemoDataset([]byte("notes:\n  - age: soon\n"), now)
	assert.Error(t, err)
}

func TestDemoDataset_At(t *testing.T) {
	loaded := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ds, err := campuscontent.LoadDemoDataset(nil, loaded)
	require.NoError(t, err)

	later := loaded.Add(8 * 24 * time.Hour)
	moved := ds.At(later)
	assert.Equal(t, later, moved.Notes[0].CreatedAt)
	assert.Equal(t, later.Add(-24*time.Hour), moved.Notes[1].CreatedAt)
	assert.Equal(t, later.Add(-48*time.Hour), moved.Listings[1].CreatedAt)
	assert.Equal(t, later.Add(7*24*time.Hour), moved.Events[0].Date)

	assert.Equal(t, loaded.Add(7*24*time.Hour), ds.Events[0].Date, "source dataset is not modified")

	t.Run("AbsoluteTimes", func(t *testing.T) {
		date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		ds := &campuscontent.DemoDataset{Events: []campuscontent.Event{{Title: "Fixed", Date: date}}}
		assert.Equal(t, date, ds.At(later).Events[0].Date)
	})
}

func TestParseFallbackMode(t *testing.T) {
	mode, err := campuscontent.ParseFallbackMode("")
	require.NoError(t, err)
	assert.Equal(t, campuscontent.FallbackEmpty, mode)

	mode, err = campuscontent.ParseFallbackMode("demo")
	require.NoError(t, err)
	assert.Equal(t, campuscontent.FallbackDemo, mode)

	_, err = campuscontent.ParseFallbackMode("loud")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	rec := newCountingRecorder()
	f := campuscontent.NewFallback(campuscontent.FallbackEmpty, nil, nil, rec)

	items, err := campuscontent.Resolve(f, campuscontent.KindNote, []campuscontent.Note{{Title: "a"}}, nil)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = campuscontent.Resolve[campuscontent.Note](f, campuscontent.KindNote, nil, campuscontent.ErrAccessDenied)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, rec.fallback)

	_, err = campuscontent.Resolve[campuscontent.Note](f, campuscontent.KindNote, nil, errors.New("offline"))
	assert.EqualError(t, err, "failed to fetch notes: offline")

	t.Run("DemoModeWithoutDatasetForType", func(t *testing.T) {
		ds := &campuscontent.DemoDataset{Notes: []campuscontent.Note{{Title: "demo"}}}
		f := campuscontent.NewFallback(campuscontent.FallbackDemo, ds, nil, nil)

		notes, err := campuscontent.Resolve[campuscontent.Note](f, campuscontent.KindNote, nil, campuscontent.ErrAccessDenied)
		require.NoError(t, err)
		assert.Len(t, notes, 1)

		projects, err := campuscontent.Resolve[campuscontent.Project](f, campuscontent.KindProject, nil, campuscontent.ErrAccessDenied)
		require.NoError(t, err)
		assert.NotNil(t, projects)
		assert.Empty(t, projects)
	})
}
