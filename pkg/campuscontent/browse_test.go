package campuscontent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

func TestBrowser_DiscardsSupersededResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(ctx context.Context, term string) ([]string, error) {
		if term == "slow" {
			close(started)
			<-release
			return []string{"stale"}, ctx.Err()
		}
		return []string{term}, nil
	}
	b := campuscontent.NewBrowser(fetch)

	type result struct {
		items   []string
		current bool
		err     error
	}
	slow := make(chan result, 1)
	go func() {
		items, current, err := b.Refresh(context.Background(), "slow")
		slow <- result{items, current, err}
	}()
	<-started

	items, current, err := b.Refresh(context.Background(), "fast")
	require.NoError(t, err)
	assert.True(t, current)
	assert.Equal(t, []string{"fast"}, items)

	close(release)
	r := <-slow
	assert.False(t, r.current)
	assert.Nil(t, r.items)
	assert.NoError(t, r.err)
	assert.EqualValues(t, 2, b.Generation())
}

func TestBrowser_CancelsInFlightRequest(t *testing.T) {
	cancelled := make(chan error, 1)
	started := make(chan struct{})

	fetch := func(ctx context.Context, filter campuscontent.NoteFilter) ([]campuscontent.Note, error) {
		if filter.Term == "first" {
			close(started)
			<-ctx.Done()
			cancelled <- ctx.Err()
			return nil, ctx.Err()
		}
		return []campuscontent.Note{{Title: filter.Term}}, nil
	}
	b := campuscontent.NewBrowser(fetch)

	go b.Refresh(context.Background(), campuscontent.NoteFilter{Term: "first"})
	<-started

	notes, current, err := b.Refresh(context.Background(), campuscontent.NoteFilter{Term: "second"})
	require.NoError(t, err)
	assert.True(t, current)
	require.Len(t, notes, 1)
	assert.ErrorIs(t, <-cancelled, context.Canceled)
}

func TestBrowser_OverService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.CreateQuestion(ctx, alice, campuscontent.CreateQuestionRequest{Title: "Graph traversal"})
	require.NoError(t, err)

	b := campuscontent.NewBrowser(f.svc.ListQuestions)
	questions, current, err := b.Refresh(ctx, campuscontent.QuestionFilter{Term: "graph"})
	require.NoError(t, err)
	assert.True(t, current)
	assert.Len(t, questions, 1)
}
