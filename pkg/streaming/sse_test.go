package streaming

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/search"
)

// plainWriter hides the recorder's Flush method.
type plainWriter struct{ http.ResponseWriter }

func TestNewSSEWriterRequiresFlusher(t *testing.T) {
	_, err := NewSSEWriter(plainWriter{httptest.NewRecorder()})
	assert.Error(t, err)
}

func TestWriteEventFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, sse.WriteEvent("note", map[string]int{"n": 1}))
	assert.Equal(t, "event: note\ndata: {\"n\":1}\n\n", rec.Body.String())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)
}

func TestRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, sse.WriteStart(Start{RequestID: "r1", WorkerType: "light"}))
	require.NoError(t, sse.WriteProgress(search.Progress{Depth: 0, Thoughts: 2, NodesExplored: 2}))
	require.NoError(t, sse.WriteDone(core.Outcome{Status: core.StatusSolved, Solution: "Start\nx", FinalScore: 0.9}))
	require.NoError(t, sse.WriteError(errors.New("late failure")))

	var (
		order []string
		done  core.Outcome
	)
	err = ParseSSEStream(context.Background(), strings.NewReader(rec.Body.String()), &StreamHandler{
		OnStart: func(s Start) error {
			order = append(order, "start:"+s.RequestID)
			return nil
		},
		OnProgress: func(p search.Progress) error {
			order = append(order, "progress")
			return nil
		},
		OnDone: func(o core.Outcome) error {
			order = append(order, "done")
			done = o
			return nil
		},
		OnError: func(err error) error {
			order = append(order, "error:"+err.Error())
			return nil
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"start:r1", "progress", "done", "error:late failure"}, order)
	assert.Equal(t, "Start\nx", done.Solution)
}

func TestParseSSEStream(t *testing.T) {
	t.Run("unterminated last event", func(t *testing.T) {
		var got []search.Progress
		err := ParseSSEStream(context.Background(),
			strings.NewReader("event: progress\ndata: {\"depth\":3}"),
			&StreamHandler{OnProgress: func(p search.Progress) error { got = append(got, p); return nil }})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 3, got[0].Depth)
	})

	t.Run("unknown and unhandled events are skipped", func(t *testing.T) {
		err := ParseSSEStream(context.Background(),
			strings.NewReader(": comment\nevent: other\ndata: {}\n\nevent: done\ndata: {}\n\n"),
			&StreamHandler{})
		assert.NoError(t, err)
	})

	t.Run("bad payload", func(t *testing.T) {
		err := ParseSSEStream(context.Background(),
			strings.NewReader("event: progress\ndata: not json\n\n"),
			&StreamHandler{OnProgress: func(search.Progress) error { return nil }})
		assert.ErrorContains(t, err, "failed to unmarshal progress")
	})

	t.Run("handler error stops parsing", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := ParseSSEStream(context.Background(),
			strings.NewReader("event: progress\ndata: {}\n\nevent: progress\ndata: {}\n\n"),
			&StreamHandler{OnProgress: func(search.Progress) error { calls++; return stop }})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := ParseSSEStream(ctx, strings.NewReader("event: done\ndata: {}\n\n"), &StreamHandler{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
