package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/pkg/streaming"
	"github.com/snow-ghost/thoughtsearch/search"
)

type streamEvents struct {
	starts   []streaming.Start
	progress []search.Progress
	done     []core.Outcome
	errs     []error
}

func collect(t *testing.T, body string) *streamEvents {
	t.Helper()
	ev := &streamEvents{}
	err := streaming.ParseSSEStream(context.Background(), strings.NewReader(body), &streaming.StreamHandler{
		OnStart:    func(s streaming.Start) error { ev.starts = append(ev.starts, s); return nil },
		OnProgress: func(p search.Progress) error { ev.progress = append(ev.progress, p); return nil },
		OnDone:     func(o core.Outcome) error { ev.done = append(ev.done, o); return nil },
		OnError:    func(err error) error { ev.errs = append(ev.errs, err); return nil },
	})
	require.NoError(t, err)
	return ev
}

func TestStreamIngestor(t *testing.T) {
	s, _ := newTestSolver(t, scriptConfig())
	h := NewStreamIngestor(s, time.Minute)

	rec := postSolve(t, h, `{"problem":"plan a trip"}`, http.Header{"X-Request-Id": {"stream-1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	ev := collect(t, rec.Body.String())
	require.Len(t, ev.starts, 1)
	assert.Equal(t, "stream-1", ev.starts[0].RequestID)
	assert.Equal(t, "light", ev.starts[0].WorkerType)

	require.Len(t, ev.progress, 1)
	assert.Equal(t, 2, ev.progress[0].NodesExplored)
	assert.Equal(t, 0.95, ev.progress[0].BestScore)

	require.Len(t, ev.done, 1)
	assert.Equal(t, "Start\nDONE", ev.done[0].Solution)
	assert.Empty(t, ev.errs)
}

func TestStreamIngestorHeavy(t *testing.T) {
	config := scriptConfig()
	config.WorkerType = string(WorkerTypeHeavy)
	s, _ := newTestSolver(t, config)

	rec := postSolve(t, NewStreamIngestor(s, time.Minute), `{"problem":"p"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ev := collect(t, rec.Body.String())
	strategies := map[string]bool{}
	for _, p := range ev.progress {
		strategies[p.Strategy] = true
	}
	assert.Equal(t, map[string]bool{"breadth": true, "depth": true}, strategies)
	require.Len(t, ev.done, 1)
	assert.Equal(t, core.StatusSolved, ev.done[0].Status)
}

func TestStreamIngestorBadRequest(t *testing.T) {
	s, _ := newTestSolver(t, scriptConfig())

	rec := postSolve(t, NewStreamIngestor(s, 0), `{"problem":"p","strategy":"random"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	NewStreamIngestor(s, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/solve/stream", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStreamIngestorTimeout(t *testing.T) {
	rec := postSolve(t, NewStreamIngestor(stallingWorker{}, 10*time.Millisecond), `{"problem":"p"}`, nil)

	ev := collect(t, rec.Body.String())
	require.Len(t, ev.done, 1)
	assert.Equal(t, core.StatusFailed, ev.done[0].Status)
	require.Len(t, ev.errs, 1)
	assert.Contains(t, ev.errs[0].Error(), "deadline exceeded")
}
