package worker

import (
	"errors"
	"net/http"
	"time"

	"github.com/snow-ghost/thoughtsearch/pkg/streaming"
	"github.com/snow-ghost/thoughtsearch/search"
)

// StreamIngestor serves POST /solve/stream. It takes the same body as
// /solve and answers with Server-Sent Events: start, one progress event per
// expansion, then done with the outcome. A search that ends in an error
// after the stream opened is reported with a trailing error event.
type StreamIngestor struct {
	*Ingestor
}

func NewStreamIngestor(w Worker, timeout time.Duration) *StreamIngestor {
	return &StreamIngestor{Ingestor: NewIngestor(w, timeout)}
}

func (s *StreamIngestor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	req, ctx, cancel, ok := s.prepare(w, r)
	if !ok {
		return
	}
	defer cancel()

	sse, err := streaming.NewSSEWriter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// the stream opens on the first event so request errors can still be 400s
	started := false
	open := func() {
		if started {
			return
		}
		started = true
		_ = sse.WriteStart(streaming.Start{
			RequestID:    w.Header().Get("X-Request-ID"),
			WorkerType:   s.worker.Type(),
			Capabilities: s.worker.Caps().String(),
		})
	}

	out, err := s.worker.SolveStream(ctx, req, func(p search.Progress) {
		open()
		_ = sse.WriteProgress(p)
	})

	switch {
	case err == nil:
		open()
		_ = sse.WriteDone(out)
	case !started && errors.Is(err, ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case out.Status != "":
		open()
		_ = sse.WriteDone(out)
		_ = sse.WriteError(err)
	case !started:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		_ = sse.WriteError(err)
	}
}
