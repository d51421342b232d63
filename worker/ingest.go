package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/pkg/observability"
)

const maxRequestBytes = 1 << 20

// Ingestor serves POST /solve.
type Ingestor struct {
	worker  Worker
	timeout time.Duration
}

// NewIngestor wraps w; timeout <= 0 leaves requests bounded only by the client.
func NewIngestor(w Worker, timeout time.Duration) *Ingestor {
	return &Ingestor{worker: w, timeout: timeout}
}

// ServeHTTP handles POST /solve with a JSON SolveRequest and returns the
// outcome. Exhaustion is a 200 with status "failed"; a search cut short by
// the request timeout is a 504 carrying the partial outcome.
func (i *Ingestor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, ctx, cancel, ok := i.prepare(w, r)
	if !ok {
		return
	}
	defer cancel()

	out, err := i.worker.Solve(ctx, req)
	switch {
	case err == nil:
		writeOutcome(w, http.StatusOK, out)
	case errors.Is(err, ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded):
		writeOutcome(w, http.StatusGatewayTimeout, out)
	case errors.Is(err, context.Canceled):
		// client went away
		w.WriteHeader(499)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// prepare assigns the request ID, decodes the body and derives the search
// context. On failure it has already answered the request.
func (i *Ingestor) prepare(w http.ResponseWriter, r *http.Request) (SolveRequest, context.Context, context.CancelFunc, bool) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	var req SolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return SolveRequest{}, nil, nil, false
	}

	ctx := observability.WithRequestID(r.Context(), requestID)
	ctx = observability.WithCaller(ctx, "http")
	if i.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, i.timeout)
		return req, ctx, cancel, true
	}
	ctx, cancel := context.WithCancel(ctx)
	return req, ctx, cancel, true
}

func writeOutcome(w http.ResponseWriter, status int, out core.Outcome) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(out)
}
