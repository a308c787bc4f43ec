package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/flowpath/internal/presentation/graph"
	"github.com/aretw0/flowpath/pkg/flow"
	core "github.com/aretw0/flowpath/pkg/graph"
	"github.com/go-chi/chi/v5"
)

// Server exposes a flow network over HTTP.
type Server struct {
	Network *flow.Network
	Logger  *slog.Logger
	Version string
	Metrics http.Handler

	// mu serializes state changes with the queries that depend on them.
	mu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// WithVersion sets the version reported by /info.
func WithVersion(version string) Option {
	return func(s *Server) { s.Version = version }
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// NewHandler creates a new HTTP handler for the network.
func NewHandler(net *flow.Network, opts ...Option) http.Handler {
	s := &Server{Network: net, Version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Get("/health", s.Health)
	r.Get("/info", s.Info)
	r.Get("/segments", s.ListSegments)
	r.Get("/segments/{name}", s.GetSegment)
	r.Get("/states", s.GetStates)
	r.Put("/states/{group}", s.PutState)
	r.Get("/volume", s.Volume)
	r.Post("/time", s.TimeFrom)
	r.Post("/stability", s.Stability)
	r.Get("/graph.mmd", s.Graph)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "flowpath-http",
		"version": s.Version,
		"network": s.Network.ID(),
	})
}

// ListSegments handles GET /segments.
func (s *Server) ListSegments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SegmentView, 0, s.Network.Len())
	for _, seg := range s.Network.Segments() {
		out = append(out, segmentView(seg))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetSegment handles GET /segments/{name}.
func (s *Server) GetSegment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.Network.Lookup(chi.URLParam(r, "name"))
	if !ok {
		s.writeError(w, flow.ErrSegmentNotFound)
		return
	}
	detail := SegmentDetail{SegmentView: segmentView(seg), Summary: seg.Summary(false), Buckets: map[string]Edges{}}
	for _, key := range seg.Node().Buckets() {
		edges, _ := seg.Node().Bucket(key)
		detail.Buckets[key] = edgesView(edges)
	}
	s.writeJSON(w, http.StatusOK, detail)
}

// GetStates handles GET /states.
func (s *Server) GetStates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Network.States().Snapshot())
}

// PutState handles PUT /states/{group}.
func (s *Server) PutState(w http.ResponseWriter, r *http.Request) {
	var body StateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.State == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Network.SetState(chi.URLParam(r, "group"), body.State)
	s.writeJSON(w, http.StatusOK, s.Network.States().Snapshot())
}

// Volume handles GET /volume?from=&to=&direction=.
func (s *Server) Volume(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		http.Error(w, "from and to are required", http.StatusBadRequest)
		return
	}
	dir, err := core.ParseDirection(q.Get("direction"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Network.Lookup(from); !ok {
		s.writeError(w, flow.ErrSegmentNotFound)
		return
	}
	v, found, err := s.Network.VolumeTo(from, to, dir)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, VolumeResponse{From: from, To: to, Found: found, Volume: v})
}

// TimeFrom handles POST /time.
func (s *Server) TimeFrom(w http.ResponseWriter, r *http.Request) {
	var body FlowRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.At == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, found, err := s.Network.TimeFrom(body.At, body.Rates)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		s.writeError(w, flow.ErrSegmentNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, TimeResponse{At: body.At, Minutes: float64(d), Seconds: d.Seconds()})
}

// Stability handles POST /stability.
func (s *Server) Stability(w http.ResponseWriter, r *http.Request) {
	var body FlowRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.At == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	critical := body.CriticalRatio
	if critical == 0 {
		critical = flow.DefaultCriticalRatio
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	report, found, err := s.Network.CheckFlowStabilityFrom(body.At, critical, body.Rates)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		s.writeError(w, flow.ErrSegmentNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, StabilityResponse{
		At:            body.At,
		CriticalRatio: critical,
		Stable:        len(report.Unstable) == 0,
		Unstable:      report.Unstable,
		WorstRatio:    report.WorstRatio,
		Junctions:     report.Junctions,
	})
}

// Graph handles GET /graph.mmd.
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(s.Network, nil))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ambiguous *flow.AmbiguousPathError
	switch {
	case errors.As(err, &ambiguous):
		s.writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Paths: ambiguous.Paths})
	case errors.Is(err, flow.ErrNonConvergence):
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, flow.ErrSegmentNotFound):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		s.Logger.Error("request failed", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
