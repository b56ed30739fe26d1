// Package server exposes the session over HTTP and WebSocket: REST control
// of the meeting lifecycle plus live transcript, summary, and status pushes.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/meetscribe/meetscribe/internal/audio"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
	"github.com/meetscribe/meetscribe/internal/session"
	"github.com/meetscribe/meetscribe/internal/summary"
	"github.com/meetscribe/meetscribe/internal/trace"
	"github.com/meetscribe/meetscribe/internal/transcribe"
)

const (
	// Per-connection inbound rate limit, sliding window.
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// Outbound event buffer; events beyond this are dropped rather than
	// stalling the session loops.
	eventBuffer = 256
)

// Controller is the slice of the session orchestrator the server drives.
type Controller interface {
	Initialize(ctx context.Context) error
	Start(ctx context.Context, meetingURL, password string, deviceID int) error
	Stop(ctx context.Context) error
	Export(format string) (string, error)
	ID() string
	State() session.State
	Stats() session.Stats
	OnStatus(session.StatusFunc)
	OnTranscript(session.TranscriptFunc)
	OnSummary(session.SummaryFunc)
}

// Outbound WebSocket messages.
type StatusMessage struct {
	Type      string    `json:"type"`
	State     string    `json:"state"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id,omitempty"`
}

type TranscriptMessage struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	IsFinal    bool    `json:"is_final"`
	Confidence float64 `json:"confidence,omitempty"`
}

type SummaryMessage struct {
	Type       string             `json:"type"`
	Overview   string             `json:"overview"`
	Structured summary.Structured `json:"structured"`
}

type RateLimitedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Inbound WebSocket messages.
type Message struct {
	Type string `json:"type"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections for one session.
type Server struct {
	ctrl        Controller
	listDevices func() ([]audio.Device, error)

	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter

	events chan any
}

// New creates a server wired to the session's observers and starts the
// broadcaster.
func New(ctrl Controller) *Server {
	s := &Server{
		ctrl:        ctrl,
		listDevices: audio.ListDevices,
		conns:       make(map[*websocket.Conn]struct{}),
		rateLimits:  make(map[*websocket.Conn]*rateLimiter),
		events:      make(chan any, eventBuffer),
	}

	ctrl.OnStatus(func(st session.Status) {
		s.emit(StatusMessage{
			Type:      "status",
			State:     string(st.State),
			Details:   st.Details,
			Timestamp: st.Timestamp,
		})
	})
	ctrl.OnTranscript(func(ev transcribe.Event) {
		s.emit(TranscriptMessage{
			Type:       "transcript",
			Text:       ev.Text,
			IsFinal:    ev.IsFinal,
			Confidence: ev.Confidence,
		})
	})
	ctrl.OnSummary(func(rec summary.Record) {
		s.emit(SummaryMessage{
			Type:       "summary",
			Overview:   rec.Structured.Overview,
			Structured: rec.Structured,
		})
	})

	go s.broadcast()
	return s
}

// emit queues an event for broadcast, dropping when the buffer is full so
// the session loops never block on slow dashboard clients.
func (s *Server) emit(msg any) {
	select {
	case s.events <- msg:
	default:
		slog.Warn("event buffer full, dropping broadcast")
	}
}

func (s *Server) broadcast() {
	for msg := range s.events {
		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn, m any) {
				_ = wsjson.Write(context.Background(), c, m)
			}(conn, msg)
		}
		s.mu.RUnlock()
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("POST /api/meeting/start", s.handleMeetingStart)
	mux.HandleFunc("POST /api/meeting/stop", s.handleMeetingStop)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/devices", s.handleDevices)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// Greet the new client with the current state.
	_ = wsjson.Write(baseCtx, conn, StatusMessage{
		Type:      "status",
		State:     string(s.ctrl.State()),
		Timestamp: time.Now(),
	})

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, RateLimitedMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		// Messages may carry their own trace_id; child it off so replies
		// and logs correlate with the client's trace.
		msgCtx := baseCtx
		var traceID string
		if tc, ok := trace.ExtractFromJSON(msg); ok {
			msgCtx = trace.WithContext(baseCtx, tc)
			traceID = tc.TraceID
		}

		switch base.Type {
		case "status":
			trace.Logger(msgCtx).Debug("status requested over websocket")
			_ = wsjson.Write(msgCtx, conn, StatusMessage{
				Type:      "status",
				State:     string(s.ctrl.State()),
				Timestamp: time.Now(),
				TraceID:   traceID,
			})
		}
	}
}

type startRequest struct {
	MeetingURL string `json:"meeting_url"`
	Password   string `json:"password,omitempty"`
	DeviceID   *int   `json:"device_id,omitempty"`
}

func (s *Server) handleMeetingStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := trace.Logger(ctx)

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.CodeConfig, "decode start request"))
		return
	}
	if req.MeetingURL == "" {
		writeError(w, apperrors.New(apperrors.CodeConfig, "meeting_url is required"))
		return
	}
	deviceID := audio.DefaultDevice
	if req.DeviceID != nil {
		deviceID = *req.DeviceID
	}

	if err := s.ctrl.Initialize(ctx); err != nil {
		log.Error("initialize failed", "error", err)
		writeError(w, err)
		return
	}
	if err := s.ctrl.Start(ctx, req.MeetingURL, req.Password, deviceID); err != nil {
		log.Error("start failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": s.ctrl.ID(),
		"state":      string(s.ctrl.State()),
	})
}

func (s *Server) handleMeetingStop(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Stop(r.Context()); err != nil {
		trace.Logger(r.Context()).Error("stop failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"state": string(s.ctrl.State()),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": s.ctrl.ID(),
		"state":      string(s.ctrl.State()),
		"stats":      s.ctrl.Stats(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = session.FormatStructured
	}

	out, err := s.ctrl.Export(format)
	if err != nil {
		writeError(w, err)
		return
	}

	switch format {
	case session.FormatStructured:
		w.Header().Set("Content-Type", "application/json")
	case session.FormatLongform:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

type deviceResponse struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	InputChannels int     `json:"input_channels"`
	SampleRate    float64 `json:"sample_rate"`
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.listDevices()
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceResponse{
			ID:            d.ID,
			Name:          d.Name,
			InputChannels: d.MaxInputChannels,
			SampleRate:    d.DefaultSampleRate,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes onto HTTP statuses and renders a JSON body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.CodeConfig:
		status = http.StatusBadRequest
	case apperrors.CodeJoin:
		status = http.StatusBadGateway
	case apperrors.CodeRateLimited:
		status = http.StatusTooManyRequests
	case apperrors.CodeUnavailable:
		status = http.StatusServiceUnavailable
	case apperrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  string(apperrors.CodeOf(err)),
	})
}
