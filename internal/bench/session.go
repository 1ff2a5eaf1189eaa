package bench

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hikaku/voicebench/internal/audio"
	"github.com/hikaku/voicebench/internal/config"
	"github.com/hikaku/voicebench/internal/observability"
	"github.com/hikaku/voicebench/internal/provider"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Single-user comparison tool; the browser UI is served from this
		// same process.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// State is the lifecycle state of a session.
type State int32

const (
	StateCreated State = iota
	StateInitializing
	StateActive
	StateShuttingDown
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateShuttingDown:
		return "shutting_down"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// controlMessage is any inbound JSON text message from the client.
type controlMessage struct {
	Type      string  `json:"type"`
	Timestamp float64 `json:"timestamp,omitempty"` // vad_speech_end, epoch-ms
	Text      string  `json:"text,omitempty"`      // tts_request
}

// Outbound message envelopes.
type configMessage struct {
	Type      string         `json:"type"`
	Providers []ProviderInfo `json:"providers"`
}

type transcriptionMessage struct {
	Type string `json:"type"`
	Event
}

type ttsResponseMessage struct {
	Type    string            `json:"type"`
	Results []SynthesisResult `json:"results"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Session is one WebSocket connection's lifetime. It owns the full set of
// provider streams, the VAD anchor (via the transcription fan-out), and one
// shared pooled HTTP client injected into every provider adapter.
type Session struct {
	conn *websocket.Conn
	cfg  *config.Config

	httpClient *http.Client
	tf         *TranscriptionFanout
	sf         *SynthesisFanout

	state   atomic.Int32
	writeMu sync.Mutex

	sessionID string
	log       zerolog.Logger

	ttsWG sync.WaitGroup
}

// NewSession creates a session over an upgraded WebSocket connection.
func NewSession(conn *websocket.Conn, cfg *config.Config) *Session {
	sessionID := observability.NewSessionID()
	log := observability.WithSessionID(sessionID)

	// One pooled client per session, shared by every provider adapter to
	// avoid per-provider connection overhead.
	httpClient := &http.Client{}

	streamCfg := streamConfigFor(cfg)
	tf := NewTranscriptionFanout(buildSTTProviders(cfg, httpClient, log), streamCfg, cfg.FrameQueueSize, cfg.EventQueueSize, log)
	sf := NewSynthesisFanout(buildTTSProviders(cfg, httpClient, log), cfg.TTSSampleRate, httpClient, log)

	s := &Session{
		conn:       conn,
		cfg:        cfg,
		httpClient: httpClient,
		tf:         tf,
		sf:         sf,
		sessionID:  sessionID,
		log:        log,
	}
	s.state.Store(int32(StateCreated))
	return s
}

// HandleWS is the entry point for benchmark WebSocket connections.
func HandleWS(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.GetLogger()
			logger.Error().Err(err).Msg("failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		session := NewSession(conn, cfg)
		session.Run(r.Context())
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run drives the session from initialization through teardown. It returns
// once the connection is closed and all provider streams are torn down or
// the shutdown grace period has elapsed.
func (s *Session) Run(ctx context.Context) {
	observability.RecordSessionStart()
	defer observability.RecordSessionEnd()

	s.log.Info().Msg("client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.state.Store(int32(StateInitializing))
	if err := s.tf.Start(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to initialize providers")
		observability.RecordError("init_error", "session")
		_ = s.writeJSON(errorMessage{Type: "error", Message: err.Error()})
		s.shutdown()
		return
	}

	// Tell the client which providers are live so it can render one
	// column per provider before any audio arrives.
	if err := s.writeJSON(configMessage{Type: "config", Providers: s.tf.Providers()}); err != nil {
		s.log.Warn().Err(err).Msg("failed to send config message")
		s.shutdown()
		return
	}

	go s.forwardEvents()

	s.state.Store(int32(StateActive))
	s.readLoop(ctx)

	cancel()
	s.shutdown()
}

// readLoop routes inbound messages: binary frames are audio, text frames
// are JSON control messages. It returns when the connection dies.
func (s *Session) readLoop(ctx context.Context) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Msg("WebSocket read error")
			} else {
				s.log.Info().Msg("client disconnected")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			observability.RecordAudioBytes("in", int64(len(data)))
			s.tf.PushAudio(audio.NewFrame(data))

		case websocket.TextMessage:
			s.handleControl(ctx, data)
		}
	}
}

// handleControl dispatches one inbound JSON control message. Malformed
// JSON is silently discarded.
func (s *Session) handleControl(ctx context.Context, data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debug().Msg("discarding malformed control message")
		return
	}

	switch msg.Type {
	case "vad_speech_end":
		s.tf.HandleSpeechEnd(msg.Timestamp)

	case "tts_request":
		s.ttsWG.Add(1)
		go func() {
			defer s.ttsWG.Done()
			results := s.sf.Synthesize(ctx, msg.Text)
			if err := s.writeJSON(ttsResponseMessage{Type: "tts_response", Results: results}); err != nil {
				s.log.Warn().Err(err).Msg("failed to send tts response")
			}
		}()

	default:
		s.log.Debug().Str("type", msg.Type).Msg("unknown control message")
	}
}

// forwardEvents relays merged transcription events to the client. A send
// failure (client socket closed) stops forwarding cleanly; the read loop
// observes the same failure and triggers teardown.
func (s *Session) forwardEvents() {
	for ev := range s.tf.Events() {
		if err := s.writeJSON(transcriptionMessage{Type: "transcription", Event: ev}); err != nil {
			s.log.Warn().Err(err).Msg("failed to send transcription")
			return
		}
	}
}

// shutdown tears down every provider stream concurrently, bounded by the
// configured grace period, then releases the shared HTTP client.
func (s *Session) shutdown() {
	if !s.state.CompareAndSwap(int32(StateActive), int32(StateShuttingDown)) {
		// Initialization failures shut down too.
		s.state.Store(int32(StateShuttingDown))
	}

	grace := time.Duration(s.cfg.ShutdownGraceMs) * time.Millisecond

	done := make(chan struct{})
	go func() {
		s.tf.Close()
		s.ttsWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		s.log.Warn().Dur("grace", grace).Msg("teardown grace period elapsed, abandoning stragglers")
	}

	s.sf.Close()
	s.state.Store(int32(StateClosed))
	s.log.Info().Msg("session closed")
}

// writeJSON serializes writes to the client socket; gorilla connections
// permit only one concurrent writer.
func (s *Session) writeJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// streamConfigFor derives the provider stream configuration from the
// service configuration.
func streamConfigFor(cfg *config.Config) provider.StreamConfig {
	return provider.StreamConfig{
		SampleRate:     cfg.SampleRate,
		Channels:       audio.Channels,
		Language:       cfg.Language,
		InterimResults: true,
	}
}
