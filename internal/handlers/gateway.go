package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fraglog/internal/config"
	"fraglog/internal/replay"
	"fraglog/internal/validator"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client message types
const (
	MsgProcessLog    = "processLog"
	MsgSkipToResults = "skipToResults"
)

// Server message types
const (
	MsgValidated          = "validated"
	MsgFailed             = "failed"
	MsgRankingUpdate      = "rankingUpdate"
	MsgMatchComplete      = "matchComplete"
	MsgProcessingComplete = "processingComplete"
	MsgError              = "error"
)

// ClientMessage is a request sent by an observer
type ClientMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Delay   *int   `json:"delay,omitempty"` // milliseconds; omitted means the configured default
}

// ServerMessage wraps every payload sent to an observer
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Gateway hosts one replay session per websocket connection
type Gateway struct {
	store    replay.Store
	cfg      config.ReplayConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*observer
}

// NewGateway creates a gateway. store may be nil to replay without persisting.
func NewGateway(store replay.Store, cfg config.ReplayConfig, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "REPLAY_GATEWAY"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*observer),
	}
}

// SessionCount returns the number of connected observers
func (g *Gateway) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

// ServeWS upgrades the request and serves the connection until it closes
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &observer{
		id:           uuid.NewString(),
		conn:         conn,
		writeTimeout: g.cfg.WriteTimeout(),
		cancel:       cancel,
	}
	o.session = replay.NewSession(o.id, g.store, o, g.logger)

	g.mu.Lock()
	g.conns[o.id] = o
	g.mu.Unlock()

	g.logger.Info("Observer connected", "session", o.id, "remote", r.RemoteAddr)

	defer func() {
		o.cancel()
		conn.Close()
		o.wg.Wait()

		g.mu.Lock()
		delete(g.conns, o.id)
		g.mu.Unlock()

		g.logger.Info("Observer disconnected", "session", o.id)
	}()

	g.readLoop(ctx, o)
}

func (g *Gateway) readLoop(ctx context.Context, o *observer) {
	for {
		_, data, err := o.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Debug("Read failed", "session", o.id, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			o.sendError(fmt.Sprintf("invalid message: %v", err))
			continue
		}

		switch msg.Type {
		case MsgProcessLog:
			g.startReplay(ctx, o, msg)
		case MsgSkipToResults:
			o.session.Skip()
		default:
			o.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
		}
	}
}

// startReplay claims the session on the read loop, so a skipToResults read
// right after this message applies to the new run
func (g *Gateway) startReplay(ctx context.Context, o *observer, msg ClientMessage) {
	delay := g.cfg.DefaultDelay()
	if msg.Delay != nil {
		delay = g.cfg.ClampDelay(*msg.Delay)
	}

	o.wg.Add(1)
	err := o.session.Start(ctx, msg.Content, delay, func(_ *replay.Summary, err error) {
		defer o.wg.Done()
		if err == nil {
			return
		}

		var ve *validator.ValidationError
		switch {
		case errors.As(err, &ve):
			// already reported through the failed signal
		case errors.Is(err, context.Canceled):
		default:
			g.logger.Error("Replay stopped", "session", o.id, "error", err)
			o.sendError(err.Error())
		}
	})
	if err != nil {
		o.wg.Done()
		o.sendError(err.Error())
	}
}

// observer is one websocket connection and its replay session
type observer struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	session      *replay.Session
	cancel       context.CancelFunc
	wg           sync.WaitGroup

	mu sync.Mutex // serializes writes
}

// Emit implements replay.Emitter
func (o *observer) Emit(_ context.Context, sig replay.Signal) error {
	return o.send(messageType(sig), sig)
}

func (o *observer) send(msgType string, data any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.writeTimeout > 0 {
		if err := o.conn.SetWriteDeadline(time.Now().Add(o.writeTimeout)); err != nil {
			return err
		}
	}
	return o.conn.WriteJSON(ServerMessage{Type: msgType, Data: data})
}

func (o *observer) sendError(message string) {
	_ = o.send(MsgError, errorPayload{Message: message})
}

func messageType(sig replay.Signal) string {
	switch sig.Kind() {
	case replay.KindValidated:
		return MsgValidated
	case replay.KindFailed:
		return MsgFailed
	case replay.KindSnapshot:
		return MsgRankingUpdate
	case replay.KindMatchComplete:
		return MsgMatchComplete
	case replay.KindComplete:
		return MsgProcessingComplete
	default:
		return string(sig.Kind())
	}
}
