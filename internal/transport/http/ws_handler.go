package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/clock"
	"proctor-quiz-service/internal/domain"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 64 << 10
)

// WSHandler runs a proctored session over a websocket. The browser is the
// platform: it forwards environment signals and hosts the camera preview.
type WSHandler struct {
	service  *app.QuizService
	clock    clock.Clock
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		clock:   clock.Real(),
		log:     log.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type signalPayload struct {
	Kind string `json:"kind"`
}

type monitorPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type verdictPayload struct {
	Kind string `json:"kind"`
	app.Verdict
}

type submittedPayload struct {
	Payload domain.SubmissionPayload `json:"payload"`
	Report  *domain.Report           `json:"report,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs the attempt's quiz on them.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	attemptID := r.URL.Query().Get("attemptId")
	if attemptID == "" {
		http.Error(w, "missing attemptId", http.StatusBadRequest)
		return
	}
	attempt, err := h.service.Attempt(r.Context(), attemptID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if attempt.Stage != domain.StageQuiz {
		http.Error(w, domain.ErrStageMismatch.Error(), http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	log := h.log.With().Str("attempt_id", attemptID).Logger()
	out := newWSConn(conn, log)
	defer out.shutdown()

	events := app.NewDispatcher()
	camera := &wsCamera{out: out, replies: make(chan monitorPayload, 1)}

	session, err := h.service.StartQuiz(r.Context(), attemptID, app.SessionEnv{
		Events: events,
		Camera: camera,
		Clock:  h.clock,
	})
	if err != nil {
		out.send(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer session.Close()
	defer h.service.EndSession(attemptID)

	updates, cancel := session.Subscribe()
	defer cancel()

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		h.forward(r.Context(), attemptID, updates, out)
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("ws read error")
			}
			break
		}
		if err := h.handle(session, events, camera, out, inbound); err != nil {
			out.send(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	}

	h.service.EndSession(attemptID)
	cancel()
	<-forwardDone
}

func (h *WSHandler) handle(session *app.Session, events *app.Dispatcher, camera *wsCamera, out *wsConn, inbound inboundMessage) error {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid select payload")
		}
		opt, err := domain.ParseOption(payload.Option)
		if err != nil {
			return err
		}
		session.SelectAnswer(opt)
	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid goto payload")
		}
		session.GoTo(payload.Index)
	case "next":
		session.Next()
	case "previous":
		session.Previous()
	case "submit":
		if !session.Submit() {
			return errors.New("quiz is not in progress")
		}
	case "signal":
		var payload signalPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid signal payload")
		}
		sig, ok := app.ParseSignal(payload.Kind)
		if !ok {
			return fmt.Errorf("unsupported signal %q", payload.Kind)
		}
		verdict := events.Dispatch(sig)
		out.send(outboundMessage[any]{Type: "verdict", Payload: verdictPayload{Kind: payload.Kind, Verdict: verdict}})
	case "monitor":
		var payload monitorPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid monitor payload")
		}
		camera.resolve(payload)
	default:
		return errors.New("unsupported message type")
	}
	return nil
}

// forward relays snapshots until the session is closed. The submitted
// snapshot is followed by the graded report.
func (h *WSHandler) forward(ctx context.Context, attemptID string, updates <-chan domain.SessionSnapshot, out *wsConn) {
	submitted := false
	for snap := range updates {
		out.send(outboundMessage[any]{Type: "state", Payload: snap})
		if submitted || snap.State != domain.StateSubmitted || snap.Payload == nil {
			continue
		}
		submitted = true
		msg := submittedPayload{Payload: *snap.Payload}
		if report, err := h.service.Results(ctx, attemptID); err == nil {
			msg.Report = &report
		}
		out.send(outboundMessage[any]{Type: "submitted", Payload: msg})
	}
}

// wsConn serialises writes onto one connection. Messages sent after
// shutdown are dropped.
type wsConn struct {
	conn   *websocket.Conn
	log    zerolog.Logger
	queue  chan outboundMessage[any]
	closed chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newWSConn(conn *websocket.Conn, log zerolog.Logger) *wsConn {
	c := &wsConn{
		conn:   conn,
		log:    log,
		queue:  make(chan outboundMessage[any], 32),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *wsConn) writeLoop() {
	defer close(c.done)
	for {
		select {
		case msg := <-c.queue:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Warn().Err(err).Msg("ws write error")
				return
			}
		case <-c.closed:
			c.flush()
			return
		}
	}
}

// flush writes whatever is still queued, e.g. a final error.
func (c *wsConn) flush() {
	for {
		select {
		case msg := <-c.queue:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *wsConn) send(msg outboundMessage[any]) {
	select {
	case c.queue <- msg:
	case <-c.closed:
	case <-c.done:
	}
}

func (c *wsConn) shutdown() {
	c.once.Do(func() {
		close(c.closed)
		<-c.done
	})
}

// wsCamera asks the browser to start its camera and waits for the answer.
type wsCamera struct {
	out     *wsConn
	replies chan monitorPayload
}

func (c *wsCamera) Open(ctx context.Context, constraints app.Constraints) (app.Stream, error) {
	c.out.send(outboundMessage[any]{Type: "monitor.start", Payload: constraints})
	select {
	case reply := <-c.replies:
		if reply.Status != "ready" {
			if reply.Message == "" {
				return nil, domain.ErrCameraUnavailable
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrCameraUnavailable, reply.Message)
		}
		return &wsStream{out: c.out}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve hands the browser's answer to a pending Open. Extra answers are dropped.
func (c *wsCamera) resolve(reply monitorPayload) {
	select {
	case c.replies <- reply:
	default:
	}
}

type wsStream struct {
	out  *wsConn
	once sync.Once
}

func (s *wsStream) Stop() {
	s.once.Do(func() {
		s.out.send(outboundMessage[any]{Type: "monitor.stop", Payload: struct{}{}})
	})
}
