package server

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/api/response"
	"ctchen222/tictactoe-minimax/internal/events"
	"ctchen222/tictactoe-minimax/internal/session"
	"ctchen222/tictactoe-minimax/internal/validator"
	"ctchen222/tictactoe-minimax/pkg/proto"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	heartbeatInterval = 10 * time.Second
	pongWait          = 3 * heartbeatInterval
	writeWait         = 5 * time.Second
	maxMessageSize    = 512
)

// handleWebSocket authenticates the caller, subscribes to the session's
// events and then pumps events out and commands in until either side hangs up.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
	))
	defer span.End()

	playerID, err := s.auth.ParseToken(c.Query("token"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rejected token")
		response.FromError(c, err)
		return
	}
	sess, err := s.manager.GetOwned(c.Query("session"), playerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session unavailable")
		response.FromError(c, err)
		return
	}
	span.SetAttributes(attribute.String("player.id", playerID), attribute.String("session.id", sess.ID))

	// The connection outlives the upgrade request, so it gets its own context.
	connCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, unsubscribe, err := s.subscriber.Subscribe(connCtx, sess.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to subscribe to session events", "session.id", sess.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to subscribe")
		response.FromError(c, err)
		return
	}
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "Failed to upgrade connection", "session.id", sess.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}
	slog.InfoContext(ctx, "Websocket connected", "session.id", sess.ID, "player.id", playerID)

	cl := &client{
		conn:    conn,
		session: sess,
		send:    make(chan proto.ServerToClientMessage, 8),
	}

	initial, err := stateMessage(sess)
	if err == nil {
		cl.send <- initial
	}

	go cl.readPump(connCtx, cancel)
	cl.writePump(connCtx, stream)
	slog.InfoContext(ctx, "Websocket disconnected", "session.id", sess.ID, "player.id", playerID)
}

// client is one websocket attached to a session. Only writePump writes to conn.
type client struct {
	conn    *websocket.Conn
	session *session.Session
	send    chan proto.ServerToClientMessage
}

// readPump applies client commands to the session. It cancels the
// connection context when the peer goes away.
func (cl *client) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "Websocket read error", "session.id", cl.session.ID, "error", err)
			}
			return
		}

		if err := cl.handleMessage(ctx, data); err != nil {
			cl.reply(ctx, proto.ServerToClientMessage{
				Type:      proto.TypeError,
				SessionID: cl.session.ID,
				Reason:    err.Error(),
			})
		}
	}
}

// handleMessage runs one command. The resulting state reaches the client
// through the session's event stream, so only failures are answered here.
func (cl *client) handleMessage(ctx context.Context, data []byte) error {
	var msg proto.ClientToServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	if err := validator.Struct(msg); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "server.handleMessage", trace.WithAttributes(
		attribute.String("session.id", cl.session.ID),
		attribute.String("message.type", msg.Type),
	))
	defer span.End()

	var err error
	switch msg.Type {
	case proto.TypeMove:
		_, err = cl.session.Play(ctx, *msg.Cell)
	case proto.TypeUndo:
		_, err = cl.session.Undo(ctx)
	case proto.TypeNewRound:
		_, err = cl.session.NewRound(ctx)
	case proto.TypeReset:
		_, err = cl.session.ResetAll(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Command refused")
	}
	return err
}

func (cl *client) reply(ctx context.Context, msg proto.ServerToClientMessage) {
	select {
	case cl.send <- msg:
	case <-ctx.Done():
	}
}

// writePump forwards session events and replies to the peer and keeps the
// connection alive with pings. It closes the connection on return.
func (cl *client) writePump(ctx context.Context, stream <-chan events.Event) {
	pingTicker := time.NewTicker(heartbeatInterval)
	defer func() {
		pingTicker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			cl.writeClose(websocket.CloseNormalClosure, "")
			return

		case ev, ok := <-stream:
			if !ok {
				cl.writeClose(websocket.CloseGoingAway, "event stream ended")
				return
			}
			msg := proto.ServerToClientMessage{Type: ev.Type, SessionID: ev.SessionID, Payload: ev.Payload}
			if err := cl.write(msg); err != nil {
				slog.WarnContext(ctx, "Failed to write event", "session.id", cl.session.ID, "error", err)
				return
			}
			if ev.Type == events.TypeSessionClosed {
				cl.writeClose(websocket.CloseNormalClosure, "session closed")
				return
			}

		case msg := <-cl.send:
			if err := cl.write(msg); err != nil {
				slog.WarnContext(ctx, "Failed to write message", "session.id", cl.session.ID, "error", err)
				return
			}

		case <-pingTicker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.WarnContext(ctx, "Failed to send ping, assuming disconnect", "session.id", cl.session.ID, "error", err)
				return
			}
		}
	}
}

func (cl *client) write(msg proto.ServerToClientMessage) error {
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteJSON(msg)
}

func (cl *client) writeClose(code int, text string) {
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}

func stateMessage(sess *session.Session) (proto.ServerToClientMessage, error) {
	ev, err := events.New(events.TypeState, sess.ID, sess.State())
	if err != nil {
		return proto.ServerToClientMessage{}, err
	}
	return proto.ServerToClientMessage{Type: ev.Type, SessionID: ev.SessionID, Payload: ev.Payload}, nil
}
