package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/services"
	"github.com/paulexconde/surveychat/pkg/fault"
)

const (
	closeWriteWait     = time.Second
	shuttingDownReason = "server shutting down"
)

type ChatController struct {
	chat     services.ChatService
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	closing bool
	active  sync.WaitGroup
}

func NewChatController(chat services.ChatService, logger *slog.Logger) *ChatController {
	return &ChatController{
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Respond runs one survey conversation over a websocket. The session is
// suspended when the connection ends, unless it is owned by another
// connection.
func (cc *ChatController) Respond(c *gin.Context) {
	id := models.SessionID{UserID: c.Param("user_id"), SurveyID: c.Param("survey_id")}
	logger := cc.logger.With("session", id.String(), "trace_id", c.GetString(traceIDKey))

	conn, err := cc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if !cc.track(conn) {
		closeWith(conn, websocket.CloseGoingAway, shuttingDownReason)
		return
	}
	// registered first so it runs after the session is suspended
	defer cc.untrack(conn)

	// the request context is not tied to the hijacked connection
	ctx := context.WithoutCancel(c.Request.Context())
	conv := newConversation(logger, id.String())

	question, err := cc.chat.Connect(ctx, id)
	if !errors.Is(err, fault.ErrSessionActive) {
		defer func() {
			if err := cc.chat.Disconnect(ctx, id); err != nil {
				logger.Error("Failed to suspend session", "error", err)
			}
		}()
	}
	if err != nil {
		cc.refuse(conn, logger, err)
		return
	}

	if err := conv.fire(ctx, eventConnect); err != nil {
		logger.Error("Conversation out of order", "state", conv.state(), "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(welcomeMessage)); err != nil {
		return
	}

	for {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(FormatQuestion(*question))); err != nil {
			logger.Debug("Websocket write failed", "error", err)
			return
		}
		if err := conv.fire(ctx, eventAsk); err != nil {
			logger.Error("Conversation out of order", "state", conv.state(), "error", err)
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Info("Websocket disconnected", "state", conv.state())
			return
		}

		next, err := cc.chat.HandleMessage(ctx, id, string(msg))
		if err != nil {
			if !fault.IsClientError(err) {
				logger.Error("Failed to handle message", "error", err)
				closeWith(conn, websocket.CloseInternalServerErr, "internal error")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(formatError(fault.Message(err)))); err != nil {
				return
			}
			continue
		}

		if next == nil {
			if err := conv.fire(ctx, eventComplete); err != nil {
				logger.Error("Conversation out of order", "state", conv.state(), "error", err)
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(goodbyeMessage)); err != nil {
				return
			}
			closeWith(conn, websocket.CloseNormalClosure, "")
			return
		}

		question = next
	}
}

// Shutdown ends every open conversation and waits until each connection
// has suspended its session. New connections are refused from then on.
func (cc *ChatController) Shutdown(ctx context.Context) error {
	cc.mu.Lock()
	cc.closing = true
	for conn := range cc.conns {
		closeWith(conn, websocket.CloseGoingAway, shuttingDownReason)
		// unblocks a handler waiting for an answer
		_ = conn.SetReadDeadline(time.Now())
	}
	count := len(cc.conns)
	cc.mu.Unlock()

	if count > 0 {
		cc.logger.Info("Closing chat connections", "count", count)
	}

	done := make(chan struct{})
	go func() {
		cc.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("chat connections still open: %w", ctx.Err())
	}
}

func (cc *ChatController) track(conn *websocket.Conn) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.closing {
		return false
	}
	cc.conns[conn] = struct{}{}
	cc.active.Add(1)
	return true
}

func (cc *ChatController) untrack(conn *websocket.Conn) {
	cc.mu.Lock()
	delete(cc.conns, conn)
	cc.mu.Unlock()
	cc.active.Done()
}

func (cc *ChatController) refuse(conn *websocket.Conn, logger *slog.Logger, err error) {
	if !fault.IsClientError(err) {
		logger.Error("Failed to connect", "error", err)
		closeWith(conn, websocket.CloseInternalServerErr, "internal error")
		return
	}

	logger.Warn("Connection refused", "reason", fault.Message(err))
	closeWith(conn, websocket.ClosePolicyViolation, fault.Message(err))
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
}
