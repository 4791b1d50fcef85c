package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/dispatch"
	"github.com/vovakirdan/wirechat-bridge/internal/proto"
)

// errEventsClosed means the hub stopped or evicted the client.
var errEventsClosed = errors.New("event stream closed")

// WSOptions tune a WebSocket connection.
type WSOptions struct {
	ClientBuffer      int
	MaxMessageBytes   int64
	RequestsPerMinute int
}

// WSHandler upgrades HTTP connections, registers them with the hub and
// serves their requests through the invoker.
type WSHandler struct {
	hub      *core.Hub
	invoker  Invoker
	sessions SessionManager
	opts     WSOptions
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, invoker Invoker, sessions SessionManager, opts WSOptions, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, invoker: invoker, sessions: sessions, opts: opts, log: logger}
}

// Handle is the gin entry point; it runs after AuthMiddleware and
// SessionOwnerMiddleware.
func (h *WSHandler) Handle(c *gin.Context) {
	h.serve(c.Writer, c.Request, c.GetString(ContextKeyUsername))
}

// owns reports whether an authenticated user still owns the engine session.
// The session can change hands while the connection is open.
func (h *WSHandler) owns(user string) bool {
	return ownsSession(h.sessions, user)
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, user string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	client := core.NewClient(uuid.NewString(), user, h.opts.ClientBuffer)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)
	h.log.Debug().Str("client_id", client.ID).Str("user", client.Name).Msg("ws client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	replies := make(chan proto.Outbound, cap(client.Events))
	var pending sync.WaitGroup
	defer pending.Wait()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, user, replies, &pending)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, user, replies)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if errors.Is(err, errEventsClosed) {
		h.log.Warn().Str("client_id", client.ID).Msg("event stream closed by hub")
		conn.Close(websocket.StatusTryAgainLater, err.Error())
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop decodes request frames. Each request is dispatched on its own
// goroutine and its reply is queued for the writer.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, user string, replies chan<- proto.Outbound, pending *sync.WaitGroup) error {
	limiter := newRateLimiter(h.opts.RequestsPerMinute)
	queue := func(out proto.Outbound) bool {
		select {
		case replies <- out:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if inbound.Type != proto.InboundTypeRequest || inbound.Method == "" {
			if !queue(proto.Outbound{Type: proto.OutboundTypeError, ID: inbound.ID, Error: &proto.Error{
				Kind:    string(core.KindValidation),
				Code:    core.ErrCodeValidation,
				Message: "expected a request frame with a method",
			}}) {
				return ctx.Err()
			}
			continue
		}
		if !h.owns(user) {
			h.log.Warn().Str("client_id", client.ID).Str("user", user).Str("method", inbound.Method).Msg("request rejected, session belongs to another user")
			if !queue(proto.Outbound{Type: proto.OutboundTypeReply, ID: inbound.ID, Error: &proto.Error{
				Kind:    "forbidden",
				Code:    http.StatusForbidden,
				Message: "session belongs to another user",
			}}) {
				return ctx.Err()
			}
			continue
		}
		if !allow(limiter) {
			h.log.Debug().Str("client_id", client.ID).Str("method", inbound.Method).Msg("request rate limited")
			if !queue(proto.Outbound{Type: proto.OutboundTypeReply, ID: inbound.ID, Error: &proto.Error{
				Kind:    "rate_limited",
				Code:    http.StatusTooManyRequests,
				Message: "too many requests",
			}}) {
				return ctx.Err()
			}
			continue
		}

		pending.Add(1)
		go func(req proto.Inbound) {
			defer pending.Done()
			res, err := h.invoker.Dispatch(ctx, req.Method, dispatch.Params(req.Params))
			queue(replyFor(req.ID, res, err))
		}(inbound)
	}
}

// writeLoop is the only goroutine writing to conn.
//
// Hub events belong to the open engine session; an authenticated user that
// no longer owns it stops receiving them.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, user string, replies <-chan proto.Outbound) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return errEventsClosed
			}
			if !h.owns(user) {
				continue
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case out := <-replies:
			if err := wsjson.Write(ctx, conn, out); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws reply")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
