package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/authclient"
	qport "github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/queue/port"
	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/realtime"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/presence"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/task"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/usecase"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/event"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/identity"
	repository "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/persistence/repository/port"
)

// GatewaySocketController handles the websocket endpoint for realtime
// messaging traffic: presence fan-out, conversation rooms, message
// persistence plus echo, typing relay and delivery/read acknowledgments.
type GatewaySocketController struct {
	router          *realtime.Router
	verifier        authclient.Verifier
	mirror          *presence.Mirror
	queue           qport.Client
	saveMessageUC   *usecase.SaveMessageUseCase
	markDeliveredUC *usecase.MarkDeliveredUseCase
	inflightTimeout time.Duration
}

func NewGatewaySocketController(repo repository.MessageRepository, router *realtime.Router, verifier authclient.Verifier, mirror *presence.Mirror, queue qport.Client) *GatewaySocketController {
	return &GatewaySocketController{
		router:          router,
		verifier:        verifier,
		mirror:          mirror,
		queue:           queue,
		saveMessageUC:   usecase.NewSaveMessageUseCase(repo),
		markDeliveredUC: usecase.NewMarkDeliveredUseCase(repo),
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The gateway sits behind the marketplace's edge; origin policy is
		// enforced there.
		return true
	},
}

const defaultReadTimeout = 60 * time.Second

// Handle authenticates the handshake, upgrades to websocket and processes
// frames until the client disconnects.
func (ctl *GatewaySocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		token := c.Query("token")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		authCtx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
		err := ctl.verifier.Verify(authCtx, userID, token)
		cancel()
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, authclient.ErrUnauthorized) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{"error": "authentication failed"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.router.Attach(conn)
		ctl.announceOnline(conn)
		defer func() {
			wentOffline := ctl.router.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			if wentOffline {
				ctl.announceOffline(userID)
			}
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					log.Printf("gateway: read from %s: %v", userID, err)
				}
				return
			}

			frame, err := event.Decode(data)
			if err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case event.Join:
				ctl.handleJoin(conn, frame)
			case event.Leave:
				ctl.handleLeave(conn, frame)
			case event.SendMessage:
				ctl.handleSendMessage(c, conn, userID, frame)
			case event.Typing, event.StopTyping:
				ctl.handleTyping(conn, userID, frame)
			case event.MessageDelivered:
				ctl.handleDelivered(c, conn, frame)
			case event.MarkRead:
				ctl.handleMarkRead(c, conn, userID, frame)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

// announceOnline tells everyone else the user came up and hands the new
// session the current snapshot, so its presence set starts warm.
func (ctl *GatewaySocketController) announceOnline(conn *realtime.Connection) {
	if payload, err := event.Encode(event.UserOnline, event.PresencePayload{UserID: conn.UserID}); err == nil {
		ctl.router.BroadcastAll(payload, conn.UserID)
	}

	if payload, err := event.Encode(event.Connected, event.ConnectedPayload{SessionID: conn.ID}); err == nil {
		_ = conn.Send(payload)
	}
	if payload, err := event.Encode(event.PresenceState, event.PresenceStatePayload{Online: ctl.router.OnlineUserIDs()}); err == nil {
		_ = conn.Send(payload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
	defer cancel()
	ctl.mirror.SetOnline(ctx, conn.UserID)
}

func (ctl *GatewaySocketController) announceOffline(userID string) {
	if payload, err := event.Encode(event.UserOffline, event.PresencePayload{UserID: userID}); err == nil {
		ctl.router.BroadcastAll(payload, userID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
	defer cancel()
	ctl.mirror.SetOffline(ctx, userID)
}

func (ctl *GatewaySocketController) handleJoin(conn *realtime.Connection, frame event.Frame) {
	var p event.JoinPayload
	if err := frame.Payload(&p); err != nil || p.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}
	// The gateway cannot recompute an id it has only one side of; a
	// malformed one is rejected and the client rejoins with a derived id.
	if !identity.IsWellFormed(p.ConversationID) {
		ctl.replyError(conn, "bad_conversation_id", "conversation id failed shape check")
		return
	}
	ctl.router.Join(p.ConversationID, conn)
}

func (ctl *GatewaySocketController) handleLeave(conn *realtime.Connection, frame event.Frame) {
	var p event.JoinPayload
	if err := frame.Payload(&p); err != nil || p.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}
	ctl.router.Leave(p.ConversationID, conn)
}

func (ctl *GatewaySocketController) handleSendMessage(c *gin.Context, conn *realtime.Connection, userID string, frame event.Frame) {
	var p event.SendMessagePayload
	if err := frame.Payload(&p); err != nil {
		ctl.replyError(conn, "bad_request", "invalid send_message payload")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	msg, err := ctl.saveMessageUC.Execute(ctx, usecase.SaveMessageInput{
		ConversationID: p.ConversationID,
		SenderID:       userID,
		ReceiverID:     p.ReceiverID,
		Body:           p.Body,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	payload, err := event.Encode(event.NewMessage, msg)
	if err != nil {
		ctl.replyError(conn, "internal_error", "failed to encode message")
		return
	}

	// Fan out to the room, then echo to the sender: the sender's log is
	// confirmation-driven, so its own copy also arrives as new_message.
	ctl.router.Broadcast(msg.ConversationID, payload, userID)
	if !ctl.router.NotifyUser(userID, payload) {
		_ = conn.Send(payload)
	}

	// A receiver outside the room sees a counter bump, not a render.
	if !ctl.router.InRoom(msg.ConversationID, msg.ReceiverID) {
		ctl.mirror.IncrementUnread(ctx, msg.ConversationID, msg.ReceiverID)
		if !ctl.router.NotifyUser(msg.ReceiverID, payload) {
			log.Printf("gateway: receiver %s offline for %s", msg.ReceiverID, msg.ConversationID)
		}
	}
}

// handleTyping relays start and stop as one inbound event shape; receivers
// distinguish them by is_typing.
func (ctl *GatewaySocketController) handleTyping(conn *realtime.Connection, userID string, frame event.Frame) {
	var p event.TypingPayload
	if err := frame.Payload(&p); err != nil || p.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "invalid typing payload")
		return
	}
	p.UserID = userID
	p.IsTyping = frame.Type == event.Typing

	payload, err := event.Encode(event.Typing, p)
	if err != nil {
		return
	}
	ctl.router.Broadcast(p.ConversationID, payload, userID)
}

func (ctl *GatewaySocketController) handleDelivered(c *gin.Context, conn *realtime.Connection, frame event.Frame) {
	var p event.DeliveredPayload
	if err := frame.Payload(&p); err != nil || p.MessageID == "" {
		ctl.replyError(conn, "bad_request", "invalid delivered payload")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()
	if err := ctl.markDeliveredUC.Execute(ctx, usecase.MarkDeliveredInput{MessageID: p.MessageID}); err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	if payload, err := event.Encode(event.MessageDelivered, p); err == nil {
		ctl.router.Broadcast(p.ConversationID, payload, conn.UserID)
	}
}

func (ctl *GatewaySocketController) handleMarkRead(c *gin.Context, conn *realtime.Connection, userID string, frame event.Frame) {
	var p event.ReadPayload
	if err := frame.Payload(&p); err != nil || p.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "invalid mark_read payload")
		return
	}
	p.ReaderID = userID

	// Relay first so peers advance their copies without waiting on storage.
	if payload, err := event.Encode(event.MessagesRead, p); err == nil {
		ctl.router.Broadcast(p.ConversationID, payload, userID)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()
	ctl.mirror.ResetUnread(ctx, p.ConversationID, userID)
	ctl.enqueueReadReceipt(ctx, conn, p)
}

func (ctl *GatewaySocketController) enqueueReadReceipt(ctx context.Context, conn *realtime.Connection, p event.ReadPayload) {
	if ctl.queue == nil || len(p.MessageIDs) == 0 {
		return
	}
	payload, err := json.Marshal(task.PersistReadReceiptPayload{
		ConversationID: p.ConversationID,
		ReaderID:       p.ReaderID,
		MessageIDs:     p.MessageIDs,
	})
	if err != nil {
		return
	}
	opts := qport.EnqueueOption{Queue: "messaging", MaxRetry: 20}
	if _, err := ctl.queue.Enqueue(ctx, qport.Task{Type: task.PersistReadReceiptTaskType, Payload: payload}, opts); err != nil {
		log.Printf("gateway: enqueue read receipt: %v", err)
		ctl.replyError(conn, "internal_error", "failed to queue read receipt")
	}
}

func (ctl *GatewaySocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "internal_error", "unexpected persistence error")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *GatewaySocketController) replyError(conn *realtime.Connection, code string, message string) {
	if payload, err := event.Encode(event.Error, event.ErrorPayload{Code: code, Error: message}); err == nil {
		_ = conn.Send(payload)
	}
}
