package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/auth"
)

// Outbound message types.
const (
	msgAttempt   = "attempt"
	msgReview    = "review"
	msgCompleted = "completed"
	msgError     = "error"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

type WSHandler struct {
	service  *app.ScenarioService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ScenarioService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
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
	QuestionID int    `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades to a websocket and drives one attempt through the scenario flow.
// Pass scenarioId to start a new attempt or attemptId to resume one.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	q := r.URL.Query()
	attemptID := q.Get("attemptId")
	scenarioID, convErr := strconv.Atoi(q.Get("scenarioId"))
	if attemptID == "" && convErr != nil {
		http.Error(w, "missing or invalid scenarioId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Use a context detached from request cancellation so a completion in progress finishes
	// writing even if the socket drops.
	ctx := context.WithoutCancel(r.Context())

	var view app.AttemptView
	if attemptID != "" {
		view, err = h.service.Get(ctx, attemptID, userID)
	} else {
		view, err = h.service.Start(ctx, userID, scenarioID)
	}
	if err != nil {
		p, _ := classify(err)
		_ = conn.WriteJSON(outboundMessage{Type: msgError, Payload: p})
		return
	}
	attemptID = view.ID

	// The server's ReadTimeout outlives the upgrade; keep the socket alive with pings instead.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Debug("ws write failed", zap.String("attempt", attemptID), zap.Error(err))
					// Drain so the reader never blocks on a dead connection.
					for range send {
					}
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					for range send {
					}
					return
				}
			}
		}
	}()

	send <- viewMessage(view)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		msg, stop := h.handle(ctx, attemptID, userID, inbound, send)
		send <- msg
		if stop {
			break
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, attemptID, userID string, in inboundMessage, send chan<- outboundMessage) (outboundMessage, bool) {
	var (
		view app.AttemptView
		err  error
	)
	switch in.Type {
	case "select":
		var p selectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errorMessage(errorPayload{Message: "invalid select payload", Code: CodeInvalidRequest}), false
		}
		view, err = h.service.SelectAnswer(ctx, attemptID, userID, p.QuestionID, p.OptionID)
	case "next":
		view, err = h.service.Next(ctx, attemptID, userID)
	case "previous":
		view, err = h.service.Previous(ctx, attemptID, userID)
	case "complete":
		result, err := h.service.CompleteNotify(ctx, attemptID, userID, func(v app.AttemptView) {
			send <- viewMessage(v)
		})
		if err != nil {
			h.logger.Info("completion not recorded",
				zap.String("attempt", attemptID), zap.String("user", userID), zap.Error(err))
			p, _ := classify(err)
			return errorMessage(p), false
		}
		return outboundMessage{Type: msgCompleted, Payload: result}, false
	case "abandon":
		h.service.Abandon(ctx, attemptID, userID)
		return outboundMessage{Type: msgAttempt, Payload: map[string]string{"id": attemptID, "phase": "abandoned"}}, true
	default:
		return errorMessage(errorPayload{Message: "unsupported message type", Code: CodeInvalidRequest}), false
	}
	if err != nil {
		p, _ := classify(err)
		return errorMessage(p), false
	}
	return viewMessage(view), false
}

func viewMessage(view app.AttemptView) outboundMessage {
	if view.Phase == app.PhaseReviewing.String() {
		return outboundMessage{Type: msgReview, Payload: view}
	}
	return outboundMessage{Type: msgAttempt, Payload: view}
}

func errorMessage(p errorPayload) outboundMessage {
	return outboundMessage{Type: msgError, Payload: p}
}
