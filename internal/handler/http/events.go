package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/handler/http/response"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/jwt"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/sse"
)

const streamKeepalive = 30 * time.Second

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// EventHandler serves the decision stream of the signed-in employee
type EventHandler interface {
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type eventHandlerImpl struct {
	hub        *sse.Hub
	jwtService jwt.Service
}

func NewEventHandler(hub *sse.Hub, jwtService jwt.Service) EventHandler {
	return &eventHandlerImpl{
		hub:        hub,
		jwtService: jwtService,
	}
}

// GetSSEToken generates a short-lived token for SSE connections
func (h *eventHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.Authenticated(); err != nil {
		response.HandleError(w, err)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(actor.EmployeeID)
	if err != nil {
		slog.Error("Failed to generate SSE token", "employee_id", actor.EmployeeID, "error", err)
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream pushes correction decisions to the employee as server-sent events
func (h *eventHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot send headers, so the token comes in the query string
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	employeeID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(employeeID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"employee_id\":%q}\n\n", employeeID)
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Warn("Failed to encode SSE event", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
