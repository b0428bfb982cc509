package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/example/forum-platform/internal/platform/api"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/internal/platform/signing"
	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/refresh"
)

// RefreshResource is the signed resource name of the refresh stream.
const RefreshResource = "refresh"

const (
	ticketTTL  = time.Minute
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	// The signed ticket authorizes the connection.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type versionMsg struct {
	Version uint64 `json:"version"`
}

// RefreshTicket hands a signed-in caller a short-lived websocket URL.
func RefreshTicket(s *signing.Signer, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok || uid == "" {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}
		t := s.Issue(RefreshResource, uid, ticketTTL)
		u, err := t.URL(baseURL + "/v1/refresh/ws")
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"url": u, "expires_at": time.Unix(t.Exp, 0).UTC()})
	}
}

// RefreshStream upgrades to a websocket and sends the bus version once on
// connect and again after every change.
func RefreshStream(bus *refresh.Bus, s *signing.Signer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		t, err := signing.ParseTicket(r.URL.Query())
		if err != nil {
			api.Unauthorized(w, "TICKET_MISSING", "Missing refresh ticket", rid)
			return
		}
		if err := s.Verify(t, RefreshResource); err != nil {
			api.Forbidden(w, "TICKET_INVALID", err.Error(), rid)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		defer ws.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		sub := bus.Subscribe()
		defer sub.Close()

		// Reads only detect the peer going away.
		go func() {
			defer cancel()
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func(v uint64) error {
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			return ws.WriteJSON(versionMsg{Version: v})
		}
		if err := send(bus.Version()); err != nil {
			return
		}
		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-sub.C():
				if !ok {
					_ = ws.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
					return
				}
				if err := send(v); err != nil {
					return
				}
			case <-ping.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}
}

// broadcaster fires every replica without announcing a forum write.
type broadcaster interface {
	Broadcast() uint64
}

// AdminRefresh forces a broadcast to every subscriber.
func AdminRefresh(n interaction.Notifier) http.HandlerFunc {
	fire := n.Trigger
	if b, ok := n.(broadcaster); ok {
		fire = b.Broadcast
	}
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, versionMsg{Version: fire()})
	}
}
