package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/logger"
)

const (
	// writeWait bounds how long a single event write may take.
	writeWait = 10 * time.Second
	// pongWait is how long we tolerate silence before dropping the peer.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	// Token auth decides access; the feed carries no payload worth
	// protecting against cross-origin reads.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events upgrades the connection to a websocket and streams change
// notifications for the caller's own rows until either side closes.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no identity")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			d.Logger.Debug("websocket upgrade failed", logger.Error(err))
			return
		}

		log := d.Logger.Named("events")
		log.Info("feed subscriber connected",
			logger.String("owner_id", ident.ID))

		events, subID := d.Hub.Subscribe(r.Context(), ident.ID)
		defer d.Hub.Unsubscribe(ident.ID, subID)
		defer conn.Close()

		// Read pump: we never expect data frames, but reading is what
		// processes pongs and surfaces the peer's close.
		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case ev, open := <-events:
				if !open {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					log.Debug("feed subscriber write failed",
						logger.String("owner_id", ident.ID),
						logger.Error(err))
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				log.Info("feed subscriber disconnected",
					logger.String("owner_id", ident.ID))
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
