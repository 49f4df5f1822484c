package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// eventsHandler streams notification batches to a websocket client as JSON
// messages, one batch per message, until the client disconnects.
func eventsHandler(svc Service) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if !corsEnabled {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range corsAllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			return
		}
		defer conn.Close()
		wsClients.Inc()
		defer wsClients.Dec()

		batches, cancel := svc.Subscribe()
		defer cancel()

		// Reader goroutine: we send only, but reading is what surfaces
		// close frames and connection loss.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(wsPingInterval)
		defer ping.Stop()

		for {
			select {
			case batch, ok := <-batches:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(batch); err != nil {
					return
				}
			case <-ping.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
