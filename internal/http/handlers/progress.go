package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware for the REST surface;
	// the socket mirrors it by accepting any origin the router let through.
	CheckOrigin: func(*http.Request) bool { return true },
}

const progressWriteWait = 10 * time.Second

// BatchProgress streams store events for one batch over a websocket. The
// stream ends with a close message once the batch reaches a terminal state
// or the client goes away.
func (a *App) BatchProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batch_id")
	events, cancel, err := a.Store.Subscribe(id)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "batch not found")
		return
	}
	defer cancel()

	conn, err := progressUpgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Str("batch_id", id).Msg("handlers: websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Drain reads so client close frames are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				deadline := time.Now().Add(progressWriteWait)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "batch finished"), deadline)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(progressWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
