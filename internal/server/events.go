package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
)

const (
	eventsWSWriteWait = 10 * time.Second
	eventsWSPongWait  = 60 * time.Second
	eventsWSPingEvery = (eventsWSPongWait * 9) / 10

	// eventsBuffer is how many events a slow client may lag before events
	// are dropped for it.
	eventsBuffer = 256
)

var eventsWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// handleEvents streams bus events as event.Envelope JSON messages.
// ?type=a,b restricts the stream to the named event types.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.opts.Bus == nil {
		http.Error(w, "event stream is not enabled", http.StatusServiceUnavailable)
		return
	}
	filter := parseTypes(r.URL.Query().Get("type"))

	// Subscribe before the handshake completes so the client sees every
	// event published after its dial returns.
	events, unsubscribe := s.opts.Bus.SubscribeChan(eventsBuffer)
	defer unsubscribe()

	conn, err := eventsWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(eventsWSPongWait)); err != nil {
		s.logger.Warn("events ws set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsWSPongWait))
	})

	// The read loop only drains control frames and notices disconnects.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventsWSPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-readerDone:
			return
		case <-r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if len(filter) > 0 && !filter[e.EventType()] {
				continue
			}
			if err := conn.SetWriteDeadline(time.Now().Add(eventsWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(event.Wrap(e)); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(eventsWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseTypes(raw string) map[string]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out[t] = true
		}
	}
	return out
}
