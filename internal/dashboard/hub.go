package dashboard

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/alertlog"
)

const pollInterval = 2 * time.Second

// hub pushes newly appended alert records to websocket clients. It polls
// the store rather than hooking the write path, so the dashboard process
// can run separately from the pipeline and still see file or database
// appends.
type hub struct {
	store    alertlog.Store
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	lastID  string
}

func newHub(store alertlog.Store, logger *zap.Logger) *hub {
	return &hub{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Reader discards inbound messages and detects disconnects.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// run polls for new records and broadcasts them until ctx is cancelled.
func (h *hub) run(ctx context.Context) {
	// Seed with the current tail so only alerts fired after startup are
	// pushed.
	if recent := h.store.Recent(1); len(recent) > 0 {
		h.lastID = recent[len(recent)-1].AlertID
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.broadcastNew()
		}
	}
}

func (h *hub) broadcastNew() {
	recent := h.store.Recent(recentAlerts)
	fresh := tailAfter(recent, h.lastID)
	if len(fresh) == 0 {
		return
	}
	h.lastID = fresh[len(fresh)-1].AlertID

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, rec := range fresh {
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(rec); err != nil {
				delete(h.clients, conn)
				conn.Close()
			}
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// tailAfter returns the records following lastID in an oldest-first slice.
// An unknown lastID means everything is new.
func tailAfter(recs []alertlog.Record, lastID string) []alertlog.Record {
	if lastID == "" {
		return recs
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].AlertID == lastID {
			return recs[i+1:]
		}
	}
	return recs
}
