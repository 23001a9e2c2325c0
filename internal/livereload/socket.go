package livereload

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ahamlinman/tilehost/internal/log"
)

var websocketUpgrader = websocket.Upgrader{
	// Map clients are commonly served from a different origin than the one
	// holding the archives, in the same way that archive requests are allowed
	// from any origin.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Handler streams the Status of a Poller to WebSocket clients as JSON messages.
type Handler struct {
	poller *Poller
}

// NewHandler creates a Handler for the Status of p.
func NewHandler(p *Poller) *Handler {
	return &Handler{poller: p}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, shutdown := context.WithCancelCause(r.Context())
	sh := &socketHandler{
		poller:   h.poller,
		ctx:      ctx,
		shutdown: shutdown,
	}
	sh.serve(w, r)
}

type statusMsg struct {
	Generation uint64
	Changed    []string `json:",omitempty"`
}

type socketHandler struct {
	poller    *Poller
	socket    *websocket.Conn
	ctx       context.Context
	shutdown  context.CancelCauseFunc
	waitGroup sync.WaitGroup
}

func (sh *socketHandler) serve(w http.ResponseWriter, r *http.Request) {
	log.Tprintf(sh, "Starting new connection")
	defer func() {
		sh.waitGroup.Wait()
		log.Tprintf(sh, "Connection done: %v", context.Cause(sh.ctx))
	}()

	var err error
	sh.socket, err = websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		sh.shutdown(err)
		return
	}
	defer sh.socket.Close()

	sh.waitGroup.Add(1)
	go func() {
		defer sh.waitGroup.Done()
		sh.drainClient()
	}()

	sub := sh.poller.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-sh.ctx.Done():
			return
		case st := <-sub.C():
			if err := sh.socket.WriteJSON(statusMsg(st)); err != nil {
				sh.shutdown(err)
				return
			}
		}
	}
}

func (sh *socketHandler) drainClient() {
	// Per https://pkg.go.dev/github.com/gorilla/websocket#hdr-Control_Messages,
	// we have to drain incoming messages ourselves even if we don't care about
	// them.
	for {
		if _, _, err := sh.socket.NextReader(); err != nil {
			sh.shutdown(err)
			return
		}
	}
}
