package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matt-g-everett/lavatx/control"
	"github.com/matt-g-everett/lavatx/playback"
)

const (
	idleTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 64
)

// Api serves the control panel and a websocket per animation.
type Api struct {
	addr       string
	static     string
	animations map[string]playback.Control
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewApi creates an Api for the named animations. Static files are served
// from staticDir when it is not empty.
func NewApi(addr string, staticDir string, animations map[string]playback.Control, logger *slog.Logger) *Api {
	a := new(Api)
	a.addr = addr
	a.static = staticDir
	a.animations = animations
	a.logger = logger
	a.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	return a
}

// Handler returns the HTTP routes.
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/animations", a.handleList)
	mux.HandleFunc("/ws", a.handleWebSocket)
	if a.static != "" {
		mux.Handle("/", http.FileServer(http.Dir(a.static)))
	}
	return mux
}

// Serve listens until ctx is done.
func (a *Api) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: a.addr, Handler: a.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("listening", "addr", a.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *Api) handleList(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(a.animations))
	for name := range a.animations {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make([]control.Status, 0, len(names))
	for _, name := range names {
		ctl := a.animations[name]
		statuses = append(statuses, control.FrameStatus(name, ctl, ctl.CurrentFrame()))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statuses)
}

func (a *Api) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("animation")
	ctl, ok := a.animations[name]
	if !ok {
		http.Error(w, "unknown animation", http.StatusNotFound)
		return
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	logger := a.logger.With("animation", name, "remote", r.RemoteAddr)
	logger.Debug("panel connected")

	conn.SetReadDeadline(time.Now().Add(idleTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(idleTimeout))
		return nil
	})

	out := newOutbox()
	done := make(chan struct{})
	defer close(done)
	go writeLoop(conn, out, done, logger)

	unsubscribe := ctl.Subscribe(func(frame int) {
		out.push(control.FrameStatus(name, ctl, frame))
	})
	defer unsubscribe()
	out.push(control.FrameStatus(name, ctl, ctl.CurrentFrame()))

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := control.Handle(ctl, data); err != nil {
			logger.Warn("command rejected", "error", err)
			out.push(control.ErrorFor(name, err))
		}
	}
}

// outbox queues messages for the writer. Frame statuses arrive at the
// playback rate; when the panel falls behind the oldest are dropped.
type outbox struct {
	mu     sync.Mutex
	queue  []interface{}
	notify chan struct{}
}

func newOutbox() *outbox {
	return &outbox{notify: make(chan struct{}, 1)}
}

func (o *outbox) push(v interface{}) {
	o.mu.Lock()
	if len(o.queue) >= sendBuffer {
		o.queue = o.queue[1:]
	}
	o.queue = append(o.queue, v)
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *outbox) drain() []interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	q := o.queue
	o.queue = nil
	return q
}

func writeLoop(conn *websocket.Conn, out *outbox, done <-chan struct{}, logger *slog.Logger) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-out.notify:
			for _, v := range out.drain() {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(v); err != nil {
					logger.Debug("websocket write failed", "error", err)
					conn.Close()
					return
				}
			}
		}
	}
}
