package server

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 5 * time.Second
	eventBacklog = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// inputMessage is the error reply sent for a rejected pointer message.
type inputMessage struct {
	Error string `json:"error"`
}

// InputHandler accepts raw pointer events over a WebSocket and streams the
// resulting gesture events back to the client.
//
// Every connection has its own pointer builder but all of them feed the same
// engine, so inputs from concurrent clients share one lifecycle track.
type InputHandler struct {
	engine *engine.Engine
}

// NewInputHandler creates an InputHandler that feeds e.
func NewInputHandler(e *engine.Engine) *InputHandler {
	return &InputHandler{engine: e}
}

// ServeHTTP upgrades the request and serves the connection until the client
// goes away. With ?inputs=true the client also receives the input events.
func (h *InputHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withInputs, _ := strconv.ParseBool(r.URL.Query().Get("inputs"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	out := make(chan any, eventBacklog)
	sub := h.engine.On(engine.CatchAll, func(ev engine.Event) {
		if ev.BaseType == engine.InputEvent && !withInputs {
			return
		}
		// Handlers run on the engine turn; a slow client loses events.
		select {
		case out <- ev:
		default:
		}
	})

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			case msg := <-out:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					// Unblock the reader.
					conn.Close()
					return
				}
			}
		}
	}()

	builder := pointer.NewBuilder()
	defer func() {
		// Close a lifecycle the client left open.
		if builder.Active() > 0 {
			h.process(builder, pointer.RawEvent{Kind: pointer.KindCancel})
		}
		sub.Remove()
		close(quit)
		<-done
	}()

	for {
		var ev pointer.RawEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}
		if err := h.process(builder, ev); err != nil {
			select {
			case out <- inputMessage{Error: err.Error()}:
			default:
			}
		}
	}
}

func (h *InputHandler) process(b *pointer.Builder, ev pointer.RawEvent) error {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}
	if ev.Source == "" {
		ev.Source = "websocket"
	}
	in, err := b.Build(ev)
	if err != nil {
		return err
	}
	return h.engine.Process(in)
}
