package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/unihive/unihive/model"
	"github.com/unihive/unihive/realtime"
	"github.com/unihive/unihive/utils/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross origin during local development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// subscribeRequest is the first frame a client sends after the upgrade.
// Table selects the collection to watch. Events narrows to specific change
// types, empty means all. ConversationId narrows message events to a single
// conversation.
type subscribeRequest struct {
	Table          string   `json:"table"`
	Events         []string `json:"events"`
	ConversationId string   `json:"conversationId"`
}

// Subscription upgrades the request to a websocket, reads one subscribe
// frame and streams matching change events as JSON until either side closes.
func Subscription(broker *realtime.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Log.Warn("fail to upgrade websocket: ", err)
			return
		}
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(pongWait))
		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			log.Log.Warn("fail to read subscribe request: ", err)
			return
		}

		var types []model.ChangeType
		for _, e := range req.Events {
			types = append(types, model.ChangeType(e))
		}

		var filter realtime.FilterFunc
		if req.Table == model.TableMessages && req.ConversationId != "" {
			conversationId := req.ConversationId
			filter = func(event *model.ChangeEvent) bool {
				msg, ok := event.Row.(*model.Message)
				return ok && msg.ConversationID == conversationId
			}
		}

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		events := broker.Subscribe(ctx, req.Table, types, filter)

		// Reader goroutine only services pongs and detects the close.
		go func() {
			defer cancel()
			conn.SetPongHandler(func(string) error {
				conn.SetReadDeadline(time.Now().Add(pongWait))
				return nil
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
			case event, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					log.Log.Error("fail to marshal change event: ", err)
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}
