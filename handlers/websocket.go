package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"tripwise/models"
	"tripwise/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DocWatch streams snapshots of a document or a collection until either side goes away.
// Collections are ordered by the "order" query parameter.
func (api *API) DocWatch(c *gin.Context, user *models.User) {
	path := strings.Trim(c.Query("path"), "/")
	if !owns(c, user, path) {
		return
	}
	if !store.IsDocumentPath(path) && !store.IsCollectionPath(path) {
		c.JSON(http.StatusBadRequest, Response{store.ErrInvalidPath.Error()})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Print("upgrade: ", err)
		return
	}
	defer conn.Close()

	// Setup client
	writeMutex := sync.Mutex{}
	send := func(messageType int, data []byte) bool {
		writeMutex.Lock()
		defer writeMutex.Unlock()
		if err := conn.WriteMessage(messageType, data); err != nil {
			log.Print("write err: ", err)
			return false
		}
		return true
	}
	sendJSON := func(message WSMessage) bool {
		data, err := json.Marshal(message)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("watch frame")
			return false
		}
		return send(websocket.TextMessage, data)
	}

	var cancel func()
	var stream func()
	if store.IsDocumentPath(path) {
		sub := api.Store.ObserveDocument(path)
		cancel = sub.Cancel
		stream = func() {
			relay(sub.Start(), sendJSON, func(doc *store.Document) WSMessage {
				return WSMessage{Type: WSMessageTypeDocument, Document: doc}
			})
		}
	} else {
		sub := api.Store.ObserveCollection(path, c.Query("order"))
		cancel = sub.Cancel
		stream = func() {
			relay(sub.Start(), sendJSON, func(docs []store.Document) WSMessage {
				return WSMessage{Type: WSMessageTypeCollection, Documents: docs}
			})
		}
	}
	defer cancel()

	// Main read cycle, the subscription ends with the connection
	go func() {
		defer cancel()
		for {
			mt, message, err := conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("path", path).Msg("watch closed")
				return
			}
			if string(message) == "ping" {
				send(mt, []byte("pong"))
			}
		}
	}()
	stream()
}

// relay sends every update until the subscription ends or the client is gone
func relay[T any](updates <-chan store.Update[T], send func(WSMessage) bool, convert func(T) WSMessage) {
	for u := range updates {
		if u.Err != nil {
			send(WSMessage{Type: WSMessageTypeError, Error: u.Err.Error()})
			return
		}
		if !send(convert(u.Value)) {
			return
		}
	}
}
