package handlers

import "tripwise/store"

type WSMessageType string

const (
	WSMessageTypeCollection WSMessageType = "collection"
	WSMessageTypeDocument   WSMessageType = "document"
	WSMessageTypeError      WSMessageType = "error"
)

// WSMessage is one snapshot pushed to a /doc/watch client
type WSMessage struct {
	Type      WSMessageType    `json:"type"`
	Documents []store.Document `json:"documents,omitempty"`
	Document  *store.Document  `json:"document,omitempty"`
	Error     string           `json:"error,omitempty"`
}
