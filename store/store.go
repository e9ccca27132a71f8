package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Store is a per-path document database with live queries.
//
// Paths alternate collection and document segments, e.g. users/{uid}/places/{id}.
type Store interface {
	// ObserveCollection delivers the documents of a collection, ordered by orderKey, every time it changes
	ObserveCollection(path, orderKey string) *Subscription[[]Document]
	// ObserveDocument delivers the document (nil when absent) every time it changes
	ObserveDocument(path string) *Subscription[*Document]
	// GetDocument returns nil, nil when the document does not exist
	GetDocument(ctx context.Context, path string) (*Document, error)
	// NewDocumentID returns an id for a document that is about to be created
	NewDocumentID() string
	CreateDocument(ctx context.Context, path string, data map[string]any) error
	UpdateField(ctx context.Context, path, field string, value any) error
	DeleteDocument(ctx context.Context, path string) error
	// RunAtomicBatch applies all writes or none
	RunAtomicBatch(ctx context.Context, writes []Write) error
}

// Document is a snapshot of one stored document
type Document struct {
	ID   string         `json:"id"`
	Path string         `json:"path"`
	Data map[string]any `json:"data"`
}

// DataTo decodes the document fields into v
func (d *Document) DataTo(v any) error {
	b, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Bool returns a boolean field, false when missing or of another type
func (d *Document) Bool(field string) bool {
	if d == nil {
		return false
	}
	b, ok := d.Data[field].(bool)
	return ok && b
}

type WriteOp string

const (
	OpSet    WriteOp = "set"
	OpUpdate WriteOp = "update"
	OpDelete WriteOp = "delete"
)

// Write is a single operation of an atomic batch
type Write struct {
	Op    WriteOp        `json:"op" binding:"required,oneof=set update delete"`
	Path  string         `json:"path" binding:"required"`
	Data  map[string]any `json:"data,omitempty"`
	Field string         `json:"field,omitempty"`
	Value any            `json:"value,omitempty"`
}

func Set(path string, data map[string]any) Write {
	return Write{Op: OpSet, Path: path, Data: data}
}

func UpdateWrite(path, field string, value any) Write {
	return Write{Op: OpUpdate, Path: path, Field: field, Value: value}
}

func Delete(path string) Write {
	return Write{Op: OpDelete, Path: path}
}

// StoreError is returned for any read, write or listener failure
type StoreError struct {
	Op      string
	Path    string
	Message string
	Err     error
}

var (
	ErrNotFound     = errors.New("no document to update")
	ErrInvalidPath  = errors.New("invalid path")
	ErrInvalidWrite = errors.New("invalid write")
)

func (e *StoreError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path == "" {
		return msg
	}
	return e.Op + " " + e.Path + ": " + msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newError(op, path string, err error) *StoreError {
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}
	return &StoreError{Op: op, Path: path, Err: err}
}

func segments(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}
	return parts
}

// IsDocumentPath is true for paths with an even, non-zero number of segments
func IsDocumentPath(path string) bool {
	n := len(segments(path))
	return n > 0 && n%2 == 0
}

// IsCollectionPath is true for paths with an odd number of segments
func IsCollectionPath(path string) bool {
	return len(segments(path))%2 == 1
}

// SplitDocumentPath returns the collection path and document id
func SplitDocumentPath(path string) (collection, id string, err error) {
	if !IsDocumentPath(path) {
		return "", "", ErrInvalidPath
	}
	parts := segments(path)
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1], nil
}

// Join builds a path from segments
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}
