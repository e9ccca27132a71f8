// Package remote talks to a tripwise server. Client is both the document store
// and the identity provider of the client screens.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"tripwise/auth"
	"tripwise/handlers"
	"tripwise/store"
	"tripwise/utils"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const requestTimeout = 30 * time.Second

const MessagePermissionDenied = "Missing or insufficient permissions."

type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer

	mutex  sync.RWMutex
	userID string
}

var (
	_ store.Store   = (*Client)(nil)
	_ auth.Provider = (*Client)(nil)
)

// New returns a client for the server at baseURL, e.g. "https://tripwise.example.com"
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: u.String(),
		http:    &http.Client{Jar: jar, Timeout: requestTimeout},
		dialer:  &websocket.Dialer{Jar: jar, HandshakeTimeout: requestTimeout},
	}, nil
}

// do sends body as JSON and decodes the JSON answer into result whatever the status
func (c *Client) do(ctx context.Context, method, path string, body, result any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err = json.NewDecoder(resp.Body).Decode(result); err != nil {
		return resp.StatusCode, fmt.Errorf("%s %s: %s: %w", method, path, resp.Status, err)
	}
	return resp.StatusCode, nil
}

/*
 * Identity
 */

func (c *Client) CurrentUserID() (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.userID, c.userID != ""
}

func (c *Client) setUser(id string) {
	c.mutex.Lock()
	c.userID = id
	c.mutex.Unlock()
}

func (c *Client) credentials(ctx context.Context, path, email, password string) error {
	user := handlers.UserResponse{}
	status, err := c.do(ctx, http.MethodPost, path, handlers.UserCredentialsRequest{Email: email, Password: password}, &user)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		if user.Error == "" {
			user.Error = http.StatusText(status)
		}
		return &auth.Error{Message: user.Error}
	}
	c.setUser(user.ID)
	return nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) error {
	return c.credentials(ctx, "/user/login", email, password)
}

// SignUp creates the account; the server signs the new user in
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	return c.credentials(ctx, "/user/signup", email, password)
}

// SignOut forgets the user locally even if the server could not be reached
func (c *Client) SignOut(ctx context.Context) error {
	c.setUser("")
	resp := handlers.Response{}
	if _, err := c.do(ctx, http.MethodPost, "/user/logout", nil, &resp); err != nil {
		log.Warn().Err(err).Msg("logout request failed")
	}
	return nil
}

// Restore picks up the user of an existing session, if any
func (c *Client) Restore(ctx context.Context) (bool, error) {
	user := handlers.UserResponse{}
	status, err := c.do(ctx, http.MethodGet, "/user/status", nil, &user)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		c.setUser("")
		return false, nil
	}
	c.setUser(user.ID)
	return true, nil
}

/*
 * Documents
 */

// failure turns a non-OK answer into a StoreError
func failure(op, path string, status int, message string) error {
	se := &store.StoreError{Op: op, Path: path, Message: message}
	switch status {
	case http.StatusNotFound:
		se.Err = store.ErrNotFound
	case http.StatusBadRequest:
		se.Err = store.ErrInvalidPath
	case http.StatusUnauthorized, http.StatusForbidden:
		se.Message = MessagePermissionDenied
	}
	if se.Message == "" {
		se.Message = http.StatusText(status)
	}
	// the server message already names the operation
	se.Message = strings.TrimPrefix(se.Message, op+" "+path+": ")
	return se
}

func (c *Client) write(ctx context.Context, op, endpoint, path string, body any) error {
	resp := handlers.Response{}
	status, err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	if err != nil {
		return &store.StoreError{Op: op, Path: path, Err: err}
	}
	if status != http.StatusOK {
		return failure(op, path, status, resp.Error)
	}
	return nil
}

func (c *Client) GetDocument(ctx context.Context, path string) (*store.Document, error) {
	resp := handlers.DocumentResponse{}
	status, err := c.do(ctx, http.MethodGet, "/doc?path="+url.QueryEscape(path), nil, &resp)
	if err != nil {
		return nil, &store.StoreError{Op: "get", Path: path, Err: err}
	}
	if status != http.StatusOK {
		return nil, failure("get", path, status, resp.Error)
	}
	return resp.Document, nil
}

func (c *Client) NewDocumentID() string {
	return utils.Rand16BytesToBase62()
}

func (c *Client) CreateDocument(ctx context.Context, path string, data map[string]any) error {
	return c.write(ctx, string(store.OpSet), "/doc/set", path, handlers.SetRequest{Path: path, Data: data})
}

func (c *Client) UpdateField(ctx context.Context, path, field string, value any) error {
	return c.write(ctx, string(store.OpUpdate), "/doc/update", path, handlers.UpdateRequest{Path: path, Field: field, Value: value})
}

func (c *Client) DeleteDocument(ctx context.Context, path string) error {
	return c.write(ctx, string(store.OpDelete), "/doc/delete", path, handlers.DeleteRequest{Path: path})
}

func (c *Client) RunAtomicBatch(ctx context.Context, writes []store.Write) error {
	return c.write(ctx, "batch", "/doc/batch", "", handlers.BatchRequest{Writes: writes})
}

/*
 * Live queries
 */

func (c *Client) ObserveDocument(path string) *store.Subscription[*store.Document] {
	return watch(c, path, "", func(m handlers.WSMessage) (*store.Document, error) {
		if m.Type != handlers.WSMessageTypeDocument {
			return nil, fmt.Errorf("unexpected %q frame", m.Type)
		}
		return m.Document, nil
	})
}

func (c *Client) ObserveCollection(path, orderKey string) *store.Subscription[[]store.Document] {
	return watch(c, path, orderKey, func(m handlers.WSMessage) ([]store.Document, error) {
		if m.Type != handlers.WSMessageTypeCollection {
			return nil, fmt.Errorf("unexpected %q frame", m.Type)
		}
		if m.Documents == nil {
			return []store.Document{}, nil
		}
		return m.Documents, nil
	})
}

func (c *Client) watchURL(path, orderKey string) string {
	query := url.Values{"path": {path}}
	if orderKey != "" {
		query.Set("order", orderKey)
	}
	return "ws" + strings.TrimPrefix(c.baseURL, "http") + "/doc/watch?" + query.Encode()
}

// watch keeps one WebSocket open per subscription, every frame is a full snapshot
func watch[T any](c *Client, path, orderKey string, decode func(handlers.WSMessage) (T, error)) *store.Subscription[T] {
	return store.NewSubscription(func(ctx context.Context, emit func(store.Update[T]) bool) {
		fail := func(err error) {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("path", path).Msg("live query failed")
			emit(store.Update[T]{Err: &store.StoreError{Op: "listen", Path: path, Err: err}})
		}

		conn, resp, err := c.dialer.DialContext(ctx, c.watchURL(path, orderKey), nil)
		if err != nil {
			if resp != nil {
				message := handlers.Response{}
				_ = json.NewDecoder(resp.Body).Decode(&message)
				resp.Body.Close()
				switch {
				case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
					err = errors.New(MessagePermissionDenied)
				case message.Error != "":
					err = errors.New(message.Error)
				}
			}
			fail(err)
			return
		}
		defer conn.Close()
		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		for {
			frame := handlers.WSMessage{}
			if err := conn.ReadJSON(&frame); err != nil {
				fail(err)
				return
			}
			if frame.Type == handlers.WSMessageTypeError {
				fail(errors.New(frame.Error))
				return
			}
			value, err := decode(frame)
			if err != nil {
				fail(err)
				return
			}
			if !emit(store.Update[T]{Value: value}) {
				return
			}
		}
	})
}
