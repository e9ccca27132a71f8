package handlers

import (
	"errors"
	"net/http"
	"strings"

	"tripwise/models"
	"tripwise/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type DocumentResponse struct {
	Error    string          `json:"error"`
	Document *store.Document `json:"document"`
}

type SetRequest struct {
	Path string         `json:"path" binding:"required"`
	Data map[string]any `json:"data"`
}

type UpdateRequest struct {
	Path  string `json:"path" binding:"required"`
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

type DeleteRequest struct {
	Path string `json:"path" binding:"required"`
}

type BatchRequest struct {
	Writes []store.Write `json:"writes" binding:"dive"`
}

func owns(c *gin.Context, user *models.User, path string) bool {
	if user.OwnsPath(strings.Trim(path, "/")) {
		return true
	}
	c.JSON(http.StatusForbidden, NopeResponse)
	return false
}

// storeFailure answers with the store error message and a matching status
func storeFailure(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidPath), errors.Is(err, store.ErrInvalidWrite):
		status = http.StatusBadRequest
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("store request failed")
	}
	c.JSON(status, Response{err.Error()})
}

// DocGet returns the document, or a null document when it does not exist
func (api *API) DocGet(c *gin.Context, user *models.User) {
	path := c.Query("path")
	if !owns(c, user, path) {
		return
	}
	doc, err := api.Store.GetDocument(c.Request.Context(), path)
	if err != nil {
		storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, DocumentResponse{Document: doc})
}

func (api *API) DocSet(c *gin.Context, user *models.User) {
	req := SetRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if !owns(c, user, req.Path) {
		return
	}
	if err := api.Store.CreateDocument(c.Request.Context(), req.Path, req.Data); err != nil {
		storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func (api *API) DocUpdate(c *gin.Context, user *models.User) {
	req := UpdateRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if !owns(c, user, req.Path) {
		return
	}
	if err := api.Store.UpdateField(c.Request.Context(), req.Path, req.Field, req.Value); err != nil {
		storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func (api *API) DocDelete(c *gin.Context, user *models.User) {
	req := DeleteRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if !owns(c, user, req.Path) {
		return
	}
	if err := api.Store.DeleteDocument(c.Request.Context(), req.Path); err != nil {
		storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

// DocBatch applies all writes or none. Every path must belong to the user.
func (api *API) DocBatch(c *gin.Context, user *models.User) {
	req := BatchRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	for _, w := range req.Writes {
		if !owns(c, user, w.Path) {
			return
		}
	}
	if err := api.Store.RunAtomicBatch(c.Request.Context(), req.Writes); err != nil {
		storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}
