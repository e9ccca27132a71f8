package handlers

import (
	"errors"
	"net/http"

	"tripwise/auth"
	"tripwise/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type UserCredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	Error string `json:"error"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

// authFailure maps identity errors to a status, anything else is a server error
func authFailure(c *gin.Context, status int, err error) {
	var ae *auth.Error
	if errors.As(err, &ae) {
		c.JSON(status, Response{ae.Message})
		return
	}
	log.Error().Err(err).Str("path", c.FullPath()).Msg("user request failed")
	c.JSON(http.StatusInternalServerError, DBError1Response)
}

func loginSession(c *gin.Context, user *models.User) {
	if err := auth.LoadSession(c).LoginUser(user); err != nil {
		log.Error().Err(err).Msg("session save")
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Email: user.Email})
}

// UserSignup creates the account and signs the new user in
func (api *API) UserSignup(c *gin.Context) {
	req := UserCredentialsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	user, err := api.Users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		authFailure(c, http.StatusBadRequest, err)
		return
	}
	loginSession(c, &user)
}

func (api *API) UserLogin(c *gin.Context) {
	req := UserCredentialsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	user, err := api.Users.Verify(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		authFailure(c, http.StatusUnauthorized, err)
		return
	}
	loginSession(c, &user)
}

// UserLogout always succeeds, even without a session
func (api *API) UserLogout(c *gin.Context) {
	auth.LoadSession(c).LogoutUser()
	c.JSON(http.StatusOK, OKResponse)
}

func (api *API) UserStatus(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Email: user.Email})
}
