package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/bmi-tracker/internal/application"
	"github.com/oksasatya/bmi-tracker/internal/interface/middleware"
	"github.com/oksasatya/bmi-tracker/pkg/helpers"
	"github.com/oksasatya/bmi-tracker/pkg/response"
	"github.com/oksasatya/bmi-tracker/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.UserService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func clientMeta(c *gin.Context) application.ClientMeta {
	return application.ClientMeta{IP: middleware.ClientIP(c), UserAgent: c.Request.UserAgent()}
}

func tokenBody(u userResponse, pair application.TokenPair) gin.H {
	return gin.H{
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresAt":    pair.AccessTokenExpiry.UTC(),
		"user":         u,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToErrors(err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		response.Invalid(c, validation.Errors{{Field: "name", Message: "name is required"}})
		return
	}

	u, pair, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, clientMeta(c))
	if errors.Is(err, application.ErrEmailTaken) {
		response.Message(c, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		h.serverError(c, "register", err)
		return
	}
	response.JSON(c, http.StatusCreated, tokenBody(toUserResponse(u), pair))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToErrors(err))
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password, clientMeta(c))
	if errors.Is(err, application.ErrInvalidCredentials) {
		response.Message(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.serverError(c, "login", err)
		return
	}
	response.JSON(c, http.StatusOK, tokenBody(toUserResponse(u), pair))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToErrors(err))
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, application.ErrInvalidCredentials) {
		response.Message(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if err != nil {
		h.serverError(c, "refresh", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresAt":    pair.AccessTokenExpiry.UTC(),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		h.serverError(c, "logout", err)
		return
	}
	response.Message(c, http.StatusOK, "Logged out successfully")
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if errors.Is(err, application.ErrUserNotFound) {
		response.Message(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.serverError(c, "get current user", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user": toUserResponse(u)})
}

func (h *AuthHandler) serverError(c *gin.Context, op string, err error) {
	helpers.LogError(h.Logger, op+" failed", err, logrus.Fields{
		"request_id": c.GetString(middleware.CtxRequestIDKey),
		"user_id":    middleware.UserID(c),
	})
	response.ServerError(c)
}
