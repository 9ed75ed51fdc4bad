package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/newsboy-backend/internal/http/response"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

// POST /api/v1/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		fail(c, ah.log, "Register", err)
		return
	}
	response.RespondCreated(c, u)
}

// POST /api/v1/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		UsernameOrEmail string `json:"username_or_email"`
		Password        string `json:"password"`
		RememberMe      bool   `json:"remember_me"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pair, err := ah.authService.Login(c.Request.Context(), req.UsernameOrEmail, req.Password, req.RememberMe)
	if err != nil {
		fail(c, ah.log, "Login", err)
		return
	}
	response.RespondOK(c, pair)
}

// GET /api/v1/auth/me
func (ah *AuthHandler) Me(c *gin.Context) {
	u, err := ah.authService.Me(c.Request.Context())
	if err != nil {
		fail(c, ah.log, "Me", err)
		return
	}
	response.RespondOK(c, u)
}

// POST /api/v1/auth/refresh
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	// The body is optional; the caller's own refresh token is used otherwise.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	pair, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, ah.log, "Refresh", err)
		return
	}
	response.RespondOK(c, pair)
}

// POST /api/v1/auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		fail(c, ah.log, "Logout", err)
		return
	}
	response.RespondOK(c, response.Message{Message: "logged out"})
}
