package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskflow/internal/models"
	"taskflow/internal/services"
)

type AuthHandler struct {
	users       services.UserService
	auth        services.AuthService
	resets      services.PasswordResetService
	exposeToken bool // development mode: echo the reset token in the response
	log         *zap.Logger
}

func NewAuthHandler(
	users services.UserService,
	auth services.AuthService,
	resets services.PasswordResetService,
	exposeToken bool,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:       users,
		auth:        auth,
		resets:      resets,
		exposeToken: exposeToken,
		log:         log,
	}
}

// POST /api/auth/register/
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username        string `json:"username" binding:"required"`
		Email           string `json:"email" binding:"required,email"`
		Password        string `json:"password" binding:"required"`
		PasswordConfirm string `json:"password_confirm" binding:"required"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		renderError(c, h.log, err)
		return
	}

	pair, err := h.auth.GeneratePair(user)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, pair)
}

// POST /api/auth/login/
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		renderError(c, h.log, err)
		return
	}

	pair, err := h.auth.GeneratePair(user)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// POST /api/auth/token/refresh/
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	access, err := h.auth.RefreshAccess(c.Request.Context(), req.Refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// GET /api/auth/profile/
func (h *AuthHandler) GetProfile(c *gin.Context) {
	p := getPrincipal(c)
	user, err := h.users.GetByID(c.Request.Context(), p.ID)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PUT/PATCH /api/auth/profile/
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		Username  *string `json:"username"`
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), getPrincipal(c), services.ProfileUpdateInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// POST /api/auth/change-password/
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword        string `json:"old_password" binding:"required"`
		NewPassword        string `json:"new_password" binding:"required"`
		NewPasswordConfirm string `json:"new_password_confirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), getPrincipal(c), req.OldPassword, req.NewPassword, req.NewPasswordConfirm)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Password changed successfully."})
}

// POST /api/auth/request-password-reset/
//
// Always answers 200 with the same detail so callers cannot probe which
// emails have accounts.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	token, err := h.resets.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		renderError(c, h.log, err)
		return
	}

	resp := gin.H{"detail": "If the email exists, a password reset token has been sent."}
	if h.exposeToken && token != "" {
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/auth/reset-password/
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token              string `json:"token" binding:"required"`
		NewPassword        string `json:"new_password" binding:"required"`
		NewPasswordConfirm string `json:"new_password_confirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.resets.ResetPassword(c.Request.Context(), req.Token, req.NewPassword, req.NewPasswordConfirm); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Password has been reset successfully."})
}
