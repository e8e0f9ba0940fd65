package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loginflow/loginflow/internal/domain"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Signup(ctx context.Context, email, password string) (*domain.User, error)
	ResendConfirmation(ctx context.Context) error
	ConfirmEmail(ctx context.Context, confirmToken string) error
	ChangePassword(ctx context.Context, email, password, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

// AuthHandler is the local (email + password) strategy. It translates
// the eight workflow operations to HTTP and maps domain failures to
// status codes; field presence is the engine's job, so requests bind
// loosely.
type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

// Name identifies the strategy when mounted.
func (h *AuthHandler) Name() string { return "local" }

// Mount registers the strategy's routes on the auth group.
func (h *AuthHandler) Mount(g *gin.RouterGroup) {
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.POST("/signup", h.Signup)
	g.POST("/resendConfirmation", h.ResendConfirmation)
	g.POST("/confirmEmail", h.ConfirmEmail)
	g.POST("/changePassword", h.ChangePassword)
	g.POST("/forgotPassword", h.ForgotPassword)
	g.POST("/resetPassword", h.ResetPassword)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /login → 200 + session cookie | 401
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		h.respondError(c, "login", err)
		return
	}
	c.Status(http.StatusOK)
}

// POST /logout → 200 (cookie cleared) | 401
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authUsecase.Logout(c.Request.Context()); err != nil {
		h.respondError(c, "logout", err)
		return
	}
	c.Status(http.StatusOK)
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// POST /signup → 200 | 400 | 401
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authUsecase.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, "signup", err)
		return
	}
	c.JSON(http.StatusOK, signupResponse{ID: user.ID, Email: user.Email})
}

// POST /resendConfirmation (session) → 200 | 401 | 403
func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	if err := h.authUsecase.ResendConfirmation(c.Request.Context()); err != nil {
		h.respondError(c, "resend confirmation", err)
		return
	}
	c.Status(http.StatusOK)
}

type confirmEmailRequest struct {
	ConfirmEmailToken string `json:"confirmEmailToken"`
}

// POST /confirmEmail → 200 | 404
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	var req confirmEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.ConfirmEmail(c.Request.Context(), req.ConfirmEmailToken); err != nil {
		h.respondError(c, "confirm email", err)
		return
	}
	c.Status(http.StatusOK)
}

type changePasswordRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

// POST /changePassword → 200 | 400 | 401
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.ChangePassword(c.Request.Context(), req.Email, req.Password, req.NewPassword); err != nil {
		h.respondError(c, "change password", err)
		return
	}
	c.Status(http.StatusOK)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// POST /forgotPassword → 200 (mail sent) | 404
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, "forgot password", err)
		return
	}
	c.Status(http.StatusOK)
}

type resetPasswordRequest struct {
	ResetPasswordToken string `json:"resetPasswordToken"`
	NewPassword        string `json:"newPassword"`
}

// POST /resetPassword → 200 (mail sent) | 403 (expired) | 404
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.ResetPassword(c.Request.Context(), req.ResetPasswordToken, req.NewPassword); err != nil {
		h.respondError(c, "reset password", err)
		return
	}
	c.Status(http.StatusOK)
}

// respondError maps each domain failure to its one status/message pair.
// Infrastructure errors are logged and come back as a generic 500, never
// disguised as a domain outcome.
func (h *AuthHandler) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingFields})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
	case errors.Is(err, domain.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errNotAuthenticated})
	case errors.Is(err, domain.ErrUserExists):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUserExists})
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		c.JSON(http.StatusForbidden, gin.H{"error": errAlreadyConfirmed})
	case errors.Is(err, domain.ErrTokenExpired):
		c.JSON(http.StatusForbidden, gin.H{"error": errTokenExpired})
	case errors.Is(err, domain.ErrTokenNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errTokenNotFound})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
	default:
		h.logger.Error(op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
