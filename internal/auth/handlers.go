package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/booklify/admin/internal/audit"
	"github.com/booklify/admin/internal/entities"
)

// LoginRequest accepts either a username or an email as the login name.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) login() string {
	if s := strings.TrimSpace(r.Username); s != "" {
		return s
	}
	return strings.TrimSpace(r.Email)
}

// SessionResponse is the data of a successful login or refresh.
type SessionResponse struct {
	AccessToken    string    `json:"access_token"`
	TokenExpiresIn int64     `json:"token_expires_in"` // seconds
	TokenExpiresAt time.Time `json:"token_expires_at"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	AppRole        []string  `json:"app_role"`
	IsActive       bool      `json:"is_active"`
}

func newSessionResponse(s *Session, now time.Time) SessionResponse {
	return SessionResponse{
		AccessToken:    s.AccessToken,
		TokenExpiresIn: int64(s.ExpiresAt.Sub(now).Seconds()),
		TokenExpiresAt: s.ExpiresAt.UTC(),
		Username:       s.User.Username,
		Email:          s.User.Email,
		AppRole:        RoleNames(s.User.Role),
		IsActive:       s.User.IsActive(),
	}
}

// AuthController serves the login and refresh endpoints.
type AuthController struct {
	service *Service
	limiter *RateLimiter
	audit   *audit.Service
}

// NewAuthController creates the controller. audit may be nil.
func NewAuthController(service *Service, limiter *RateLimiter, auditService *audit.Service) *AuthController {
	return &AuthController{service: service, limiter: limiter, audit: auditService}
}

// RegisterRoutes mounts POST /auth/login and GET /auth/refresh on group.
func (ac *AuthController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/auth/login", ac.Login)
	group.GET("/auth/refresh", ac.Refresh)
}

// Login handles POST /auth/login.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortFailure(c, http.StatusBadRequest, "validation error: invalid request body")
		return
	}
	login := req.login()
	if login == "" || req.Password == "" {
		abortFailure(c, http.StatusBadRequest, "validation error: username and password are required")
		return
	}

	ip := c.ClientIP()
	if allowed, retryAfter := ac.limiter.Allow(ip, login); !allowed {
		c.Header("Retry-After", retryAfter.Round(time.Second).String())
		abortFailure(c, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	session, err := ac.service.Login(login, req.Password)
	if err != nil {
		ac.logAuth(c, 0, "login", false)
		switch {
		case errors.Is(err, ErrAccountLocked), errors.Is(err, ErrAccountDisabled):
			abortFailure(c, http.StatusForbidden, err.Error())
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidPassword):
			ac.limiter.RecordFailure(ip, login)
			abortFailure(c, http.StatusUnauthorized, "invalid username or password")
		default:
			log.Error().Err(err).Str("login", login).Msg("Login failed")
			abortFailure(c, http.StatusInternalServerError, "login failed")
		}
		return
	}

	ac.limiter.RecordSuccess(ip, login)
	ac.logAuth(c, session.User.ID, "login", true)

	c.JSON(http.StatusOK, gin.H{
		"result":  "success",
		"message": "Đăng nhập thành công",
		"data":    newSessionResponse(session, time.Now()),
	})
}

// Refresh handles GET /auth/refresh with the current bearer token.
func (ac *AuthController) Refresh(c *gin.Context) {
	token, ok := BearerToken(c)
	if !ok {
		abortFailure(c, http.StatusUnauthorized, ErrAuthRequired.Error())
		return
	}

	session, err := ac.service.Refresh(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenExpired) {
			abortFailure(c, http.StatusUnauthorized, err.Error())
			return
		}
		log.Error().Err(err).Msg("Token refresh failed")
		abortFailure(c, http.StatusInternalServerError, "token refresh failed")
		return
	}

	ac.logAuth(c, session.User.ID, "token_refresh", true)

	c.JSON(http.StatusOK, gin.H{
		"result":  "success",
		"message": "Token refreshed",
		"data":    newSessionResponse(session, time.Now()),
	})
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, success bool) {
	if ac.audit == nil {
		return
	}
	ac.audit.LogAuth(audit.Actor{
		UserID:    userID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, action, success)
}

// RoleNames converts a role to the string list the console expects.
func RoleNames(role entities.UserRole) []string {
	return []string{string(role)}
}
