package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/auth"
	"github.com/booklify/admin/internal/entities"
)

// UsersController exposes the caller's profile and lets admins add staff.
type UsersController struct {
	authService *auth.Service
}

func NewUsersController(authService *auth.Service) *UsersController {
	return &UsersController{
		authService: authService,
	}
}

type userResponse struct {
	ID          uint              `json:"id"`
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	FullName    string            `json:"full_name"`
	Phone       string            `json:"phone"`
	Role        entities.UserRole `json:"role"`
	AppRole     []string          `json:"app_role"`
	IsActive    bool              `json:"is_active"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func newUserResponse(u *entities.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Phone:       u.Phone,
		Role:        u.Role,
		AppRole:     auth.RoleNames(u.Role),
		IsActive:    u.IsActive(),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// Me returns the authenticated user.
// GET /users/me
func (uc *UsersController) Me(c *gin.Context) {
	user, err := uc.authService.GetUserByID(auth.GetUserID(c))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondFailure(c, http.StatusNotFound, err.Error())
			return
		}
		respondInternalError(c, err, "get current user")
		return
	}
	respondOK(c, "", newUserResponse(user))
}

// CreateUser adds a user. The role defaults to Staff.
// POST /users
func (uc *UsersController) CreateUser(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	role := entities.UserRoleStaff
	if req.Role != "" {
		role = entities.UserRole(req.Role)
	}

	user, err := uc.authService.CreateUser(req.Username, req.Email, req.Password, role)
	if err != nil {
		respondAccountError(c, err, "create user")
		return
	}

	respondCreated(c, "Tạo người dùng thành công", newUserResponse(user))
}

// respondAccountError maps account validation errors to a status code.
func respondAccountError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		respondFailure(c, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrUsernameRequired),
		errors.Is(err, auth.ErrEmailRequired),
		errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrUsernameInvalid),
		errors.Is(err, auth.ErrEmailInvalid),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, auth.ErrPasswordBlank):
		respondBadRequest(c, err.Error())
	default:
		respondError(c, err, context)
	}
}
