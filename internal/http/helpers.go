package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/database/books"
	"github.com/booklify/admin/internal/database/categories"
	"github.com/booklify/admin/internal/database/subscriptions"
	"github.com/booklify/admin/internal/database/users"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Envelope is the response body of every CMS endpoint.
type Envelope struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// --- Success Response Helpers ---

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Result: resultSuccess, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Result: resultSuccess, Message: message, Data: data})
}

// --- Error Response Helpers ---

func respondFailure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Result: resultFailure, Message: message})
}

func respondBadRequest(c *gin.Context, message string) {
	respondFailure(c, http.StatusBadRequest, message)
}

func respondForbidden(c *gin.Context, message string) {
	respondFailure(c, http.StatusForbidden, message)
}

// respondInternalError logs the error and sends a 500. The detail is not
// exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Error().Err(err).
		Str("request_id", requestID(c)).
		Str("context", context).
		Msg("Internal error")
	respondFailure(c, http.StatusInternalServerError, "internal server error")
}

// respondError maps domain errors to a status code. Anything unknown is an
// internal error.
func respondError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, approval.ErrMissingRejectionNote),
		errors.Is(err, approval.ErrEmptyNote),
		errors.Is(err, approval.ErrUnknownStatus),
		errors.Is(err, categories.ErrNameRequired),
		errors.Is(err, subscriptions.ErrPlanNameRequired),
		errors.Is(err, subscriptions.ErrPriceRequired),
		errors.Is(err, subscriptions.ErrInvalidPrice),
		errors.Is(err, subscriptions.ErrInvalidDuration),
		errors.Is(err, subscriptions.ErrInvalidPlanStatus),
		errors.Is(err, subscriptions.ErrUnknownAction):
		respondFailure(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, approval.ErrIllegalTransition),
		errors.Is(err, approval.ErrIllegalResubmit),
		errors.Is(err, subscriptions.ErrNoCurrentSubscription),
		errors.Is(err, subscriptions.ErrAlreadySubscribed),
		errors.Is(err, subscriptions.ErrPlanInactive):
		respondFailure(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, approval.ErrForbidden):
		respondFailure(c, http.StatusForbidden, err.Error())
	case errors.Is(err, books.ErrBookNotFound),
		errors.Is(err, categories.ErrCategoryNotFound),
		errors.Is(err, subscriptions.ErrPlanNotFound),
		errors.Is(err, users.ErrUserNotFound):
		respondFailure(c, http.StatusNotFound, err.Error())
	case errors.Is(err, categories.ErrCategoryExists),
		errors.Is(err, categories.ErrCategoryInUse),
		errors.Is(err, books.ErrLogRewritten),
		errors.Is(err, subscriptions.ErrPlanExists),
		errors.Is(err, subscriptions.ErrPlanInUse):
		respondFailure(c, http.StatusConflict, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// queryUint reads an optional unsigned query parameter. A present but
// malformed value responds with 400.
func queryUint(c *gin.Context, name string) (uint, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(n), true
}

// queryInt reads an optional integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}

// queryOptionalInt reads an optional integer query parameter. Nil means
// absent.
func queryOptionalInt(c *gin.Context, name string) (*int, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &n, true
}

// queryOptionalInt64 is queryOptionalInt for amounts.
func queryOptionalInt64(c *gin.Context, name string) (*int64, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &n, true
}

// querySortDirection reads sort_direction, which is asc or desc.
func querySortDirection(c *gin.Context, fallback string) (ascending bool, ok bool) {
	switch strings.ToLower(c.DefaultQuery("sort_direction", fallback)) {
	case "asc":
		return true, true
	case "desc":
		return false, true
	}
	respondBadRequest(c, "invalid sort_direction")
	return false, false
}

// queryBool reads an optional boolean query parameter. Nil means absent.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &b, true
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
