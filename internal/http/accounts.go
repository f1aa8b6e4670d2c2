package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/audit"
	"github.com/booklify/admin/internal/auth"
	"github.com/booklify/admin/internal/database/subscriptions"
	"github.com/booklify/admin/internal/database/users"
	"github.com/booklify/admin/internal/entities"
)

var errSelfLockout = errors.New("cannot deactivate or demote your own account")

var (
	readerRoles = []entities.UserRole{entities.UserRoleUser}
	staffRoles  = []entities.UserRole{entities.UserRoleAdmin, entities.UserRoleStaff}
)

// AccountsController manages reader and staff accounts. Readers are users
// with the User role; staff are Admin and Staff accounts.
type AccountsController struct {
	users        AccountStore
	subs         SubscriptionStore
	authService  *auth.Service
	auditService *audit.Service
	now          func() time.Time
}

func NewAccountsController(users AccountStore, subs SubscriptionStore, authService *auth.Service, auditService *audit.Service) *AccountsController {
	return &AccountsController{users: users, subs: subs, authService: authService, auditService: auditService, now: time.Now}
}

type accountListResponse struct {
	Items      []userResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

type readerDetailResponse struct {
	userResponse
	CurrentSubscription *entities.UserSubscription `json:"current_subscription"`
	SubscriptionHistory []entities.UserSubscription `json:"subscription_history"`
	PaymentHistory      []entities.Payment          `json:"payment_history"`
}

// ListReaders returns one page of readers.
// GET /users
func (ac *AccountsController) ListReaders(c *gin.Context) {
	filter, ok := ac.parseAccountFilter(c, readerRoles)
	if !ok {
		return
	}
	if filter.HasActiveSubscription, ok = queryBool(c, "has_active_subscription"); !ok {
		return
	}
	ac.list(c, filter)
}

// ListStaff returns one page of Admin and Staff accounts, or only one role
// with ?role=.
// GET /staff
func (ac *AccountsController) ListStaff(c *gin.Context) {
	roles := staffRoles
	if v := c.Query("role"); v != "" {
		role := entities.UserRole(v)
		if !isStaffRole(role) {
			respondBadRequest(c, "invalid role")
			return
		}
		roles = []entities.UserRole{role}
	}
	filter, ok := ac.parseAccountFilter(c, roles)
	if !ok {
		return
	}
	ac.list(c, filter)
}

func (ac *AccountsController) parseAccountFilter(c *gin.Context, roles []entities.UserRole) (users.Filter, bool) {
	filter := users.Filter{
		Roles:  roles,
		Search: c.Query("search"),
		SortBy: c.Query("sort_by"),
		Now:    ac.now(),
	}
	var ok bool
	if filter.IsActive, ok = queryBool(c, "is_active"); !ok {
		return filter, false
	}
	if filter.Ascending, ok = querySortDirection(c, "desc"); !ok {
		return filter, false
	}
	if filter.Page, ok = queryInt(c, "page", 1); !ok {
		return filter, false
	}
	if filter.PageSize, ok = queryInt(c, "page_size", users.DefaultPageSize); !ok {
		return filter, false
	}
	return filter, true
}

func (ac *AccountsController) list(c *gin.Context, filter users.Filter) {
	page, err := ac.users.List(filter)
	if err != nil {
		respondInternalError(c, err, "list accounts")
		return
	}
	items := make([]userResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, newUserResponse(&page.Items[i]))
	}
	respondOK(c, "", accountListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(),
	})
}

// load fetches an account and answers 404 unless its role is one of roles.
func (ac *AccountsController) load(c *gin.Context, roles []entities.UserRole) (*entities.User, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	user, err := ac.users.GetUserByID(id)
	if err != nil {
		respondError(c, err, "get account")
		return nil, false
	}
	for _, r := range roles {
		if user.Role == r {
			return user, true
		}
	}
	respondFailure(c, http.StatusNotFound, users.ErrUserNotFound.Error())
	return nil, false
}

// GetReader returns a reader with the current subscription and the
// subscription and payment history.
// GET /users/:id
func (ac *AccountsController) GetReader(c *gin.Context) {
	user, ok := ac.load(c, readerRoles)
	if !ok {
		return
	}

	resp := readerDetailResponse{userResponse: newUserResponse(user)}
	current, err := ac.subs.CurrentSubscription(user.ID, ac.now())
	switch {
	case err == nil:
		resp.CurrentSubscription = current
	case !errors.Is(err, subscriptions.ErrNoCurrentSubscription):
		respondInternalError(c, err, "current subscription")
		return
	}
	if resp.SubscriptionHistory, err = ac.subs.Subscriptions(user.ID); err != nil {
		respondInternalError(c, err, "subscription history")
		return
	}
	if resp.PaymentHistory, err = ac.subs.Payments(user.ID); err != nil {
		respondInternalError(c, err, "payment history")
		return
	}
	if resp.SubscriptionHistory == nil {
		resp.SubscriptionHistory = []entities.UserSubscription{}
	}
	if resp.PaymentHistory == nil {
		resp.PaymentHistory = []entities.Payment{}
	}
	respondOK(c, "", resp)
}

// SetReaderStatus enables or disables a reader account.
// PATCH /users/:id/status
func (ac *AccountsController) SetReaderStatus(c *gin.Context) {
	user, ok := ac.load(c, readerRoles)
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		respondBadRequest(c, "is_active is required")
		return
	}

	updated, err := ac.users.SetActive(user.ID, *req.IsActive)
	if err != nil {
		respondError(c, err, "set reader status")
		return
	}
	ac.logActive(c, updated)
	respondOK(c, "Cập nhật trạng thái người dùng thành công", newUserResponse(updated))
}

// ReaderSubscriptions returns a reader's subscriptions, newest first.
// GET /users/:id/subscriptions
func (ac *AccountsController) ReaderSubscriptions(c *gin.Context) {
	user, ok := ac.load(c, readerRoles)
	if !ok {
		return
	}
	subs, err := ac.subs.Subscriptions(user.ID)
	if err != nil {
		respondInternalError(c, err, "subscription history")
		return
	}
	if subs == nil {
		subs = []entities.UserSubscription{}
	}
	respondOK(c, "", subs)
}

// ReaderPayments returns a reader's payments, newest first.
// GET /users/:id/payments
func (ac *AccountsController) ReaderPayments(c *gin.Context) {
	user, ok := ac.load(c, readerRoles)
	if !ok {
		return
	}
	payments, err := ac.subs.Payments(user.ID)
	if err != nil {
		respondInternalError(c, err, "payment history")
		return
	}
	if payments == nil {
		payments = []entities.Payment{}
	}
	respondOK(c, "", payments)
}

type manageSubscriptionRequest struct {
	Action        subscriptions.Action `json:"action"`
	PlanID        uint                 `json:"plan_id"`
	DurationDays  int                  `json:"duration_days"`
	Amount        *int64               `json:"payment_amount"`
	PaymentMethod string               `json:"payment_method"`
	TransactionID string               `json:"transaction_id"`
}

// ManageSubscription extends, cancels, gifts or renews a reader's
// subscription.
// POST /users/:id/subscription/manage
func (ac *AccountsController) ManageSubscription(c *gin.Context) {
	user, ok := ac.load(c, readerRoles)
	if !ok {
		return
	}
	var req manageSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Action == "" {
		respondBadRequest(c, "action is required")
		return
	}
	if req.DurationDays < 0 {
		respondBadRequest(c, subscriptions.ErrInvalidDuration.Error())
		return
	}

	sub, err := ac.subs.Manage(user.ID, subscriptions.ManageRequest{
		Action:        req.Action,
		PlanID:        req.PlanID,
		DurationDays:  req.DurationDays,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	}, ac.now())
	if ac.auditService != nil && !errors.Is(err, subscriptions.ErrUnknownAction) {
		details := map[string]any{}
		if req.PlanID != 0 {
			details["plan_id"] = req.PlanID
		}
		if req.DurationDays != 0 {
			details["duration_days"] = req.DurationDays
		}
		ac.auditService.LogSubscriptionChange(actorFrom(c), user.ID, string(req.Action), details, err)
	}
	if err != nil {
		respondError(c, err, "manage subscription")
		return
	}
	respondOK(c, "Cập nhật gói đăng ký của người dùng thành công", sub)
}

// GetStaff returns one Admin or Staff account.
// GET /staff/:id
func (ac *AccountsController) GetStaff(c *gin.Context) {
	user, ok := ac.load(c, staffRoles)
	if !ok {
		return
	}
	respondOK(c, "", newUserResponse(user))
}

// CreateStaff adds an Admin or Staff account with its profile.
// POST /staff
func (ac *AccountsController) CreateStaff(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
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
	if !isStaffRole(role) {
		respondBadRequest(c, auth.ErrInvalidRole.Error())
		return
	}

	user, err := ac.authService.CreateUser(req.Username, req.Email, req.Password, role)
	if err != nil {
		respondAccountError(c, err, "create staff")
		return
	}
	user, err = ac.users.UpdateProfile(user.ID, users.Profile{FullName: &req.FullName, Phone: &req.Phone})
	if err != nil {
		respondError(c, err, "create staff profile")
		return
	}
	if ac.auditService != nil {
		ac.auditService.LogAccountChange(actorFrom(c), user.ID, "staff_create",
			fmt.Sprintf("Created %s account %s", user.Role, user.Username))
	}
	respondCreated(c, "Tạo nhân viên thành công", newUserResponse(user))
}

type updateStaffRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// UpdateStaff edits the profile, role or active flag of a staff account.
// Admins cannot deactivate or demote themselves.
// PATCH /staff/:id
func (ac *AccountsController) UpdateStaff(c *gin.Context) {
	user, ok := ac.load(c, staffRoles)
	if !ok {
		return
	}
	var req updateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	profile := users.Profile{FullName: req.FullName, Phone: req.Phone, IsActive: req.IsActive}
	if req.Role != nil {
		role := entities.UserRole(*req.Role)
		if !isStaffRole(role) {
			respondBadRequest(c, auth.ErrInvalidRole.Error())
			return
		}
		profile.Role = &role
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if err := auth.ValidateEmail(email); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		taken, err := ac.users.EmailTaken(email, user.ID)
		if err != nil {
			respondInternalError(c, err, "check email")
			return
		}
		if taken {
			respondFailure(c, http.StatusConflict, auth.ErrUserExists.Error())
			return
		}
		profile.Email = &email
	}
	if user.ID == auth.GetUserID(c) &&
		((req.IsActive != nil && !*req.IsActive) || (profile.Role != nil && *profile.Role != user.Role)) {
		respondFailure(c, http.StatusUnprocessableEntity, errSelfLockout.Error())
		return
	}

	updated, err := ac.users.UpdateProfile(user.ID, profile)
	if err != nil {
		respondError(c, err, "update staff")
		return
	}
	if req.IsActive != nil && *req.IsActive != user.IsActive() {
		ac.logActive(c, updated)
	}
	if profile.Role != nil && *profile.Role != user.Role && ac.auditService != nil {
		ac.auditService.LogAccountChange(actorFrom(c), updated.ID, "staff_role_change",
			fmt.Sprintf("Changed role of %s from %s to %s", updated.Username, user.Role, updated.Role))
	}
	respondOK(c, "Cập nhật nhân viên thành công", newUserResponse(updated))
}

func (ac *AccountsController) logActive(c *gin.Context, user *entities.User) {
	if ac.auditService == nil {
		return
	}
	action, verb := "user_activate", "Activated"
	if !user.IsActive() {
		action, verb = "user_deactivate", "Deactivated"
	}
	ac.auditService.LogAccountChange(actorFrom(c), user.ID, action,
		fmt.Sprintf("%s %s account %s", verb, user.Role, user.Username))
}

func isStaffRole(r entities.UserRole) bool {
	return r == entities.UserRoleAdmin || r == entities.UserRoleStaff
}
