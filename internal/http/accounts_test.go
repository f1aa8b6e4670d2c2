package http

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditrepo "github.com/booklify/admin/internal/database/audit"
	"github.com/booklify/admin/internal/entities"
)

func (s *testServer) createReader(t *testing.T, username string) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Email: username + "@gmail.com", FullName: "Độc giả " + username, Role: entities.UserRoleUser}
	require.NoError(t, s.users.CreateUser(user))
	return user
}

func userPath(id uint, suffix string) string {
	return "/users/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func TestReaders_ListAndDetail(t *testing.T) {
	s := setupServer(t)
	plan := s.createPlan(t, "Gói tháng", 49000, 30)
	subscribed := s.createReader(t, "an")
	s.createReader(t, "binh")

	w := s.do(http.MethodPost, userPath(subscribed.ID, "/subscription/manage"), s.adminToken, map[string]any{
		"action":         "re_subscription",
		"plan_id":        plan.ID,
		"payment_method": "MoMo",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/users?sort_by=username&sort_direction=asc", s.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decodeData[accountListResponse](t, w)
	require.Len(t, list.Items, 2, "staff accounts are not readers")
	assert.Equal(t, "an", list.Items[0].Username)

	w = s.do(http.MethodGet, "/users?has_active_subscription=false", s.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decodeData[accountListResponse](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "binh", list.Items[0].Username)

	w = s.do(http.MethodGet, userPath(subscribed.ID, ""), s.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail := decodeData[readerDetailResponse](t, w)
	assert.Equal(t, "Độc giả an", detail.FullName)
	require.NotNil(t, detail.CurrentSubscription)
	assert.Equal(t, "Gói tháng", detail.CurrentSubscription.Plan.Name)
	assert.Len(t, detail.SubscriptionHistory, 1)
	require.Len(t, detail.PaymentHistory, 1)
	assert.Equal(t, "MoMo", detail.PaymentHistory[0].Method)

	w = s.do(http.MethodGet, userPath(s.staff.ID, ""), s.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "staff are served under /staff")

	w = s.do(http.MethodGet, "/users/me", s.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff", decodeData[userResponse](t, w).Username)

	w = s.do(http.MethodGet, userPath(subscribed.ID, "/payments"), s.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]entities.Payment](t, w), 1)

	w = s.do(http.MethodGet, userPath(subscribed.ID, "/subscriptions"), s.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]entities.UserSubscription](t, w), 1)
}

func TestReaders_SetStatus(t *testing.T) {
	s := setupServer(t)
	reader := s.createReader(t, "cuong")

	w := s.do(http.MethodPatch, userPath(reader.ID, "/status"), s.staffToken, map[string]any{"is_active": false})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPatch, userPath(reader.ID, "/status"), s.adminToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, userPath(reader.ID, "/status"), s.adminToken, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decodeData[userResponse](t, w).IsActive)

	w = s.do(http.MethodGet, "/users?is_active=false", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[accountListResponse](t, w).Items, 1)

	s.audit.Flush()
	events, _, err := s.audit.GetEvents(auditrepo.Query{EventType: entities.AuditEventAccount, Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "user_deactivate", events[0].Action)
}

func TestReaders_ManageSubscription(t *testing.T) {
	s := setupServer(t)
	plan := s.createPlan(t, "Gói tháng", 49000, 30)
	reader := s.createReader(t, "dung")
	manage := func(token string, body map[string]any) int {
		return s.do(http.MethodPost, userPath(reader.ID, "/subscription/manage"), token, body).Code
	}

	assert.Equal(t, http.StatusForbidden, manage(s.staffToken, map[string]any{"action": "gift", "plan_id": plan.ID}))
	assert.Equal(t, http.StatusBadRequest, manage(s.adminToken, map[string]any{}))
	assert.Equal(t, http.StatusBadRequest, manage(s.adminToken, map[string]any{"action": "upgrade"}))
	assert.Equal(t, http.StatusBadRequest, manage(s.adminToken, map[string]any{"action": "extend", "duration_days": -3}))
	assert.Equal(t, http.StatusUnprocessableEntity, manage(s.adminToken, map[string]any{"action": "extend", "duration_days": 10}))
	assert.Equal(t, http.StatusNotFound, manage(s.adminToken, map[string]any{"action": "gift", "plan_id": 999}))
	assert.Equal(t, http.StatusOK, manage(s.adminToken, map[string]any{"action": "gift", "plan_id": plan.ID}))
	assert.Equal(t, http.StatusUnprocessableEntity, manage(s.adminToken, map[string]any{"action": "gift", "plan_id": plan.ID}))
	assert.Equal(t, http.StatusOK, manage(s.adminToken, map[string]any{"action": "toggle_auto_renew"}))
	assert.Equal(t, http.StatusOK, manage(s.adminToken, map[string]any{"action": "cancel"}))

	w := s.do(http.MethodPost, userPath(s.staff.ID, "/subscription/manage"), s.adminToken, map[string]any{"action": "gift", "plan_id": plan.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.audit.Flush()
	events, _, err := s.audit.GetEvents(auditrepo.Query{EventType: entities.AuditEventSubscription, Limit: 20})
	require.NoError(t, err)
	failed := 0
	for _, e := range events {
		if e.Status == entities.AuditStatusFailed {
			failed++
		}
	}
	assert.Len(t, events, 6, "unknown actions are not recorded")
	assert.Equal(t, 3, failed)
}

func TestStaff_CreateListUpdate(t *testing.T) {
	s := setupServer(t)

	w := s.do(http.MethodGet, "/staff", s.staffToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/staff", s.adminToken, map[string]any{
		"username":  "thuthu",
		"email":     "thuthu@booklify.vn",
		"password":  testPassword,
		"full_name": "Lê Văn Thư",
		"phone":     "0912345678",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[userResponse](t, w)
	assert.Equal(t, entities.UserRoleStaff, created.Role)
	assert.Equal(t, "Lê Văn Thư", created.FullName)

	w = s.do(http.MethodPost, "/staff", s.adminToken, map[string]any{
		"username": "reader2", "email": "reader2@booklify.vn", "password": testPassword, "role": "User",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.createReader(t, "docgia")
	w = s.do(http.MethodGet, "/staff?sort_by=username&sort_direction=asc", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[accountListResponse](t, w)
	assert.Equal(t, int64(4), list.Total, "admin, other, staff and thuthu")

	w = s.do(http.MethodGet, "/staff?role=Admin", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[accountListResponse](t, w).Items, 1)
	w = s.do(http.MethodGet, "/staff?role=User", s.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/staff/" + strconv.Itoa(int(created.ID))
	w = s.do(http.MethodPatch, path, s.adminToken, map[string]any{"email": "admin@booklify.vn"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(http.MethodPatch, path, s.adminToken, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPatch, path, s.adminToken, map[string]any{"role": "Owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, path, s.adminToken, map[string]any{"is_active": false, "phone": "0987654321", "role": "Admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeData[userResponse](t, w)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "0987654321", updated.Phone)
	assert.Equal(t, entities.UserRoleAdmin, updated.Role)

	w = s.do(http.MethodPost, "/auth/login", "", map[string]any{"username": "thuthu", "password": testPassword})
	assert.Equal(t, http.StatusForbidden, w.Code, "disabled accounts cannot sign in")

	s.audit.Flush()
	events, _, err := s.audit.GetEvents(auditrepo.Query{EventType: entities.AuditEventAccount, Limit: 10})
	require.NoError(t, err)
	actions := map[string]bool{}
	for _, e := range events {
		actions[e.Action] = true
	}
	assert.Equal(t, map[string]bool{"staff_create": true, "user_deactivate": true, "staff_role_change": true}, actions)
}

func TestStaff_CannotLockOutSelf(t *testing.T) {
	s := setupServer(t)
	w := s.do(http.MethodGet, "/users/me", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeData[userResponse](t, w)
	path := "/staff/" + strconv.Itoa(int(me.ID))

	w = s.do(http.MethodPatch, path, s.adminToken, map[string]any{"is_active": false})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = s.do(http.MethodPatch, path, s.adminToken, map[string]any{"role": "Staff"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPatch, path, s.adminToken, map[string]any{"full_name": "Quản trị viên", "is_active": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Quản trị viên", decodeData[userResponse](t, w).FullName)

	w = s.do(http.MethodGet, "/staff/"+strconv.Itoa(int(s.staff.ID)), s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff", decodeData[userResponse](t, w).Username)
}
