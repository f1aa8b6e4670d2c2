package cmsclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/tokens"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, result, message string, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"result":  result,
		"message": message,
		"data":    data,
	}))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *tokens.Manager) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/api/cms/", WithHTTPClient(server.Client()))
	manager := tokens.NewManager(client)
	manager.Set(tokens.Token{AccessToken: "valid-token", ExpiresAt: time.Now().Add(time.Hour)})
	client.UseTokens(manager)
	return client, manager
}

func TestGetBook(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cms/books/42", r.URL.Path)
		assert.Equal(t, "Bearer valid-token", r.Header.Get("Authorization"))
		writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{
			"id":              42,
			"title":           "Dế Mèn phiêu lưu ký",
			"approval_status": 2,
			"approval_note":   "[REJECTED 2025-01-02 10:00:00 UTC] Thiếu bìa",
		})
	})

	book, err := client.GetBook(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), book.ID)
	assert.Equal(t, approval.StatusRejected, book.ApprovalStatus)
	assert.Equal(t, "[REJECTED 2025-01-02 10:00:00 UTC] Thiếu bìa", book.ApprovalNote)
}

func TestManageStatus_SendsOnlySetFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/cms/books/7/manage-status", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"approval_status": float64(2), "approval_note": "Sai chính tả"}, body)
		writeEnvelope(t, w, http.StatusOK, "success", "Cập nhật thành công", nil)
	})

	status := approval.StatusRejected
	note := "Sai chính tả"
	err := client.ManageStatus(context.Background(), 7, ManageStatusRequest{ApprovalStatus: &status, ApprovalNote: &note})
	require.NoError(t, err)
}

func TestResubmit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cms/books/7/resubmit", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, body)
		writeEnvelope(t, w, http.StatusOK, "success", "", nil)
	})

	require.NoError(t, client.Resubmit(context.Background(), 7, ResubmitRequest{}))
}

func TestServerFailureIsPropagatedVerbatim(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusUnprocessableEntity, "failure", "Không thể chuyển trạng thái", nil)
	})

	err := client.ManageStatus(context.Background(), 1, ManageStatusRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "Không thể chuyển trạng thái", apiErr.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(err))
}

func TestFailureResultWithOKStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, "failure", "Sách không tồn tại", nil)
	})

	_, err := client.GetBook(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Sách không tồn tại", apiErr.Message)
}

func TestNonJSONErrorBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	_, err := client.GetBook(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestUnauthorizedClearsTokens(t *testing.T) {
	var calls atomic.Int32
	client, manager := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(t, w, http.StatusUnauthorized, "failure", "token expired", nil)
	})

	_, err := client.GetBook(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.True(t, manager.Current().IsZero())
	assert.Equal(t, int32(1), calls.Load(), "no automatic retry")

	_, err = client.GetBook(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.ErrorIs(t, err, tokens.ErrNoToken)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExpiredLocalTokenNeverReachesServer(t *testing.T) {
	client, manager := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})
	manager.Set(tokens.Token{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Minute)})

	_, err := client.Statistics(context.Background())
	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.ErrorIs(t, err, tokens.ErrTokenExpired)
}

func TestNoTokenManager(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	_, err := client.GetBook(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAuthExpired)
}

func TestLogin(t *testing.T) {
	expires := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	client, manager := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cms/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin@booklify.vn", body["email"])
		assert.Empty(t, body["username"])
		writeEnvelope(t, w, http.StatusOK, "success", "Đăng nhập thành công", map[string]any{
			"access_token":     "new-token",
			"token_expires_in": 3600,
			"token_expires_at": expires,
			"username":         "admin",
			"app_role":         []string{"Admin"},
			"is_active":        true,
		})
	})
	manager.Clear()

	result, err := client.Login(context.Background(), "admin@booklify.vn", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin"}, result.AppRole)
	assert.Equal(t, "new-token", manager.Current().AccessToken)
	assert.True(t, expires.Equal(manager.Current().ExpiresAt))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusUnauthorized, "failure", "invalid username or password", nil)
	})

	_, err := client.Login(context.Background(), "admin", "wrong")
	assert.False(t, errors.Is(err, ErrAuthExpired))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid username or password", apiErr.Message)
}

func TestRefresh_FallsBackToExpiresIn(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cms/auth/refresh", r.URL.Path)
		assert.Equal(t, "Bearer current", r.Header.Get("Authorization"))
		writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{
			"access_token":     "rotated",
			"token_expires_in": 60,
		})
	})
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return fixed }

	tok, err := client.Refresh(context.Background(), "current")
	require.NoError(t, err)
	assert.Equal(t, "rotated", tok.AccessToken)
	assert.Equal(t, fixed.Add(time.Minute), tok.ExpiresAt)
}

func TestTokenNearExpiryIsRefreshedBeforeCall(t *testing.T) {
	var refreshes atomic.Int32
	client, manager := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cms/auth/refresh":
			refreshes.Add(1)
			writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{
				"access_token":     "rotated",
				"token_expires_at": time.Now().Add(time.Hour),
			})
		case "/api/cms/books/statistics":
			assert.Equal(t, "Bearer rotated", r.Header.Get("Authorization"))
			writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{"pending_count": 3, "total_count": 10})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	manager.Set(tokens.Token{AccessToken: "near-expiry", ExpiresAt: time.Now().Add(time.Minute)})

	stats, err := client.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.PendingCount)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestListBooks_Query(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/cms/books/list", r.URL.Path)
		assert.Equal(t, "0", q.Get("approval_status"))
		assert.Equal(t, "sách", q.Get("search"))
		assert.Equal(t, "created_at", q.Get("sort_by"))
		assert.Equal(t, "desc", q.Get("sort_direction"))
		assert.Equal(t, "2", q.Get("page"))
		assert.False(t, q.Has("is_premium"))
		writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{
			"items":       []map[string]any{{"id": 1, "title": "A"}, {"id": 2, "title": "B"}},
			"total":       22,
			"page":        2,
			"page_size":   20,
			"total_pages": 2,
		})
	})

	pending := approval.StatusPending
	list, err := client.ListBooks(context.Background(), ListOptions{
		Search:         "sách",
		ApprovalStatus: &pending,
		SortBy:         "created_at",
		Descending:     true,
		Page:           2,
	})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, int64(22), list.Total)
	assert.Equal(t, 2, list.TotalPages)
}

func TestApprovalHistory(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cms/books/5/approval-history", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{
			"book_id":         5,
			"approval_status": 1,
			"timeline": []map[string]any{
				{"tag": "APPROVED", "timestamp": "2025-01-03T09:00:00Z", "message": "OK", "line": 1},
				{"tag": "PENDING", "timestamp": nil, "message": "legacy", "line": 0},
			},
			"summary": map[string]any{"latest_tag": "APPROVED", "latest_message": "OK", "total_entry_count": 2},
		})
	})

	h, err := client.ApprovalHistory(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, h.Timeline, 2)
	assert.Equal(t, approval.TagApproved, h.Timeline[0].Tag)
	assert.Nil(t, h.Timeline[1].Timestamp)
	assert.Equal(t, 2, h.Summary.TotalEntryCount)
}

func TestListReaders_Query(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/cms/users", r.URL.Path)
		assert.Equal(t, "false", q.Get("is_active"))
		assert.Equal(t, "true", q.Get("has_active_subscription"))
		assert.Equal(t, "nguyen", q.Get("search"))
		assert.False(t, q.Has("role"))
		assert.False(t, q.Has("page"))
		writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{
			"items": []map[string]any{{"id": 3, "username": "an", "role": "User", "is_active": false}},
			"total": 1, "page": 1, "page_size": 20, "total_pages": 1,
		})
	})

	inactive, subscribed := false, true
	list, err := client.ListReaders(context.Background(), AccountListOptions{
		Search: "nguyen", IsActive: &inactive, Subscribed: &subscribed, Role: "Admin",
	})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "an", list.Items[0].Username)
}

func TestManageSubscription(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cms/users/9/subscription/manage", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"action": "extend", "duration_days": float64(30)}, body)
		writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{
			"id": 4, "plan_id": 2, "plan": map[string]any{"id": 2, "name": "Gói tháng"},
			"end_date": "2025-03-01T00:00:00Z", "is_active": true,
		})
	})

	sub, err := client.ManageSubscription(context.Background(), 9, ManageSubscriptionRequest{Action: "extend", DurationDays: 30})
	require.NoError(t, err)
	assert.Equal(t, "Gói tháng", sub.Plan.Name)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), sub.EndDate)
}

func TestUpdateStaff_SendsOnlySetFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/cms/staff/5", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"is_active": false}, body)
		writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{"id": 5, "username": "thu", "is_active": false})
	})

	inactive := false
	account, err := client.UpdateStaff(context.Background(), 5, StaffUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, account.IsActive)
}

func TestPlanStatistics(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cms/subscriptions/statistics", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, "success", "", map[string]any{
			"total_plans": 3, "revenue": 98000, "popular_plan": nil,
		})
	})

	stats, err := client.PlanStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalPlans)
	assert.Equal(t, int64(98000), stats.Revenue)
	assert.Nil(t, stats.PopularPlan)
}
