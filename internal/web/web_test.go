package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/billing"
	"github.com/PrepDesk/PrepDesk/internal/billing/provider"
	"github.com/PrepDesk/PrepDesk/internal/config"
	"github.com/PrepDesk/PrepDesk/internal/db/controller/plan"
	"github.com/PrepDesk/PrepDesk/internal/db/controller/rbac"
	"github.com/PrepDesk/PrepDesk/internal/db/dbtest"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
	"github.com/PrepDesk/PrepDesk/internal/web/session"
)

const (
	testWebhookSecret = "whsec_web"
	testPassword      = "correct horse"
)

type stubProvider struct{}

func (stubProvider) CreateCustomer(_ context.Context, p *provider.CustomerParams) (*provider.Customer, error) {
	return &provider.Customer{ID: "cus_" + strconv.FormatUint(p.UserID, 10)}, nil
}

func (stubProvider) CreateCheckoutSession(_ context.Context, _ *provider.CheckoutParams) (*provider.CheckoutSession, error) {
	return &provider.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

func (stubProvider) GetSubscription(_ context.Context, _ string) (*provider.Subscription, error) {
	return nil, errors.New("provider unavailable")
}

type testServer struct {
	t   *testing.T
	db  *gorm.DB
	svc *Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conn := dbtest.Open(t)
	ctx := context.Background()

	require.NoError(t, rbac.EnsureCatalog(ctx, conn, auth.Catalog()))

	for _, tmpl := range auth.DefaultRoles() {
		_, err := rbac.EnsureRole(ctx, conn, tmpl)
		require.NoError(t, err)
	}

	cfg := &config.Config{
		Title: "PrepDesk",
		Webserver: config.Webserver{
			Port:    8080,
			URL:     "http://localhost:8080",
			Session: config.Session{ExpiryTime: time.Hour},
		},
		Billing: config.Billing{
			Enabled:          true,
			WebhookSecret:    testWebhookSecret,
			WebhookTolerance: 5 * time.Minute,
			SuccessURL:       "http://localhost:8080/billing/success",
			CancelURL:        "http://localhost:8080/billing/cancel",
		},
	}

	sync := billing.New(conn, stubProvider{}, billing.Config{
		SuccessURL:       cfg.Billing.SuccessURL,
		CancelURL:        cfg.Billing.CancelURL,
		WebhookSecret:    cfg.Billing.WebhookSecret,
		WebhookTolerance: cfg.Billing.WebhookTolerance,
	})

	svc, err := New(cfg, conn, Options{
		Sessions: session.New(session.NewMemoryStorage(), time.Hour),
		Billing:  sync,
	})
	require.NoError(t, err)

	return &testServer{t: t, db: conn, svc: svc}
}

// user creates a local user holding the given roles.
func (s *testServer) user(name string, verified bool, roles ...string) *models.User {
	s.t.Helper()

	ctx := context.Background()

	u, err := auth.NewLocalProvider(s.db).CreateUser(ctx, name, name+"@example.test", testPassword, verified)
	require.NoError(s.t, err)

	if len(roles) > 0 {
		require.NoError(s.t, rbac.SetUserRoles(ctx, s.db, u.ID, roles))
	}

	return u
}

func (s *testServer) do(method, path, cookie string, body any) (*http.Response, []byte) {
	s.t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}

	resp, err := s.svc.App.Test(req)
	require.NoError(s.t, err)

	out, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	require.NoError(s.t, resp.Body.Close())

	return resp, out
}

// login opens a session and returns the session cookie value.
func (s *testServer) login(name string) string {
	s.t.Helper()

	resp, body := s.do(http.MethodPost, "/login", "", map[string]string{"username": name, "password": testPassword})
	require.Equal(s.t, http.StatusOK, resp.StatusCode, string(body))

	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c.Value
		}
	}

	s.t.Fatal("no session cookie")

	return ""
}

func ptr[T any](v T) *T { return &v }

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))

	return out
}

func TestCheckAliveAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodGet, DefaultCheckAliveURI, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	s.svc.alive.Store(false)

	resp, _ = s.do(http.MethodGet, DefaultCheckAliveURI, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, body = s.do(http.MethodGet, MetricsPath, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.user("alice", true, auth.RoleStudent)

	resp, body := s.do(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[ErrorBody](t, body).Error)

	resp, _ = s.do(http.MethodPost, "/login", "", map[string]string{"username": "nobody", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(http.MethodPost, "/login", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", decode[ErrorBody](t, body).Error)

	resp, _ = s.do(http.MethodPost, "/login", "", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	cookie := s.login("alice")
	assert.NotEmpty(t, cookie)

	resp, _ = s.do(http.MethodGet, "/api/me/access", cookie, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/logout", cookie, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/me/access", cookie, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthenticated", decode[ErrorBody](t, body).Reason)
}

func TestLoginRefusesSuspendedAccount(t *testing.T) {
	s := newTestServer(t)
	u := s.user("bob", true)

	require.NoError(t, auth.NewLocalProvider(s.db).SetStatus(context.Background(), u.ID, models.UserStatusSuspended))

	resp, body := s.do(http.MethodPost, "/login", "", map[string]string{"username": "bob", "password": testPassword})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "ACCOUNT_DISABLED", decode[ErrorBody](t, body).Error)
}

func TestSessionOfSuspendedUserIsRejected(t *testing.T) {
	s := newTestServer(t)
	u := s.user("carol", true, auth.RoleStudent)
	cookie := s.login("carol")

	require.NoError(t, auth.NewLocalProvider(s.db).SetStatus(context.Background(), u.ID, models.UserStatusSuspended))

	resp, body := s.do(http.MethodGet, "/api/me/access", cookie, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "account_suspended", decode[ErrorBody](t, body).Reason)
}

func TestMeAccess(t *testing.T) {
	s := newTestServer(t)
	s.user("dora", false, auth.RoleTeacher)
	cookie := s.login("dora")

	resp, body := s.do(http.MethodGet, "/api/me/access", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var access struct {
		Roles         []string `json:"roles"`
		Permissions   []string `json:"permissions"`
		EmailVerified bool     `json:"emailVerified"`
	}
	require.NoError(t, json.Unmarshal(body, &access))

	assert.Equal(t, []string{auth.RoleTeacher}, access.Roles)
	assert.Contains(t, access.Permissions, auth.PermQuestionCreate)
	assert.NotContains(t, access.Permissions, auth.PermAdminRoles)
	assert.False(t, access.EmailVerified)
}

func TestAdminRoutesRequirePermission(t *testing.T) {
	s := newTestServer(t)
	s.user("erin", true, auth.RoleStudent)
	cookie := s.login("erin")

	paths := []string{"/api/admin/roles", "/api/admin/users", "/api/admin/plans", "/api/admin/subscriptions/1"}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			resp, body := s.do(http.MethodGet, p, cookie, nil)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)

			e := decode[ErrorBody](t, body)
			assert.Equal(t, "FORBIDDEN", e.Error)
			assert.Equal(t, "missing_permission", e.Reason)
			assert.NotEmpty(t, e.Required)
		})
	}

	resp, _ := s.do(http.MethodGet, "/api/admin/roles", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoleAndUserManagement(t *testing.T) {
	s := newTestServer(t)
	s.user("root", true, auth.RoleAdmin)
	frank := s.user("frank", true, auth.RoleStudent)
	cookie := s.login("root")
	frankCookie := s.login("frank")

	resp, body := s.do(http.MethodGet, "/api/admin/roles", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var roles []struct {
		ID          uint     `json:"id"`
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(body, &roles))
	require.Len(t, roles, 3)

	var studentID uint

	for _, r := range roles {
		if r.Name == auth.RoleStudent {
			studentID = r.ID
		}
	}

	require.NotZero(t, studentID)

	rolePath := "/api/admin/roles/" + strconv.FormatUint(uint64(studentID), 10)

	resp, _ = s.do(http.MethodPut, rolePath+"/permissions", cookie,
		map[string]any{"grant": []string{auth.PermPDFExport}, "revoke": []string{auth.PermExamRead}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/me/access", frankCookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	perms := decode[struct {
		Permissions []string `json:"permissions"`
	}](t, body).Permissions
	assert.Contains(t, perms, auth.PermPDFExport)
	assert.NotContains(t, perms, auth.PermExamRead)

	resp, body = s.do(http.MethodGet, rolePath+"/permissions/history", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []struct {
		Permission string `json:"permission"`
		Granted    bool   `json:"granted"`
	}
	require.NoError(t, json.Unmarshal(body, &history))

	revoked := map[string]bool{}
	for _, h := range history {
		revoked[h.Permission] = !h.Granted
	}

	assert.True(t, revoked[auth.PermExamRead], "revoked grant is kept as a row")

	resp, body = s.do(http.MethodPut, rolePath+"/permissions", cookie,
		map[string]any{"grant": []string{auth.PermExamRead}, "revoke": []string{auth.PermExamRead}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, _ = s.do(http.MethodPut, rolePath+"/permissions", cookie,
		map[string]any{"grant": []string{"nothing.here"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodPut, "/api/admin/roles/abc/permissions", cookie, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	userPath := "/api/admin/users/" + strconv.FormatUint(frank.ID, 10)

	resp, _ = s.do(http.MethodPut, userPath+"/permissions", cookie,
		map[string]any{"permissions": []string{auth.PermTaxonomyManage}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(http.MethodPut, userPath+"/roles", cookie, map[string]any{"roles": []string{auth.RoleTeacher}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/me/access", frankCookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	access := decode[struct {
		Roles       []string `json:"roles"`
		Permissions []string `json:"permissions"`
	}](t, body)
	assert.Equal(t, []string{auth.RoleTeacher}, access.Roles)
	assert.Contains(t, access.Permissions, auth.PermTaxonomyManage)
	assert.Contains(t, access.Permissions, auth.PermQuestionCreate)

	resp, _ = s.do(http.MethodPut, "/api/admin/users/999/roles", cookie, map[string]any{"roles": []string{}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/admin/users?search=FRA", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
		TotalItems int64 `json:"totalItems"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, int64(1), page.TotalItems)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "frank", page.Users[0].Username)

	resp, _ = s.do(http.MethodPatch, userPath, cookie, map[string]string{"status": "suspended"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/me/access", frankCookie, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodPatch, userPath, cookie, map[string]string{"status": "frozen"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminPermissionToggle(t *testing.T) {
	s := newTestServer(t)
	s.user("root", true, auth.RoleAdmin)
	s.user("gina", true, auth.RoleStudent)
	cookie := s.login("root")
	ginaCookie := s.login("gina")

	resp, _ := s.do(http.MethodPatch, "/api/admin/permissions/"+auth.PermQuestionRead, cookie,
		map[string]bool{"isActive": false})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/api/me/access", ginaCookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), auth.PermQuestionRead)

	resp, body = s.do(http.MethodGet, "/api/admin/permissions", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), auth.PermQuestionRead)

	resp, body = s.do(http.MethodGet, "/api/admin/permissions?all=true", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), auth.PermQuestionRead)

	resp, _ = s.do(http.MethodPatch, "/api/admin/permissions/unknown.key", cookie, map[string]bool{"isActive": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodPatch, "/api/admin/permissions/"+auth.PermQuestionRead, cookie, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminPlans(t *testing.T) {
	s := newTestServer(t)
	s.user("root", true, auth.RoleAdmin)
	cookie := s.login("root")

	input := map[string]any{
		"key":                    "STUDENT_START",
		"label":                  "Start",
		"type":                   "student",
		"monthlyPriceCents":      990,
		"currency":               "EUR",
		"isActive":               true,
		"providerPriceIdMonthly": "price_m",
		"monthlyCredits":         100,
	}

	resp, body := s.do(http.MethodPost, "/api/admin/plans", cookie, input)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "price_m")

	resp, _ = s.do(http.MethodPost, "/api/admin/plans", cookie, input)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	broken := map[string]any{
		"key": "BROKEN", "label": "Broken", "type": "student", "monthlyPriceCents": 500, "isActive": true,
	}
	resp, _ = s.do(http.MethodPost, "/api/admin/plans", cookie, broken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	input["label"] = "Starter"
	resp, body = s.do(http.MethodPut, "/api/admin/plans/STUDENT_START", cookie, input)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Starter")

	resp, body = s.do(http.MethodGet, "/api/plans", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "STUDENT_START")
	assert.NotContains(t, string(body), "price_m", "public list hides provider ids")

	resp, _ = s.do(http.MethodPatch, "/api/admin/plans/STUDENT_START", cookie, map[string]bool{"isActive": false})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/plans", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))

	resp, _ = s.do(http.MethodPut, "/api/admin/plans/UNKNOWN", cookie, input)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckoutWebhookAndEntitlement(t *testing.T) {
	s := newTestServer(t)
	helen := s.user("helen", true, auth.RoleStudent)
	s.user("root", true, auth.RoleAdmin)
	cookie := s.login("helen")
	adminCookie := s.login("root")

	_, err := plan.Create(context.Background(), s.db, &plan.Input{
		Key:                    "STUDENT_START",
		Label:                  "Start",
		Type:                   models.PlanTypeStudent,
		MonthlyPriceCents:      ptr(int64(990)),
		Currency:               "EUR",
		IsActive:               true,
		ProviderPriceIDMonthly: ptr("price_m"),
		MonthlyCredits:         100,
		PDFExport:              true,
	})
	require.NoError(t, err)

	resp, body := s.do(http.MethodPost, "/api/billing/checkout", cookie,
		map[string]string{"planKey": "STUDENT_START", "interval": "YEAR"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, plan.CodePriceNotConfigured, decode[ErrorBody](t, body).Error)

	resp, body = s.do(http.MethodPost, "/api/billing/checkout", cookie,
		map[string]string{"planKey": "NOPE", "interval": "MONTH"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, plan.CodePlanNotFound, decode[ErrorBody](t, body).Error)

	resp, body = s.do(http.MethodPost, "/api/billing/checkout", cookie,
		map[string]string{"planKey": "STUDENT_START", "interval": "MONTH"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "https://pay.example/cs_1", decode[map[string]string](t, body)["url"])

	resp, body = s.do(http.MethodGet, "/api/me/entitlement", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[map[string]any](t, body)["active"].(bool), "pending checkout grants nothing")

	obj, err := json.Marshal(map[string]any{
		"id":           "cs_1",
		"customer":     "cus_" + strconv.FormatUint(helen.ID, 10),
		"subscription": "sub_1",
		"metadata":     map[string]string{"userId": strconv.FormatUint(helen.ID, 10), "planKey": "STUDENT_START"},
	})
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"id":      "evt_1",
		"type":    provider.EventCheckoutCompleted,
		"created": time.Now().Unix(),
		"data":    map[string]json.RawMessage{"object": obj},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", bytes.NewReader(payload))
	req.Header.Set(provider.SignatureHeader, provider.Sign(payload, "whsec_wrong", time.Now()))

	resp, err = s.svc.App.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/billing/webhook", bytes.NewReader(payload))
	req.Header.Set(provider.SignatureHeader, provider.Sign(payload, testWebhookSecret, time.Now()))

	resp, err = s.svc.App.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/me/entitlement", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ent struct {
		Active bool `json:"active"`
		Limits struct {
			MonthlyCredits int  `json:"monthlyCredits"`
			PDFExport      bool `json:"pdfExport"`
		} `json:"limits"`
		Subscription struct {
			Status  string `json:"status"`
			PlanKey string `json:"planKey"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(body, &ent))
	assert.True(t, ent.Active)
	assert.Equal(t, 100, ent.Limits.MonthlyCredits)
	assert.True(t, ent.Limits.PDFExport)
	assert.Equal(t, "ACTIVE", ent.Subscription.Status)
	assert.Equal(t, "STUDENT_START", ent.Subscription.PlanKey)
	assert.NotContains(t, string(body), "sub_1", "provider ids stay internal")

	subPath := "/api/admin/subscriptions/" + strconv.FormatUint(helen.ID, 10)

	resp, body = s.do(http.MethodGet, subPath, adminCookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "sub_1")

	resp, body = s.do(http.MethodGet, "/api/dashboard", adminCookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decode[map[string]any](t, body)["entitled"])

	resp, _ = s.do(http.MethodDelete, subPath, adminCookie, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, subPath, adminCookie, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodDelete, subPath, adminCookie, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUncorrelatedWebhookIsAcknowledged(t *testing.T) {
	s := newTestServer(t)

	payload := []byte(`{"id":"evt_9","type":"customer.subscription.updated","created":` +
		strconv.FormatInt(time.Now().Unix(), 10) + `,"data":{"object":{"id":"sub_unknown","status":"active"}}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", bytes.NewReader(payload))
	req.Header.Set(provider.SignatureHeader, provider.Sign(payload, testWebhookSecret, time.Now()))

	resp, err := s.svc.App.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, s.db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodGet, "/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[ErrorBody](t, body).Error)
}
