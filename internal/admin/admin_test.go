package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchdesk/pitchdesk/internal/access"
	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/membership"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
)

const (
	ownerID     = "usr_owner"
	sweepSecret = "sweep-secret"
)

type adminEnv struct {
	router    *gin.Engine
	companies *company.MemoryStore
	subs      subscription.Store
	clock     time.Time
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &adminEnv{
		companies: company.NewMemoryStore(),
		subs:      subscription.NewMemoryStore(),
		clock:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	subSvc := subscription.NewService(env.subs, 14).
		WithClock(func() time.Time { return env.clock })
	resolver := access.NewResolver(membership.NewMemoryStore(), ownerID)
	h := NewHandler(env.companies, subSvc, nil, nil)

	identity := func(c *gin.Context) {
		if user := c.GetHeader("X-Test-User"); user != "" {
			c.Set(access.CtxUserID, user)
		}
		c.Next()
	}

	env.router = gin.New()
	g := env.router.Group("/v1/admin", identity)
	owner := access.RequireOwner(resolver)
	g.GET("/companies", owner, h.ListCompanies)
	g.POST("/companies/:id/suspend", owner, h.SuspendCompany)
	g.POST("/companies/:id/reinstate", owner, h.ReinstateCompany)
	g.POST("/sweep", SweepAuth(resolver, sweepSecret), h.RunSweep)
	g.GET("/realtime", owner, h.RealtimeStats)
	return env
}

func (e *adminEnv) do(t *testing.T, method, path, user string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(nil))
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestListCompaniesRequiresOwner(t *testing.T) {
	env := newAdminEnv(t)

	w := env.do(t, http.MethodGet, "/v1/admin/companies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/v1/admin/companies", "usr_random", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/v1/admin/companies", ownerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListCompaniesJoinsSubscriptions(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	require.NoError(t, env.companies.Create(ctx, &company.Company{ID: "cmp_1", Name: "Acme", Slug: "acme"}))
	require.NoError(t, env.subs.Upsert(ctx, &subscription.Subscription{
		CompanyID: "cmp_1", Status: subscription.StatusActive, PlanKey: plan.KeyPro,
	}))

	w := env.do(t, http.MethodGet, "/v1/admin/companies", ownerID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count     int `json:"count"`
		Companies []struct {
			Subscription *subscription.Subscription `json:"subscription"`
		} `json:"companies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.NotNil(t, resp.Companies[0].Subscription)
	assert.Equal(t, plan.KeyPro, resp.Companies[0].Subscription.PlanKey)
}

func TestSuspendAndReinstate(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	require.NoError(t, env.companies.Create(ctx, &company.Company{ID: "cmp_1", Name: "Acme", Slug: "acme"}))

	w := env.do(t, http.MethodPost, "/v1/admin/companies/cmp_1/suspend", ownerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got, err := env.companies.Get(ctx, "cmp_1")
	require.NoError(t, err)
	assert.Equal(t, company.StatusSuspended, got.Status)

	w = env.do(t, http.MethodPost, "/v1/admin/companies/cmp_1/reinstate", ownerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got, err = env.companies.Get(ctx, "cmp_1")
	require.NoError(t, err)
	assert.Equal(t, company.StatusActive, got.Status)
}

func TestSuspendUnknownCompany(t *testing.T) {
	env := newAdminEnv(t)

	w := env.do(t, http.MethodPost, "/v1/admin/companies/cmp_none/suspend", ownerID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSweepWithSharedSecret(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	ended := env.clock.Add(-time.Hour)
	require.NoError(t, env.subs.Upsert(ctx, &subscription.Subscription{
		CompanyID: "cmp_1", Status: subscription.StatusTrialing,
		PlanKey: plan.KeyStarter, CurrentPeriodEnd: &ended,
	}))

	w := env.do(t, http.MethodPost, "/v1/admin/sweep", "",
		map[string]string{"X-Sweep-Secret": sweepSecret})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result subscription.SweepResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []string{"cmp_1"}, result.CompanyIDs)

	sub, err := env.subs.Get(ctx, "cmp_1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, sub.Status)
}

func TestSweepRejectsWrongSecret(t *testing.T) {
	env := newAdminEnv(t)

	w := env.do(t, http.MethodPost, "/v1/admin/sweep", "",
		map[string]string{"X-Sweep-Secret": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSweepAllowsOwner(t *testing.T) {
	env := newAdminEnv(t)

	w := env.do(t, http.MethodPost, "/v1/admin/sweep", ownerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRealtimeStatsWithoutHub(t *testing.T) {
	env := newAdminEnv(t)

	w := env.do(t, http.MethodGet, "/v1/admin/realtime", ownerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)
}
