package company

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/membership"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
)

type handlerEnv struct {
	router    *gin.Engine
	store     *MemoryStore
	subs      subscription.Store
	members   membership.Store
	companyID string
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &handlerEnv{
		store:   NewMemoryStore(),
		subs:    subscription.NewMemoryStore(),
		members: membership.NewMemoryStore(),
	}
	h := NewHandler(env.store,
		apikey.NewManager(apikey.NewMemoryStore()),
		membership.NewService(env.members),
		subscription.NewService(env.subs, 14))

	currentCompany := func(c *gin.Context) string { return env.companyID }

	env.router = gin.New()
	env.router.POST("/v1/companies", h.Register)
	env.router.GET("/v1/company", h.GetCompany(currentCompany))
	env.router.PATCH("/v1/company", h.UpdateSettings(currentCompany))
	env.router.POST("/v1/company/trial", h.StartTrial(currentCompany))
	return env
}

func (e *handlerEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRegisterCreatesWorkspace(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.do(t, http.MethodPost, "/v1/companies", gin.H{
		"name": "Acme Rockets",
		"slug": "acme-rockets",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Company Company `json:"company"`
		AdminID string  `json:"adminId"`
		Keys    struct {
			Widget struct{ Key string } `json:"widget"`
			Secret struct{ Key string } `json:"secret"`
		} `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, strings.HasPrefix(resp.Company.ID, "cmp_"))
	assert.Equal(t, StatusActive, resp.Company.Status)
	assert.NotEmpty(t, resp.Company.Settings.PublicBookingKey)
	assert.Equal(t, "friendly", resp.Company.Settings.Funnel.Tone)
	assert.True(t, strings.HasPrefix(resp.AdminID, "usr_"))
	assert.True(t, strings.HasPrefix(resp.Keys.Widget.Key, "pk_"))
	assert.True(t, strings.HasPrefix(resp.Keys.Secret.Key, "sk_"))

	ctx := context.Background()
	sub, err := env.subs.Get(ctx, resp.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusTrialing, sub.Status)

	m, err := env.members.Get(ctx, resp.Company.ID, resp.AdminID)
	require.NoError(t, err)
	assert.Equal(t, membership.RoleAdmin, m.Role)
}

func TestRegisterRejectsDuplicateSlug(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.do(t, http.MethodPost, "/v1/companies", gin.H{"name": "First", "slug": "acme"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/v1/companies", gin.H{"name": "Second", "slug": "acme"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterRejectsBadSlug(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.do(t, http.MethodPost, "/v1/companies", gin.H{"name": "Acme", "slug": "Not A Slug!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_input")
}

func TestUpdateSettingsPartial(t *testing.T) {
	env := newHandlerEnv(t)
	seed := &Company{ID: "cmp_1", Name: "Acme", Slug: "acme",
		Settings: Settings{Funnel: DefaultFunnelConfig()}}
	require.NoError(t, env.store.Create(context.Background(), seed))
	env.companyID = "cmp_1"

	w := env.do(t, http.MethodPatch, "/v1/company", gin.H{
		"widgetGreeting": "Hi there!",
		"rateLimit":      gin.H{"perMinute": 5},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := env.store.Get(context.Background(), "cmp_1")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", got.Settings.WidgetGreeting)
	assert.Equal(t, 5, got.Settings.RateLimit.PerMinute)
	// Untouched fields keep their values.
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "friendly", got.Settings.Funnel.Tone)
}

func TestUpdateSettingsRejectsUnknownTone(t *testing.T) {
	env := newHandlerEnv(t)
	require.NoError(t, env.store.Create(context.Background(),
		&Company{ID: "cmp_1", Name: "Acme", Slug: "acme"}))
	env.companyID = "cmp_1"

	w := env.do(t, http.MethodPatch, "/v1/company", gin.H{
		"funnel": gin.H{"tone": "sarcastic", "responseLength": "medium",
			"language": "en", "ctaStyle": "book_demo"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSettingsRejectsNegativeOverride(t *testing.T) {
	env := newHandlerEnv(t)
	require.NoError(t, env.store.Create(context.Background(),
		&Company{ID: "cmp_1", Name: "Acme", Slug: "acme"}))
	env.companyID = "cmp_1"

	w := env.do(t, http.MethodPatch, "/v1/company", gin.H{
		"rateLimit": gin.H{"perMinute": -1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCompanyUnknown(t *testing.T) {
	env := newHandlerEnv(t)
	env.companyID = "cmp_missing"

	w := env.do(t, http.MethodGet, "/v1/company", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartTrialIdempotent(t *testing.T) {
	env := newHandlerEnv(t)
	require.NoError(t, env.store.Create(context.Background(),
		&Company{ID: "cmp_1", Name: "Acme", Slug: "acme"}))
	env.companyID = "cmp_1"

	w := env.do(t, http.MethodPost, "/v1/company/trial", nil)
	require.Equal(t, http.StatusOK, w.Code)
	first, err := env.subs.Get(context.Background(), "cmp_1")
	require.NoError(t, err)

	w = env.do(t, http.MethodPost, "/v1/company/trial", nil)
	require.Equal(t, http.StatusOK, w.Code)
	second, err := env.subs.Get(context.Background(), "cmp_1")
	require.NoError(t, err)
	assert.Equal(t, first.CurrentPeriodEnd, second.CurrentPeriodEnd)
}
