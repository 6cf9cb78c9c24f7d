package booking

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

	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/entitlement"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
)

type env struct {
	router    *gin.Engine
	scheduler *MemoryScheduler
	subs      *subscription.MemoryStore
	slotID    string
}

func newEnv(t *testing.T, status, planKey string) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	companies := company.NewMemoryStore()
	comp := &company.Company{ID: "cmp_1", Name: "Acme", Slug: "acme"}
	comp.Settings.PublicBookingKey = "bk-acme"
	require.NoError(t, companies.Create(context.Background(), comp))

	subs := subscription.NewMemoryStore()
	require.NoError(t, subs.Upsert(context.Background(), &subscription.Subscription{
		CompanyID: "cmp_1", Status: status, PlanKey: planKey,
	}))

	scheduler := NewMemoryScheduler()
	slot := &Slot{
		CompanyID: "cmp_1",
		StartsAt:  time.Now().Add(24 * time.Hour),
		EndsAt:    time.Now().Add(24*time.Hour + 30*time.Minute),
	}
	require.NoError(t, scheduler.AddSlot(context.Background(), slot))

	gate := entitlement.NewGate(subs, plan.NewMemoryStore(), companies)
	h := NewHandler(companies, gate, scheduler)

	router := gin.New()
	v1 := router.Group("/v1/booking")
	v1.GET("/:key/capabilities", h.Capabilities)
	v1.GET("/:key/slots", h.ListSlots)
	v1.POST("/:key/hold", h.HoldSlot)
	v1.POST("/:key/book", h.BookSlot)

	return &env{router: router, scheduler: scheduler, subs: subs, slotID: slot.ID}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)
	return w
}

func TestCapabilitiesProActive(t *testing.T) {
	e := newEnv(t, subscription.StatusActive, plan.KeyPro)

	w := e.do(t, http.MethodGet, "/v1/booking/bk-acme/capabilities", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var caps entitlement.Capabilities
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &caps))
	assert.True(t, caps.CanView)
	assert.True(t, caps.CanHold)
	assert.True(t, caps.CanBook)
}

func TestCapabilitiesUnknownKey(t *testing.T) {
	e := newEnv(t, subscription.StatusActive, plan.KeyPro)

	w := e.do(t, http.MethodGet, "/v1/booking/bk-nope/capabilities", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHoldAndBookFlow(t *testing.T) {
	e := newEnv(t, subscription.StatusActive, plan.KeyPro)

	w := e.do(t, http.MethodPost, "/v1/booking/bk-acme/hold", HoldRequest{SlotID: e.slotID})
	require.Equal(t, http.StatusCreated, w.Code)
	var hold Hold
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hold))

	// A held slot cannot be held again.
	w = e.do(t, http.MethodPost, "/v1/booking/bk-acme/hold", HoldRequest{SlotID: e.slotID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/v1/booking/bk-acme/book", BookRequest{
		HoldID: hold.ID, Email: "jane@acme.io", Name: "Jane",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var b Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, e.slotID, b.SlotID)

	// Booked slots are no longer listed as open.
	w = e.do(t, http.MethodGet, "/v1/booking/bk-acme/slots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestHoldDeniedOnLowerTier(t *testing.T) {
	e := newEnv(t, subscription.StatusActive, plan.KeyStarter)

	// Viewing works.
	w := e.do(t, http.MethodGet, "/v1/booking/bk-acme/slots", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Hold and book do not.
	w = e.do(t, http.MethodPost, "/v1/booking/bk-acme/hold", HoldRequest{SlotID: e.slotID})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestHoldDeniedOnEndedTrial(t *testing.T) {
	e := newEnv(t, subscription.StatusActive, plan.KeyPro)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, e.subs.Upsert(context.Background(), &subscription.Subscription{
		CompanyID: "cmp_1", Status: subscription.StatusTrialing,
		PlanKey: plan.KeyStarter, CurrentPeriodEnd: &past,
	}))

	w := e.do(t, http.MethodPost, "/v1/booking/bk-acme/hold", HoldRequest{SlotID: e.slotID})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestBookInvalidEmail(t *testing.T) {
	e := newEnv(t, subscription.StatusActive, plan.KeyPro)

	w := e.do(t, http.MethodPost, "/v1/booking/bk-acme/book", BookRequest{
		HoldID: "hold_x", Email: "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpiredHoldReleasesSlot(t *testing.T) {
	scheduler := NewMemoryScheduler()
	base := time.Now()
	scheduler.WithClock(func() time.Time { return base })
	ctx := context.Background()

	slot := &Slot{CompanyID: "cmp_1", StartsAt: base.Add(time.Hour), EndsAt: base.Add(2 * time.Hour)}
	require.NoError(t, scheduler.AddSlot(ctx, slot))

	hold, err := scheduler.HoldSlot(ctx, "cmp_1", slot.ID)
	require.NoError(t, err)

	// Past the TTL the hold lapses and the slot opens again.
	scheduler.WithClock(func() time.Time { return base.Add(HoldTTL + time.Minute) })
	_, err = scheduler.BookSlot(ctx, "cmp_1", hold.ID, "a@b.co", "")
	assert.ErrorIs(t, err, ErrHoldNotFound)

	again, err := scheduler.HoldSlot(ctx, "cmp_1", slot.ID)
	require.NoError(t, err)
	assert.NotEqual(t, hold.ID, again.ID)
}
