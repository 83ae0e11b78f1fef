package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	custommw "github.com/jordanlanch/salescrm/pkg/api/middleware"
	"github.com/jordanlanch/salescrm/pkg/auth"
	"github.com/jordanlanch/salescrm/pkg/dashboard"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/phone"
	"github.com/jordanlanch/salescrm/pkg/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

type apiFixture struct {
	e     *echo.Echo
	token string
	mem   *store.Memory
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	mem := store.NewMemoryStore(phone.NewNormalizer("US"), store.Options{})
	mem.Load(store.DemoUserID, store.DemoData())
	cols := mem.Collections()

	e := echo.New()
	v1 := e.Group("/api/v1", custommw.JWTMiddleware(testSecret))
	NewCollectionHandler(store.LeadsName, cols.Leads, nil).Register(v1)
	NewCollectionHandler(store.DealsName, cols.Deals, nil).Register(v1)
	NewCollectionHandler(store.ActivitiesName, cols.Activities, nil).Register(v1)
	NewCollectionHandler(store.EventsName, cols.Events, nil).Register(v1)

	svc := dashboard.NewService(dashboard.Sources{
		Leads: cols.Leads, Deals: cols.Deals, Activities: cols.Activities, Events: cols.Events,
	}, nil).WithClock(func() time.Time { return time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC) })
	v1.GET("/dashboard/stats", NewDashboardHandler(svc).Stats)

	token, err := auth.GenerateJWT(store.DemoUserID, "demo@example.com", testSecret, 1)
	require.NoError(t, err)

	return &apiFixture{e: e, token: token, mem: mem}
}

func (f *apiFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCollectionHandler_List(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/leads", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[models.ListResponse[models.Lead]](t, rec)
	assert.Equal(t, 6, resp.Total)
	assert.Equal(t, "lead-6", resp.Data[0].ID)

	events := decode[models.ListResponse[models.CalendarEvent]](t, f.do(http.MethodGet, "/api/v1/calendar-events", "", f.token))
	assert.Equal(t, "evt-2", events.Data[0].ID)
}

func TestCollectionHandler_ListEmptyIsArray(t *testing.T) {
	f := setupAPI(t)
	token, err := auth.GenerateJWT("new-user", "", testSecret, 1)
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/v1/deals", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"total":0}`, rec.Body.String())
}

func TestCollectionHandler_RequiresToken(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/leads", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCollectionHandler_CreateLead(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodPost, "/api/v1/leads",
		`{"first_name":"Priya","last_name":"Nair","phone":"(202) 456-1111","id":"client-chosen"}`, f.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	lead := decode[models.Lead](t, rec)
	assert.NotEqual(t, "client-chosen", lead.ID)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, store.DemoUserID, lead.UserID)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, "+1 202-456-1111", lead.Phone)
	assert.False(t, lead.CreatedAt.IsZero())
}

func TestCollectionHandler_CreateRejected(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodPost, "/api/v1/deals", `{"value":100}`, f.token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Error)
	assert.Contains(t, resp.Message, "title is required")

	rec = f.do(http.MethodPost, "/api/v1/deals", `{"value":"lots"}`, f.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollectionHandler_UpdateStage(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodPatch, "/api/v1/deals/deal-1", `{"stage":"proposal"}`, f.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	deal := decode[models.Deal](t, rec)
	assert.Equal(t, models.DealStageProposal, deal.Stage)
	assert.Equal(t, "TechCorp Enterprise License", deal.Title)
	assert.True(t, deal.UpdatedAt.After(deal.CreatedAt))
}

func TestCollectionHandler_OtherOwnerIsNotFound(t *testing.T) {
	f := setupAPI(t)
	token, err := auth.GenerateJWT("intruder", "", testSecret, 1)
	require.NoError(t, err)

	rec := f.do(http.MethodPatch, "/api/v1/deals/deal-1", `{"stage":"lost"}`, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/deals/deal-1", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollectionHandler_Delete(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodDelete, "/api/v1/activities/act-1", "", f.token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/activities/act-1", "", f.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	acts, err := f.mem.Activities.List(context.Background(), store.DemoUserID)
	require.NoError(t, err)
	assert.Len(t, acts, 5)
}

func TestDashboardHandler_Stats(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/dashboard/stats", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode[models.DashboardStats](t, rec)
	assert.Equal(t, 6, stats.TotalLeads)
	assert.Equal(t, 4, stats.NewLeadsThisWeek)
	assert.Equal(t, 876000.0, stats.TotalPipelineValue)
	assert.Equal(t, 1, stats.WonDeals)
}

type pingFunc func(context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func TestHealthHandler(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("refused") })

	tests := []struct {
		name   string
		checks map[string]Pinger
		code   int
		body   map[string]any
	}{
		{"no dependencies", nil, http.StatusOK, map[string]any{"status": "healthy"}},
		{"all up", map[string]Pinger{"database": up, "cache": up}, http.StatusOK, map[string]any{"status": "healthy", "database": "up", "cache": "up"}},
		{"cache down", map[string]Pinger{"database": up, "cache": down}, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy", "cache": "down"}},
		{"nil check skipped", map[string]Pinger{"cache": nil}, http.StatusOK, map[string]any{"status": "healthy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/health", NewHealthHandler("1.0.0", tt.checks).Health)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			body := decode[map[string]any](t, rec)
			for k, v := range tt.body {
				assert.Equal(t, v, body[k], k)
			}
		})
	}
}

func TestAuthHandler_DevToken(t *testing.T) {
	e := echo.New()
	e.POST("/on", NewAuthHandler(testSecret, 1, store.DemoUserID, true).DevToken)
	e.POST("/off", NewAuthHandler(testSecret, 1, store.DemoUserID, false).DevToken)

	req := httptest.NewRequest(http.MethodPost, "/on", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[models.TokenResponse](t, rec)
	assert.Equal(t, store.DemoUserID, resp.UserID)
	claims, err := auth.ValidateJWT(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, store.DemoUserID, claims.UserID)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/off", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPhoneHandler_Format(t *testing.T) {
	e := echo.New()
	e.POST("/phone/format", NewPhoneHandler("US").Format)

	tests := []struct {
		name string
		body string
		code int
		want FormatPhoneResponse
	}{
		{"us number", `{"phone":"(202) 456-1111"}`, http.StatusOK, FormatPhoneResponse{Formatted: "+1 202-456-1111", Valid: true}},
		{"explicit region", `{"phone":"07911 123456","region":"GB"}`, http.StatusOK, FormatPhoneResponse{Formatted: "+44 7911 123456", Valid: true}},
		{"fictional number kept", `{"phone":"(555) 234-5678"}`, http.StatusOK, FormatPhoneResponse{Formatted: "(555) 234-5678"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/phone/format", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.want, decode[FormatPhoneResponse](t, rec))
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/phone/format", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
