package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jordanlanch/salescrm/pkg/api/handlers"
	custommw "github.com/jordanlanch/salescrm/pkg/api/middleware"
	"github.com/jordanlanch/salescrm/pkg/auth"
	"github.com/jordanlanch/salescrm/pkg/dashboard"
	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/mutation"
	"github.com/jordanlanch/salescrm/pkg/store"
	"github.com/jordanlanch/salescrm/pkg/workspace"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-minimum-32-characters-long"

func newServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	mem := store.NewMemoryStore(nil, store.Options{})
	mem.Load(store.DemoUserID, store.DemoData())
	cols := mem.Collections()

	e := echo.New()
	v1 := e.Group("/api/v1", custommw.JWTMiddleware(secret))
	handlers.NewCollectionHandler(store.LeadsName, cols.Leads, nil).Register(v1)
	handlers.NewCollectionHandler(store.DealsName, cols.Deals, nil).Register(v1)
	handlers.NewCollectionHandler(store.ActivitiesName, cols.Activities, nil).Register(v1)
	handlers.NewCollectionHandler(store.EventsName, cols.Events, nil).Register(v1)
	svc := dashboard.NewService(dashboard.Sources{
		Leads: cols.Leads, Deals: cols.Deals, Activities: cols.Activities, Events: cols.Events,
	}, nil)
	v1.GET("/dashboard/stats", handlers.NewDashboardHandler(svc).Stats)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	token, err := auth.GenerateJWT(store.DemoUserID, "", secret, 1)
	require.NoError(t, err)
	return srv, token
}

func TestClient_CRUDRoundTrip(t *testing.T) {
	srv, token := newServer(t)
	cols := New(srv.URL, token, nil).Collections()
	ctx := context.Background()

	leads, err := cols.Leads.List(ctx, store.DemoUserID)
	require.NoError(t, err)
	assert.Len(t, leads, 6)

	created, err := cols.Deals.Create(ctx, store.DemoUserID, models.Deal{Title: "Expansion", Value: 1000})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.DealStageProspect, created.Stage)

	updated, err := cols.Deals.Update(ctx, store.DemoUserID, created.ID, models.StagePatch(models.DealStageWon))
	require.NoError(t, err)
	assert.Equal(t, models.DealStageWon, updated.Stage)

	require.NoError(t, cols.Deals.Delete(ctx, store.DemoUserID, created.ID))
	err = cols.Deals.Delete(ctx, store.DemoUserID, created.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestClient_ErrorMapping(t *testing.T) {
	srv, token := newServer(t)
	ctx := context.Background()

	_, err := New(srv.URL, token, nil).Collections().Deals.Create(ctx, store.DemoUserID, models.Deal{})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, domain.UserMessage(err), "title is required")

	_, err = New(srv.URL, "bad-token", nil).Collections().Leads.List(ctx, store.DemoUserID)
	assert.True(t, domain.IsUnauthorized(err))

	_, err = New(srv.URL, token, nil).Collections().Leads.List(ctx, "")
	assert.True(t, domain.IsUnauthorized(err))
}

func TestClient_StatusCodes(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusInternalServerError, func(err error) bool { return domain.GetErrorCode(err) == domain.ErrCodeInternal }},
		{http.StatusBadGateway, domain.IsNetwork},
		{http.StatusTooManyRequests, domain.IsNetwork},
		{http.StatusNotFound, domain.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"boom"}`))
			}))
			defer srv.Close()

			_, err := New(srv.URL, "t", nil).Collections().Events.List(context.Background(), "u")
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestClient_ConnectionFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "t", &http.Client{Timeout: time.Second}).Collections().Leads.List(context.Background(), "u")
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, "Could not reach the server", domain.UserMessage(err))
}

func TestClient_WorkspaceOverHTTP(t *testing.T) {
	srv, token := newServer(t)
	api := New(srv.URL, token, nil)

	w := workspace.New(api.Collections(), workspace.Options{
		OwnerID:   store.DemoUserID,
		Reconcile: mutation.ReconcileAwait,
	})
	defer w.Close()
	require.NoError(t, w.Load(context.Background()))

	res, err := w.LeadMutations.Create(context.Background(), models.Lead{FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)
	assert.True(t, mutation.IsTemporaryID(res.TempID))
	assert.Equal(t, res.ID, w.Leads()[0].ID)
	assert.Len(t, w.Leads(), 7)

	stats, err := api.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalLeads)
	assert.Equal(t, stats.TotalLeads, w.Stats(time.Now()).TotalLeads)
}

func TestClient_WorkspaceRollsBackWhenServerGone(t *testing.T) {
	srv, token := newServer(t)
	w := workspace.New(New(srv.URL, token, nil).Collections(), workspace.Options{OwnerID: store.DemoUserID})
	defer w.Close()
	require.NoError(t, w.Load(context.Background()))
	before := w.Deals()

	srv.Close()

	_, err := w.DealMutations.Update(context.Background(), "deal-1", models.StagePatch(models.DealStageLost))
	require.Error(t, err)
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, before, w.Deals())
}
