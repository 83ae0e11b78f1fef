package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/mutation"
	"github.com/jordanlanch/salescrm/pkg/querycache"
	"github.com/jordanlanch/salescrm/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var demoNow = time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)

func newDemo(t *testing.T, opts Options) (*Workspace, *store.Memory) {
	t.Helper()
	m := store.NewMemoryStore(nil, store.Options{})
	m.Load(store.DemoUserID, store.DemoData())
	if opts.OwnerID == "" {
		opts.OwnerID = store.DemoUserID
	}
	w := New(m.Collections(), opts)
	t.Cleanup(w.Close)
	return w, m
}

func loaded(t *testing.T, opts Options) (*Workspace, *store.Memory) {
	t.Helper()
	w, m := newDemo(t, opts)
	require.NoError(t, w.Load(context.Background()))
	return w, m
}

func TestWorkspace_LoadAndStats(t *testing.T) {
	w, _ := loaded(t, Options{})

	assert.Len(t, w.Leads(), 6)
	assert.Len(t, w.Deals(), 5)
	assert.Len(t, w.Activities(), 6)
	require.Len(t, w.Events(), 6)
	assert.Equal(t, "evt-2", w.Events()[0].ID)

	stats := w.Stats(demoNow)
	assert.Equal(t, 4, stats.NewLeadsThisWeek)
	assert.Equal(t, 876000.0, stats.TotalPipelineValue)
	assert.Equal(t, 190000.0, stats.WonValue)
}

func TestWorkspace_UseCollectionLoadsInBackground(t *testing.T) {
	w, _ := newDemo(t, Options{})

	first := w.UseCollection(LeadsKey)
	assert.True(t, first.IsLoading)
	assert.Nil(t, first.Data)

	require.Eventually(t, func() bool {
		v := w.UseCollection(LeadsKey)
		return !v.IsLoading && len(querycache.AsSlice[models.Lead](v.Data)) == 6
	}, time.Second, 5*time.Millisecond)
}

func TestWorkspace_SignedOutLoadFails(t *testing.T) {
	m := store.NewMemoryStore(nil, store.Options{})
	w := New(m.Collections(), Options{})
	defer w.Close()

	err := w.Load(context.Background())
	assert.True(t, domain.IsUnauthorized(err))

	st, ok := w.Cache().Get(DealsKey)
	assert.False(t, ok)
	assert.True(t, domain.IsUnauthorized(st.Err))
	assert.Nil(t, w.Deals())

	_, err = w.LeadMutations.Create(context.Background(), models.Lead{FirstName: "Ada"})
	assert.True(t, domain.IsUnauthorized(err))
}

func TestWorkspace_CreateLeadIsVisibleThenReconciled(t *testing.T) {
	w, _ := loaded(t, Options{Reconcile: mutation.ReconcileAwait, Clock: func() time.Time { return demoNow }})

	var (
		mu   sync.Mutex
		seen [][]models.Lead
	)
	unsubscribe := w.Subscribe(LeadsKey, func(st querycache.State) {
		mu.Lock()
		seen = append(seen, querycache.AsSlice[models.Lead](st.Data))
		mu.Unlock()
	})
	defer unsubscribe()

	res, err := w.LeadMutations.Create(context.Background(), models.Lead{FirstName: "Priya", LastName: "Nair", Company: "Acme"})
	require.NoError(t, err)

	mu.Lock()
	require.NotEmpty(t, seen)
	optimistic := seen[0]
	mu.Unlock()
	require.Len(t, optimistic, 7)
	assert.True(t, mutation.IsTemporaryID(optimistic[0].ID))
	assert.Equal(t, res.TempID, optimistic[0].ID)

	leads := w.Leads()
	require.Len(t, leads, 7)
	assert.Equal(t, res.ID, leads[0].ID)
	assert.False(t, mutation.IsTemporaryID(leads[0].ID))
	assert.Equal(t, "Priya Nair", w.LeadLabel(res.ID, NoLead))
}

func TestWorkspace_EventsCreatedInStartOrder(t *testing.T) {
	w, _ := loaded(t, Options{})

	draft := models.CalendarEvent{
		Title:     "Pricing call",
		StartTime: time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 2, 27, 9, 30, 0, 0, time.UTC),
		EventType: models.EventCall,
	}
	_, err := w.EventMutations.Create(context.Background(), draft)
	require.NoError(t, err)

	var ids []string
	for _, e := range w.Events() {
		ids = append(ids, e.Title)
	}
	assert.Equal(t, "Pricing call", ids[1], strings.Join(ids, ", "))
}

type flakyActivities struct {
	store.ActivityCollection
	err error
}

func (f flakyActivities) Update(context.Context, string, string, models.ActivityPatch) (models.Activity, error) {
	return models.Activity{}, f.err
}

type offlineLeads struct {
	store.LeadCollection
}

func (offlineLeads) List(context.Context, string) ([]models.Lead, error) {
	return nil, domain.NewNetworkError(errors.New("offline"))
}

// slowDeals lists after the other collections have already answered.
type slowDeals struct {
	store.DealCollection
}

func (s slowDeals) List(ctx context.Context, ownerID string) ([]models.Deal, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}
	return s.DealCollection.List(ctx, ownerID)
}

func TestWorkspace_LoadFailureDoesNotCancelOtherKeys(t *testing.T) {
	m := store.NewMemoryStore(nil, store.Options{})
	m.Load(store.DemoUserID, store.DemoData())
	cols := m.Collections()
	cols.Leads = offlineLeads{cols.Leads}
	cols.Deals = slowDeals{cols.Deals}
	w := New(cols, Options{OwnerID: store.DemoUserID})
	defer w.Close()

	err := w.Load(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsNetwork(err))

	leads, _ := w.Cache().Get(LeadsKey)
	assert.True(t, domain.IsNetwork(leads.Err))

	deals, ok := w.Cache().Get(DealsKey)
	require.True(t, ok)
	assert.NoError(t, deals.Err)
	assert.Len(t, w.Deals(), 5)
	assert.Len(t, w.Events(), 6)
}

func TestWorkspace_ToggleFailureRestoresCompletion(t *testing.T) {
	m := store.NewMemoryStore(nil, store.Options{})
	m.Load(store.DemoUserID, store.DemoData())
	cols := m.Collections()
	cols.Activities = flakyActivities{cols.Activities, domain.NewNetworkError(errors.New("offline"))}
	w := New(cols, Options{OwnerID: store.DemoUserID})
	defer w.Close()
	require.NoError(t, w.Load(context.Background()))
	before := w.Activities()

	res, err := w.ActivityMutations.Update(context.Background(), "act-3", models.CompletionPatch(true))
	require.Error(t, err)
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, before, res.Restored)
	assert.Equal(t, before, w.Activities())
}

func TestWorkspace_PipelineMove(t *testing.T) {
	w, m := loaded(t, Options{})

	moved, err := w.Pipeline.Move(context.Background(), "deal-2", models.DealStageNegotiation)
	require.NoError(t, err)
	assert.True(t, moved)

	col, _ := w.Board().Column(models.DealStageNegotiation)
	require.Equal(t, 1, col.Count())
	assert.Equal(t, "Marcus Johnson", col.Cards[0].LeadLabel)

	stored, err := m.Deals.List(context.Background(), store.DemoUserID)
	require.NoError(t, err)
	for _, d := range stored {
		if d.ID == "deal-2" {
			assert.Equal(t, models.DealStageNegotiation, d.Stage)
		}
	}
}

func TestWorkspace_Filters(t *testing.T) {
	w, _ := loaded(t, Options{})

	tech := w.FilterLeads("TECH", "")
	require.Len(t, tech, 1)
	assert.Equal(t, "lead-1", tech[0].ID)
	assert.Len(t, w.FilterLeads("", models.LeadStatusNew), 2)
	assert.Len(t, w.FilterLeads("", ""), 6)

	assert.Len(t, w.FilterActivities("", DoneCompleted), 2)
	assert.Len(t, w.FilterActivities("", DoneAll), 6)
	emails := w.FilterActivities(models.ActivityEmail, DonePending)
	require.Len(t, emails, 1)
	assert.Equal(t, "act-5", emails[0].ID)
	assert.Len(t, w.PendingActivities(2), 2)
	assert.Empty(t, w.PendingActivities(0))
	assert.Empty(t, w.PendingActivities(-1))

	day := w.EventsOn(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC))
	require.Len(t, day, 2)
	assert.Equal(t, "evt-4", day[0].ID)
	assert.Equal(t, "evt-3", day[1].ID)
}

func TestWorkspace_LeadLabelAfterDelete(t *testing.T) {
	w, _ := loaded(t, Options{})

	assert.Equal(t, "Marcus Johnson", w.LeadLabel("lead-2", NoLead))
	assert.Equal(t, NoLead, w.LeadLabel("", NoLead))

	_, err := w.LeadMutations.Delete(context.Background(), "lead-2")
	require.NoError(t, err)

	assert.Equal(t, NoLead, w.LeadLabel("lead-2", NoLead))
	col, _ := w.Board().Column(models.DealStageProposal)
	require.Equal(t, 1, col.Count())
	assert.Equal(t, "Unknown", col.Cards[0].LeadLabel)
}

func TestWorkspace_CloseStopsRefetches(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := store.NewMemoryStore(nil, store.Options{})
	m.Load(store.DemoUserID, store.DemoData())
	w := New(m.Collections(), Options{OwnerID: store.DemoUserID})
	unsubscribe := w.Subscribe(LeadsKey, func(querycache.State) {})
	defer unsubscribe()

	require.NoError(t, w.Load(context.Background()))
	_, err := w.LeadMutations.Update(context.Background(), "lead-1", models.LeadPatch{})
	require.NoError(t, err)

	w.Close()
}
