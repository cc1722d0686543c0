package cookieconsent

import (
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/learningcenter/marketing-site/internal/models"
)

// mockPersister records the snapshots handed to the change hook
type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) Save(snapshot models.ConsentSnapshot) error {
	args := m.Called(snapshot)
	return args.Error(0)
}

func boolPtr(b bool) *bool { return &b }

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestNewStore_Defaults(t *testing.T) {
	store := NewStore()

	state := store.State()
	assert.Equal(t, models.DefaultConsentPreferences(), state.Preferences)
	assert.False(t, state.HasInteracted)
	assert.False(t, state.IsDialogRequested)
}

func TestAcceptAll(t *testing.T) {
	store := NewStore()
	store.RequestDialog(true)

	store.AcceptAll()

	state := store.State()
	assert.Equal(t, models.ConsentPreferences{Essential: true, Functional: true, Analytics: true, Marketing: true}, state.Preferences)
	assert.True(t, state.HasInteracted)
	assert.False(t, state.IsDialogRequested)
}

func TestAcceptAll_Idempotent(t *testing.T) {
	once := NewStore()
	once.AcceptAll()

	twice := NewStore()
	twice.AcceptAll()
	twice.AcceptAll()

	assert.Equal(t, once.State(), twice.State())
}

func TestRejectAll(t *testing.T) {
	store := NewStore()
	store.AcceptAll()
	store.RequestDialog(true)

	store.RejectAll()

	state := store.State()
	assert.Equal(t, models.ConsentPreferences{Essential: true}, state.Preferences)
	assert.True(t, state.HasInteracted)
	assert.False(t, state.IsDialogRequested)

	store.RejectAll()
	assert.Equal(t, state, store.State())
}

func TestSetPreferences_MergesPartial(t *testing.T) {
	store := NewStore()

	store.SetPreferences(models.ConsentPreferencesPatch{Functional: boolPtr(true)})

	state := store.State()
	assert.Equal(t, models.ConsentPreferences{Essential: true, Functional: true}, state.Preferences)
	assert.True(t, state.HasInteracted)

	store.SetPreferences(models.ConsentPreferencesPatch{Marketing: boolPtr(true)})
	assert.Equal(t, models.ConsentPreferences{Essential: true, Functional: true, Marketing: true}, store.State().Preferences)
}

func TestSetPreferences_EssentialAlwaysTrue(t *testing.T) {
	patches := []models.ConsentPreferencesPatch{
		{},
		{Essential: boolPtr(false)},
		{Essential: boolPtr(false), Functional: boolPtr(false), Analytics: boolPtr(false), Marketing: boolPtr(false)},
		{Essential: boolPtr(false), Analytics: boolPtr(true)},
		{Essential: boolPtr(true), Marketing: boolPtr(true)},
	}

	for _, patch := range patches {
		store := NewStore()
		store.SetPreferences(patch)
		assert.True(t, store.State().Preferences.Essential)
	}
}

func TestSetPreferences_ClearsDialogRequest(t *testing.T) {
	store := NewStore()
	store.RequestDialog(true)

	store.SetPreferences(models.ConsentPreferencesPatch{Analytics: boolPtr(true)})

	assert.False(t, store.State().IsDialogRequested)
}

func TestRequestDialog_DoesNotTouchDecision(t *testing.T) {
	persister := &mockPersister{}
	store := NewStore(WithChangeHook(persister.Save))

	store.RequestDialog(true)
	state := store.State()
	assert.True(t, state.IsDialogRequested)
	assert.False(t, state.HasInteracted)
	assert.Equal(t, models.DefaultConsentPreferences(), state.Preferences)

	store.RequestDialog(false)
	assert.False(t, store.State().IsDialogRequested)

	persister.AssertNotCalled(t, "Save", mock.Anything)
}

func TestResetConsent(t *testing.T) {
	store := NewStore()
	store.AcceptAll()

	store.ResetConsent()

	state := store.State()
	assert.Equal(t, models.DefaultConsentPreferences(), state.Preferences)
	assert.False(t, state.HasInteracted)
	assert.True(t, state.IsDialogRequested)
}

func TestChangeHook_ReceivesPersistedSubset(t *testing.T) {
	persister := &mockPersister{}
	persister.On("Save", models.ConsentSnapshot{Preferences: models.AllConsentPreferences(), HasInteracted: true}).Return(nil).Once()
	persister.On("Save", models.ConsentSnapshot{Preferences: models.DefaultConsentPreferences()}).Return(nil).Once()

	store := NewStore(WithChangeHook(persister.Save))
	store.AcceptAll()
	store.ResetConsent()

	persister.AssertExpectations(t)
}

func TestChangeHook_FailureKeepsInMemoryState(t *testing.T) {
	logger, hook := test.NewNullLogger()
	store := NewStore(
		WithLogger(logger),
		WithChangeHook(func(models.ConsentSnapshot) error {
			return errors.New("quota exceeded")
		}),
	)

	assert.NotPanics(t, store.AcceptAll)

	assert.True(t, store.State().HasInteracted)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestChangeHook_PanicIsContained(t *testing.T) {
	store := NewStore(
		WithLogger(newTestLogger()),
		WithChangeHook(func(models.ConsentSnapshot) error {
			panic("storage disabled")
		}),
	)

	assert.NotPanics(t, store.RejectAll)
	assert.True(t, store.State().HasInteracted)
}

func TestSubscribe_NotifiesAllListeners(t *testing.T) {
	store := NewStore()

	var first, second []models.ConsentState
	unsubscribeFirst := store.Subscribe(func(s models.ConsentState) { first = append(first, s) })
	store.Subscribe(func(s models.ConsentState) { second = append(second, s) })

	store.AcceptAll()
	unsubscribeFirst()
	unsubscribeFirst()
	store.RequestDialog(true)

	require.Len(t, first, 1)
	require.Len(t, second, 2)
	assert.True(t, first[0].HasInteracted)
	assert.True(t, second[1].IsDialogRequested)
	assert.Equal(t, store.State(), second[1])
}

func TestPersistenceRoundTrip(t *testing.T) {
	var saved []byte
	store := NewStore(WithChangeHook(func(snapshot models.ConsentSnapshot) error {
		data, err := models.MarshalSnapshot(snapshot)
		saved = data
		return err
	}))
	store.SetPreferences(models.ConsentPreferencesPatch{Analytics: boolPtr(true)})
	store.RequestDialog(true)

	snapshot, err := models.UnmarshalSnapshot(saved)
	require.NoError(t, err)
	reloaded := NewStore(WithSnapshot(snapshot))

	before := store.State()
	after := reloaded.State()
	assert.Equal(t, before.Preferences, after.Preferences)
	assert.Equal(t, before.HasInteracted, after.HasInteracted)
	assert.False(t, after.IsDialogRequested)
}

func TestHydrate_NormalizesEssential(t *testing.T) {
	store := NewStore()
	store.RequestDialog(true)

	store.Hydrate(models.ConsentSnapshot{
		Preferences:   models.ConsentPreferences{Essential: false, Marketing: true},
		HasInteracted: true,
	})

	state := store.State()
	assert.True(t, state.Preferences.Essential)
	assert.True(t, state.Preferences.Marketing)
	assert.True(t, state.HasInteracted)
	assert.False(t, state.IsDialogRequested)
}

func TestConcurrentMutations_PersistInApplyOrder(t *testing.T) {
	var mu sync.Mutex
	var persisted []models.ConsentSnapshot
	var notified []models.ConsentState

	store := NewStore(WithChangeHook(func(snapshot models.ConsentSnapshot) error {
		mu.Lock()
		defer mu.Unlock()
		persisted = append(persisted, snapshot)
		return nil
	}))
	store.Subscribe(func(state models.ConsentState) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, state)
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(accept bool) {
			defer wg.Done()
			if accept {
				store.AcceptAll()
			} else {
				store.RejectAll()
			}
		}(i%2 == 0)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	final := store.State()
	require.Len(t, persisted, 50)
	require.Len(t, notified, 50)
	assert.Equal(t, final.Snapshot(), persisted[len(persisted)-1])
	assert.Equal(t, final, notified[len(notified)-1])
}
