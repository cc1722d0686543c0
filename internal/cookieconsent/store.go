// Package cookieconsent holds the visitor's cookie consent state and the
// operations that are allowed to change it.
//
// A Store is the single source of truth for one visitor. Presenters read it
// through State and observe it through Subscribe; the only write path is the
// operation methods. After every change to the preferences or to the
// interaction flag the store hands the persisted subset to its ChangeHook.
// The transient dialog-request flag is never handed to the hook.
//
// Mutations are serialized: the hook and the listeners see the changes in
// the order they were applied. Hooks and listeners must not call the
// mutating methods of the store they observe.
package cookieconsent

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/learningcenter/marketing-site/internal/models"
)

// ChangeHook receives the persisted subset of the state after a change.
// A returned error is logged and otherwise ignored.
type ChangeHook func(snapshot models.ConsentSnapshot) error

// Listener is notified with the new state after every mutation
type Listener func(state models.ConsentState)

// Store is the consent state container shared by every presenter of a visitor
type Store struct {
	// writeMu serializes whole mutations, including the hook and the
	// listeners. mu guards the fields below and is never held while
	// calling out.
	writeMu   sync.Mutex
	mu        sync.Mutex
	state     models.ConsentState
	hook      ChangeHook
	listeners map[int]Listener
	nextID    int
	logger    *logrus.Logger
}

// Option configures a Store
type Option func(*Store)

// WithSnapshot hydrates the store from a previously persisted snapshot
func WithSnapshot(snapshot models.ConsentSnapshot) Option {
	return func(s *Store) {
		s.state = stateFromSnapshot(snapshot)
	}
}

// WithChangeHook sets the persistence hook
func WithChangeHook(hook ChangeHook) Option {
	return func(s *Store) {
		s.hook = hook
	}
}

// WithLogger sets the logger used to report swallowed hook failures
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store holding the default state unless a snapshot is supplied
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: models.ConsentState{
			Preferences: models.DefaultConsentPreferences(),
		},
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	return s
}

// State returns a copy of the current state
func (s *Store) State() models.ConsentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Hydrate replaces preferences and the interaction flag with a persisted
// snapshot. The dialog request is cleared and the hook is not invoked.
func (s *Store) Hydrate(snapshot models.ConsentSnapshot) {
	s.mutate(func(models.ConsentState) models.ConsentState {
		return stateFromSnapshot(snapshot)
	}, false)
}

// AcceptAll enables every category and records the interaction
func (s *Store) AcceptAll() {
	s.mutate(func(models.ConsentState) models.ConsentState {
		return models.ConsentState{
			Preferences:   models.AllConsentPreferences(),
			HasInteracted: true,
		}
	}, true)
}

// RejectAll disables every optional category and records the interaction
func (s *Store) RejectAll() {
	s.mutate(func(models.ConsentState) models.ConsentState {
		return models.ConsentState{
			Preferences:   models.DefaultConsentPreferences(),
			HasInteracted: true,
		}
	}, true)
}

// SetPreferences merges patch into the current preferences and records the
// interaction. Essential stays enabled whatever the patch says.
func (s *Store) SetPreferences(patch models.ConsentPreferencesPatch) {
	s.mutate(func(cur models.ConsentState) models.ConsentState {
		return models.ConsentState{
			Preferences:   patch.MergeInto(cur.Preferences),
			HasInteracted: true,
		}
	}, true)
}

// RequestDialog sets the transient flag that forces the preferences panel open
func (s *Store) RequestDialog(open bool) {
	s.mutate(func(cur models.ConsentState) models.ConsentState {
		cur.IsDialogRequested = open
		return cur
	}, false)
}

// ResetConsent restores the defaults, forgets the interaction and asks for
// the preferences dialog so the visitor is prompted again.
func (s *Store) ResetConsent() {
	s.mutate(func(models.ConsentState) models.ConsentState {
		return models.ConsentState{
			Preferences:       models.DefaultConsentPreferences(),
			HasInteracted:     false,
			IsDialogRequested: true,
		}
	}, true)
}

// Subscribe registers a listener and returns the function that removes it
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) mutate(fn func(models.ConsentState) models.ConsentState, persist bool) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next := fn(s.state)
	next.Preferences.Essential = true
	s.state = next
	hook := s.hook
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if persist && hook != nil {
		s.persist(hook, next.Snapshot())
	}
	for _, l := range listeners {
		l(next)
	}
}

func (s *Store) persist(hook ChangeHook, snapshot models.ConsentSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Consent change hook panicked")
		}
	}()
	if err := hook(snapshot); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"storage_key":    models.ConsentStorageKey,
			"has_interacted": snapshot.HasInteracted,
		}).Warn("Failed to persist cookie consent, keeping in-memory state")
	}
}

func stateFromSnapshot(snapshot models.ConsentSnapshot) models.ConsentState {
	snapshot = snapshot.Normalize()
	return models.ConsentState{
		Preferences:   snapshot.Preferences,
		HasInteracted: snapshot.HasInteracted,
	}
}
