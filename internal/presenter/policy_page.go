package presenter

import (
	"sync"

	"github.com/learningcenter/marketing-site/internal/cookieconsent"
	"github.com/learningcenter/marketing-site/internal/models"
)

// PolicyPageView is the render model of the settings panel on the cookie policy page
type PolicyPageView struct {
	Draft         models.ConsentPreferences `json:"draft"`
	Saved         models.ConsentPreferences `json:"saved"`
	HasInteracted bool                      `json:"hasInteracted"`
	Dirty         bool                      `json:"dirty"`
}

// PolicyPage stages preference edits locally and only writes them to the
// store on Save.
type PolicyPage struct {
	store *cookieconsent.Store

	mu          sync.Mutex
	draft       models.ConsentPreferences
	lastPrefs   models.ConsentPreferences
	unsubscribe func()
}

// NewPolicyPage creates a policy page presenter with a draft copied from store
func NewPolicyPage(store *cookieconsent.Store) *PolicyPage {
	prefs := store.State().Preferences
	return &PolicyPage{
		store:     store,
		draft:     prefs,
		lastPrefs: prefs,
	}
}

// Mount starts following store changes so the draft never goes stale
func (p *PolicyPage) Mount() {
	unsubscribe := p.store.Subscribe(p.onStateChange)

	p.mu.Lock()
	if p.unsubscribe != nil {
		p.mu.Unlock()
		unsubscribe()
		return
	}
	p.unsubscribe = unsubscribe
	p.mu.Unlock()
}

// Unmount stops following the store. Unsaved edits are dropped.
func (p *PolicyPage) Unmount() {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	p.Discard()
}

// Toggle edits the staged draft only
func (p *PolicyPage) Toggle(category models.CookieCategory, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = p.draft.With(category, on)
}

// Save commits the whole draft to the store
func (p *PolicyPage) Save() {
	p.mu.Lock()
	draft := p.draft
	p.mu.Unlock()

	p.store.SetPreferences(models.PatchFromPreferences(draft))
}

// Discard resets the draft to the stored preferences
func (p *PolicyPage) Discard() {
	prefs := p.store.State().Preferences

	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = prefs
	p.lastPrefs = prefs
}

// ChangeSettings forgets the stored decision so the visitor is prompted again
func (p *PolicyPage) ChangeSettings() {
	p.store.ResetConsent()
}

// View returns the current render model
func (p *PolicyPage) View() PolicyPageView {
	state := p.store.State()

	p.mu.Lock()
	defer p.mu.Unlock()
	return PolicyPageView{
		Draft:         p.draft,
		Saved:         state.Preferences,
		HasInteracted: state.HasInteracted,
		Dirty:         p.draft != state.Preferences,
	}
}

func (p *PolicyPage) onStateChange(state models.ConsentState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state.Preferences != p.lastPrefs {
		p.draft = state.Preferences
		p.lastPrefs = state.Preferences
	}
}
