// Package presenter drives the two consent surfaces of the site: the
// first-visit banner with its preferences panel, and the settings panel on
// the cookie policy page. Both read and write a shared cookieconsent.Store.
package presenter

import (
	"sync"
	"time"

	"github.com/learningcenter/marketing-site/internal/cookieconsent"
	"github.com/learningcenter/marketing-site/internal/models"
)

// DefaultBannerDelay is how long the banner waits before appearing on a first visit
const DefaultBannerDelay = time.Second

// BannerView is the render model of the banner and its preferences panel
type BannerView struct {
	BannerVisible   bool                      `json:"bannerVisible"`
	PreferencesOpen bool                      `json:"preferencesOpen"`
	Pending         bool                      `json:"pending"`
	DelayMillis     int64                     `json:"delayMillis"`
	Draft           models.ConsentPreferences `json:"draft"`
}

// Hidden reports whether nothing of the banner needs to be rendered
func (v BannerView) Hidden() bool {
	return !v.BannerVisible && !v.PreferencesOpen && !v.Pending
}

// BannerOption configures a Banner
type BannerOption func(*Banner)

// WithBannerDelay overrides DefaultBannerDelay. A non-positive delay shows
// the banner as soon as it is mounted.
func WithBannerDelay(d time.Duration) BannerOption {
	return func(b *Banner) {
		b.delay = d
	}
}

// WithRenderFunc registers a callback invoked with the new view whenever it changes
func WithRenderFunc(fn func(BannerView)) BannerOption {
	return func(b *Banner) {
		b.render = fn
	}
}

// Banner is the bottom-of-screen consent prompt and its preferences dialog
type Banner struct {
	store  *cookieconsent.Store
	delay  time.Duration
	render func(BannerView)

	mu              sync.Mutex
	mounted         bool
	bannerVisible   bool
	preferencesOpen bool
	pending         bool
	interacted      bool
	draft           models.ConsentPreferences
	lastPrefs       models.ConsentPreferences
	timer           *time.Timer
	timerGen        int
	unsubscribe     func()
}

// NewBanner creates a banner bound to store. It does nothing until mounted.
func NewBanner(store *cookieconsent.Store, opts ...BannerOption) *Banner {
	b := &Banner{
		store: store,
		delay: DefaultBannerDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Mount subscribes to the store and, on a first visit, schedules the banner
// to appear after the configured delay.
func (b *Banner) Mount() {
	unsubscribe := b.store.Subscribe(b.onStateChange)
	state := b.store.State()

	b.mu.Lock()
	if b.mounted {
		b.mu.Unlock()
		unsubscribe()
		return
	}
	b.mounted = true
	b.unsubscribe = unsubscribe
	b.draft = state.Preferences
	b.lastPrefs = state.Preferences
	b.preferencesOpen = state.IsDialogRequested
	b.interacted = state.HasInteracted
	if !state.HasInteracted {
		b.scheduleRevealLocked()
	}
	b.mu.Unlock()

	b.emit()
}

// Unmount cancels a pending reveal and stops observing the store
func (b *Banner) Unmount() {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	b.mounted = false
	b.stopTimerLocked()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// View returns the current render model
func (b *Banner) View() BannerView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

// AcceptAll records consent to every category
func (b *Banner) AcceptAll() {
	b.closePanel()
	b.store.AcceptAll()
}

// RejectAll records refusal of every optional category. It is offered both
// on the banner and inside the preferences panel.
func (b *Banner) RejectAll() {
	b.closePanel()
	b.store.RejectAll()
}

// Customize swaps the banner for the detailed preferences panel
func (b *Banner) Customize() {
	b.mu.Lock()
	b.stopTimerLocked()
	b.bannerVisible = false
	b.preferencesOpen = true
	b.mu.Unlock()
	b.emit()
}

// Toggle edits the draft shown in the preferences panel
func (b *Banner) Toggle(category models.CookieCategory, on bool) {
	b.mu.Lock()
	b.draft = b.draft.With(category, on)
	b.mu.Unlock()
	b.emit()
}

// SavePreferences commits the full draft and clears the dialog request
func (b *Banner) SavePreferences() {
	b.mu.Lock()
	draft := b.draft
	b.preferencesOpen = false
	b.mu.Unlock()

	b.store.SetPreferences(models.PatchFromPreferences(draft))
	b.store.RequestDialog(false)
}

// ClosePreferences dismisses the panel without saving
func (b *Banner) ClosePreferences() {
	b.closePanel()
	b.store.RequestDialog(false)
}

func (b *Banner) closePanel() {
	b.mu.Lock()
	b.preferencesOpen = false
	b.mu.Unlock()
}

// reveal shows the banner unless the timer of generation gen was
// cancelled or replaced in the meantime
func (b *Banner) reveal(gen int) {
	state := b.store.State()

	b.mu.Lock()
	if !b.mounted || !b.pending || gen != b.timerGen {
		b.mu.Unlock()
		return
	}
	b.pending = false
	b.timer = nil
	if !state.HasInteracted {
		b.bannerVisible = true
	}
	b.mu.Unlock()
	b.emit()
}

func (b *Banner) onStateChange(state models.ConsentState) {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	if state.Preferences != b.lastPrefs {
		b.draft = state.Preferences
		b.lastPrefs = state.Preferences
	}
	switch {
	case state.HasInteracted:
		b.bannerVisible = false
		b.stopTimerLocked()
	case b.interacted:
		// the decision was reset, so prompt again as on a first visit
		b.scheduleRevealLocked()
	}
	b.interacted = state.HasInteracted
	if state.IsDialogRequested {
		b.preferencesOpen = true
	}
	b.mu.Unlock()
	b.emit()
}

func (b *Banner) scheduleRevealLocked() {
	b.stopTimerLocked()
	if b.delay <= 0 {
		b.bannerVisible = true
		return
	}
	b.pending = true
	b.timerGen++
	gen := b.timerGen
	b.timer = time.AfterFunc(b.delay, func() { b.reveal(gen) })
}

func (b *Banner) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = false
}

func (b *Banner) viewLocked() BannerView {
	return BannerView{
		BannerVisible:   b.bannerVisible && !b.preferencesOpen,
		PreferencesOpen: b.preferencesOpen,
		Pending:         b.pending,
		DelayMillis:     b.delay.Milliseconds(),
		Draft:           b.draft,
	}
}

func (b *Banner) emit() {
	if b.render == nil {
		return
	}
	b.render(b.View())
}
