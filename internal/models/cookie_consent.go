package models

import (
	"encoding/json"
	"fmt"
)

// ConsentStorageKey is the durable key the consent snapshot is stored under
const ConsentStorageKey = "cookie-consent-storage"

// CookieCategory names a cookie category that can be toggled by the visitor
type CookieCategory string

const (
	CategoryEssential  CookieCategory = "essential"
	CategoryFunctional CookieCategory = "functional"
	CategoryAnalytics  CookieCategory = "analytics"
	CategoryMarketing  CookieCategory = "marketing"
)

// ConfigurableCategories lists the categories a visitor may switch on or off
var ConfigurableCategories = []CookieCategory{
	CategoryFunctional,
	CategoryAnalytics,
	CategoryMarketing,
}

// ConsentPreferences holds the per-category cookie decisions
type ConsentPreferences struct {
	Essential  bool `json:"essential"`
	Functional bool `json:"functional"`
	Analytics  bool `json:"analytics"`
	Marketing  bool `json:"marketing"`
}

// DefaultConsentPreferences returns the first-visit preferences: essential only
func DefaultConsentPreferences() ConsentPreferences {
	return ConsentPreferences{Essential: true}
}

// AllConsentPreferences returns preferences with every category enabled
func AllConsentPreferences() ConsentPreferences {
	return ConsentPreferences{
		Essential:  true,
		Functional: true,
		Analytics:  true,
		Marketing:  true,
	}
}

// Enabled reports whether the given category is switched on
func (p ConsentPreferences) Enabled(category CookieCategory) bool {
	switch category {
	case CategoryEssential:
		return true
	case CategoryFunctional:
		return p.Functional
	case CategoryAnalytics:
		return p.Analytics
	case CategoryMarketing:
		return p.Marketing
	default:
		return false
	}
}

// With returns a copy of the preferences with one category changed.
// Essential cannot be switched off.
func (p ConsentPreferences) With(category CookieCategory, on bool) ConsentPreferences {
	switch category {
	case CategoryFunctional:
		p.Functional = on
	case CategoryAnalytics:
		p.Analytics = on
	case CategoryMarketing:
		p.Marketing = on
	}
	p.Essential = true
	return p
}

// ConsentPreferencesPatch is a partial update of ConsentPreferences.
// Nil fields are left unchanged by a merge.
type ConsentPreferencesPatch struct {
	Essential  *bool `json:"essential,omitempty"`
	Functional *bool `json:"functional,omitempty"`
	Analytics  *bool `json:"analytics,omitempty"`
	Marketing  *bool `json:"marketing,omitempty"`
}

// PatchFromPreferences builds a patch carrying every field of p
func PatchFromPreferences(p ConsentPreferences) ConsentPreferencesPatch {
	return ConsentPreferencesPatch{
		Essential:  boolPtr(p.Essential),
		Functional: boolPtr(p.Functional),
		Analytics:  boolPtr(p.Analytics),
		Marketing:  boolPtr(p.Marketing),
	}
}

// IsEmpty reports whether the patch carries no configurable field
func (p ConsentPreferencesPatch) IsEmpty() bool {
	return p.Functional == nil && p.Analytics == nil && p.Marketing == nil
}

// MergeInto applies the patch to base. The Essential field of the patch is
// ignored: the result always has Essential set.
func (p ConsentPreferencesPatch) MergeInto(base ConsentPreferences) ConsentPreferences {
	if p.Functional != nil {
		base.Functional = *p.Functional
	}
	if p.Analytics != nil {
		base.Analytics = *p.Analytics
	}
	if p.Marketing != nil {
		base.Marketing = *p.Marketing
	}
	base.Essential = true
	return base
}

// ConsentSnapshot is the persisted part of the consent state
type ConsentSnapshot struct {
	Preferences   ConsentPreferences `json:"preferences"`
	HasInteracted bool               `json:"hasInteracted"`
}

// DefaultConsentSnapshot returns the snapshot used when nothing is persisted
func DefaultConsentSnapshot() ConsentSnapshot {
	return ConsentSnapshot{Preferences: DefaultConsentPreferences()}
}

// Normalize forces the invariants of a snapshot read from untrusted storage
func (s ConsentSnapshot) Normalize() ConsentSnapshot {
	s.Preferences.Essential = true
	return s
}

// MarshalSnapshot serializes a snapshot into the persisted JSON layout
func MarshalSnapshot(s ConsentSnapshot) ([]byte, error) {
	data, err := json.Marshal(s.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal consent snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot parses the persisted JSON layout
func UnmarshalSnapshot(data []byte) (ConsentSnapshot, error) {
	var s ConsentSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultConsentSnapshot(), fmt.Errorf("failed to unmarshal consent snapshot: %w", err)
	}
	return s.Normalize(), nil
}

// ConsentState is the full consent state including transient UI flags
type ConsentState struct {
	Preferences       ConsentPreferences `json:"preferences"`
	HasInteracted     bool               `json:"hasInteracted"`
	IsDialogRequested bool               `json:"isDialogRequested"`
}

// Snapshot returns the persisted subset of the state
func (s ConsentState) Snapshot() ConsentSnapshot {
	return ConsentSnapshot{
		Preferences:   s.Preferences,
		HasInteracted: s.HasInteracted,
	}
}

// ConsentAction identifies the operation that produced a consent decision
type ConsentAction string

const (
	ConsentActionAcceptAll      ConsentAction = "ACCEPT_ALL"
	ConsentActionRejectAll      ConsentAction = "REJECT_ALL"
	ConsentActionSetPreferences ConsentAction = "SET_PREFERENCES"
	ConsentActionReset          ConsentAction = "RESET"
)

// CookieConsentAudit represents a row of the COOKIE_CONSENT_AUDIT table
type CookieConsentAudit struct {
	AuditID       string `db:"AUDIT_ID" json:"auditId"`
	VisitorID     string `db:"VISITOR_ID" json:"visitorId"`
	Action        string `db:"ACTION" json:"action"`
	Functional    bool   `db:"FUNCTIONAL" json:"functional"`
	Analytics     bool   `db:"ANALYTICS" json:"analytics"`
	Marketing     bool   `db:"MARKETING" json:"marketing"`
	HasInteracted bool   `db:"HAS_INTERACTED" json:"hasInteracted"`
	ActionTime    int64  `db:"ACTION_TIME" json:"actionTime"`
}

// CookieConsentRecord represents a row of the COOKIE_CONSENT table
type CookieConsentRecord struct {
	VisitorID   string `db:"VISITOR_ID" json:"visitorId"`
	StorageKey  string `db:"STORAGE_KEY" json:"storageKey"`
	Snapshot    JSON   `db:"SNAPSHOT" json:"snapshot"`
	CreatedTime int64  `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime int64  `db:"UPDATED_TIME" json:"updatedTime"`
}

// ConsentDialogRequest is the body of POST /api/v1/cookie-consent/dialog
type ConsentDialogRequest struct {
	Open *bool `json:"open" binding:"required"`
}

// ConsentStateResponse is the API representation of the consent state
type ConsentStateResponse struct {
	StorageKey        string             `json:"storageKey"`
	Preferences       ConsentPreferences `json:"preferences"`
	HasInteracted     bool               `json:"hasInteracted"`
	IsDialogRequested bool               `json:"isDialogRequested"`
}

// ToConsentStateResponse converts a ConsentState to its API representation
func (s ConsentState) ToConsentStateResponse() *ConsentStateResponse {
	return &ConsentStateResponse{
		StorageKey:        ConsentStorageKey,
		Preferences:       s.Preferences,
		HasInteracted:     s.HasInteracted,
		IsDialogRequested: s.IsDialogRequested,
	}
}

func boolPtr(b bool) *bool {
	return &b
}
