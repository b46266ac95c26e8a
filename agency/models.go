// Package agency defines the agency model. Agencies are read-only to this
// subsystem; another service owns their lifecycle.
package agency

import (
	"strings"

	"github.com/xraph/rebate/types"
)

// PlatformConfig is the agency's rate configuration for one platform.
type PlatformConfig struct {
	BaseRebate types.Rate `json:"base_rebate"`
}

// Agency is an organization that talents can be bound to.
type Agency struct {
	types.Entity
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	Platforms map[string]PlatformConfig `json:"platforms,omitempty"`
}

// BaseRebateFor returns the configured base rate for a platform.
// The second return is false when the agency has no rate configured there.
func (a *Agency) BaseRebateFor(platform string) (types.Rate, bool) {
	cfg, ok := a.Platforms[platform]
	if !ok {
		return 0, false
	}
	return cfg.BaseRebate, true
}

// Normalize canonicalizes an agency name for case-insensitive comparison.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NameIndex is a normalized-name lookup dictionary. Build it once per request
// and reuse it across items instead of repeating string transforms.
type NameIndex map[string]*Agency

// NewNameIndex builds an index over the given agencies. When two agencies
// normalize to the same name the first one wins.
func NewNameIndex(agencies []*Agency) NameIndex {
	ix := make(NameIndex, len(agencies))
	for _, a := range agencies {
		key := Normalize(a.Name)
		if key == "" {
			continue
		}
		if _, exists := ix[key]; !exists {
			ix[key] = a
		}
	}
	return ix
}

// Lookup resolves an agency by name, case-insensitively.
func (ix NameIndex) Lookup(name string) (*Agency, bool) {
	a, ok := ix[Normalize(name)]
	return a, ok
}
