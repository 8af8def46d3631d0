package exchanges

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aristath/tradingcal/internal/modules/calendar"
)

// ErrUnknownExchange is returned for codes and aliases with no profile
var ErrUnknownExchange = errors.New("unknown exchange")

// Policy holds the order-handling settings of an exchange. They are kept
// apart from the calendar profile, which only describes trading sessions.
type Policy struct {
	StrictHours bool // every order requires an open market, not only sells
}

// snapshot is an immutable view of the registry contents
type snapshot struct {
	profiles map[string]*calendar.Profile
}

// Registry maps exchange codes and aliases to profiles. Ad hoc overlays are
// applied to the base profiles and swapped in as a whole snapshot, so readers
// never see a half-applied reload.
type Registry struct {
	base    map[string]*calendar.Profile
	aliases  map[string]string // upper-cased code or alias -> code
	codes    []string
	policies map[string]Policy

	mu      sync.RWMutex
	current *snapshot
}

// NewRegistry creates a registry over profiles. Codes and aliases must be
// unique, compared case-insensitively.
func NewRegistry(profiles ...*calendar.Profile) (*Registry, error) {
	r := &Registry{
		base:     make(map[string]*calendar.Profile, len(profiles)),
		aliases:  make(map[string]string),
		policies: make(map[string]Policy),
	}
	for _, p := range profiles {
		if p == nil {
			return nil, fmt.Errorf("nil exchange profile")
		}
		code := p.Code()
		if err := r.addAlias(code, code); err != nil {
			return nil, err
		}
		for _, alias := range p.Aliases() {
			if err := r.addAlias(alias, code); err != nil {
				return nil, err
			}
		}
		r.base[code] = p
		r.codes = append(r.codes, code)
	}
	sort.Strings(r.codes)
	r.current = &snapshot{profiles: r.base}
	return r, nil
}

func (r *Registry) addAlias(name, code string) error {
	key := normalize(name)
	if key == "" {
		return fmt.Errorf("exchange %s has an empty alias", code)
	}
	if existing, ok := r.aliases[key]; ok {
		return fmt.Errorf("exchange name %q used by both %s and %s", name, existing, code)
	}
	r.aliases[key] = code
	return nil
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Code resolves a code or alias to the exchange code
func (r *Registry) Code(name string) (string, error) {
	code, ok := r.aliases[normalize(name)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownExchange, name)
	}
	return code, nil
}

// Lookup returns the current profile, ad hoc data included, for a code or alias
func (r *Registry) Lookup(name string) (*calendar.Profile, error) {
	code, err := r.Code(name)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.profiles[code], nil
}

// Codes returns every exchange code in sorted order
func (r *Registry) Codes() []string {
	return append([]string(nil), r.codes...)
}

// Profiles returns the current profiles ordered by code
func (r *Registry) Profiles() []*calendar.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*calendar.Profile, 0, len(r.codes))
	for _, code := range r.codes {
		out = append(out, r.current.profiles[code])
	}
	return out
}

// ApplyOverlays replaces the ad hoc data of every exchange. Overlays always
// apply to the base profiles; exchanges missing from overlays revert to them.
// An overlay naming an unknown exchange, or one the profile rejects, is left
// out and returned in skipped keyed by the name it was given under. The
// remaining overlays are applied regardless.
func (r *Registry) ApplyOverlays(overlays map[string]calendar.AdHocOverlay) (skipped map[string]error) {
	skipped = make(map[string]error)
	next := make(map[string]*calendar.Profile, len(r.base))
	for code, p := range r.base {
		next[code] = p
	}
	for name, overlay := range overlays {
		code, err := r.Code(name)
		if err != nil {
			skipped[name] = err
			continue
		}
		p, err := r.base[code].WithAdHoc(overlay)
		if err != nil {
			skipped[name] = fmt.Errorf("failed to apply ad hoc data to %s: %w", code, err)
			continue
		}
		next[code] = p
	}

	r.mu.Lock()
	r.current = &snapshot{profiles: next}
	r.mu.Unlock()
	return skipped
}

// SetPolicy sets the order-handling policy of an exchange
func (r *Registry) SetPolicy(name string, policy Policy) error {
	code, err := r.Code(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.policies[code] = policy
	r.mu.Unlock()
	return nil
}

// Policy returns the order-handling policy of an exchange. Exchanges without
// one get the zero Policy.
func (r *Registry) Policy(name string) (Policy, error) {
	code, err := r.Code(name)
	if err != nil {
		return Policy{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policies[code], nil
}
