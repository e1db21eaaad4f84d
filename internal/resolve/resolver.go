// Package resolve queries an ordered chain of metadata providers and
// returns the first non-empty candidate for a search key.
package resolve

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/music-curator/internal/meta"
	"github.com/franz/music-curator/internal/util"
)

// Candidate is a provider's proposed tag set for a query. Keys follow
// the recognized tag set; any key may be absent. An all-empty candidate
// is never returned by a resolver.
type Candidate map[string]string

// IsEmpty reports whether the candidate carries no usable field
func (c Candidate) IsEmpty() bool {
	for _, v := range c {
		if v != "" {
			return false
		}
	}
	return true
}

// Provider is a single metadata source
type Provider interface {
	// Name identifies the provider in logs
	Name() string

	// Available reports whether the provider can be called at all
	// (credentials configured, binary installed). Unavailable providers
	// are skipped without being attempted.
	Available() bool

	// Search returns a candidate for the query, or nil for no result
	Search(ctx context.Context, query string) (Candidate, error)
}

// Resolver tries providers in order until one yields a candidate
type Resolver struct {
	providers []Provider
	timeout   time.Duration
}

// Option configures a Resolver
type Option func(*Resolver)

// WithTimeout bounds each individual provider call
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// New creates a resolver over an ordered provider chain
func New(providers []Provider, opts ...Option) *Resolver {
	r := &Resolver{
		providers: providers,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve queries each provider in order and returns the first
// non-empty candidate. Provider errors are logged and treated as "no
// result"; they never abort the chain. Returns (nil, ErrUnresolved)
// only after every provider has been tried.
func (r *Resolver) Resolve(ctx context.Context, query string) (Candidate, error) {
	for _, p := range r.providers {
		if !p.Available() {
			util.InfoLog("Provider %s not configured, skipping", p.Name())
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		candidate, err := p.Search(callCtx, query)
		cancel()

		if err != nil {
			util.WarnLog("Provider %s failed for %q: %v", p.Name(), query, err)
			continue
		}

		candidate = postProcess(candidate, query)
		if candidate == nil || candidate.IsEmpty() {
			util.DebugLog("Provider %s returned nothing for %q", p.Name(), query)
			continue
		}

		util.DebugLog("Provider %s resolved %q: %d fields", p.Name(), query, len(candidate))
		return candidate, nil
	}

	util.InfoLog("No metadata found for %q after all providers", query)
	return nil, util.ErrUnresolved
}

// postProcess normalizes a raw candidate: values are stripped of
// filename-unsafe characters and whitespace runs, empty fields are
// dropped, and a missing title falls back to the query's base name.
func postProcess(c Candidate, query string) Candidate {
	if c == nil {
		return nil
	}

	out := make(Candidate, len(c))
	for k, v := range c {
		v = meta.CollapseWhitespace(meta.SanitizeTitle(v))
		if v != "" {
			out[k] = v
		}
	}

	if out["title"] == "" {
		base := strings.TrimSuffix(filepath.Base(query), filepath.Ext(query))
		if base != "" {
			out["title"] = meta.SanitizeTitle(base)
		}
	}

	return out
}
