package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
)

// Registry implements ports.Registry over a fixed set of entries.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]domain.RegistryEntry
}

// NewRegistry indexes entries by normalised ABN.
func NewRegistry(entries ...domain.RegistryEntry) *Registry {
	r := &Registry{entries: make(map[string]domain.RegistryEntry, len(entries))}
	for _, e := range entries {
		r.Add(e)
	}
	return r
}

// Add registers or replaces an entry.
func (r *Registry) Add(e domain.RegistryEntry) {
	e.ABN = abn.Normalize(e.ABN)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ABN] = e
}

// Lookup returns a copy of the entry for id.
func (r *Registry) Lookup(_ context.Context, id string) (*domain.RegistryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[abn.Normalize(id)]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &e, nil
}

// SearchByName scores entries on how well their legal name matches name.
func (r *Registry) SearchByName(_ context.Context, name string, maxResults int) ([]domain.RegistryMatch, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil, nil
	}

	r.mu.RLock()
	var matches []domain.RegistryMatch
	for _, e := range r.entries {
		score := nameScore(q, strings.ToLower(e.LegalName))
		if score == 0 {
			continue
		}
		matches = append(matches, domain.RegistryMatch{
			ABN:          e.ABN,
			LegalName:    e.LegalName,
			EntityClass:  e.EntityClass,
			Jurisdiction: e.Jurisdiction,
			Postcode:     e.Postcode,
			Score:        score,
		})
	}
	r.mu.RUnlock()

	slices.SortFunc(matches, func(a, b domain.RegistryMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.LegalName, b.LegalName)
	})
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

func nameScore(query, legal string) int {
	switch {
	case legal == query:
		return 100
	case strings.HasPrefix(legal, query):
		return 90
	case strings.Contains(legal, query):
		return 75
	}
	words := strings.Fields(query)
	hits := 0
	for _, w := range words {
		if strings.Contains(legal, w) {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return 50 * hits / len(words)
}

// Fixture returns a registry with demo businesses covering every lookup branch:
// eligible companies, a sole trader, a recent registration, a business without
// GST and a cancelled registration. Ages are relative to now.
func Fixture(now time.Time) *Registry {
	years := func(n int) time.Time {
		y, m, d := now.AddDate(-n, 0, 0).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return NewRegistry(
		domain.RegistryEntry{
			ABN: "51824753556", Status: "Active", RegistrationDate: years(12),
			GSTRegistered: true, GSTDate: years(12), LegalName: "Acme Haulage Pty Ltd",
			EntityClass: domain.EntityCompany, Jurisdiction: "NSW", Postcode: "2000",
		},
		domain.RegistryEntry{
			ABN: "95471173493", Status: "Active", RegistrationDate: years(8),
			GSTRegistered: true, GSTDate: years(7), LegalName: "Acme Landscaping",
			EntityClass: domain.EntitySoleTrader, Jurisdiction: "VIC", Postcode: "3000",
		},
		domain.RegistryEntry{
			ABN: "25999583278", Status: "Active", RegistrationDate: now.AddDate(0, -8, 0).UTC().Truncate(24 * time.Hour),
			GSTRegistered: true, LegalName: "Brand New Ventures Pty Ltd",
			EntityClass: domain.EntityCompany, Jurisdiction: "QLD", Postcode: "4000",
		},
		domain.RegistryEntry{
			ABN: "31864452323", Status: "Active", RegistrationDate: years(5),
			GSTRegistered: false, LegalName: "Corner Cash Cafe",
			EntityClass: domain.EntitySoleTrader, Jurisdiction: "SA", Postcode: "5000",
		},
		domain.RegistryEntry{
			ABN: "84022765333", Status: "Cancelled", RegistrationDate: years(15),
			GSTRegistered: false, LegalName: "Acme Cancelled Holdings Pty Ltd",
			EntityClass: domain.EntityCompany, Jurisdiction: "WA", Postcode: "6000",
		},
	)
}
