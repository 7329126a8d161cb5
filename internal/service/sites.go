package service

import (
	"sync"

	"wallet-background/internal/rpc"
)

// SiteRegistry remembers the page-announced metadata per connection so
// later requests on the same tab carry a site identity. Everything in it
// is untrusted page input.
type SiteRegistry struct {
	mu    sync.Mutex
	byTab map[int]rpc.Domain
}

func NewSiteRegistry() *SiteRegistry {
	return &SiteRegistry{byTab: make(map[int]rpc.Domain)}
}

// Record stores the metadata announced on a tab, replacing any previous
// announcement.
func (r *SiteRegistry) Record(tabID int, site rpc.Domain) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTab[tabID] = site
}

// Lookup returns the recorded metadata for a tab, nil when the page never
// announced any.
func (r *SiteRegistry) Lookup(tabID int) *rpc.Domain {
	r.mu.Lock()
	defer r.mu.Unlock()
	if site, ok := r.byTab[tabID]; ok {
		return &site
	}
	return nil
}

// Forget drops a tab's metadata when its connection closes.
func (r *SiteRegistry) Forget(tabID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byTab, tabID)
}
