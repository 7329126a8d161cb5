package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"wallet-background/pkg/crypto_util"
	"wallet-background/pkg/storage"
)

const permissionsStorageKey = "permissions"

// Capability names dApps can be granted.
const (
	CapAccounts = "eth_accounts"
	CapContacts = "avalanche_getContacts"
)

// Permission is the EIP-2255 shaped grant returned to pages.
type Permission struct {
	ID               string `json:"id"`
	ParentCapability string `json:"parentCapability"`
	Invoker          string `json:"invoker"`
	Date             int64  `json:"date"`
}

type permissionsState struct {
	// Grants maps site domain -> capability -> permission
	Grants map[string]map[string]Permission `json:"grants"`
}

// PermissionsService records which capabilities each site domain has been
// granted through an approved action. Grants survive restarts.
type PermissionsService struct {
	mu      sync.Mutex
	state   permissionsState
	storage storage.Store
}

func NewPermissionsService(st storage.Store) (*PermissionsService, error) {
	s := &PermissionsService{
		storage: st,
		state:   permissionsState{Grants: make(map[string]map[string]Permission)},
	}

	raw, err := st.Load(context.Background(), permissionsStorageKey)
	if err != nil && err != storage.ErrNotFound {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(raw, &s.state); err != nil {
			return nil, fmt.Errorf("corrupt permissions state: %w", err)
		}
		if s.state.Grants == nil {
			s.state.Grants = make(map[string]map[string]Permission)
		}
	}
	return s, nil
}

// Has reports whether domain holds the capability.
func (s *PermissionsService) Has(domain, capability string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.Grants[domain][capability]
	return ok
}

// Grant stores the capability for the domain. Idempotent.
func (s *PermissionsService) Grant(domain, capability string, now int64) (Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.state.Grants[domain][capability]; ok {
		return existing, nil
	}

	perm := Permission{
		// stable fingerprint so repeated grants for the same pair
		// keep the same id
		ID:               crypto_util.CalculateBlake3([]byte(domain + "|" + capability)),
		ParentCapability: capability,
		Invoker:          domain,
		Date:             now,
	}
	if s.state.Grants[domain] == nil {
		s.state.Grants[domain] = make(map[string]Permission)
	}
	s.state.Grants[domain][capability] = perm

	return perm, s.persistLocked()
}

// Revoke removes the capability from the domain.
func (s *PermissionsService) Revoke(domain, capability string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Grants[domain][capability]; !ok {
		return nil
	}
	delete(s.state.Grants[domain], capability)
	return s.persistLocked()
}

// List returns every permission held by the domain.
func (s *PermissionsService) List(domain string) []Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Permission, 0, len(s.state.Grants[domain]))
	for _, perm := range s.state.Grants[domain] {
		out = append(out, perm)
	}
	return out
}

func (s *PermissionsService) persistLocked() error {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	return s.storage.Save(context.Background(), permissionsStorageKey, raw)
}
