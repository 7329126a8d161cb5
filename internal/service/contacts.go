package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"wallet-background/pkg/storage"
)

const contactsStorageKey = "contacts"

// ContactsService is the persisted address book. dApps only see it through
// the avalanche_getContacts capability.
type ContactsService struct {
	mu       sync.Mutex
	contacts []Contact
	storage  storage.Store
}

func NewContactsService(st storage.Store) (*ContactsService, error) {
	s := &ContactsService{storage: st}

	raw, err := st.Load(context.Background(), contactsStorageKey)
	if err != nil && err != storage.ErrNotFound {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(raw, &s.contacts); err != nil {
			return nil, fmt.Errorf("corrupt contacts state: %w", err)
		}
	}
	return s, nil
}

func (s *ContactsService) List() []Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Contact, len(s.contacts))
	copy(out, s.contacts)
	return out
}

func (s *ContactsService) Add(name, address string) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contact := Contact{ID: uuid.NewString(), Name: name, Address: address}
	s.contacts = append(s.contacts, contact)

	raw, err := json.Marshal(s.contacts)
	if err != nil {
		return Contact{}, err
	}
	return contact, s.storage.Save(context.Background(), contactsStorageKey, raw)
}
