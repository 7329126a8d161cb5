package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wallet-background/internal/event"
	"wallet-background/pkg/logger"
	"wallet-background/pkg/storage"
)

const accountsStorageKey = "accounts"

type accountsState struct {
	Accounts []Account `json:"accounts"`
	ActiveID string    `json:"activeId"`
}

// AccountsService keeps the account list and active selection, persisted
// through the durable store. Address derivation is done by the wallet when
// an account is added; this service only holds the public results.
type AccountsService struct {
	mu      sync.Mutex
	state   accountsState
	storage storage.Store
	emitter *event.Emitter
}

func NewAccountsService(st storage.Store, emitter *event.Emitter) (*AccountsService, error) {
	s := &AccountsService{storage: st, emitter: emitter}

	raw, err := st.Load(context.Background(), accountsStorageKey)
	if err != nil && err != storage.ErrNotFound {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(raw, &s.state); err != nil {
			return nil, fmt.Errorf("corrupt accounts state: %w", err)
		}
	}
	return s, nil
}

func (s *AccountsService) ActiveAccount() *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Accounts {
		if s.state.Accounts[i].ID == s.state.ActiveID {
			acc := s.state.Accounts[i]
			return &acc
		}
	}
	return nil
}

func (s *AccountsService) List() []Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Account, len(s.state.Accounts))
	copy(out, s.state.Accounts)
	return out
}

// AddAccount appends an account with pre-derived addresses and makes it
// active if it is the first one.
func (s *AccountsService) AddAccount(name string, addrs DerivedAddresses) (*Account, error) {
	s.mu.Lock()
	acc := Account{
		ID:         uuid.NewString(),
		Name:       name,
		Index:      uint32(len(s.state.Accounts)),
		AddressC:   addrs.AddressC,
		AddressBTC: addrs.AddressBTC,
		AddressAVM: addrs.AddressAVM,
		AddressPVM: addrs.AddressPVM,
	}
	s.state.Accounts = append(s.state.Accounts, acc)
	if s.state.ActiveID == "" {
		s.state.ActiveID = acc.ID
	}
	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	s.emitAccountsChanged()
	return &acc, nil
}

func (s *AccountsService) SetAccountName(id, name string) error {
	s.mu.Lock()
	var found bool
	for i := range s.state.Accounts {
		if s.state.Accounts[i].ID == id {
			s.state.Accounts[i].Name = name
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("account %s not found", id)
	}
	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	logger.Info("account renamed", zap.String("accountId", id))
	return nil
}

func (s *AccountsService) SelectAccount(id string) error {
	s.mu.Lock()
	var found bool
	for i := range s.state.Accounts {
		if s.state.Accounts[i].ID == id {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("account %s not found", id)
	}
	s.state.ActiveID = id
	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.emitAccountsChanged()
	return nil
}

func (s *AccountsService) persistLocked() error {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	return s.storage.Save(context.Background(), accountsStorageKey, raw)
}

func (s *AccountsService) emitAccountsChanged() {
	if s.emitter == nil {
		return
	}
	var addrs []string
	if acc := s.ActiveAccount(); acc != nil {
		addrs = []string{acc.AddressC}
	}
	s.emitter.Emit(event.AccountsChanged{Accounts: addrs})
}
