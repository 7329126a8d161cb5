package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-background/internal/event"
	"wallet-background/pkg/storage"
)

func TestAddAccountFirstBecomesActive(t *testing.T) {
	s, err := NewAccountsService(storage.NewMemoryStore(), nil)
	require.NoError(t, err)
	assert.Nil(t, s.ActiveAccount())

	first, err := s.AddAccount("Account 1", DerivedAddresses{AddressC: "0xAb58", AddressBTC: "bc1qfirst"})
	require.NoError(t, err)
	second, err := s.AddAccount("Account 2", DerivedAddresses{AddressC: "0xCd12"})
	require.NoError(t, err)

	active := s.ActiveAccount()
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)
	assert.Equal(t, uint32(0), first.Index)
	assert.Equal(t, uint32(1), second.Index)
	assert.Len(t, s.List(), 2)
}

func TestSelectAccountEmitsAccountsChanged(t *testing.T) {
	emitter := event.NewEmitter()
	s, err := NewAccountsService(storage.NewMemoryStore(), emitter)
	require.NoError(t, err)

	_, err = s.AddAccount("Account 1", DerivedAddresses{AddressC: "0xAb58"})
	require.NoError(t, err)
	second, err := s.AddAccount("Account 2", DerivedAddresses{AddressC: "0xCd12"})
	require.NoError(t, err)

	var emitted []event.Event
	emitter.AddListener(func(ev event.Event) { emitted = append(emitted, ev) })

	require.NoError(t, s.SelectAccount(second.ID))
	assert.Equal(t, second.ID, s.ActiveAccount().ID)

	require.Len(t, emitted, 1)
	changed, ok := emitted[0].(event.AccountsChanged)
	require.True(t, ok)
	assert.Equal(t, []string{"0xCd12"}, changed.Accounts)
}

func TestSelectUnknownAccountFails(t *testing.T) {
	s, err := NewAccountsService(storage.NewMemoryStore(), nil)
	require.NoError(t, err)
	assert.Error(t, s.SelectAccount("missing"))
}

func TestSetAccountName(t *testing.T) {
	st := storage.NewMemoryStore()
	s, err := NewAccountsService(st, nil)
	require.NoError(t, err)

	acc, err := s.AddAccount("Account 1", DerivedAddresses{AddressC: "0xAb58"})
	require.NoError(t, err)
	require.NoError(t, s.SetAccountName(acc.ID, "Savings"))
	assert.Error(t, s.SetAccountName("missing", "x"))

	reloaded, err := NewAccountsService(st, nil)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ActiveAccount())
	assert.Equal(t, "Savings", reloaded.ActiveAccount().Name)
}
