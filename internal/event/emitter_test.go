package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterDeliversInOrder(t *testing.T) {
	e := NewEmitter()

	var seen []string
	e.AddListener(func(ev Event) {
		seen = append(seen, ev.Name())
	})

	e.Emit(ChainChanged{ChainID: "0xa86a"})
	e.Emit(UnlockStateChanged{Unlocked: true})
	e.Emit(AccountsChanged{Accounts: []string{"0xAb58"}})

	assert.Equal(t, []string{
		"metamask_chainChanged",
		"metamask_unlockStateChanged",
		"metamask_accountsChanged",
	}, seen)
}

func TestEmitterRemovalStopsDelivery(t *testing.T) {
	e := NewEmitter()

	count := 0
	remove := e.AddListener(func(Event) { count++ })

	e.Emit(UnlockStateChanged{Unlocked: true})
	remove()
	e.Emit(UnlockStateChanged{Unlocked: false})

	assert.Equal(t, 1, count)
}

func TestEmitterPanickingListenerDoesNotBlockOthers(t *testing.T) {
	e := NewEmitter()

	e.AddListener(func(Event) { panic("listener bug") })
	delivered := false
	e.AddListener(func(Event) { delivered = true })

	require.NotPanics(t, func() {
		e.Emit(ChainChanged{ChainID: "0x1"})
	})
	assert.True(t, delivered)
}

func TestWrapEnvelope(t *testing.T) {
	env := Wrap(UnlockStateChanged{Unlocked: true})
	assert.Equal(t, "metamask_unlockStateChanged", env.Name)
	assert.Equal(t, true, env.Value)

	env = Wrap(AccountsChanged{Accounts: []string{"0xAb58"}})
	assert.Equal(t, "metamask_accountsChanged", env.Name)
	assert.Equal(t, []string{"0xAb58"}, env.Value)
}
