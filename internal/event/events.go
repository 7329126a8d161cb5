package event

// Event is the closed set of wallet-state changes pushed to connected
// pages. Each variant carries its own payload; on the wire it travels as
// {name, value} with the MetaMask-compatible event names dApps listen for.
type Event interface {
	// Name is the wire-level event name
	Name() string
	// Value is the wire-level payload
	Value() interface{}
}

// AccountsChanged fires when the active or permitted account set changes.
type AccountsChanged struct {
	Accounts []string
}

func (AccountsChanged) Name() string { return "metamask_accountsChanged" }

func (e AccountsChanged) Value() interface{} {
	if e.Accounts == nil {
		return []string{}
	}
	return e.Accounts
}

// ChainChanged fires when the active network switches.
type ChainChanged struct {
	ChainID        string `json:"chainId"`
	NetworkVersion string `json:"networkVersion"`
}

func (ChainChanged) Name() string { return "metamask_chainChanged" }

func (e ChainChanged) Value() interface{} { return e }

// UnlockStateChanged fires on every lock-state flip.
type UnlockStateChanged struct {
	Unlocked bool
}

func (UnlockStateChanged) Name() string { return "metamask_unlockStateChanged" }

func (e UnlockStateChanged) Value() interface{} { return e.Unlocked }

// Envelope is the serialized form delivered to pages.
type Envelope struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Wrap builds the wire envelope for an event.
func Wrap(ev Event) Envelope {
	return Envelope{Name: ev.Name(), Value: ev.Value()}
}
