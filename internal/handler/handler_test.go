package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
)

// fakeOpener records the actions handlers try to open approvals for.
type fakeOpener struct {
	acts   []*action.Action
	routes []string
	err    error
}

func (o *fakeOpener) OpenApproval(ctx context.Context, act *action.Action, uiRoute string) error {
	if o.err != nil {
		return o.err
	}
	if act.ActionID == "" {
		act.ActionID = "act-" + act.ID
	}
	o.acts = append(o.acts, act)
	o.routes = append(o.routes, uiRoute)
	return nil
}

type fakeAccounts struct {
	active   *service.Account
	accounts []service.Account
	renamed  map[string]string
	selected string
	err      error
}

func (a *fakeAccounts) ActiveAccount() *service.Account { return a.active }
func (a *fakeAccounts) List() []service.Account         { return a.accounts }

func (a *fakeAccounts) SetAccountName(id, name string) error {
	if a.err != nil {
		return a.err
	}
	if a.renamed == nil {
		a.renamed = make(map[string]string)
	}
	a.renamed[id] = name
	return nil
}

func (a *fakeAccounts) SelectAccount(id string) error {
	if a.err != nil {
		return a.err
	}
	a.selected = id
	return nil
}

type fakeNetworks struct {
	active    *service.Network
	known     map[string]service.Network
	validRPC  bool
	saved     []service.Network
	switched  []service.Network
	setErr    error
	sendHash  string
	sendErr   error
	sentScope string
}

func (n *fakeNetworks) ActiveNetworks() map[string]service.Network { return n.known }
func (n *fakeNetworks) ActiveNetwork() *service.Network            { return n.active }

func (n *fakeNetworks) GetNetwork(scope string) (*service.Network, error) {
	if scope == "" {
		if n.active == nil {
			return nil, errors.New("no active network")
		}
		return n.active, nil
	}
	id, err := service.ParseChainID(scope)
	if err != nil {
		return nil, err
	}
	for _, candidate := range n.known {
		c := candidate
		if c.ChainID == id {
			return &c, nil
		}
	}
	return nil, errors.New("unknown scope " + scope)
}

func (n *fakeNetworks) SetNetwork(domain string, network service.Network) error {
	if n.setErr != nil {
		return n.setErr
	}
	n.switched = append(n.switched, network)
	n.active = &network
	return nil
}

func (n *fakeNetworks) SaveCustomNetwork(network service.Network) error {
	if n.setErr != nil {
		return n.setErr
	}
	n.saved = append(n.saved, network)
	return nil
}

func (n *fakeNetworks) IsValidRPCUrl(chainID int64, rpcURL string) bool { return n.validRPC }

func (n *fakeNetworks) SendTransaction(ctx context.Context, scope string, signedTx []byte) (string, error) {
	n.sentScope = scope
	return n.sendHash, n.sendErr
}

func siteRequest(t *testing.T, method, domain string, params interface{}) *rpc.Request {
	t.Helper()
	req := &rpc.Request{ID: "req-1", Method: method}
	if domain != "" {
		req.Site = &rpc.Domain{Domain: domain}
	}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		req.Params = raw
	}
	return req
}
