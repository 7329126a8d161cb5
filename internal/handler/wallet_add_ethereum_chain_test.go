package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-background/internal/service"
)

func avalancheMainnet() service.Network {
	return service.Network{
		ChainID:   43114,
		ChainName: "Avalanche C-Chain",
		VMType:    service.VMTypeEVM,
		RPCURL:    "https://api.avax.network/ext/bc/C/rpc",
		NativeToken: service.NativeToken{
			Name: "Avalanche", Symbol: "AVAX", Decimals: 18,
		},
	}
}

func TestAddEthereumChainRejectsMissingConfig(t *testing.T) {
	h := NewWalletAddEthereumChainHandler(&fakeNetworks{}, &fakeOpener{}, nil)

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_addEthereumChain", "dapp.example", nil))
	require.NotNil(t, out.Err)
	assert.Equal(t, "Chain config missing", out.Err.Message)

	out = h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_addEthereumChain", "dapp.example",
		[]map[string]interface{}{{"chainName": "No ID"}}))
	require.NotNil(t, out.Err)
	assert.Equal(t, "Chain config missing", out.Err.Message)
}

func TestAddEthereumChainActiveChainIsSilentSuccess(t *testing.T) {
	active := avalancheMainnet()
	opener := &fakeOpener{}
	h := NewWalletAddEthereumChainHandler(&fakeNetworks{active: &active}, opener, nil)

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_addEthereumChain", "dapp.example",
		[]map[string]interface{}{{"chainId": "0xa86a"}}))

	require.Nil(t, out.Err)
	assert.Nil(t, out.Result)
	assert.Empty(t, opener.acts, "no approval may open for the already active chain")
}

func TestAddEthereumChainKnownChainBecomesSwitchPrompt(t *testing.T) {
	eth := avalancheMainnet()
	known := service.Network{ChainID: 1, ChainName: "Ethereum", VMType: service.VMTypeEVM}
	opener := &fakeOpener{}
	h := NewWalletAddEthereumChainHandler(&fakeNetworks{
		active: &eth,
		known:  map[string]service.Network{"1": known},
	}, opener, nil)

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_addEthereumChain", "dapp.example",
		[]map[string]interface{}{{"chainId": "0x1"}}))

	require.NotEmpty(t, out.ActionID)
	require.Len(t, opener.routes, 1)
	assert.Equal(t, "network/switch", opener.routes[0])

	var display addChainDisplayData
	require.NoError(t, opener.acts[0].DecodeDisplayData(&display))
	assert.True(t, display.IsSwitch)
	assert.Equal(t, int64(1), display.Network.ChainID)
}

func TestAddEthereumChainUnknownChainValidation(t *testing.T) {
	active := avalancheMainnet()

	tests := []struct {
		name    string
		param   map[string]interface{}
		wantMsg string
	}{
		{
			name:    "missing rpc urls",
			param:   map[string]interface{}{"chainId": "0x89", "chainName": "Polygon"},
			wantMsg: "RPC url missing",
		},
		{
			name: "missing native currency",
			param: map[string]interface{}{
				"chainId": "0x89", "chainName": "Polygon",
				"rpcUrls": []string{"https://polygon-rpc.com"},
			},
			wantMsg: "Expected nativeCurrency param to be defined",
		},
		{
			name: "chain id mismatch",
			param: map[string]interface{}{
				"chainId": "0x89", "chainName": "Polygon",
				"rpcUrls":        []string{"https://polygon-rpc.com"},
				"nativeCurrency": map[string]interface{}{"name": "Matic", "symbol": "MATIC", "decimals": 18},
			},
			wantMsg: "ChainID does not match the rpc url",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewWalletAddEthereumChainHandler(&fakeNetworks{active: &active, validRPC: false}, &fakeOpener{}, nil)
			out := h.HandleAuthenticated(context.Background(),
				siteRequest(t, "wallet_addEthereumChain", "dapp.example", []map[string]interface{}{tc.param}))
			require.NotNil(t, out.Err)
			assert.Equal(t, tc.wantMsg, out.Err.Message)
		})
	}
}

func TestAddEthereumChainUnknownChainOpensAddPrompt(t *testing.T) {
	active := avalancheMainnet()
	opener := &fakeOpener{}
	h := NewWalletAddEthereumChainHandler(&fakeNetworks{active: &active, validRPC: true}, opener, nil)

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_addEthereumChain", "dapp.example",
		[]map[string]interface{}{{
			"chainId": "0x89", "chainName": "Polygon",
			"rpcUrls":           []string{"https://polygon-rpc.com"},
			"nativeCurrency":    map[string]interface{}{"name": "Matic", "symbol": "MATIC", "decimals": 18},
			"blockExplorerUrls": []string{"https://polygonscan.com"},
		}}))

	require.NotEmpty(t, out.ActionID)
	require.Len(t, opener.routes, 1)
	assert.Equal(t, "networks/add-popup", opener.routes[0])

	var display addChainDisplayData
	require.NoError(t, opener.acts[0].DecodeDisplayData(&display))
	assert.False(t, display.IsSwitch)
	assert.Equal(t, int64(137), display.Network.ChainID)
	assert.Equal(t, "https://polygonscan.com", display.Network.ExplorerURL)
	assert.True(t, display.Network.IsCustom)
}

func TestAddEthereumChainFirstPartySkipsApproval(t *testing.T) {
	active := avalancheMainnet()
	opener := &fakeOpener{}
	networks := &fakeNetworks{active: &active, validRPC: true}
	h := NewWalletAddEthereumChainHandler(networks, opener, []string{"core.app"})

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_addEthereumChain", "core.app",
		[]map[string]interface{}{{
			"chainId": "0x89", "chainName": "Polygon",
			"rpcUrls":        []string{"https://polygon-rpc.com"},
			"nativeCurrency": map[string]interface{}{"name": "Matic", "symbol": "MATIC", "decimals": 18},
		}}))

	require.Nil(t, out.Err)
	assert.Empty(t, opener.acts)
	require.Len(t, networks.saved, 1)
	require.Len(t, networks.switched, 1)
	assert.Equal(t, int64(137), networks.switched[0].ChainID)
}

func TestAddEthereumChainApprovalSavesAndSwitches(t *testing.T) {
	active := avalancheMainnet()
	opener := &fakeOpener{}
	networks := &fakeNetworks{active: &active, validRPC: true}
	h := NewWalletAddEthereumChainHandler(networks, opener, nil)

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_addEthereumChain", "dapp.example",
		[]map[string]interface{}{{
			"chainId": "0x89", "chainName": "Polygon",
			"rpcUrls":        []string{"https://polygon-rpc.com"},
			"nativeCurrency": map[string]interface{}{"name": "Matic", "symbol": "MATIC", "decimals": 18},
		}}))
	require.NotEmpty(t, out.ActionID)

	result, err := h.OnApproved(context.Background(), opener.acts[0])
	require.NoError(t, err)
	assert.Nil(t, result)
	require.Len(t, networks.saved, 1)
	require.Len(t, networks.switched, 1)
	assert.Equal(t, "Polygon", networks.switched[0].ChainName)
}

func TestSwitchEthereumChainUnknownChainAnswers4902(t *testing.T) {
	active := avalancheMainnet()
	h := NewWalletSwitchEthereumChainHandler(&fakeNetworks{active: &active}, &fakeOpener{}, nil)

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_switchEthereumChain", "dapp.example",
		[]map[string]interface{}{{"chainId": "0x2105"}}))

	require.NotNil(t, out.Err)
	assert.Equal(t, 4902, out.Err.Code)
	assert.Equal(t, "Unrecognized chain ID 0x2105. Try adding the chain using wallet_addEthereumChain first.", out.Err.Message)
}

func TestSwitchEthereumChainKnownChainDefers(t *testing.T) {
	active := avalancheMainnet()
	eth := service.Network{ChainID: 1, ChainName: "Ethereum", VMType: service.VMTypeEVM}
	opener := &fakeOpener{}
	networks := &fakeNetworks{active: &active, known: map[string]service.Network{"1": eth}}
	h := NewWalletSwitchEthereumChainHandler(networks, opener, nil)

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_switchEthereumChain", "dapp.example",
		[]map[string]interface{}{{"chainId": "0x1"}}))
	require.NotEmpty(t, out.ActionID)
	assert.Equal(t, "network/switch", opener.routes[0])

	result, err := h.OnApproved(context.Background(), opener.acts[0])
	require.NoError(t, err)
	assert.Nil(t, result)
	require.Len(t, networks.switched, 1)
	assert.Equal(t, int64(1), networks.switched[0].ChainID)
}

func TestSwitchEthereumChainSameChainIsSilentSuccess(t *testing.T) {
	active := avalancheMainnet()
	opener := &fakeOpener{}
	h := NewWalletSwitchEthereumChainHandler(&fakeNetworks{active: &active}, opener, nil)

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_switchEthereumChain", "dapp.example",
		[]map[string]interface{}{{"chainId": "0xa86a"}}))

	require.Nil(t, out.Err)
	assert.Nil(t, out.Result)
	assert.Empty(t, opener.acts)
}
