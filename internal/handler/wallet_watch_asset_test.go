package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/storage"
)

const usdcAddress = "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"

func newAssets(t *testing.T) *service.AssetsService {
	t.Helper()
	assets, err := service.NewAssetsService(storage.NewMemoryStore())
	require.NoError(t, err)
	return assets
}

func TestWatchAssetRejectsNonERC20(t *testing.T) {
	active := avalancheMainnet()
	h := NewWalletWatchAssetHandler(&fakeNetworks{active: &active}, newAssets(t), &fakeOpener{})

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_watchAsset", "dapp.example",
		map[string]interface{}{"type": "ERC721", "options": map[string]interface{}{"address": usdcAddress}}))

	require.NotNil(t, out.Err)
	assert.Equal(t, "Asset of type 'ERC721' not supported", out.Err.Message)
}

func TestWatchAssetRejectsBadAddress(t *testing.T) {
	active := avalancheMainnet()
	h := NewWalletWatchAssetHandler(&fakeNetworks{active: &active}, newAssets(t), &fakeOpener{})

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_watchAsset", "dapp.example",
		map[string]interface{}{"type": "ERC20", "options": map[string]interface{}{"address": "not-an-address"}}))

	require.NotNil(t, out.Err)
	assert.Equal(t, "invalid token address", out.Err.Message)
}

func TestWatchAssetApprovalStoresToken(t *testing.T) {
	active := avalancheMainnet()
	assets := newAssets(t)
	opener := &fakeOpener{}
	h := NewWalletWatchAssetHandler(&fakeNetworks{active: &active}, assets, opener)

	out := h.HandleAuthenticated(context.Background(), siteRequest(t, "wallet_watchAsset", "dapp.example",
		map[string]interface{}{
			"type":    "ERC20",
			"options": map[string]interface{}{"address": usdcAddress, "symbol": "USDC", "decimals": 6},
		}))
	require.NotEmpty(t, out.ActionID)
	assert.Equal(t, "watch-asset", opener.routes[0])

	result, err := h.OnApproved(context.Background(), opener.acts[0])
	require.NoError(t, err)
	assert.Equal(t, true, result)

	watched := assets.List(43114)
	require.Len(t, watched, 1)
	assert.Equal(t, "USDC", watched[0].Symbol)
	assert.Equal(t, 6, watched[0].Decimals)
}

func TestAvalancheTxParamsValidation(t *testing.T) {
	wallet, _ := newTestSignerWallet(t)
	h := NewAvalancheSendTransactionHandler(wallet, nil, &fakeOpener{})

	for _, params := range []interface{}{
		nil,
		map[string]interface{}{"transactionHex": "0x00"},
		map[string]interface{}{"chainAlias": "X"},
		map[string]interface{}{"transactionHex": "0x00", "chainAlias": "Z"},
	} {
		out := h.HandleAuthenticated(context.Background(),
			siteRequest(t, "avalanche_sendTransaction", "dapp.example", params))
		require.NotNil(t, out.Err)
		assert.Equal(t, "Missing mandatory param(s)", out.Err.Message)
	}
}

func TestAvalancheSendDefersToSignRoute(t *testing.T) {
	wallet, _ := newTestSignerWallet(t)
	opener := &fakeOpener{}
	h := NewAvalancheSendTransactionHandler(wallet, nil, opener)

	out := h.HandleAuthenticated(context.Background(),
		siteRequest(t, "avalanche_sendTransaction", "dapp.example",
			map[string]interface{}{"transactionHex": "0x0001", "chainAlias": "X"}))

	require.NotEmpty(t, out.ActionID)
	assert.Equal(t, "approve/avalancheSignTx", opener.routes[0])
}

func TestDomainMetadataRecordsSite(t *testing.T) {
	sites := service.NewSiteRegistry()
	h := NewDomainMetadataHandler(sites)

	req := siteRequest(t, "metamask_sendDomainMetadata", "dapp.example",
		map[string]interface{}{"name": "Example Dapp", "icon": "https://dapp.example/icon.png"})
	req.TabID = 7

	out := h.HandleUnauthenticated(context.Background(), req)
	require.Nil(t, out.Err)
	assert.Equal(t, true, out.Result)

	site := sites.Lookup(7)
	require.NotNil(t, site)
	assert.Equal(t, rpc.Domain{
		Domain: "dapp.example",
		Name:   "Example Dapp",
		Icon:   "https://dapp.example/icon.png",
	}, *site)

	sites.Forget(7)
	assert.Nil(t, sites.Lookup(7))
}
