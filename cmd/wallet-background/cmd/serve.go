package cmd

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wallet-background/internal/action"
	"wallet-background/internal/approval"
	"wallet-background/internal/event"
	"wallet-background/internal/handler"
	"wallet-background/internal/registry"
	"wallet-background/internal/server"
	"wallet-background/internal/service"
	"wallet-background/pkg/config"
	"wallet-background/pkg/logger"
	"wallet-background/pkg/monitor"
	"wallet-background/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background mediation service",
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	// 0. Config
	config.Init()

	// 1. Logger
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 2. Metrics
	monitor.Init()

	// 3. Durable storage backend
	store, err := openStorage()
	if err != nil {
		logger.Fatal("failed to open storage backend", zap.Error(err))
	}

	// 4. Wallet event fan-out
	emitter := event.NewEmitter()

	// 5. Lock service, the sole owner of the locked flag
	lock := service.NewLockService(
		config.Global.Wallet.KeystorePath,
		time.Duration(config.Global.Wallet.AutolockHours)*time.Hour,
	)
	lock.Subscribe(func(locked bool) {
		emitter.Emit(event.UnlockStateChanged{Unlocked: !locked})
	})

	// 6. Collaborator services
	accounts, err := service.NewAccountsService(store, emitter)
	if err != nil {
		logger.Fatal("failed to load accounts", zap.Error(err))
	}
	networks, err := service.NewNetworkService(store, emitter)
	if err != nil {
		logger.Fatal("failed to load networks", zap.Error(err))
	}
	permissions, err := service.NewPermissionsService(store)
	if err != nil {
		logger.Fatal("failed to load permissions", zap.Error(err))
	}
	contacts, err := service.NewContactsService(store)
	if err != nil {
		logger.Fatal("failed to load contacts", zap.Error(err))
	}
	assets, err := service.NewAssetsService(store)
	if err != nil {
		logger.Fatal("failed to load watched assets", zap.Error(err))
	}
	sites := service.NewSiteRegistry()
	wallet := service.NewMnemonicWallet(lock, accounts, &chaincfg.MainNetParams)
	avalanche := service.NewAvalancheClient(config.Global.Nodes.AvalancheURL)
	bitcoin := service.NewBitcoinClient(config.Global.Nodes.BitcoinURL)

	// 7. Action store; leftovers from a previous run settle before any new
	// request is accepted
	actions := action.NewStore(store)
	if err := actions.Rehydrate(context.Background()); err != nil {
		logger.Fatal("failed to rehydrate actions", zap.Error(err))
	}

	// 8. Approval plumbing
	windows := approval.NewMemoryWindowManager()
	bridge := approval.NewBridge(actions, windows, config.Global.Approval.BaseRoute)

	// 9. Method registries
	firstParty := config.Global.Wallet.FirstPartyDomains
	now := func() int64 { return time.Now().UnixMilli() }

	providers := registry.New()
	providers.MustRegister(
		handler.NewProviderStateHandler(lock, accounts, networks, permissions),
		handler.NewDomainMetadataHandler(sites),
		handler.NewEthAccountsHandler(accounts, permissions),
		handler.NewEthRequestAccountsHandler(accounts, permissions, bridge, now),
		handler.NewWalletRequestPermissionsHandler(permissions, bridge, now),
		handler.NewWalletGetPermissionsHandler(permissions),
		handler.NewPersonalSignHandler(wallet, bridge),
		handler.NewPersonalEcRecoverHandler(),
		handler.NewSignTypedDataHandler(wallet, bridge),
		handler.NewEthSendTransactionHandler(accounts, networks, wallet, bridge, firstParty),
		handler.NewWalletAddEthereumChainHandler(networks, bridge, firstParty),
		handler.NewWalletSwitchEthereumChainHandler(networks, bridge, firstParty),
		handler.NewWalletWatchAssetHandler(networks, assets, bridge),
		handler.NewAvalancheGetAccountsHandler(accounts, permissions),
		handler.NewAvalancheGetContactsHandler(contacts, permissions, bridge),
		handler.NewAvalancheSendTransactionHandler(wallet, avalanche, bridge),
		handler.NewAvalancheSignTransactionHandler(wallet, bridge),
		handler.NewAvalancheBridgeAssetHandler(service.UnavailableBridge{}, bridge),
		handler.NewBitcoinSendTransactionHandler(wallet, bitcoin, bridge, &chaincfg.MainNetParams),
	)

	internal := registry.New()
	internal.MustRegister(
		handler.NewUnlockHandler(lock),
		handler.NewLockHandler(lock),
		handler.NewAccountRenameHandler(accounts),
		handler.NewAccountSelectHandler(accounts),
		handler.NewMnemonicExportHandler(wallet),
	)

	// 10. Dispatcher; approval_decide needs it, so it registers after
	dispatcher := registry.NewDispatcher(providers, internal, lock, actions)
	internal.MustRegister(registry.NewApprovalDecideHandler(dispatcher))

	// 11. Stale-popup reaper
	reaper := approval.NewReaper(actions, windows, 5*time.Second)
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go reaper.Run(reaperCtx)

	// 12. HTTP surface
	router := server.NewHTTPRouter(server.Deps{
		Dispatcher: dispatcher,
		Store:      actions,
		Windows:    windows,
		Sites:      sites,
		Emitter:    emitter,
	})

	app := server.New(server.Config{HttpPort: config.Global.App.HttpPort}, router)
	app.Run()
}

func openStorage() (storage.Store, error) {
	switch config.Global.Storage.Backend {
	case "redis":
		return storage.NewRedisStore(
			config.Global.Redis.Addr,
			config.Global.Redis.Password,
			config.Global.Redis.DB,
		)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewFileStore(config.Global.Storage.Path)
	}
}
