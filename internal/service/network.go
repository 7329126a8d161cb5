package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"wallet-background/internal/event"
	"wallet-background/pkg/logger"
	"wallet-background/pkg/storage"
)

const networksStorageKey = "networks"

// VM type names used in Network.VMType.
const (
	VMTypeEVM     = "EVM"
	VMTypeBitcoin = "BITCOIN"
	VMTypeAVM     = "AVM"
	VMTypePVM     = "PVM"
)

// Built-in chain ids.
const (
	ChainIDEthereum  int64 = 1
	ChainIDAvalanche int64 = 43114
)

func defaultNetworks() map[string]Network {
	return map[string]Network{
		"43114": {
			ChainID:   ChainIDAvalanche,
			ChainName: "Avalanche C-Chain",
			VMType:    VMTypeEVM,
			RPCURL:    "https://api.avax.network/ext/bc/C/rpc",
			NativeToken: NativeToken{
				Name: "Avalanche", Symbol: "AVAX", Decimals: 18,
			},
		},
		"1": {
			ChainID:   ChainIDEthereum,
			ChainName: "Ethereum",
			VMType:    VMTypeEVM,
			RPCURL:    "https://ethereum-rpc.publicnode.com",
			NativeToken: NativeToken{
				Name: "Ether", Symbol: "ETH", Decimals: 18,
			},
		},
	}
}

type networksState struct {
	Custom map[string]Network `json:"custom"`
	// ActiveChainID is the process-wide active chain; per-domain overrides
	// are keyed by site domain
	ActiveChainID  string            `json:"activeChainId"`
	DomainOverride map[string]string `json:"domainOverride"`
}

// NetworkService implements Networks over a static built-in chain list plus
// user-added custom networks, with ethclient for RPC-url validation and
// transaction broadcast.
type NetworkService struct {
	mu      sync.Mutex
	state   networksState
	storage storage.Store
	emitter *event.Emitter

	// dialTimeout bounds RPC-url validation probes
	dialTimeout time.Duration
}

func NewNetworkService(st storage.Store, emitter *event.Emitter) (*NetworkService, error) {
	s := &NetworkService{
		storage:     st,
		emitter:     emitter,
		dialTimeout: 10 * time.Second,
		state: networksState{
			Custom:         make(map[string]Network),
			ActiveChainID:  "43114",
			DomainOverride: make(map[string]string),
		},
	}

	raw, err := st.Load(context.Background(), networksStorageKey)
	if err != nil && err != storage.ErrNotFound {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(raw, &s.state); err != nil {
			return nil, fmt.Errorf("corrupt networks state: %w", err)
		}
		if s.state.Custom == nil {
			s.state.Custom = make(map[string]Network)
		}
		if s.state.DomainOverride == nil {
			s.state.DomainOverride = make(map[string]string)
		}
	}
	return s, nil
}

func (s *NetworkService) ActiveNetworks() map[string]Network {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := defaultNetworks()
	for id, n := range s.state.Custom {
		out[id] = n
	}
	return out
}

func (s *NetworkService) ActiveNetwork() *Network {
	s.mu.Lock()
	active := s.state.ActiveChainID
	s.mu.Unlock()

	networks := s.ActiveNetworks()
	if n, ok := networks[active]; ok {
		return &n
	}
	return nil
}

// GetNetwork resolves a request scope. Scopes are decimal or 0x-hex chain
// ids; the empty scope means the active network.
func (s *NetworkService) GetNetwork(scope string) (*Network, error) {
	if scope == "" {
		if n := s.ActiveNetwork(); n != nil {
			return n, nil
		}
		return nil, fmt.Errorf("no active network")
	}

	chainID, err := ParseChainID(scope)
	if err != nil {
		return nil, err
	}
	networks := s.ActiveNetworks()
	if n, ok := networks[strconv.FormatInt(chainID, 10)]; ok {
		return &n, nil
	}
	return nil, fmt.Errorf("unknown network scope %q", scope)
}

func (s *NetworkService) SetNetwork(domain string, n Network) error {
	key := strconv.FormatInt(n.ChainID, 10)

	s.mu.Lock()
	s.state.ActiveChainID = key
	if domain != "" {
		s.state.DomainOverride[domain] = key
	}
	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}

	logger.Info("active network switched",
		zap.Int64("chainId", n.ChainID),
		zap.String("domain", domain))

	if s.emitter != nil {
		s.emitter.Emit(event.ChainChanged{
			ChainID:        fmt.Sprintf("0x%x", n.ChainID),
			NetworkVersion: key,
		})
	}
	return nil
}

func (s *NetworkService) SaveCustomNetwork(n Network) error {
	n.IsCustom = true

	s.mu.Lock()
	s.state.Custom[strconv.FormatInt(n.ChainID, 10)] = n
	err := s.persistLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	logger.Info("custom network saved", zap.Int64("chainId", n.ChainID))
	return nil
}

// IsValidRPCUrl dials the endpoint and checks the chain id it reports.
func (s *NetworkService) IsValidRPCUrl(chainID int64, rpcURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.dialTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return false
	}
	defer client.Close()

	reported, err := client.ChainID(ctx)
	if err != nil {
		return false
	}
	return reported.Int64() == chainID
}

func (s *NetworkService) SendTransaction(ctx context.Context, scope string, signedTx []byte) (string, error) {
	network, err := s.GetNetwork(scope)
	if err != nil {
		return "", err
	}
	if network.VMType != VMTypeEVM {
		return "", fmt.Errorf("broadcast for %s networks is handled by the chain SDK collaborator", network.VMType)
	}

	var tx types.Transaction
	if err := tx.UnmarshalBinary(signedTx); err != nil {
		return "", fmt.Errorf("malformed signed transaction: %w", err)
	}

	client, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SendTransaction(ctx, &tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

func (s *NetworkService) persistLocked() error {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	return s.storage.Save(context.Background(), networksStorageKey, raw)
}

// ParseChainID accepts decimal and 0x-hex chain id notations.
func ParseChainID(raw string) (int64, error) {
	if len(raw) >= 2 && (raw[:2] == "0x" || raw[:2] == "0X") {
		return strconv.ParseInt(raw[2:], 16, 64)
	}
	return strconv.ParseInt(raw, 10, 64)
}
