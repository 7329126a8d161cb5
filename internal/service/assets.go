package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"wallet-background/pkg/logger"
	"wallet-background/pkg/storage"
)

const assetsStorageKey = "watched_assets"

// WatchedToken is a user-approved custom token shown in balances.
type WatchedToken struct {
	ChainID  int64  `json:"chainId"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Image    string `json:"image,omitempty"`
}

// AssetsService keeps the watched-token list, keyed by chain id plus
// lowercased contract address.
type AssetsService struct {
	mu      sync.Mutex
	tokens  map[string]WatchedToken
	storage storage.Store
}

func NewAssetsService(st storage.Store) (*AssetsService, error) {
	s := &AssetsService{
		tokens:  make(map[string]WatchedToken),
		storage: st,
	}

	raw, err := st.Load(context.Background(), assetsStorageKey)
	if err != nil && err != storage.ErrNotFound {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(raw, &s.tokens); err != nil {
			return nil, fmt.Errorf("corrupt watched-assets state: %w", err)
		}
	}
	return s, nil
}

// Watch adds the token, replacing any previous entry for the same contract.
func (s *AssetsService) Watch(t WatchedToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[watchedKey(t.ChainID, t.Address)] = t
	if err := s.persistLocked(); err != nil {
		return err
	}
	logger.Info("token watched",
		zap.Int64("chainId", t.ChainID),
		zap.String("address", t.Address),
		zap.String("symbol", t.Symbol))
	return nil
}

// List returns the watched tokens for one chain.
func (s *AssetsService) List(chainID int64) []WatchedToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WatchedToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		if t.ChainID == chainID {
			out = append(out, t)
		}
	}
	return out
}

func (s *AssetsService) persistLocked() error {
	raw, err := json.Marshal(s.tokens)
	if err != nil {
		return err
	}
	return s.storage.Save(context.Background(), assetsStorageKey, raw)
}

func watchedKey(chainID int64, address string) string {
	return fmt.Sprintf("%d/%s", chainID, strings.ToLower(address))
}
