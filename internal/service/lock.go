package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bip39 "github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"

	"wallet-background/pkg/keystore"
	"wallet-background/pkg/logger"
)

var (
	ErrWalletLocked    = errors.New("wallet is locked")
	ErrInvalidMnemonic = errors.New("mnemonic failed checksum validation")
)

// LockService is the sole owner of the wallet's locked state. Everything
// else reads the flag or subscribes to flips; nothing else mutates it.
type LockService struct {
	mu           sync.Mutex
	locked       bool
	keystorePath string
	mnemonic     string // plaintext only while unlocked
	autolock     time.Duration
	relockTimer  *time.Timer

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(locked bool)
}

// NewLockService starts locked. autolock <= 0 disables the idle re-lock.
func NewLockService(keystorePath string, autolock time.Duration) *LockService {
	return &LockService{
		locked:       true,
		keystorePath: keystorePath,
		autolock:     autolock,
		subs:         make(map[int]func(bool)),
	}
}

// Locked reports the current lock state.
func (s *LockService) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Subscribe registers a listener for lock-state flips and returns its
// removal function.
func (s *LockService) Subscribe(fn func(locked bool)) (remove func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Unlock decrypts the stored mnemonic with the password and flips the
// wallet to unlocked. A no-op if already unlocked.
func (s *LockService) Unlock(ctx context.Context, password string) error {
	mnemonic, err := s.decryptMnemonic(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.locked {
		s.mu.Unlock()
		return nil
	}
	s.locked = false
	s.mnemonic = mnemonic
	s.resetRelockTimerLocked()
	s.mu.Unlock()

	logger.Info("wallet unlocked")
	s.notify(false)
	return nil
}

// Lock wipes the in-memory mnemonic and flips the wallet to locked.
func (s *LockService) Lock() {
	s.mu.Lock()
	if s.locked {
		s.mu.Unlock()
		return
	}
	s.locked = true
	s.mnemonic = ""
	if s.relockTimer != nil {
		s.relockTimer.Stop()
		s.relockTimer = nil
	}
	s.mu.Unlock()

	logger.Info("wallet locked")
	s.notify(true)
}

// InitKeystore encrypts and stores a new mnemonic. Used by onboarding.
func (s *LockService) InitKeystore(mnemonic, password string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	keyJSON, err := keystore.EncryptMnemonic(mnemonic, password)
	if err != nil {
		return err
	}
	return keyJSON.SaveToFile(s.keystorePath)
}

// Mnemonic returns the plaintext mnemonic while unlocked.
func (s *LockService) Mnemonic() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return "", ErrWalletLocked
	}
	return s.mnemonic, nil
}

// VerifyPassword re-checks the password against the keystore without
// changing lock state. Used for mnemonic export.
func (s *LockService) VerifyPassword(password string) error {
	_, err := s.decryptMnemonic(password)
	return err
}

func (s *LockService) decryptMnemonic(password string) (string, error) {
	keyJSON, err := keystore.LoadFromFile(s.keystorePath)
	if err != nil {
		return "", err
	}
	mnemonic, err := keystore.DecryptMnemonic(keyJSON, password)
	if err != nil {
		return "", err
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", ErrInvalidMnemonic
	}
	return mnemonic, nil
}

// resetRelockTimerLocked arms the idle re-lock. Callers hold s.mu.
func (s *LockService) resetRelockTimerLocked() {
	if s.autolock <= 0 {
		return
	}
	if s.relockTimer != nil {
		s.relockTimer.Stop()
	}
	s.relockTimer = time.AfterFunc(s.autolock, func() {
		logger.Info("autolock timer fired", zap.Duration("after", s.autolock))
		s.Lock()
	})
}

func (s *LockService) notify(locked bool) {
	s.subMu.Lock()
	subs := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("lock listener panicked", zap.Any("panic", r))
				}
			}()
			fn(locked)
		}()
	}
}
