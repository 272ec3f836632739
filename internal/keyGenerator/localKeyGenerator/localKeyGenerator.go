package localKeyGenerator

import (
	"context"
	"fmt"
	"sync"

	"github.com/Riten-Zone/hyperliquid-signer-go/internal/keyGenerator"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/secp256k1Signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet/localWallet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type keyEntry struct {
	key       *secp256k1Signer.PrivateKey
	keyName   string
	aliasName string
}

// LocalKeyGenerator creates keys in process memory. The private key is returned once,
// from GenerateKey, and is otherwise only reachable through Wallet.
type LocalKeyGenerator struct {
	logger   *zap.Logger
	keyStore map[string]*keyEntry // keyId -> keyEntry
	mu       sync.RWMutex
}

var _ keyGenerator.IKeyGenerator = (*LocalKeyGenerator)(nil)

func NewLocalKeyGenerator(logger *zap.Logger) *LocalKeyGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalKeyGenerator{
		logger:   logger,
		keyStore: make(map[string]*keyEntry),
	}
}

func (l *LocalKeyGenerator) GenerateKey(ctx context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedKey, error) {
	key, err := secp256k1Signer.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	keyId := fmt.Sprintf("local-key-%s", uuid.New().String())
	if err := l.store(keyId, key, keyName, aliasName); err != nil {
		return nil, err
	}

	l.logger.Info("Generated local signing key",
		zap.String("keyName", keyName),
		zap.String("aliasName", aliasName),
		zap.String("keyId", keyId),
		zap.String("address", key.Address().Hex()),
	)

	return &keyGenerator.GeneratedKey{
		PublicKey:     key.PublicKeyBytes(),
		Address:       key.Address(),
		KeyId:         keyId,
		PrivateKeyHex: key.Hex(),
	}, nil
}

func (l *LocalKeyGenerator) GetKeyById(ctx context.Context, keyId string) (*keyGenerator.GeneratedKey, error) {
	l.mu.RLock()
	entry, exists := l.keyStore[keyId]
	l.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("key with ID %s not found", keyId)
	}

	return &keyGenerator.GeneratedKey{
		PublicKey: entry.key.PublicKeyBytes(),
		Address:   entry.key.Address(),
		KeyId:     keyId,
	}, nil
}

// LoadPrivateKeyFromHex adds an existing key under keyId.
func (l *LocalKeyGenerator) LoadPrivateKeyFromHex(keyId string, privateKeyHex string, keyName string, aliasName string) error {
	key, err := secp256k1Signer.NewPrivateKeyFromHex(privateKeyHex)
	if err != nil {
		return fmt.Errorf("failed to parse private key from hex: %w", err)
	}
	return l.store(keyId, key, keyName, aliasName)
}

func (l *LocalKeyGenerator) store(keyId string, key *secp256k1Signer.PrivateKey, keyName, aliasName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.keyStore[keyId]; exists {
		return fmt.Errorf("key with ID %s already exists", keyId)
	}
	l.keyStore[keyId] = &keyEntry{key: key, keyName: keyName, aliasName: aliasName}
	return nil
}

// Wallet returns a signing wallet backed by the stored key. Closing the wallet wipes
// the stored key as well.
func (l *LocalKeyGenerator) Wallet(keyId string) (*localWallet.LocalWallet, error) {
	l.mu.RLock()
	entry, exists := l.keyStore[keyId]
	l.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("key with ID %s not found", keyId)
	}
	return localWallet.NewLocalWallet(entry.key, l.logger)
}

func (l *LocalKeyGenerator) KeyExists(keyId string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, exists := l.keyStore[keyId]
	return exists
}

// GetKeyIdByAlias returns the key id registered under alias, or "" if none.
func (l *LocalKeyGenerator) GetKeyIdByAlias(alias string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for keyId, entry := range l.keyStore {
		if entry.aliasName == alias {
			return keyId
		}
	}
	return ""
}

func (l *LocalKeyGenerator) GetKeyCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keyStore)
}

// ClearKeys wipes and forgets every stored key.
func (l *LocalKeyGenerator) ClearKeys() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.keyStore {
		entry.key.Zero()
	}
	l.keyStore = make(map[string]*keyEntry)
}
