// Package wallet signs messages on behalf of the connected player.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/config"
)

var (
	ErrNotConnected = errors.New("wallet: not connected")
	ErrRejected     = errors.New("wallet: signature rejected")
)

// Wallet is the slice of a browser wallet the engine needs.
type Wallet interface {
	Connected() bool
	Address() string
	ChainID(ctx context.Context) (int64, error)
	// SignMessage returns an EIP-191 personal_sign signature over message.
	SignMessage(ctx context.Context, message string) ([]byte, error)
}

// Open returns a LocalWallet for a configured key, or Disconnected.
func Open(cfg config.WalletConfig) (Wallet, error) {
	if cfg.PrivateKey == "" {
		return Disconnected{}, nil
	}
	return NewLocalWallet(cfg.PrivateKey, cfg.ChainID)
}

// LocalWallet holds a secp256k1 key in memory.
type LocalWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID int64
}

// NewLocalWallet parses a hex private key, with or without 0x.
func NewLocalWallet(hexKey string, chainID int64) (*LocalWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet key: %w", err)
	}
	return fromKey(key, chainID), nil
}

// GenerateLocalWallet creates a wallet with a fresh random key.
func GenerateLocalWallet(chainID int64) (*LocalWallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return fromKey(key, chainID), nil
}

func fromKey(key *ecdsa.PrivateKey, chainID int64) *LocalWallet {
	return &LocalWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}
}

func (w *LocalWallet) Connected() bool { return true }

func (w *LocalWallet) Address() string { return w.address.Hex() }

func (w *LocalWallet) ChainID(ctx context.Context) (int64, error) { return w.chainID, nil }

func (w *LocalWallet) SignMessage(ctx context.Context, message string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Disconnected is the wallet of a session that has not connected one.
type Disconnected struct{}

func (Disconnected) Connected() bool { return false }

func (Disconnected) Address() string { return "" }

func (Disconnected) ChainID(ctx context.Context) (int64, error) { return 0, ErrNotConnected }

func (Disconnected) SignMessage(ctx context.Context, message string) ([]byte, error) {
	return nil, ErrNotConnected
}

// RecoverAddress returns the address that produced a personal_sign signature.
func RecoverAddress(message string, sig []byte) (string, error) {
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	s := append([]byte(nil), sig...)
	if s[crypto.RecoveryIDOffset] >= 27 {
		s[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), s)
	if err != nil {
		return "", fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
