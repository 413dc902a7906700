// Package account provisions wallet accounts: one mnemonic, one keypair per
// chain family, one password-sealed envelope in the vault. Restore replays
// the same derivation from a saved mnemonic and yields the same addresses.
package account

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/veltapay/wallet-core/internal/envelope"
	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/logger"
	"github.com/veltapay/wallet-core/internal/mnemonic"
	"github.com/veltapay/wallet-core/internal/model"
)

// Store persists encrypted envelopes keyed by address.
type Store interface {
	SaveEnvelope(ctx context.Context, address, chain string, profile model.Profile, env *envelope.Encrypted) error
}

// Service creates and restores accounts.
type Service struct {
	store Store
	log   *logger.Logger
}

// New creates a Service.
func New(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Create generates a fresh mnemonic, derives both chain keypairs, seals them
// under password, and persists the envelope. The response carries the
// mnemonic exactly once; it is never stored in plaintext and cannot be
// retrieved again.
func (s *Service) Create(ctx context.Context, password string, profile model.Profile) (*model.CreateAccountResponse, error) {
	phrase, err := mnemonic.Generate()
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	resp, err := s.provision(ctx, phrase, password, profile)
	if err != nil {
		return nil, err
	}
	resp.Mnemonic = phrase
	return resp, nil
}

// Restore rebuilds an account from a saved mnemonic. Derivation is
// deterministic, so the resulting addresses match the originals; the
// envelope is sealed under the new password.
func (s *Service) Restore(ctx context.Context, phrase, password string, profile model.Profile) (*model.CreateAccountResponse, error) {
	if !mnemonic.Validate(phrase) {
		return nil, mnemonic.ErrInvalidMnemonic
	}
	return s.provision(ctx, phrase, password, profile)
}

func (s *Service) provision(ctx context.Context, phrase, password string, profile model.Profile) (*model.CreateAccountResponse, error) {
	seed, err := mnemonic.ToSeed(phrase)
	if err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}
	defer clear(seed)

	evm, err := keys.Derive(seed, keys.ChainEVM)
	if err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}
	defer evm.Zero()

	sol, err := keys.Derive(seed, keys.ChainSolana)
	if err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}
	defer sol.Zero()

	bundle := model.SecretBundle{
		Mnemonic: phrase,
		PrivateKeys: map[string][]byte{
			string(keys.ChainEVM):    evm.PrivateKey,
			string(keys.ChainSolana): sol.PrivateKey,
		},
	}
	plaintext, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}
	defer clear(plaintext)

	env, err := envelope.Seal(password, plaintext)
	if err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}

	// One envelope row per address so transfer submission can fetch by the
	// sender address of either chain.
	if err := s.store.SaveEnvelope(ctx, sol.Address, string(keys.ChainSolana), profile, env); err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}
	if err := s.store.SaveEnvelope(ctx, evm.Address, string(keys.ChainEVM), profile, env); err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}

	qr, err := receiveQR(sol.Address)
	if err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}

	s.log.Info().Str("solanaAddress", sol.Address).Str("evmAddress", evm.Address).
		Msg("account provisioned")

	return &model.CreateAccountResponse{
		EVMAddress:    evm.Address,
		SolanaAddress: sol.Address,
		QR:            qr,
	}, nil
}

// receiveQR renders the receive address as a base64 PNG.
func receiveQR(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("qr code: %w", err)
	}
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("qr png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
