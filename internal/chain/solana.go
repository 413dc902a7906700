package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/veltapay/wallet-core/internal/amount"
	"github.com/veltapay/wallet-core/internal/logger"
)

const (
	usdcMintAddressMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v" // USDC mint on Solana mainnet (does not work on devnet/testnet)
	usdcDecimals           = 6                                              // USDC always has 6 decimals

	confirmPollInterval = 2 * time.Second
)

// SolanaClient submits USDC (SPL token) transfers over Solana RPC.
type SolanaClient struct {
	rpcClient     *rpc.Client
	mintPublicKey solana.PublicKey
	log           *logger.Logger
}

// NewSolanaClient creates a Solana client for the given RPC endpoint.
func NewSolanaClient(rpcURL string, log *logger.Logger) (*SolanaClient, error) {
	mintPubKey, err := solana.PublicKeyFromBase58(usdcMintAddressMainnet)
	if err != nil {
		return nil, fmt.Errorf("invalid USDC mint address: %w", err)
	}

	return &SolanaClient{
		rpcClient:     rpc.New(rpcURL),
		mintPublicKey: mintPubKey,
		log:           log,
	}, nil
}

// SubmitTransfer builds, signs, and broadcasts a USDC transfer.
// privateKey must be the full 64-byte Solana key; the caller zeroes it.
// amount is a decimal string with at most 6 fractional digits.
func (c *SolanaClient) SubmitTransfer(ctx context.Context, privateKey []byte, toAddress, amountStr string) (string, error) {
	if len(privateKey) != 64 {
		return "", fmt.Errorf("invalid private key length: expected 64 bytes")
	}
	wallet := solana.PrivateKey(privateKey)
	ownerPubkey := wallet.PublicKey()

	toPubkey, err := solana.PublicKeyFromBase58(toAddress)
	if err != nil {
		return "", fmt.Errorf("invalid to address: %w", err)
	}

	amountMicro, err := amount.ToBaseUnits(amountStr, usdcDecimals)
	if err != nil {
		return "", err
	}

	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	sourceTokenAccount, _, err := solana.FindAssociatedTokenAddress(ownerPubkey, c.mintPublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to find source token account address: %w", err)
	}

	// Check the source ATA exists; the sender must hold USDC already.
	if _, err := c.rpcClient.GetTokenAccountBalance(ctx, sourceTokenAccount, rpc.CommitmentConfirmed); err != nil {
		if isAccountNotFoundError(err) {
			return "", fmt.Errorf("USDC token account not found for sender %s", ownerPubkey)
		}
		return "", fmt.Errorf("failed to check source token account: %w", err)
	}

	destTokenAccount, _, err := solana.FindAssociatedTokenAddress(toPubkey, c.mintPublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to find destination token account: %w", err)
	}

	// Create the destination ATA in the same transaction when missing.
	instructions := make([]solana.Instruction, 0, 2)

	destAccountInfo, err := c.rpcClient.GetAccountInfo(ctx, destTokenAccount)
	if err != nil && !isAccountNotFoundError(err) {
		return "", fmt.Errorf("failed to get destination account info: %w", err)
	}
	if isAccountNotFoundError(err) || destAccountInfo.Value == nil {
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(
			ownerPubkey,     // payer
			toPubkey,        // owner
			c.mintPublicKey, // mint
		).Build())
	}

	instructions = append(instructions, token.NewTransferCheckedInstruction(
		amountMicro,
		usdcDecimals,
		sourceTokenAccount,
		c.mintPublicKey,
		destTokenAccount,
		ownerPubkey,
		[]solana.PublicKey{},
	).Build())

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(ownerPubkey),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if wallet.PublicKey().Equals(key) {
			return &wallet
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false, // validate against a node before broadcast
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	c.log.Info().Str("signature", sig.String()).Str("to", toAddress).Msg("transfer broadcast")
	return sig.String(), nil
}

// WaitForConfirmation polls signature status until the cluster confirms the
// transaction, it fails, or ctx expires.
func (c *SolanaClient) WaitForConfirmation(ctx context.Context, signature string) (*Receipt, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		out, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return nil, fmt.Errorf("failed to get signature status: %w", err)
		}

		if len(out.Value) > 0 && out.Value[0] != nil {
			st := out.Value[0]
			if st.Err != nil {
				return nil, fmt.Errorf("transaction failed on chain: %v", st.Err)
			}
			switch st.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return &Receipt{Signature: signature, Slot: st.Slot}, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SignatureStatus is the reconciliation query: a single status probe with no
// waiting.
func (c *SolanaClient) SignatureStatus(ctx context.Context, signature string) (Status, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return StatusUnknown, fmt.Errorf("invalid signature: %w", err)
	}

	out, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return StatusUnknown, fmt.Errorf("failed to get signature status: %w", err)
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return StatusUnknown, nil
	}

	st := out.Value[0]
	if st.Err != nil {
		return StatusFailed, nil
	}
	switch st.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return StatusConfirmed, nil
	default:
		return StatusPending, nil
	}
}

// isAccountNotFoundError checks if error indicates that an account doesn't exist
func isAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "could not find account") ||
		strings.Contains(errStr, "not found")
}
