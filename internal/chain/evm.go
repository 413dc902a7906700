package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/veltapay/wallet-core/internal/amount"
	"github.com/veltapay/wallet-core/internal/logger"
)

const transferGasLimit = 21000 // plain value transfer

// EVMClient submits native-token transfers over an EVM JSON-RPC endpoint.
type EVMClient struct {
	eth *ethclient.Client
	log *logger.Logger
}

// NewEVMClient dials the given JSON-RPC endpoint.
func NewEVMClient(rpcURL string, log *logger.Logger) (*EVMClient, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial evm rpc: %w", err)
	}
	return &EVMClient{eth: eth, log: log}, nil
}

// SubmitTransfer signs and broadcasts a native value transfer.
// privateKey must be the raw 32-byte secp256k1 key; the caller zeroes it.
// amount is a decimal string in the native 18-decimal unit.
func (c *EVMClient) SubmitTransfer(ctx context.Context, privateKey []byte, toAddress, amountStr string) (string, error) {
	if len(privateKey) != 32 {
		return "", fmt.Errorf("invalid private key length: expected 32 bytes")
	}
	if !common.IsHexAddress(toAddress) {
		return "", fmt.Errorf("invalid to address")
	}

	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	to := common.HexToAddress(toAddress)

	valueWei, err := amount.ToBaseUnitsBig(amountStr, amount.EVMDecimals)
	if err != nil {
		return "", err
	}

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	chainID, err := c.eth.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch chain id: %w", err)
	}

	tx := types.NewTransaction(nonce, to, valueWei, transferGasLimit, gasPrice, nil)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	hash := signed.Hash().Hex()
	c.log.Info().Str("signature", hash).Str("to", toAddress).Msg("transfer broadcast")
	return hash, nil
}

// WaitForConfirmation polls for a mined receipt until the transaction is
// accepted, reverts, or ctx expires.
func (c *EVMClient) WaitForConfirmation(ctx context.Context, signature string) (*Receipt, error) {
	hash := common.HexToHash(signature)

	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("fetch receipt: %w", err)
		}
		if receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return nil, fmt.Errorf("transaction reverted on chain")
			}
			return &Receipt{Signature: signature, Slot: receipt.BlockNumber.Uint64()}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SignatureStatus probes the chain once for the transaction's fate.
func (c *EVMClient) SignatureStatus(ctx context.Context, signature string) (Status, error) {
	hash := common.HexToHash(signature)

	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err == nil && receipt != nil {
		if receipt.Status == types.ReceiptStatusSuccessful {
			return StatusConfirmed, nil
		}
		return StatusFailed, nil
	}
	if err != nil && !errors.Is(err, ethereum.NotFound) {
		return StatusUnknown, fmt.Errorf("fetch receipt: %w", err)
	}

	_, pending, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return StatusUnknown, nil
		}
		return StatusUnknown, fmt.Errorf("fetch transaction: %w", err)
	}
	if pending {
		return StatusPending, nil
	}
	return StatusPending, nil
}
