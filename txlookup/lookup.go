// Package txlookup resolves the on-chain transaction hash for a
// storage operation, keyed by the caller's account address.
//
// Lookups are best-effort enrichment: callers must treat every error
// or empty result as "no hash available" and proceed with the
// unenriched result.
package txlookup

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Lookup resolves the most recent transaction hash sent by an address.
// Implementations return an empty string (no error) when nothing is
// found.
type Lookup interface {
	LatestTxHash(ctx context.Context, address string) (string, error)
}

// EthLookup queries an Ethereum-compatible RPC endpoint.
type EthLookup struct {
	client  *ethclient.Client
	chainID *big.Int
}

// Dial connects to the RPC endpoint and caches the chain ID for
// sender recovery.
func Dial(ctx context.Context, rpcURL string) (*EthLookup, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	return &EthLookup{client: client, chainID: chainID}, nil
}

// Close releases the underlying RPC connection.
func (l *EthLookup) Close() {
	l.client.Close()
}

// LatestTxHash scans the latest block, newest transaction first, for
// one whose sender matches address. Returns an empty string when no
// transaction from the address is in the latest block.
func (l *EthLookup) LatestTxHash(ctx context.Context, address string) (string, error) {
	block, err := l.client.BlockByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("fetch latest block: %w", err)
	}

	want := common.HexToAddress(address)
	signer := types.LatestSignerForChainID(l.chainID)

	txs := block.Transactions()
	for i := len(txs) - 1; i >= 0; i-- {
		from, err := types.Sender(signer, txs[i])
		if err != nil {
			continue
		}
		if from == want {
			return txs[i].Hash().Hex(), nil
		}
	}
	return "", nil
}

// DeriveAddress computes the account address for a hex-encoded
// private key. A leading "0x" is tolerated even though the CLI
// expects keys without it.
func DeriveAddress(privateKeyHex string) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
