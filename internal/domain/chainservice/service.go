// Package chainservice declares the narrow on-chain access contract the
// core is allowed to depend on. Per the purpose-and-scope boundary, the core
// never talks to an RPC client directly — only through these four calls.
package chainservice

import (
	"context"
	"math/big"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"mark/internal/domain/entities"
)

// Service is implemented by internal/infrastructure/chain.Service. It is
// declared here, not there, so usecases depend on the domain contract
// rather than the concrete RPC plumbing.
type Service interface {
	SubmitAndMonitor(ctx context.Context, chainID string, tx *gethtypes.Transaction) (entities.TxReceipt, error)
	GetTransactionReceipt(ctx context.Context, chainID, txHash string) (entities.TxReceipt, error)
	GetBalance(ctx context.Context, chainID, ownerAddress, tokenAddress string) (*big.Int, error)
	ReadTx(ctx context.Context, chainID, txHash string) (*gethtypes.Transaction, bool, error)
}
