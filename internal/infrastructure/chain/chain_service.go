package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"mark/internal/domain/entities"
	domainrepos "mark/internal/domain/repositories"
	"mark/internal/infrastructure/blockchain"
	"mark/pkg/logger"
)

// MinConfirmations is the number of block confirmations submitAndMonitor
// waits for before treating a submission as final, per the "mined >= N
// confirmations (N >= 2)" contract callers rely on.
const MinConfirmations = 2

// DefaultTimeout bounds every RPC suspension point; there is no busy-wait
// beyond this.
const DefaultTimeout = 30 * time.Second

const pollInterval = 2 * time.Second

// Service is the engine's sole on-chain access point. The core only ever
// calls SubmitAndMonitor, GetTransactionReceipt, GetBalance and ReadTx;
// concrete RPC interaction is delegated to blockchain.EVMClient, resolved
// per chain via the shared ClientFactory cache.
type Service struct {
	factory *blockchain.ClientFactory
	chains  domainrepos.ChainRepository
}

// NewService wires a Service over the given chain configuration repository.
func NewService(factory *blockchain.ClientFactory, chains domainrepos.ChainRepository) *Service {
	return &Service{factory: factory, chains: chains}
}

func (s *Service) clientFor(ctx context.Context, chainID string) (*blockchain.EVMClient, error) {
	chain, err := s.chains.GetByChainID(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("resolve chain %s: %w", chainID, err)
	}
	return s.factory.GetEVMClient(chain.RPCURL)
}

// SubmitAndMonitor broadcasts tx on chainID and blocks until it has at least
// MinConfirmations confirmations, returning the confirmed receipt. Callers
// must not assume nonce ordering across chains.
func (s *Service) SubmitAndMonitor(ctx context.Context, chainID string, tx *gethtypes.Transaction) (entities.TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	client, err := s.clientFor(ctx, chainID)
	if err != nil {
		return entities.TxReceipt{}, err
	}

	if err := client.SendTransaction(ctx, tx); err != nil {
		return entities.TxReceipt{}, fmt.Errorf("submit tx on chain %s: %w", chainID, err)
	}

	txHash := tx.Hash().Hex()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return entities.TxReceipt{}, fmt.Errorf("timed out waiting for confirmations of %s on chain %s: %w", txHash, chainID, ctx.Err())
		case <-ticker.C:
			receipt, err := client.GetTransactionReceipt(ctx, txHash)
			if err != nil {
				continue
			}
			latest, err := client.GetBlockNumber(ctx)
			if err != nil {
				continue
			}
			confirmations := confirmationsFor(receipt.BlockNumber.Uint64(), latest)
			if confirmations >= MinConfirmations {
				logger.Debug(ctx, "tx confirmed",
					zap.String("chainId", chainID),
					zap.String("txHash", txHash),
					zap.Uint64("confirmations", confirmations))
				return entities.TxReceipt{
					TxHash:        txHash,
					BlockNumber:   receipt.BlockNumber.Uint64(),
					Confirmations: confirmations,
				}, nil
			}
		}
	}
}

// GetTransactionReceipt returns the current receipt for txHash on chainID,
// without waiting for any particular confirmation depth.
func (s *Service) GetTransactionReceipt(ctx context.Context, chainID, txHash string) (entities.TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	client, err := s.clientFor(ctx, chainID)
	if err != nil {
		return entities.TxReceipt{}, err
	}
	receipt, err := client.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return entities.TxReceipt{}, err
	}
	latest, err := client.GetBlockNumber(ctx)
	if err != nil {
		return entities.TxReceipt{}, err
	}
	return entities.TxReceipt{
		TxHash:        txHash,
		BlockNumber:   receipt.BlockNumber.Uint64(),
		Confirmations: confirmationsFor(receipt.BlockNumber.Uint64(), latest),
	}, nil
}

// GetBalance returns owner's balance on chainID in the token's own decimals
// (not converted to 18 decimals); an empty tokenAddress reads the native
// asset, otherwise the ERC-20 balance.
func (s *Service) GetBalance(ctx context.Context, chainID, ownerAddress, tokenAddress string) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	client, err := s.clientFor(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if tokenAddress == "" {
		return client.GetBalance(ctx, ownerAddress)
	}
	return client.GetTokenBalance(ctx, tokenAddress, ownerAddress)
}

// ReadTx fetches the pending/mined transaction itself (not its receipt),
// used by adapters that need to inspect calldata already submitted.
func (s *Service) ReadTx(ctx context.Context, chainID, txHash string) (*gethtypes.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	client, err := s.clientFor(ctx, chainID)
	if err != nil {
		return nil, false, err
	}
	return client.GetTransaction(ctx, txHash)
}

func confirmationsFor(txBlock, latestBlock uint64) uint64 {
	if latestBlock < txBlock {
		return 0
	}
	return latestBlock - txBlock + 1
}
