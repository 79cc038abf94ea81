// Package usecases implements the core orchestration engine: balance
// accounting, the on-demand rebalance planner and executor, the callback
// and swap state-machine tickers, and the event pipeline that drives them.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"mark/internal/domain/chainservice"
	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	"mark/internal/domain/money"
	domainrepos "mark/internal/domain/repositories"
)

// Balances is tickerHash -> ChainID -> 18-decimal balance.
type Balances map[string]map[string]*big.Int

// BalanceAccounting computes Mark's own on-chain balances and the portion of
// each balance still available after subtracting active earmarks and
// in-flight on-demand rebalances.
type BalanceAccounting struct {
	chains     domainrepos.ChainRepository
	assets     domainrepos.AssetConfigRepository
	earmarks   domainrepos.EarmarkRepository
	rebalances domainrepos.RebalanceOperationRepository
	chainSvc   chainservice.Service
}

// NewBalanceAccounting wires a BalanceAccounting over its repositories.
func NewBalanceAccounting(
	chains domainrepos.ChainRepository,
	assets domainrepos.AssetConfigRepository,
	earmarks domainrepos.EarmarkRepository,
	rebalances domainrepos.RebalanceOperationRepository,
	chainSvc chainservice.Service,
) *BalanceAccounting {
	return &BalanceAccounting{
		chains:     chains,
		assets:     assets,
		earmarks:   earmarks,
		rebalances: rebalances,
		chainSvc:   chainSvc,
	}
}

// MarkBalances reads, for every configured (ticker, chain) pair, the
// operator wallet's balance there and converts it to 18-decimal units.
func (b *BalanceAccounting) MarkBalances(ctx context.Context) (Balances, error) {
	configs, err := b.assets.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list asset configs: %w", err)
	}

	out := Balances{}
	for _, cfg := range configs {
		chain, err := b.chains.GetByChainID(ctx, cfg.ChainID)
		if err != nil {
			return nil, fmt.Errorf("resolve chain %s: %w", cfg.ChainID, err)
		}

		native, err := b.chainSvc.GetBalance(ctx, cfg.ChainID, chain.Wallet(), cfg.TokenAddress)
		if err != nil {
			return nil, fmt.Errorf("get balance on chain %s for %s: %w", cfg.ChainID, cfg.TickerHash, err)
		}

		if out[cfg.TickerHash] == nil {
			out[cfg.TickerHash] = map[string]*big.Int{}
		}
		out[cfg.TickerHash][cfg.ChainID] = money.To18(native, cfg.Decimals)
	}
	return out, nil
}

// AvailableBalance returns markBalance net of max(earmarked, inflightOnDemand)
// for (chainID, tickerHash), per the double-counting-avoidance rule: the two
// totals would otherwise double-count the same reserved funds.
func (b *BalanceAccounting) AvailableBalance(ctx context.Context, chainID, tickerHash string, markBalance *big.Int) (*big.Int, error) {
	earmarked, err := b.earmarkedTotal(ctx, chainID, tickerHash)
	if err != nil {
		return nil, err
	}
	inflight, err := b.inflightOnDemandTotal(ctx, chainID, tickerHash)
	if err != nil {
		return nil, err
	}

	reserved := money.Max(earmarked, inflight)
	available := new(big.Int).Sub(markBalance, reserved)
	if available.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return available, nil
}

func (b *BalanceAccounting) earmarkedTotal(ctx context.Context, chainID, tickerHash string) (*big.Int, error) {
	earmarks, err := b.earmarks.GetEarmarks(ctx, domainrepos.EarmarkFilter{
		Statuses:                []entities.EarmarkStatus{entities.EarmarkStatusPending, entities.EarmarkStatusReady},
		DesignatedPurchaseChain: chainID,
	})
	if err != nil {
		return nil, fmt.Errorf("list earmarks for %s: %w", chainID, err)
	}

	total := big.NewInt(0)
	for _, e := range earmarks {
		if e.TickerHash != tickerHash {
			continue
		}
		amount, err := money.ParseAmount(e.MinAmount)
		if err != nil {
			return nil, fmt.Errorf("parse earmark %s minAmount: %w", e.ID, err)
		}
		total.Add(total, amount)
	}
	return total, nil
}

func (b *BalanceAccounting) inflightOnDemandTotal(ctx context.Context, chainID, tickerHash string) (*big.Int, error) {
	ops, _, err := b.rebalances.GetRebalanceOperations(ctx, domainrepos.RebalanceOperationFilter{
		Statuses: []entities.RebalanceOperationStatus{
			entities.RebalanceStatusPending,
			entities.RebalanceStatusAwaitingCallback,
			entities.RebalanceStatusCompleted,
		},
		DestinationChainID: chainID,
		TickerHash:         tickerHash,
	})
	if err != nil {
		return nil, fmt.Errorf("list rebalance operations for %s: %w", chainID, err)
	}

	total := big.NewInt(0)
	for _, op := range ops {
		if op.EarmarkID == nil {
			continue
		}
		active, err := b.earmarkStillActive(ctx, *op.EarmarkID)
		if err != nil {
			return nil, err
		}
		if !active {
			continue
		}

		originDecimals, err := b.decimalsOn(ctx, op.OriginChainID, tickerHash)
		if err != nil {
			return nil, err
		}
		amount, err := money.ParseAmount(op.Amount)
		if err != nil {
			return nil, fmt.Errorf("parse rebalance op %s amount: %w", op.ID, err)
		}
		total.Add(total, money.To18(amount, originDecimals))
	}
	return total, nil
}

func (b *BalanceAccounting) earmarkStillActive(ctx context.Context, earmarkID uuid.UUID) (bool, error) {
	earmark, err := b.earmarks.GetByID(ctx, earmarkID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve earmark %s: %w", earmarkID, err)
	}
	return earmark.IsActive(), nil
}

func (b *BalanceAccounting) decimalsOn(ctx context.Context, chainID, tickerHash string) (int, error) {
	cfg, err := b.assets.GetByChainAndTicker(ctx, chainID, tickerHash)
	if err != nil {
		return 0, fmt.Errorf("resolve asset config on %s for %s: %w", chainID, tickerHash, err)
	}
	return cfg.Decimals, nil
}
