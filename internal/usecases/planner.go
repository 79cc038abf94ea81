package usecases

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"mark/internal/domain/bridge"
	"mark/internal/domain/entities"
	"mark/internal/domain/money"
	domainrepos "mark/internal/domain/repositories"
)

// roundingTolerance18 is the rounding-tolerance finish condition: a
// destination is considered fully satisfied once its shortfall is at or
// below this many 18-decimal units (1 unit in native decimals for a 6-dec
// token).
var roundingTolerance18 = big.NewInt(1e12)

// PlannedOperation is one bridge or swap-and-bridge leg the executor must
// submit, in the order the planner produced it.
type PlannedOperation struct {
	Route         entities.Route
	Bridge        entities.BridgeKind
	OperationType entities.OperationType
	SendNative    *big.Int // amount sent on the origin chain, native decimals
	Received18    *big.Int // amount the plan expects on the destination, 18dec
	ObservedDbps  uint32
	Swap          *entities.SwapMetadata // set only for swap_and_bridge operations
}

// PlanResult is the planner's recommendation for one invoice.
type PlanResult struct {
	CanRebalance  bool
	Destination   string
	Operations    []PlannedOperation
	TotalAmount18 *big.Int // == minAmounts[Destination] when CanRebalance
}

// Planner chooses a destination chain and an ordered set of bridge/swap
// operations that close an invoice's shortfall under each route's slippage
// budget. It is pure: it calls adapters for quotes but persists nothing.
type Planner struct {
	routes   domainrepos.RouteConfigRepository
	assets   domainrepos.AssetConfigRepository
	balances *BalanceAccounting
	bridges  *bridge.Registry
}

// NewPlanner wires a Planner over its collaborators.
func NewPlanner(
	routes domainrepos.RouteConfigRepository,
	assets domainrepos.AssetConfigRepository,
	balances *BalanceAccounting,
	bridges *bridge.Registry,
) *Planner {
	return &Planner{routes: routes, assets: assets, balances: balances, bridges: bridges}
}

// Plan evaluates every candidate destination in invoice.Destinations and
// returns the cheapest feasible one, or CanRebalance=false if none can be
// satisfied under its routes' slippage budgets.
func (p *Planner) Plan(ctx context.Context, invoice entities.Invoice, minAmounts entities.MinAmounts) (*PlanResult, error) {
	markBalances, err := p.balances.MarkBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("mark balances: %w", err)
	}

	var best *PlanResult
	for _, dest := range invoice.Destinations {
		needStr, ok := minAmounts[dest]
		if !ok {
			continue
		}
		need, err := money.ParseAmount(needStr)
		if err != nil {
			return nil, fmt.Errorf("parse minAmount for %s: %w", dest, err)
		}

		haveHere, err := p.balances.AvailableBalance(ctx, dest, invoice.TickerHash, tickerBalance(markBalances, invoice.TickerHash, dest))
		if err != nil {
			return nil, fmt.Errorf("available balance on %s: %w", dest, err)
		}
		if haveHere.Cmp(need) >= 0 {
			continue // self-sufficient, no rebalance required
		}

		candidate, err := p.planDestination(ctx, invoice, dest, need, new(big.Int).Sub(need, haveHere), markBalances)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			continue
		}
		if best == nil || betterCandidate(candidate, best) {
			best = candidate
		}
	}

	if best == nil {
		return &PlanResult{CanRebalance: false}, nil
	}
	return best, nil
}

func betterCandidate(a, b *PlanResult) bool {
	if len(a.Operations) != len(b.Operations) {
		return len(a.Operations) < len(b.Operations)
	}
	return a.TotalAmount18.Cmp(b.TotalAmount18) < 0
}

func tickerBalance(balances Balances, tickerHash, chainID string) *big.Int {
	byChain, ok := balances[tickerHash]
	if !ok {
		return big.NewInt(0)
	}
	amt, ok := byChain[chainID]
	if !ok {
		return big.NewInt(0)
	}
	return amt
}

func (p *Planner) planDestination(ctx context.Context, invoice entities.Invoice, dest string, need, shortfall *big.Int, markBalances Balances) (*PlanResult, error) {
	routeConfigs, err := p.routes.ListByDestination(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("list routes for %s: %w", dest, err)
	}

	candidates := make([]*entities.OnDemandRouteConfig, 0, len(routeConfigs))
	originAvailable := map[string]*big.Int{}
	for _, rc := range routeConfigs {
		symbol, err := p.assetSymbol(ctx, rc.Route.Origin, invoice.TickerHash)
		if err != nil {
			continue // asset not configured on this origin, route unusable
		}
		if rc.Route.Asset != "" && rc.Route.Asset != symbol {
			continue
		}
		avail, err := p.balances.AvailableBalance(ctx, rc.Route.Origin, invoice.TickerHash, tickerBalance(markBalances, invoice.TickerHash, rc.Route.Origin))
		if err != nil {
			return nil, fmt.Errorf("available balance on %s: %w", rc.Route.Origin, err)
		}
		reserve, _ := money.ParseAmount(rc.Reserve)
		if reserve != nil {
			avail = new(big.Int).Sub(avail, reserve)
			if avail.Sign() < 0 {
				avail = big.NewInt(0)
			}
		}
		candidates = append(candidates, rc)
		originAvailable[routeKey(rc)] = avail
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return originAvailable[routeKey(candidates[i])].Cmp(originAvailable[routeKey(candidates[j])]) > 0
	})

	var ops []PlannedOperation
	remaining := new(big.Int).Set(shortfall)

	for _, rc := range candidates {
		if remaining.Cmp(roundingTolerance18) <= 0 {
			break
		}
		avail := originAvailable[routeKey(rc)]
		if avail.Sign() <= 0 {
			continue
		}

		op, received18, accepted, err := p.tryRoute(ctx, invoice, rc, remaining, avail)
		if err != nil {
			return nil, fmt.Errorf("try route %s->%s: %w", rc.Route.Origin, rc.Route.Destination, err)
		}
		if !accepted {
			continue
		}
		ops = append(ops, *op)
		remaining = new(big.Int).Sub(remaining, received18)
		if remaining.Sign() < 0 {
			remaining = big.NewInt(0)
		}
	}

	if remaining.Cmp(roundingTolerance18) > 0 {
		return nil, nil // this destination could not be fully satisfied
	}

	return &PlanResult{
		CanRebalance:  true,
		Destination:   dest,
		Operations:    ops,
		TotalAmount18: need,
	}, nil
}

func routeKey(rc *entities.OnDemandRouteConfig) string {
	return rc.Route.Origin + "|" + rc.Route.Destination + "|" + rc.Route.Asset + "|" + rc.Route.DestinationAsset
}

func (p *Planner) assetSymbol(ctx context.Context, chainID, tickerHash string) (string, error) {
	cfg, err := p.assets.GetByChainAndTicker(ctx, chainID, tickerHash)
	if err != nil {
		return "", err
	}
	return cfg.Symbol, nil
}

func (p *Planner) decimalsOn(ctx context.Context, chainID, tickerHash string) (int, error) {
	cfg, err := p.assets.GetByChainAndTicker(ctx, chainID, tickerHash)
	if err != nil {
		return 0, err
	}
	return cfg.Decimals, nil
}

// tryRoute walks rc.Preferences in order and returns the first one whose
// observed slippage is within its budget. accepted is false when every
// preference was rejected or errored.
func (p *Planner) tryRoute(ctx context.Context, invoice entities.Invoice, rc *entities.OnDemandRouteConfig, shortfall, availableOrigin18 *big.Int) (*PlannedOperation, *big.Int, bool, error) {
	originDecimals, err := p.decimalsOn(ctx, rc.Route.Origin, invoice.TickerHash)
	if err != nil {
		return nil, nil, false, nil
	}
	destDecimals, err := p.decimalsOn(ctx, rc.Route.Destination, invoice.TickerHash)
	if err != nil {
		return nil, nil, false, nil
	}

	for i, kind := range rc.Preferences {
		budget := rc.SlippagesDbps[i]
		adapter, err := p.bridges.Get(kind)
		if err != nil {
			continue
		}

		if rc.Route.IsSwap() {
			op, received18, ok := p.trySwapAndBridge(ctx, adapter, rc, budget, availableOrigin18, originDecimals, destDecimals)
			if ok {
				return op, received18, true, nil
			}
			continue
		}

		op, received18, ok := p.trySameAssetBridge(ctx, adapter, rc, kind, budget, shortfall, availableOrigin18, originDecimals, destDecimals)
		if ok {
			return op, received18, true, nil
		}
	}
	return nil, nil, false, nil
}

func (p *Planner) trySameAssetBridge(
	ctx context.Context,
	adapter bridge.Adapter,
	rc *entities.OnDemandRouteConfig,
	kind entities.BridgeKind,
	budget uint32,
	shortfall, availableOrigin18 *big.Int,
	originDecimals, destDecimals int,
) (*PlannedOperation, *big.Int, bool) {
	grossed18 := money.GrossUpForSlippage(shortfall, budget)
	sendAmount18 := grossed18
	if sendAmount18.Cmp(availableOrigin18) > 0 {
		sendAmount18 = availableOrigin18
	}
	sendNative := money.ToNative(sendAmount18, originDecimals)
	if sendNative.Sign() <= 0 {
		return nil, nil, false
	}

	receivedNative, err := adapter.Quote(ctx, sendNative, rc.Route)
	if err != nil {
		return nil, nil, false // transient/permanent: planner just advances
	}
	received18 := money.To18(receivedNative, destDecimals)
	observed := money.SlippageDbps(sendAmount18, received18)
	if observed > budget {
		return nil, nil, false
	}

	return &PlannedOperation{
		Route:         rc.Route,
		Bridge:        kind,
		OperationType: entities.OperationTypeBridge,
		SendNative:    sendNative,
		Received18:    received18,
		ObservedDbps:  observed,
	}, received18, true
}

func (p *Planner) trySwapAndBridge(
	ctx context.Context,
	adapter bridge.Adapter,
	rc *entities.OnDemandRouteConfig,
	budget uint32,
	availableOrigin18 *big.Int,
	originDecimals, destDecimals int,
) (*PlannedOperation, *big.Int, bool) {
	swapAdapter, ok := bridge.AsSwapCapable(adapter)
	if !ok {
		return nil, nil, false
	}
	fromSymbol := rc.Route.Asset
	toSymbol := rc.Route.DestinationAsset
	if !swapAdapter.SupportsSwap(fromSymbol, toSymbol) {
		return nil, nil, false
	}

	exchangeInfo, err := swapAdapter.SwapExchangeInfo(ctx, fromSymbol, toSymbol)
	if err != nil {
		return nil, nil, false
	}

	availableOriginNative := money.ToNative(availableOrigin18, originDecimals)
	configuredMinNative := money.ToNative(parseOrZero(rc.MinSwapAmount), originDecimals)
	doubledPlatformMin := new(big.Int)
	if exchangeInfo.MinNative != nil {
		doubledPlatformMin.Mul(exchangeInfo.MinNative, big.NewInt(2))
	}
	minGate := money.Max(configuredMinNative, doubledPlatformMin)
	if availableOriginNative.Cmp(minGate) < 0 {
		return nil, nil, false
	}

	swapQuote, err := swapAdapter.SwapQuote(ctx, fromSymbol, toSymbol, availableOriginNative)
	if err != nil || swapQuote.ToAmount == nil {
		return nil, nil, false
	}

	bridgeReceivedNative, err := adapter.Quote(ctx, swapQuote.ToAmount, rc.Route)
	if err != nil {
		return nil, nil, false
	}
	bridgeReceived18 := money.To18(bridgeReceivedNative, destDecimals)
	combined := money.SlippageDbps(availableOrigin18, bridgeReceived18)
	if combined > budget {
		return nil, nil, false
	}

	swapSent18 := money.To18(availableOriginNative, originDecimals)
	observedSwapDbps := money.SlippageDbps(swapSent18, money.To18(swapQuote.ToAmount, originDecimals))

	meta := &entities.SwapMetadata{
		FromSymbol:         fromSymbol,
		ToSymbol:           toSymbol,
		ExpectedFrom:       availableOriginNative.String(),
		ExpectedTo:         swapQuote.ToAmount.String(),
		ObservedSwapDbps:   observedSwapDbps,
		ObservedBridgeDbps: combined,
		TotalBudgetDbps:    budget,
	}

	return &PlannedOperation{
		Route:         rc.Route,
		Bridge:        adapter.Kind(),
		OperationType: entities.OperationTypeSwapAndBridge,
		SendNative:    availableOriginNative,
		Received18:    bridgeReceived18,
		ObservedDbps:  combined,
		Swap:          meta,
	}, bridgeReceived18, true
}

func parseOrZero(s string) *big.Int {
	if s == "" {
		return big.NewInt(0)
	}
	n, err := money.ParseAmount(s)
	if err != nil {
		return big.NewInt(0)
	}
	return n
}
