package usecases

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"mark/internal/domain/bridge"
	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	domainrepos "mark/internal/domain/repositories"
)

// --- ChainRepository ---

type fakeChainRepo struct {
	byChainID map[string]*entities.Chain
}

func newFakeChainRepo() *fakeChainRepo { return &fakeChainRepo{byChainID: map[string]*entities.Chain{}} }

func (f *fakeChainRepo) add(c *entities.Chain) { f.byChainID[c.ChainID] = c }

func (f *fakeChainRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Chain, error) {
	for _, c := range f.byChainID {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (f *fakeChainRepo) GetByChainID(ctx context.Context, chainID string) (*entities.Chain, error) {
	c, ok := f.byChainID[chainID]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return c, nil
}

func (f *fakeChainRepo) GetActive(ctx context.Context) ([]*entities.Chain, error) {
	var out []*entities.Chain
	for _, c := range f.byChainID {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChainRepo) Create(ctx context.Context, chain *entities.Chain) error {
	f.byChainID[chain.ChainID] = chain
	return nil
}

func (f *fakeChainRepo) Update(ctx context.Context, chain *entities.Chain) error {
	f.byChainID[chain.ChainID] = chain
	return nil
}

// --- AssetConfigRepository ---

type fakeAssetConfigRepo struct {
	items []*entities.AssetConfig
}

func (f *fakeAssetConfigRepo) add(cfg *entities.AssetConfig) { f.items = append(f.items, cfg) }

func (f *fakeAssetConfigRepo) GetByChainAndTicker(ctx context.Context, chainID, tickerHash string) (*entities.AssetConfig, error) {
	for _, c := range f.items {
		if c.ChainID == chainID && c.TickerHash == tickerHash {
			return c, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (f *fakeAssetConfigRepo) ListByTicker(ctx context.Context, tickerHash string) ([]*entities.AssetConfig, error) {
	var out []*entities.AssetConfig
	for _, c := range f.items {
		if c.TickerHash == tickerHash {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAssetConfigRepo) ListAll(ctx context.Context) ([]*entities.AssetConfig, error) {
	return f.items, nil
}

// --- EarmarkRepository ---

type fakeEarmarkRepo struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*entities.Earmark
}

func newFakeEarmarkRepo() *fakeEarmarkRepo {
	return &fakeEarmarkRepo{byID: map[uuid.UUID]*entities.Earmark{}}
}

func (f *fakeEarmarkRepo) Create(ctx context.Context, earmark *entities.Earmark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if earmark.ID == uuid.Nil {
		earmark.ID = uuid.New()
	}
	for _, e := range f.byID {
		if e.InvoiceID == earmark.InvoiceID && e.IsActive() {
			return domainerrors.ErrActiveEarmarkExists
		}
	}
	now := time.Now()
	earmark.CreatedAt, earmark.UpdatedAt = now, now
	f.byID[earmark.ID] = earmark
	return nil
}

func (f *fakeEarmarkRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Earmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return e, nil
}

func (f *fakeEarmarkRepo) GetActiveForInvoice(ctx context.Context, invoiceID string) (*entities.Earmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.InvoiceID == invoiceID && e.IsActive() {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeEarmarkRepo) GetEarmarks(ctx context.Context, filter domainrepos.EarmarkFilter) ([]*entities.Earmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Earmark
	for _, e := range f.byID {
		if filter.InvoiceID != "" && e.InvoiceID != filter.InvoiceID {
			continue
		}
		if filter.DesignatedPurchaseChain != "" && e.DesignatedPurchaseChain != filter.DesignatedPurchaseChain {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(e.Status, filter.Statuses) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func statusIn(s entities.EarmarkStatus, set []entities.EarmarkStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func (f *fakeEarmarkRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.EarmarkStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return nil
}

func (f *fakeEarmarkRepo) UpdateMinAmount(ctx context.Context, id uuid.UUID, minAmount string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	e.MinAmount = minAmount
	e.UpdatedAt = time.Now()
	return nil
}

// --- RebalanceOperationRepository ---

type fakeRebalanceRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*entities.RebalanceOperation
}

func newFakeRebalanceRepo() *fakeRebalanceRepo {
	return &fakeRebalanceRepo{byID: map[uuid.UUID]*entities.RebalanceOperation{}}
}

func (f *fakeRebalanceRepo) Create(ctx context.Context, op *entities.RebalanceOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	now := time.Now()
	op.CreatedAt, op.UpdatedAt = now, now
	f.byID[op.ID] = op
	return nil
}

func (f *fakeRebalanceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.RebalanceOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.byID[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return op, nil
}

func (f *fakeRebalanceRepo) GetRebalanceOperations(ctx context.Context, filter domainrepos.RebalanceOperationFilter) ([]*entities.RebalanceOperation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.RebalanceOperation
	for _, op := range f.byID {
		if filter.DestinationChainID != "" && op.DestinationChainID != filter.DestinationChainID {
			continue
		}
		if filter.TickerHash != "" && op.TickerHash != filter.TickerHash {
			continue
		}
		if len(filter.Statuses) > 0 && !rebalanceStatusIn(op.Status, filter.Statuses) {
			continue
		}
		out = append(out, op)
	}
	return out, int64(len(out)), nil
}

func rebalanceStatusIn(s entities.RebalanceOperationStatus, set []entities.RebalanceOperationStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func (f *fakeRebalanceRepo) GetRebalanceOperationsByEarmark(ctx context.Context, earmarkID uuid.UUID) ([]*entities.RebalanceOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.RebalanceOperation
	for _, op := range f.byID {
		if op.EarmarkID != nil && *op.EarmarkID == earmarkID {
			out = append(out, op)
		}
	}
	return out, nil
}

func (f *fakeRebalanceRepo) Update(ctx context.Context, id uuid.UUID, update domainrepos.RebalanceOperationUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.byID[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	if update.Status != "" {
		op.Status = update.Status
	}
	if update.Transactions != nil {
		if op.Transactions == nil {
			op.Transactions = map[string]entities.TxReceipt{}
		}
		for k, v := range update.Transactions {
			op.Transactions[k] = v
		}
	}
	op.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRebalanceRepo) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	cutoff := time.Now().Add(-olderThan)
	for _, op := range f.byID {
		if !op.IsOpen() {
			continue
		}
		if op.CreatedAt.Before(cutoff) {
			op.Status = entities.RebalanceStatusExpired
			op.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// --- RouteConfigRepository ---

type fakeRouteConfigRepo struct {
	items []*entities.OnDemandRouteConfig
}

func (f *fakeRouteConfigRepo) add(cfg *entities.OnDemandRouteConfig) { f.items = append(f.items, cfg) }

func (f *fakeRouteConfigRepo) GetByRoute(ctx context.Context, route entities.Route) (*entities.OnDemandRouteConfig, error) {
	for _, c := range f.items {
		if c.Route == route {
			return c, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (f *fakeRouteConfigRepo) ListByDestination(ctx context.Context, dest string) ([]*entities.OnDemandRouteConfig, error) {
	var out []*entities.OnDemandRouteConfig
	for _, c := range f.items {
		if c.Route.Destination == dest {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRouteConfigRepo) Create(ctx context.Context, cfg *entities.OnDemandRouteConfig) error {
	f.items = append(f.items, cfg)
	return nil
}

func (f *fakeRouteConfigRepo) Update(ctx context.Context, cfg *entities.OnDemandRouteConfig) error { return nil }

func (f *fakeRouteConfigRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

// --- SwapOperationRepository ---

type fakeSwapRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*entities.SwapOperation
}

func newFakeSwapRepo() *fakeSwapRepo {
	return &fakeSwapRepo{byID: map[uuid.UUID]*entities.SwapOperation{}}
}

func (f *fakeSwapRepo) Create(ctx context.Context, swap *entities.SwapOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if swap.ID == uuid.Nil {
		swap.ID = uuid.New()
	}
	f.byID[swap.ID] = swap
	return nil
}

func (f *fakeSwapRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.SwapOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return s, nil
}

func (f *fakeSwapRepo) GetByRebalanceOperation(ctx context.Context, rebalanceOperationID uuid.UUID) (*entities.SwapOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if s.RebalanceOperationID == rebalanceOperationID {
			return s, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (f *fakeSwapRepo) GetOpen(ctx context.Context) ([]*entities.SwapOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.SwapOperation
	for _, s := range f.byID {
		if !s.IsTerminal() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSwapRepo) Update(ctx context.Context, swap *entities.SwapOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[swap.ID] = swap
	return nil
}

// --- UnitOfWork ---

type fakeUnitOfWork struct{}

func (fakeUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeUnitOfWork) WithLock(ctx context.Context) context.Context { return ctx }

// --- chainservice.Service ---

type fakeChainService struct {
	mu            sync.Mutex
	balances      map[string]map[string]*big.Int // chainID -> owner -> native balance
	submitErr     error
	submitReceipt entities.TxReceipt
}

func newFakeChainService() *fakeChainService {
	return &fakeChainService{balances: map[string]map[string]*big.Int{}}
}

func (f *fakeChainService) setBalance(chainID, owner string, amount *big.Int) {
	if f.balances[chainID] == nil {
		f.balances[chainID] = map[string]*big.Int{}
	}
	f.balances[chainID][owner] = amount
}

func (f *fakeChainService) SubmitAndMonitor(ctx context.Context, chainID string, tx *gethtypes.Transaction) (entities.TxReceipt, error) {
	if f.submitErr != nil {
		return entities.TxReceipt{}, f.submitErr
	}
	if f.submitReceipt.TxHash == "" {
		return entities.TxReceipt{TxHash: "0xsubmitted", BlockNumber: 1, Confirmations: 2}, nil
	}
	return f.submitReceipt, nil
}

func (f *fakeChainService) GetTransactionReceipt(ctx context.Context, chainID, txHash string) (entities.TxReceipt, error) {
	return entities.TxReceipt{TxHash: txHash, BlockNumber: 1, Confirmations: 2}, nil
}

func (f *fakeChainService) GetBalance(ctx context.Context, chainID, ownerAddress, tokenAddress string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byOwner, ok := f.balances[chainID]
	if !ok {
		return big.NewInt(0), nil
	}
	amt, ok := byOwner[ownerAddress]
	if !ok {
		return big.NewInt(0), nil
	}
	return amt, nil
}

func (f *fakeChainService) ReadTx(ctx context.Context, chainID, txHash string) (*gethtypes.Transaction, bool, error) {
	return nil, false, nil
}

// --- bridge.Adapter ---

type fakeAdapter struct {
	kind          entities.BridgeKind
	quoteReceived *big.Int
	quoteErr      error
	sendMemos     []bridge.MemoTx
	sendErr       error
	readyOn       bool
	callbackTx    *bridge.MemoTx

	supportsSwap bool
	exchangeInfo bridge.ExchangeInfo
	swapQuote    bridge.SwapQuote
	swapExec     bridge.SwapExecution
	swapStatus   entities.SwapOperationStatus
}

func (a *fakeAdapter) Kind() entities.BridgeKind { return a.kind }

func (a *fakeAdapter) Quote(ctx context.Context, amountNative *big.Int, route entities.Route) (*big.Int, error) {
	if a.quoteErr != nil {
		return nil, a.quoteErr
	}
	if a.quoteReceived != nil {
		return a.quoteReceived, nil
	}
	return amountNative, nil
}

func (a *fakeAdapter) Send(ctx context.Context, sender, recipient string, amountNative *big.Int, route entities.Route) ([]bridge.MemoTx, error) {
	if a.sendErr != nil {
		return nil, a.sendErr
	}
	if a.sendMemos != nil {
		return a.sendMemos, nil
	}
	return []bridge.MemoTx{{Memo: bridge.MemoRebalance, EffectiveAmount: amountNative}}, nil
}

func (a *fakeAdapter) ReadyOnDestination(ctx context.Context, amountNative *big.Int, route entities.Route, originReceipt entities.TxReceipt) (bool, error) {
	return a.readyOn, nil
}

func (a *fakeAdapter) DestinationCallback(ctx context.Context, route entities.Route, originReceipt entities.TxReceipt) (*bridge.MemoTx, error) {
	return a.callbackTx, nil
}

func (a *fakeAdapter) SupportsSwap(fromSymbol, toSymbol string) bool { return a.supportsSwap }

func (a *fakeAdapter) SwapExchangeInfo(ctx context.Context, fromSymbol, toSymbol string) (bridge.ExchangeInfo, error) {
	return a.exchangeInfo, nil
}

func (a *fakeAdapter) SwapQuote(ctx context.Context, fromSymbol, toSymbol string, amountNative *big.Int) (bridge.SwapQuote, error) {
	return a.swapQuote, nil
}

func (a *fakeAdapter) ExecuteSwap(ctx context.Context, quote bridge.SwapQuote) (bridge.SwapExecution, error) {
	return a.swapExec, nil
}

func (a *fakeAdapter) SwapStatus(ctx context.Context, orderID string) (entities.SwapOperationStatus, error) {
	return a.swapStatus, nil
}
