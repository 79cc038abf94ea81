package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"mark/internal/domain/entities"
	domainerrors "mark/internal/domain/errors"
	"mark/internal/domain/money"
	domainrepos "mark/internal/domain/repositories"
	"mark/internal/usecases/metrics"
	"mark/pkg/logger"
)

// HubClient is the subset of the hub's REST surface the event processor
// needs. Satisfied by *everclear.Client; modeled as an interface here so the
// engine's orchestration layer never imports an infrastructure package.
type HubClient interface {
	GetInvoice(ctx context.Context, id string) (*entities.Invoice, error)
	GetMinAmounts(ctx context.Context, id string) (entities.MinAmounts, error)
}

// notFounder is implemented by *everclear.StatusError; checked via
// errors.As so HubClient's contract stays narrow.
type notFounder interface {
	NotFound() bool
}

// PurchaseCache is the ephemeral record the event processor stashes once it
// commits to a purchase, keyed by invoiceId. Satisfied by *cache.PurchaseCache.
type PurchaseCache interface {
	Put(ctx context.Context, record entities.PurchaseRecord) error
	Get(ctx context.Context, invoiceID string) (entities.PurchaseRecord, bool, error)
	Remove(ctx context.Context, invoiceID string) error
}

// PauseFlags is the subset of the process-wide pause switches the event
// processor reads. Satisfied by *cache.PauseFlags.
type PauseFlags interface {
	PurchasePaused(ctx context.Context) (bool, error)
}

// PurchaseSplitter decides, for an invoice that is not being rebalanced
// toward, how to split Mark's own available liquidity into one or more
// purchase intents sent to the hub. Its concrete strategy (quote
// aggregation, gas-cost aware splitting) sits outside this engine's scope.
type PurchaseSplitter interface {
	SplitAndSendIntents(ctx context.Context, invoice entities.Invoice, available, custodied Balances, minAmounts entities.MinAmounts) ([]entities.PurchaseRecord, error)
}

// EventProcessor is the Handler the webhook-fed Queue drives: it turns one
// InvoiceEnqueued or SettlementEnqueued event into an Outcome.
type EventProcessor struct {
	hub        HubClient
	chains     domainrepos.ChainRepository
	assets     domainrepos.AssetConfigRepository
	earmarks   domainrepos.EarmarkRepository
	balances   *BalanceAccounting
	planner    *Planner
	executor   *Executor
	purchases  PurchaseCache
	pauses     PauseFlags
	splitter   PurchaseSplitter
	maxInvoiceAge time.Duration
}

// NewEventProcessor wires an EventProcessor over its collaborators.
func NewEventProcessor(
	hub HubClient,
	chains domainrepos.ChainRepository,
	assets domainrepos.AssetConfigRepository,
	earmarks domainrepos.EarmarkRepository,
	balances *BalanceAccounting,
	planner *Planner,
	executor *Executor,
	purchases PurchaseCache,
	pauses PauseFlags,
	splitter PurchaseSplitter,
	maxInvoiceAge time.Duration,
) *EventProcessor {
	return &EventProcessor{
		hub:           hub,
		chains:        chains,
		assets:        assets,
		earmarks:      earmarks,
		balances:      balances,
		planner:       planner,
		executor:      executor,
		purchases:     purchases,
		pauses:        pauses,
		splitter:      splitter,
		maxInvoiceAge: maxInvoiceAge,
	}
}

// Process dispatches on entry.Type, implementing the Handler interface the
// Queue calls.
func (p *EventProcessor) Process(ctx context.Context, entry Entry) Outcome {
	switch entry.Type {
	case entities.EventTypeInvoiceEnqueued:
		return p.processInvoiceEnqueued(ctx, entry.ID)
	case entities.EventTypeSettlementEnqueued:
		return p.processSettlementEnqueued(ctx, entry.ID)
	default:
		logger.Error(ctx, "event processor: unknown event type", zap.String("invoiceId", entry.ID), zap.String("type", string(entry.Type)))
		return Invalid()
	}
}

func (p *EventProcessor) processInvoiceEnqueued(ctx context.Context, invoiceID string) Outcome {
	invoice, err := p.hub.GetInvoice(ctx, invoiceID)
	if err != nil {
		var nf notFounder
		if stderrors.As(err, &nf) && nf.NotFound() {
			p.cleanupStaleEarmarks(ctx, invoiceID)
			return Success()
		}
		logger.Error(ctx, "event processor: fetch invoice", zap.String("invoiceId", invoiceID), zap.Error(err))
		return Failure(60 * time.Second)
	}

	if verr := p.validate(ctx, *invoice); verr != nil {
		if kind, ok := domainerrors.KindOf(verr); ok && kind == domainerrors.KindValidationTransient {
			return Failure(60 * time.Second)
		}
		return Invalid()
	}

	if invoice.SupportsXERC20 {
		return Invalid()
	}

	minAmounts, err := p.hub.GetMinAmounts(ctx, invoiceID)
	if err != nil {
		logger.Error(ctx, "event processor: fetch min amounts", zap.String("invoiceId", invoiceID), zap.Error(err))
		return Failure(60 * time.Second)
	}

	if outcome := p.reconcileEarmark(ctx, *invoice, minAmounts); outcome != nil {
		return *outcome
	}

	paused, err := p.pauses.PurchasePaused(ctx)
	if err != nil {
		logger.Error(ctx, "event processor: read purchase pause flag", zap.Error(err))
		return Failure(60 * time.Second)
	}
	if paused {
		return Failure(60 * time.Second)
	}

	if _, ok, err := p.purchases.Get(ctx, invoiceID); err != nil {
		logger.Error(ctx, "event processor: read purchase cache", zap.String("invoiceId", invoiceID), zap.Error(err))
		return Failure(60 * time.Second)
	} else if ok {
		return Success()
	}

	available, err := p.balances.MarkBalances(ctx)
	if err != nil {
		logger.Error(ctx, "event processor: mark balances", zap.Error(err))
		return Failure(60 * time.Second)
	}
	// Custodied/pending-incoming balances are fed by an upstream deposit
	// watcher outside this engine; until wired, the processor purchases
	// only against Mark's own observed on-chain balances.
	custodied := Balances{}

	purchases, err := p.splitter.SplitAndSendIntents(ctx, *invoice, available, custodied, minAmounts)
	if err != nil {
		logger.Error(ctx, "event processor: split and send intents", zap.String("invoiceId", invoiceID), zap.Error(err))
		return Failure(60 * time.Second)
	}
	if len(purchases) == 0 {
		return Failure(10 * time.Second)
	}

	for _, record := range purchases {
		record.InvoiceID = invoiceID
		record.CachedAt = time.Now()
		if record.HubEnqueuedAt.IsZero() {
			record.HubEnqueuedAt = invoice.EnqueuedAt
		}
		if err := p.purchases.Put(ctx, record); err != nil {
			logger.Error(ctx, "event processor: cache purchase record", zap.String("invoiceId", invoiceID), zap.Error(err))
			return Failure(60 * time.Second)
		}
	}

	p.cleanupCompletedEarmarks(ctx, invoiceID)
	return Success()
}

// reconcileEarmark handles a pending on-demand rebalance toward invoice, if
// one exists or is newly required, before any purchase attempt. Returns a
// non-nil Outcome when the event's lifecycle ends or defers here; nil means
// fall through to the purchase path with minAmounts as returned (possibly
// narrowed to a single destination).
func (p *EventProcessor) reconcileEarmark(ctx context.Context, invoice entities.Invoice, minAmounts entities.MinAmounts) *Outcome {
	active, err := p.earmarks.GetActiveForInvoice(ctx, invoice.IntentID)
	if err != nil {
		logger.Error(ctx, "event processor: read active earmark", zap.String("invoiceId", invoice.IntentID), zap.Error(err))
		out := Failure(60 * time.Second)
		return &out
	}

	if active == nil {
		return p.planNewEarmark(ctx, invoice, minAmounts)
	}

	// The hub can raise an invoice's minAmount on a destination Mark has
	// already committed operations toward; that takes priority over the
	// status-based rules below, which assume the earmark's recorded
	// minAmount is still the full requirement.
	if currentStr, ok := minAmounts[active.DesignatedPurchaseChain]; ok {
		increased, extra18, current18, err := p.minAmountIncreased(active, currentStr)
		if err != nil {
			logger.Error(ctx, "event processor: compare min amounts", zap.String("invoiceId", invoice.IntentID), zap.Error(err))
			out := Failure(60 * time.Second)
			return &out
		}
		if increased {
			return p.handleMinAmountIncrease(ctx, invoice, active, current18, extra18)
		}
	}

	switch active.Status {
	case entities.EarmarkStatusInitiating, entities.EarmarkStatusPending:
		out := Continue(10 * time.Second)
		return &out
	case entities.EarmarkStatusReady:
		// The earmark's rebalance already landed; only its designated chain
		// is eligible for a direct purchase now.
		for dest := range minAmounts {
			if dest != active.DesignatedPurchaseChain {
				delete(minAmounts, dest)
			}
		}
	}
	return nil
}

func (p *EventProcessor) planNewEarmark(ctx context.Context, invoice entities.Invoice, minAmounts entities.MinAmounts) *Outcome {
	plan, err := p.planner.Plan(ctx, invoice, minAmounts)
	if err != nil {
		logger.Error(ctx, "event processor: plan rebalance", zap.String("invoiceId", invoice.IntentID), zap.Error(err))
		out := Failure(60 * time.Second)
		return &out
	}
	if !plan.CanRebalance || len(plan.Operations) == 0 {
		return nil
	}

	earmark, err := p.executor.Execute(ctx, invoice, plan)
	if err != nil {
		logger.Error(ctx, "event processor: execute rebalance plan", zap.String("invoiceId", invoice.IntentID), zap.Error(err))
		out := Failure(60 * time.Second)
		return &out
	}
	if earmark != nil {
		out := Continue(10 * time.Second)
		return &out
	}
	return nil
}

func (p *EventProcessor) minAmountIncreased(active *entities.Earmark, currentStr string) (increased bool, extra18, current18 *big.Int, err error) {
	current, err := money.ParseAmount(currentStr)
	if err != nil {
		return false, nil, nil, fmt.Errorf("parse current min amount: %w", err)
	}
	recorded, err := money.ParseAmount(active.MinAmount)
	if err != nil {
		return false, nil, nil, fmt.Errorf("parse earmark min amount: %w", err)
	}
	if current.Cmp(recorded) <= 0 {
		return false, nil, nil, nil
	}
	extra := new(big.Int).Sub(current, recorded)
	return true, extra, current, nil
}

func (p *EventProcessor) handleMinAmountIncrease(ctx context.Context, invoice entities.Invoice, active *entities.Earmark, current18, extra18 *big.Int) *Outcome {
	restricted := entities.Invoice{
		IntentID:     invoice.IntentID,
		TickerHash:   invoice.TickerHash,
		Owner:        invoice.Owner,
		Destinations: []string{active.DesignatedPurchaseChain},
		EnqueuedAt:   invoice.EnqueuedAt,
	}
	extraMinAmounts := entities.MinAmounts{active.DesignatedPurchaseChain: extra18.String()}

	plan, err := p.planner.Plan(ctx, restricted, extraMinAmounts)
	if err != nil {
		logger.Error(ctx, "event processor: plan min amount increase", zap.String("invoiceId", invoice.IntentID), zap.Error(err))
		out := Failure(60 * time.Second)
		return &out
	}
	if !plan.CanRebalance || len(plan.Operations) == 0 {
		if err := p.earmarks.UpdateStatus(ctx, active.ID, entities.EarmarkStatusCancelled); err != nil {
			logger.Error(ctx, "event processor: cancel earmark after infeasible increase", zap.String("earmarkId", active.ID.String()), zap.Error(err))
		}
		out := Failure(60 * time.Second)
		return &out
	}

	if err := p.executor.ExecuteAdditional(ctx, invoice, active, plan.Operations, current18); err != nil {
		logger.Error(ctx, "event processor: execute min amount increase", zap.String("invoiceId", invoice.IntentID), zap.Error(err))
		out := Failure(60 * time.Second)
		return &out
	}
	out := Continue(10 * time.Second)
	return &out
}

// validate runs the permanent/transient checks spec'd before any rebalance
// or purchase work starts: invoice age, self-ownership, and destination/
// ticker configuration.
func (p *EventProcessor) validate(ctx context.Context, invoice entities.Invoice) error {
	if p.maxInvoiceAge > 0 && !invoice.EnqueuedAt.IsZero() && time.Since(invoice.EnqueuedAt) > p.maxInvoiceAge {
		return domainerrors.NewKinded(domainerrors.KindValidationPermanent, fmt.Errorf("invoice %s older than %s", invoice.IntentID, p.maxInvoiceAge))
	}

	for _, dest := range invoice.Destinations {
		chain, err := p.chains.GetByChainID(ctx, dest)
		if err == nil && chain.Wallet() != "" && chain.Wallet() == invoice.Owner {
			return domainerrors.NewKinded(domainerrors.KindValidationPermanent, fmt.Errorf("invoice %s owned by Mark's own wallet", invoice.IntentID))
		}
	}

	var configured bool
	for _, dest := range invoice.Destinations {
		if _, err := p.assets.GetByChainAndTicker(ctx, dest, invoice.TickerHash); err == nil {
			configured = true
			break
		}
	}
	if !configured {
		return domainerrors.NewKinded(domainerrors.KindValidationPermanent, fmt.Errorf("invoice %s: no configured destination for ticker %s", invoice.IntentID, invoice.TickerHash))
	}
	return nil
}

func (p *EventProcessor) cleanupStaleEarmarks(ctx context.Context, invoiceID string) {
	active, err := p.earmarks.GetActiveForInvoice(ctx, invoiceID)
	if err != nil {
		logger.Error(ctx, "event processor: cleanup stale earmarks", zap.String("invoiceId", invoiceID), zap.Error(err))
		return
	}
	if active == nil {
		return
	}
	if err := p.earmarks.UpdateStatus(ctx, active.ID, entities.EarmarkStatusCancelled); err != nil {
		logger.Error(ctx, "event processor: cancel stale earmark", zap.String("earmarkId", active.ID.String()), zap.Error(err))
	}
}

func (p *EventProcessor) cleanupCompletedEarmarks(ctx context.Context, invoiceID string) {
	active, err := p.earmarks.GetActiveForInvoice(ctx, invoiceID)
	if err != nil {
		logger.Error(ctx, "event processor: cleanup completed earmarks", zap.String("invoiceId", invoiceID), zap.Error(err))
		return
	}
	if active == nil || active.Status != entities.EarmarkStatusReady {
		return
	}
	if err := p.earmarks.UpdateStatus(ctx, active.ID, entities.EarmarkStatusCompleted); err != nil {
		logger.Error(ctx, "event processor: complete earmark", zap.String("earmarkId", active.ID.String()), zap.Error(err))
	}
}

func (p *EventProcessor) processSettlementEnqueued(ctx context.Context, invoiceID string) Outcome {
	record, ok, err := p.purchases.Get(ctx, invoiceID)
	if err != nil {
		logger.Error(ctx, "event processor: read purchase cache on settlement", zap.String("invoiceId", invoiceID), zap.Error(err))
	} else if ok {
		metrics.ObserveClearance(record.Destination, record.HubEnqueuedAt, time.Now())
	}

	if err := p.purchases.Remove(ctx, invoiceID); err != nil {
		logger.Error(ctx, "event processor: remove purchase cache", zap.String("invoiceId", invoiceID), zap.Error(err))
	}
	return Success()
}
