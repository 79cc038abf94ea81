package errors

import stderrors "errors"

// Kind classifies an error the way the engine's queue, planner and executor
// need to route it: retry now, retry later, advance to the next preference,
// or give up permanently. See the error-handling design: every error the
// event pipeline raises carries one of these kinds.
type Kind string

const (
	// KindValidationPermanent marks an event Invalid; it is never retried.
	KindValidationPermanent Kind = "ValidationPermanent"
	// KindValidationTransient marks an event Failure with a retry-after.
	KindValidationTransient Kind = "ValidationTransient"
	// KindUpstreamMissing signals the hub returned 404 for an invoice.
	KindUpstreamMissing Kind = "UpstreamMissing"
	// KindAdapterPermanent signals a bridge/CEX adapter rejected the request
	// in a way that will never succeed on retry (asset unsupported, amount
	// below minimum, quote expired, below balance, invalid request,
	// unauthorized).
	KindAdapterPermanent Kind = "AdapterPermanent"
	// KindAdapterTransient signals a network or rate-limit error; the
	// adapter itself retries up to 3 times with capped backoff before this
	// surfaces to the core.
	KindAdapterTransient Kind = "AdapterTransient"
	// KindBelowSlippageBudget signals a quote's observed dBps exceeded the
	// configured budget.
	KindBelowSlippageBudget Kind = "BelowSlippageBudget"
	// KindActiveEarmarkExists signals a concurrent executor already created
	// the active earmark for this invoice (unique partial-index conflict).
	KindActiveEarmarkExists Kind = "ActiveEarmarkExists"
	// KindRecordAfterSuccess signals a confirmed on-chain submission whose
	// database write failed; this is the only accepted unrecoverable
	// inconsistency and is always logged at error level.
	KindRecordAfterSuccess Kind = "RecordAfterSuccess"
)

// KindedError wraps an underlying error with a taxonomy Kind so callers can
// route on kind without string-matching messages.
type KindedError struct {
	Kind Kind
	Err  error
}

func (e *KindedError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *KindedError) Unwrap() error { return e.Err }

// Is reports whether target is a *KindedError with the same Kind, so callers
// can do `errors.Is(err, &KindedError{Kind: KindAdapterPermanent})`.
func (e *KindedError) Is(target error) bool {
	other, ok := target.(*KindedError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// NewKinded wraps err with the given taxonomy kind.
func NewKinded(kind Kind, err error) *KindedError {
	return &KindedError{Kind: kind, Err: err}
}

// KindOf extracts the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var ke *KindedError
	if ok := asKindedError(err, &ke); ok {
		return ke.Kind, true
	}
	return "", false
}

func asKindedError(err error, target **KindedError) bool {
	for err != nil {
		if ke, ok := err.(*KindedError); ok {
			*target = ke
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// ErrActiveEarmarkExists is the sentinel compared against the partial-unique
// index violation surfaced by the earmark store.
var ErrActiveEarmarkExists = NewKinded(KindActiveEarmarkExists, stderrors.New("active earmark already exists for invoice"))

// ErrRecordAfterSuccess marks the accepted inconsistency where a chain
// submission confirmed but the database write describing it failed.
func ErrRecordAfterSuccess(cause error) *KindedError {
	return NewKinded(KindRecordAfterSuccess, cause)
}

// ErrBelowSlippageBudget reports an observed rate worse than budget.
func ErrBelowSlippageBudget(observedDbps, budgetDbps uint32) *KindedError {
	return NewKinded(KindBelowSlippageBudget, &slippageError{observed: observedDbps, budget: budgetDbps})
}

type slippageError struct {
	observed, budget uint32
}

func (e *slippageError) Error() string {
	return "observed slippage exceeds budget"
}
