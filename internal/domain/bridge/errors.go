package bridge

import (
	"errors"

	domainerrors "mark/internal/domain/errors"
)

// AdapterErrorCode classifies the native protocol error an adapter
// translates before raising it to the core. Transient codes are retried by
// the adapter itself (up to 3x, capped backoff) before surfacing;
// permanent codes surface immediately.
type AdapterErrorCode string

const (
	// Transient
	ErrCodeNetwork     AdapterErrorCode = "Network"
	ErrCodeRateLimited AdapterErrorCode = "RateLimited"

	// Permanent
	ErrCodeInvalidRequest    AdapterErrorCode = "InvalidRequest"
	ErrCodeUnauthorized      AdapterErrorCode = "Unauthorized"
	ErrCodeAssetUnsupported  AdapterErrorCode = "AssetUnsupported"
	ErrCodeAmountBelowMinimum AdapterErrorCode = "AmountBelowMinimum"
	ErrCodeQuoteExpired      AdapterErrorCode = "QuoteExpired"
	ErrCodeBelowBalance      AdapterErrorCode = "BelowBalance"
)

var transientCodes = map[AdapterErrorCode]bool{
	ErrCodeNetwork:     true,
	ErrCodeRateLimited: true,
}

// IsTransient reports whether the core should let the adapter's own retry
// loop handle the error rather than advancing to the next preference.
func (c AdapterErrorCode) IsTransient() bool {
	return transientCodes[c]
}

// AdapterError is the typed error every Adapter implementation raises in
// place of a raw protocol error.
type AdapterError struct {
	Code AdapterErrorCode
	Err  error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// NewAdapterError wraps cause with code.
func NewAdapterError(code AdapterErrorCode, cause error) *AdapterError {
	return &AdapterError{Code: code, Err: cause}
}

// Kind maps this adapter error onto the core's error-handling taxonomy.
func (e *AdapterError) Kind() domainerrors.Kind {
	if e.Code.IsTransient() {
		return domainerrors.KindAdapterTransient
	}
	return domainerrors.KindAdapterPermanent
}

// AsAdapterError unwraps err looking for an *AdapterError.
func AsAdapterError(err error) (*AdapterError, bool) {
	var ae *AdapterError
	ok := errors.As(err, &ae)
	return ae, ok
}
