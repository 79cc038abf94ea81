package bridge

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"mark/internal/domain/entities"
)

type fakeAdapter struct {
	kind entities.BridgeKind
}

func (f *fakeAdapter) Kind() entities.BridgeKind { return f.kind }
func (f *fakeAdapter) Quote(ctx context.Context, amountNative *big.Int, route entities.Route) (*big.Int, error) {
	return amountNative, nil
}
func (f *fakeAdapter) Send(ctx context.Context, sender, recipient string, amountNative *big.Int, route entities.Route) ([]MemoTx, error) {
	return []MemoTx{{Memo: MemoRebalance}}, nil
}
func (f *fakeAdapter) ReadyOnDestination(ctx context.Context, amountNative *big.Int, route entities.Route, originReceipt entities.TxReceipt) (bool, error) {
	return true, nil
}
func (f *fakeAdapter) DestinationCallback(ctx context.Context, route entities.Route, originReceipt entities.TxReceipt) (*MemoTx, error) {
	return nil, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	adapter := &fakeAdapter{kind: entities.BridgeKindAcross}
	r.Register(adapter)

	got, err := r.Get(entities.BridgeKindAcross)
	require.NoError(t, err)
	require.Same(t, adapter, got)
}

func TestRegistry_Get_UnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(entities.BridgeKindBinance)
	require.Error(t, err)
}

func TestAsSwapCapable_PlainAdapterIsNotCapable(t *testing.T) {
	adapter := &fakeAdapter{kind: entities.BridgeKindCCTPv2}
	_, ok := AsSwapCapable(adapter)
	require.False(t, ok)
}

func TestAdapterErrorCode_IsTransient(t *testing.T) {
	require.True(t, ErrCodeNetwork.IsTransient())
	require.True(t, ErrCodeRateLimited.IsTransient())
	require.False(t, ErrCodeAssetUnsupported.IsTransient())
}

func TestAdapterError_KindMapping(t *testing.T) {
	transient := NewAdapterError(ErrCodeRateLimited, nil)
	require.Equal(t, "AdapterTransient", string(transient.Kind()))

	permanent := NewAdapterError(ErrCodeAmountBelowMinimum, nil)
	require.Equal(t, "AdapterPermanent", string(permanent.Kind()))
}
