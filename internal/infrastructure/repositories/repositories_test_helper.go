package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func mustNewUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createChainTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE chains (
		id TEXT PRIMARY KEY,
		chain_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		is_active BOOLEAN,
		is_testnet BOOLEAN,
		currency_symbol TEXT,
		explorer_url TEXT,
		rpc_url TEXT,
		operator_address TEXT,
		safe_address TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE chain_rpcs (
		id TEXT PRIMARY KEY,
		chain_id TEXT NOT NULL,
		url TEXT NOT NULL,
		priority INTEGER,
		is_active BOOLEAN,
		last_error_at DATETIME,
		error_count INTEGER,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createPaymentBridgeTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payment_bridge (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);`)
}

func createRouteConfigTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE route_configs (
		id TEXT PRIMARY KEY,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		asset TEXT NOT NULL,
		dest_asset TEXT,
		preferences TEXT NOT NULL DEFAULT '[]',
		slippages_dbps TEXT NOT NULL DEFAULT '[]',
		reserve TEXT NOT NULL DEFAULT '0',
		min_swap_amount TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createEarmarkTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE earmarks (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL,
		designated_purchase_chain TEXT NOT NULL,
		ticker_hash TEXT NOT NULL,
		min_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_earmarks_active_invoice
		ON earmarks (invoice_id)
		WHERE status IN ('INITIATING', 'PENDING', 'READY');`)
}

func createRebalanceOperationTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE rebalance_operations (
		id TEXT PRIMARY KEY,
		earmark_id TEXT,
		origin_chain_id TEXT NOT NULL,
		destination_chain_id TEXT NOT NULL,
		ticker_hash TEXT NOT NULL,
		amount TEXT NOT NULL,
		slippage INTEGER NOT NULL,
		status TEXT NOT NULL,
		bridge TEXT NOT NULL,
		recipient TEXT NOT NULL,
		transactions TEXT NOT NULL DEFAULT '{}',
		operation_type TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSwapOperationTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE swap_operations (
		id TEXT PRIMARY KEY,
		rebalance_operation_id TEXT NOT NULL UNIQUE,
		platform TEXT NOT NULL,
		from_asset TEXT NOT NULL,
		to_asset TEXT NOT NULL,
		from_amount TEXT NOT NULL,
		to_amount TEXT NOT NULL,
		expected_rate TEXT NOT NULL,
		actual_rate TEXT,
		status TEXT NOT NULL,
		order_id TEXT,
		quote_id TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createAssetConfigTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE asset_configs (
		id TEXT PRIMARY KEY,
		chain_id TEXT NOT NULL,
		ticker_hash TEXT NOT NULL,
		symbol TEXT NOT NULL,
		token_address TEXT,
		decimals INTEGER NOT NULL,
		UNIQUE(chain_id, ticker_hash)
	);`)
}
