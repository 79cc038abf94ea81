package entities

import "time"

// PurchaseRecord is the ephemeral (~1 day TTL) cache entry stashed once the
// event processor has committed to a purchase intent for an invoice, keyed by
// invoiceId. Its presence both prevents re-purchasing on a duplicate
// InvoiceEnqueued delivery and lets the matching SettlementEnqueued event
// emit a clearance-duration metric before the entry is removed.
type PurchaseRecord struct {
	InvoiceID       string    `json:"invoiceId"`
	Destination     string    `json:"destination"` // ChainID the purchase intent settled on, used as the clearance metric label
	PurchaseIntent  string    `json:"purchaseIntent"`
	TransactionHash string    `json:"transactionHash"`
	TransactionType string    `json:"transactionType"`
	HubEnqueuedAt   time.Time `json:"hubEnqueuedAt"` // hub_invoice_enqueued_timestamp, used for clearance metric
	CachedAt        time.Time `json:"cachedAt"`
}
