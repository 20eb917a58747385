package models

import "time"

// Amounts are base-10 strings of fixed-point integers in the payment token's
// smallest unit (USDC, 6 decimals). They are never floats; conversion to a
// display form happens at the presentation edge only.

type WalletStatus struct {
	Address   string `json:"address"`
	Connected bool   `json:"connected"`
	Epoch     uint64 `json:"epoch"`
}

type ChainStatus struct {
	State         string    `json:"state"`
	ChainID       uint64    `json:"chain_id"`
	ChainName     string    `json:"chain_name"`
	BlockNumber   uint64    `json:"block_number"`
	NotaryAddress string    `json:"notary_address"`
	TokenAddress  string    `json:"token_address"`
	LastSync      time.Time `json:"last_sync"`
}

type Property struct {
	TokenID       uint64 `json:"token_id"`
	HouseAddr     string `json:"house_addr"`
	LeaseContract string `json:"lease_contract"`
	Owner         string `json:"owner"`
}

type LeaseTerms struct {
	MonthlyRent     string `json:"monthly_rent"`
	DurationMonths  uint32 `json:"duration_months"`
	DepositMonths   uint32 `json:"deposit_months"`
	SecurityDeposit string `json:"security_deposit"`
}

type Application struct {
	Tenant      string    `json:"tenant"`
	StartDate   time.Time `json:"start_date"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Agreement struct {
	Tenant    string     `json:"tenant"`
	StartDate time.Time  `json:"start_date"`
	Terms     LeaseTerms `json:"terms"`
}

// LeaseStage is the per-(property, viewer) workflow stage as projected by the
// controller. It is derived from fetched chain state, never stored truth.
type LeaseStage string

const (
	StageUnlisted  LeaseStage = "unlisted"
	StageListed    LeaseStage = "listed"
	StageApplied   LeaseStage = "applied"
	StageApproved  LeaseStage = "approved"
	StageReclaimed LeaseStage = "reclaimed"
)

// LeaseSnapshot is the cached projection for one property as seen by the
// current viewer. Every refresh overwrites the whole snapshot.
type LeaseSnapshot struct {
	HouseAddr     string       `json:"house_addr"`
	TokenID       uint64       `json:"token_id"`
	LeaseContract string       `json:"lease_contract"`
	Owner         string       `json:"owner"`
	Stage         LeaseStage   `json:"stage"`
	Terms         LeaseTerms   `json:"terms"`
	Application   *Application `json:"application,omitempty"`
	Agreement     *Agreement   `json:"agreement,omitempty"`
	// Balance is the outstanding rent debt in smallest token units; positive
	// means the tenant owes money.
	Balance   string    `json:"balance"`
	FetchedAt time.Time `json:"fetched_at"`
}

type MintResult struct {
	TokenID       uint64 `json:"token_id"`
	LeaseContract string `json:"lease_contract"`
	TxHash        string `json:"tx_hash,omitempty"`
	AlreadyMinted bool   `json:"already_minted"`
}

type PaymentResult struct {
	ApproveTxHash string `json:"approve_tx_hash"`
	PayTxHash     string `json:"pay_tx_hash"`
	Balance       string `json:"balance"`
}

type Listing struct {
	ShareCode   string    `json:"share_code"`
	Title       string    `json:"title"`
	HouseAddr   string    `json:"house_addr"`
	TokenID     uint64    `json:"token_id,omitempty"`
	MonthlyRent string    `json:"monthly_rent"`
	Bedrooms    string    `json:"bedrooms"`
	Bathrooms   string    `json:"bathrooms"`
	Sqft        int       `json:"sqft"`
	LeaseTerm   string    `json:"lease_term"`
	Available   string    `json:"available"`
	Description string    `json:"description"`
	Amenities   []string  `json:"amenities,omitempty"`
	PostedAt    time.Time `json:"posted_at"`
}

type MetricsSnapshot struct {
	ErrorCounters       map[string]int             `json:"error_counters"`
	OperationStats      map[string]OperationMetric `json:"operation_stats"`
	NotificationBacklog int                        `json:"notification_backlog"`
	LastUpdatedAt       time.Time                  `json:"last_updated_at"`
}

type OperationMetric struct {
	Count         int   `json:"count"`
	Errors        int   `json:"errors"`
	AvgLatencyMs  int64 `json:"avg_latency_ms"`
	MaxLatencyMs  int64 `json:"max_latency_ms"`
	LastLatencyMs int64 `json:"last_latency_ms"`
}
