package model

import "time"

// AuditRecord journals one completed public operation. Amounts are decimal
// strings so the journal never passes through binary floating point.
type AuditRecord struct {
	Timestamp time.Time `json:"ts"`
	ChainID   uint64    `json:"chain_id"`
	Operation string    `json:"operation"`
	TokenIn   string    `json:"token_in,omitempty"`
	TokenOut  string    `json:"token_out,omitempty"`
	Wallet    string    `json:"wallet,omitempty"`
	AmountIn  string    `json:"amount_in,omitempty"`
	AmountOut string    `json:"amount_out,omitempty"`
	FeeTier   uint32    `json:"fee_tier,omitempty"`
	Gas       uint64    `json:"gas,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
}
