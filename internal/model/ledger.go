package model

import "time"

// LedgerEntry is the durable record of a completed transfer, independent of
// the chain's own record. Append-only: written exactly once per confirmed
// on-chain submission, never mutated or deleted.
type LedgerEntry struct {
	FromAddress string    `json:"fromAddress"`
	ToAddress   string    `json:"toAddress"`
	Amount      string    `json:"amount"`
	Chain       string    `json:"chain"`
	Signature   string    `json:"signature"`
	CreatedAt   time.Time `json:"createdAt"`
}
