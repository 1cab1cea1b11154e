package models

import "time"

// TransferAward marks privileged one-to-many credits in the transaction log.
const TransferAward = "award"

// Transaction is one append-only ledger line. Amount is the gross amount
// debited from the sender; taxed transfers credit the recipient less.
type Transaction struct {
	ID       string    `json:"id"`
	FromID   int64     `json:"from_id"`
	FromType string    `json:"from_type"`
	ToID     int64     `json:"to_id"`
	ToType   string    `json:"to_type"`
	Amount   int64     `json:"amount"`
	Reason   string    `json:"reason"`
	Date     time.Time `json:"date"`
}
