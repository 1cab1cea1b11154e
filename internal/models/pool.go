package models

// DevPoolID receives the tax skim on peer transfers.
const DevPoolID = 0

type Pool struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type PoolMember struct {
	PoolID int64 `json:"pool_id"`
	UserID int64 `json:"user_id"`
	Owner  bool  `json:"owner"`
}
