package models

import "fmt"

type AccountType string

const (
	AccountUser AccountType = "user"
	AccountPool AccountType = "pool"
)

// AwardClass is only valid as an award target; classes hold no balance of
// their own, awarding to one fans out to its members.
const AwardClass AccountType = "class"

// AccountRef identifies one side of a transfer.
type AccountRef struct {
	Type AccountType `json:"type"`
	ID   int64       `json:"id"`
}

// RateKey is the rate-guard identifier for this account.
func (a AccountRef) RateKey() string {
	return fmt.Sprintf("%s-%d", a.Type, a.ID)
}

func (a AccountRef) Valid() bool {
	return a.Type == AccountUser || a.Type == AccountPool
}
