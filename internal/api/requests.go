package api

import (
	"encoding/json"
	"errors"

	"github.com/csmith1188/digipogs/internal/models"
	"github.com/csmith1188/digipogs/internal/services"
)

// accountField decodes either the current {type,id} object or the deprecated
// bare integer id.
type accountField struct {
	Ref  models.AccountRef
	Bare bool
}

func (a *accountField) UnmarshalJSON(b []byte) error {
	var id int64
	if err := json.Unmarshal(b, &id); err == nil {
		a.Ref = models.AccountRef{ID: id}
		a.Bare = true
		return nil
	}
	return json.Unmarshal(b, &a.Ref)
}

type transferBody struct {
	From   accountField `json:"from"`
	To     accountField `json:"to"`
	Pool   *int64       `json:"pool"`
	Amount int64        `json:"amount"`
	Pin    string       `json:"pin"`
	Reason string       `json:"reason"`
}

var errMixedAccounts = errors.New("mixed bare-id and typed account fields")

// toRequest maps the wire shape onto the engine request. The legacy shape
// sends a bare user id as the sender, a bare user id or a pool id as the
// recipient. Mixing it with the typed shape is rejected rather than
// reinterpreting the sender's account kind.
func (b transferBody) toRequest() (services.TransferRequest, error) {
	req := services.TransferRequest{Amount: b.Amount, Pin: b.Pin, Reason: b.Reason}
	legacy := b.From.Bare && (b.To.Bare || b.Pool != nil)
	switch {
	case legacy:
		req.Legacy = true
		req.From = models.AccountRef{Type: models.AccountUser, ID: b.From.Ref.ID}
		if b.Pool != nil {
			req.To = models.AccountRef{Type: models.AccountPool, ID: *b.Pool}
		} else {
			req.To = models.AccountRef{Type: models.AccountUser, ID: b.To.Ref.ID}
		}
	case b.From.Bare || b.To.Bare || b.Pool != nil:
		return services.TransferRequest{}, errMixedAccounts
	default:
		req.From = b.From.Ref
		req.To = b.To.Ref
	}
	return req, nil
}

type awardBody struct {
	To struct {
		Type string `json:"type"`
		ID   int64  `json:"id"`
		Code string `json:"code"`
	} `json:"to"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (b awardBody) target() services.AwardTarget {
	return services.AwardTarget{
		Type: models.AccountType(b.To.Type),
		ID:   b.To.ID,
		Code: b.To.Code,
	}
}
