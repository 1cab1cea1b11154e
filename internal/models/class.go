package models

type Class struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Key     string `json:"key"` // join code
	OwnerID int64  `json:"owner_id"`
}
