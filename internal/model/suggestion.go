package model

type Suggestion struct {
	ID         int64  `json:"id"`
	Suggestion string `json:"suggestion"`
	Handled    bool   `json:"handled"`
}
