package core

import "time"

// State is derived from the partner link, never stored.
type State string

const (
	StateIdle   State = "idle"
	StatePaired State = "paired"
)

// User is an immutable snapshot of a stored user row.
// PartnerID holds the partner's identifier only; resolving it is a lookup.
type User struct {
	ID           int64     `json:"telegram_id"`
	Region       Region    `json:"region"`
	LanguageCode string    `json:"language_code"`
	Premium      bool      `json:"premium"`
	PartnerID    *int64    `json:"partner_id,omitempty"`
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsPaired() bool {
	return u.PartnerID != nil
}

func (u *User) State() State {
	if u.IsPaired() {
		return StatePaired
	}
	return StateIdle
}

// Partner returns the partner id, or 0 when idle.
func (u *User) Partner() int64 {
	if u.PartnerID == nil {
		return 0
	}
	return *u.PartnerID
}
