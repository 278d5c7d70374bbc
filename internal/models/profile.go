package models

import "time"

type CoachProfile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FullName  *string   `json:"full_name"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberProfile.Activated flips to true the first time a payment of
// theirs is turned into a pack; it gates dashboard access.
type MemberProfile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FullName  *string   `json:"full_name"`
	Activated bool      `json:"activated"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
