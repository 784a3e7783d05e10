package identity

import "time"

// Roles assignable to a user account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the account aggregate. PasswordHash and PINHash only ever hold
// bcrypt output; plaintext secrets never reach a repository.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	MerchantID   string
	Balance      int64
	PINHash      string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPinSetup reports whether a transaction PIN has been established.
// It is derived from PINHash presence rather than stored, so it can never
// drift out of sync with the hash itself.
func (u User) HasPinSetup() bool {
	return u.PINHash != ""
}

// Profile is the only representation of a user allowed to cross the API
// boundary. It carries no hash material.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	MerchantID  string `json:"merchant_id"`
	Balance     int64  `json:"balance"`
	HasPinSetup bool   `json:"has_pin_setup"`
	Role        string `json:"role"`
}

// Profile projects the user for client consumption, excluding both hashes.
func (u User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		MerchantID:  u.MerchantID,
		Balance:     u.Balance,
		HasPinSetup: u.HasPinSetup(),
		Role:        u.Role,
	}
}
