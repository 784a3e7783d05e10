package identity

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor applied to every credential hash.
// Tunable per deployment, never derived from input.
const hashCost = 10

// ErrHashing signals a failure inside the hash primitive itself (not a
// mismatch). Callers must abort the pending write when they see it.
var ErrHashing = errors.New("credential hashing failed")

// Changes is the explicit change-set handed to ApplyChanges before a user
// record is committed. The zero value of a field means "untouched": only
// fields the caller actually modified carry plaintext, so an already-hashed
// value is never run through bcrypt a second time.
type Changes struct {
	Password string
	PIN      string
}

// ApplyChanges hashes the modified secret fields in place. A changed
// password always gets a fresh hash (bcrypt embeds a new random salt per
// call). A changed, non-empty PIN gets hashed the same way; an empty PIN is
// a no-op, so setting a PIN is additive and cannot clear one.
func ApplyChanges(u *User, ch Changes) error {
	if ch.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(ch.Password), hashCost)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrHashing, err)
		}
		u.PasswordHash = string(hash)
	}

	if ch.PIN != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(ch.PIN), hashCost)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrHashing, err)
		}
		u.PINHash = string(hash)
	}

	return nil
}

// VerifyPassword compares a candidate against the stored password hash.
// A mismatch is a false result, not an error; only a missing or corrupt
// hash surfaces as ErrHashing.
func VerifyPassword(u User, candidate string) (bool, error) {
	if u.PasswordHash == "" {
		return false, fmt.Errorf("%w: no password hash on record", ErrHashing)
	}
	return compareHash(u.PasswordHash, candidate)
}

// VerifyPin compares a candidate against the stored PIN hash. A user with
// no PIN set can never match any candidate; no comparison is attempted.
func VerifyPin(u User, candidate string) (bool, error) {
	if u.PINHash == "" {
		return false, nil
	}
	return compareHash(u.PINHash, candidate)
}

func compareHash(hash, candidate string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrHashing, err)
	}
}
