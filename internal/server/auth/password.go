package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), passwordCost)
}

// CheckPassword reports whether password matches hash. Only a mismatch
// yields (false, nil).
func CheckPassword(hash []byte, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
