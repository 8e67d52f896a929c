package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword produces a salted bcrypt hash. Two calls with the same input
// yield different strings; verification is stable either way.
func HashPassword(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored hash. A malformed
// hash is treated as a mismatch, not an error.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
