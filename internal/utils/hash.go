package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash of the plaintext password. bcrypt
// generates a fresh salt on every call.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
