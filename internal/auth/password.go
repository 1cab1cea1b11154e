package auth

import "golang.org/x/crypto/bcrypt"

func HashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(b), err
}

func VerifyPassword(plain, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// PINs use the same hashing as passwords.

func HashPIN(pin string) (string, error) {
	return HashPassword(pin)
}

func VerifyPIN(plain, hash string) bool {
	return VerifyPassword(plain, hash) == nil
}
