package utils

import "golang.org/x/crypto/bcrypt"

// bcrypt's default cost keeps a hash around 60-80ms on current hardware,
// slow enough against offline guessing without hurting login latency.
const hashCost = bcrypt.DefaultCost

// HashPassword derives the stored bcrypt hash for a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
