package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost used for every stored hash.
const DefaultBcryptCost = bcrypt.DefaultCost

func hashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// burnCompare spends a bcrypt comparison when the email is unknown so both
// login failure paths take about the same time.
func burnCompare(password string, cost int) {
	dummyOnce.Do(func() {
		dummyHash, _ = hashPassword("not-a-real-password", cost)
	})
	_ = checkPassword(dummyHash, password)
}
