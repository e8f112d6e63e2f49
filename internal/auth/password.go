package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 5
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burnPasswordCheck spends the same time as a real comparison so that unknown
// emails cannot be told apart from wrong passwords.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// passwordProblem describes why password is unacceptable, or returns "".
func passwordProblem(password string) string {
	switch {
	case password == "":
		return "This field may not be blank."
	case len([]rune(password)) < MinPasswordLength:
		return "Ensure this field has at least 5 characters."
	case len(password) > MaxPasswordBytes:
		return "Ensure this field has no more than 72 bytes."
	}
	return ""
}
