package app

import (
	"crypto/rand"
	"time"
)

// App is a tenant namespace: it owns its own devices and notifications and
// authenticates send requests with a public id + secret key pair.
type App struct {
	ID          int64     `json:"id"`
	PublicID    string    `json:"public_id"`
	SecretKey   string    `json:"secret_key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	publicIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	secretAlphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

	publicIDLength = 16
	secretLength   = 64
)

// NewPublicID generates a short URL-safe public app identifier.
func NewPublicID() string {
	return "app_" + randomString(publicIDAlphabet, publicIDLength)
}

// NewSecretKey generates a tenant secret key. The key is shown to the tenant
// once and stored as-is; it is an opaque random credential, not a password.
func NewSecretKey() string {
	return "sk_" + randomString(secretAlphabet, secretLength)
}

func randomString(alphabet string, n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the process cannot mint credentials at all.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}
