package auth

import (
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
)

const (
	testEmail    = "admin@maycam.test"
	testPassword = "paletas-2025"
)

var cheapParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := argon2id.CreateHash(testPassword, cheapParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc, err := NewService(Config{
		AdminEmail:        testEmail,
		AdminPasswordHash: hash,
		Secret:            "super-secret-key",
		AccessTokenTTL:    time.Minute,
		Issuer:            "catalogo-mayorista",
		Audience:          "catalogo-admin",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}
