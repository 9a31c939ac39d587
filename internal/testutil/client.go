package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/signa-app/trademark-console/internal/apiclient"
	"github.com/signa-app/trademark-console/internal/session"
)

// DefaultAccount is the operator most tests log in as.
var DefaultAccount = Account{
	ID:        7,
	Email:     "ana@signa.test",
	Password:  "secret",
	FirstName: "Ana",
	LastName:  "Lima",
	Username:  "ana",
}

// SignedInClient registers acc, stores a fresh token for it and returns a
// client pointed at the backend.
func (b *Backend) SignedInClient(t testing.TB, acc Account) (*apiclient.Client, *session.MemoryStore) {
	t.Helper()
	b.AddAccount(acc)
	store := session.NewMemoryStore()
	if err := store.Save(context.Background(), b.IssueToken(acc, time.Hour)); err != nil {
		t.Fatalf("save token: %v", err)
	}
	return apiclient.NewClient(b.URL(), store, apiclient.WithTimeout(5*time.Second)), store
}
