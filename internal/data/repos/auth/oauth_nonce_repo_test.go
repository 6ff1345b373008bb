package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/instrument-catalog/internal/data/repos/testutil"
	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
)

func TestOAuthNonceRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOAuthNonceRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	created, err := repo.Create(dbc, []*types.OAuthNonce{
		{Provider: "google", NonceHash: "live", ExpiresAt: now.Add(10 * time.Minute)},
		{Provider: "google", NonceHash: "stale", ExpiresAt: now.Add(-time.Minute)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	live := created[0]

	got, err := repo.GetByID(dbc, live.ID)
	if err != nil || got == nil || !got.Usable(now) {
		t.Fatalf("GetByID: %+v, %v", got, err)
	}
	if err := repo.MarkUsed(dbc, live.ID, now); err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}
	if err := repo.MarkUsed(dbc, live.ID, now); !errors.Is(err, ErrNonceConsumed) {
		t.Fatalf("MarkUsed(again): expected ErrNonceConsumed, got %v", err)
	}

	deleted, err := repo.FullDeleteExpires(dbc, now)
	if err != nil {
		t.Fatalf("FullDeleteExpires: %v", err)
	}
	if deleted < 1 {
		t.Fatalf("FullDeleteExpires: expected stale nonce removed")
	}
	if got, _ := repo.GetByID(dbc, created[1].ID); got != nil {
		t.Fatalf("stale nonce still present")
	}
}
