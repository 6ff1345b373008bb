package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/instrument-catalog/internal/domain"
)

func unique(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.User {
	tb.Helper()
	provider := "test"
	subject := unique("sub")
	u := &types.User{
		Name:           name,
		OAuthProvider:  &provider,
		ProviderUserID: &subject,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Category {
	tb.Helper()
	c := &types.Category{
		Name:        unique(name),
		Description: name + " instruments",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

// SeedInstrument creates an instrument with the given alternate names at indexes 0..n-1.
func SeedInstrument(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, categoryID int, name string, altNames ...string) *types.Instrument {
	tb.Helper()
	inst := &types.Instrument{
		Name:        name,
		Description: "A " + name + ".",
		UserID:      userID,
		CategoryID:  categoryID,
	}
	if err := tx.WithContext(ctx).Omit("User", "Category", "AlternateNames").Create(inst).Error; err != nil {
		tb.Fatalf("seed instrument: %v", err)
	}
	for i, alt := range altNames {
		row := types.AlternateName{InstrumentID: inst.ID, Name: alt, Index: int16(i)}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			tb.Fatalf("seed alternate name %q: %v", alt, err)
		}
		inst.AlternateNames = append(inst.AlternateNames, row)
	}
	return inst
}
