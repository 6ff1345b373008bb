package seed

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/yungbote/instrument-catalog/internal/data/repos"
	"github.com/yungbote/instrument-catalog/internal/data/repos/testutil"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
)

func TestDefaultSeedParses(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(f.Users) != 2 || len(f.Categories) != 3 || len(f.Instruments) != 3 {
		t.Fatalf("unexpected seed shape: %d users, %d categories, %d instruments",
			len(f.Users), len(f.Categories), len(f.Instruments))
	}
}

func TestParseRejectsDanglingReferences(t *testing.T) {
	cases := map[string]string{
		"unknown category": "users: [{name: A}]\ninstruments: [{name: X, category: Brass, owner: A}]\n",
		"unknown owner":    "users: [{name: A}]\ncategories: [{name: Brass}]\ninstruments: [{name: X, category: Brass, owner: B}]\n",
		"no users":         "categories: [{name: Brass}]\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSeederRun(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_DSN") != "" {
		t.Skip("seeding requires an empty database")
	}
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	f, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	sum, err := NewSeeder(db, log).Run(ctx, f, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Users != 2 || sum.Categories != 3 || sum.Instruments != 3 {
		t.Fatalf("summary = %+v", sum)
	}

	list, err := repos.NewInstrumentRepo(db, log).List(dbctx.New(ctx))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	owners := map[string]int{}
	for _, inst := range list {
		owners[inst.Name] = inst.UserID
		if inst.Name == "Pedal Harp" {
			got := inst.AlternateNameList()
			if len(got) != 2 || got[0] != "Concert Harp" || got[1] != "Orchestral Harp" {
				t.Fatalf("pedal harp alternate names = %v", got)
			}
		}
	}
	if owners["Lever Harp"] == owners["Pedal Harp"] {
		t.Fatalf("development seed should give Lever Harp its own owner: %v", owners)
	}

	if _, err := NewSeeder(db, log).Run(ctx, f, false); !errors.Is(err, ErrAlreadySeeded) {
		t.Fatalf("second run err = %v, want ErrAlreadySeeded", err)
	}
}

func TestSeederRunProduction(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_DSN") != "" {
		t.Skip("seeding requires an empty database")
	}
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	f, _ := Default()
	sum, err := NewSeeder(db, log).Run(ctx, f, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Users != 1 {
		t.Fatalf("production users = %d", sum.Users)
	}
	list, err := repos.NewInstrumentRepo(db, log).List(dbctx.New(ctx))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, inst := range list {
		if inst.UserID != list[0].UserID {
			t.Fatalf("production instruments have different owners")
		}
	}
}
