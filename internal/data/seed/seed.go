// Package seed loads the starter users, categories and instruments into an
// empty database.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/instrument-catalog/internal/catalog/altnames"
	"github.com/yungbote/instrument-catalog/internal/data/repos"
	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/pkg/pointers"
)

//go:embed seed.yaml
var defaultSeed []byte

var ErrAlreadySeeded = errors.New("database already has categories")

type User struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Instrument struct {
	Name           string   `yaml:"name"`
	Category       string   `yaml:"category"`
	Owner          string   `yaml:"owner"`
	Image          string   `yaml:"image"`
	Description    string   `yaml:"description"`
	AlternateNames []string `yaml:"alternate_names"`
}

type File struct {
	Users       []User       `yaml:"users"`
	Categories  []Category   `yaml:"categories"`
	Instruments []Instrument `yaml:"instruments"`
}

type Summary struct {
	Users       int
	Categories  int
	Instruments int
}

// Parse decodes and cross-checks a seed file.
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, errors.New("seed needs at least one user")
	}
	users := map[string]bool{}
	for _, u := range f.Users {
		users[u.Name] = true
	}
	cats := map[string]bool{}
	for _, c := range f.Categories {
		cats[c.Name] = true
	}
	for _, in := range f.Instruments {
		if !cats[in.Category] {
			return nil, fmt.Errorf("instrument %q: unknown category %q", in.Name, in.Category)
		}
		if in.Owner != "" && !users[in.Owner] {
			return nil, fmt.Errorf("instrument %q: unknown owner %q", in.Name, in.Owner)
		}
		if len(in.AlternateNames) > types.MaxAlternateNames {
			return nil, fmt.Errorf("instrument %q: too many alternate names", in.Name)
		}
	}
	return &f, nil
}

func Default() (*File, error) { return Parse(defaultSeed) }

type Seeder struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	categoryRepo   repos.CategoryRepo
	instrumentRepo repos.InstrumentRepo
	altNameRepo    repos.AlternateNameRepo
}

func NewSeeder(db *gorm.DB, baseLog *logger.Logger) *Seeder {
	return &Seeder{
		db:             db,
		log:            baseLog.With("service", "Seeder"),
		userRepo:       repos.NewUserRepo(db, baseLog),
		categoryRepo:   repos.NewCategoryRepo(db, baseLog),
		instrumentRepo: repos.NewInstrumentRepo(db, baseLog),
		altNameRepo:    repos.NewAlternateNameRepo(db, baseLog),
	}
}

// Run inserts f in one transaction. In production only the first user is
// created and owns every instrument.
func (s *Seeder) Run(ctx context.Context, f *File, production bool) (Summary, error) {
	var sum Summary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		n, err := s.categoryRepo.Count(dbc)
		if err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if n > 0 {
			return ErrAlreadySeeded
		}

		seedUsers := f.Users
		if production {
			seedUsers = seedUsers[:1]
		}
		rows := make([]*types.User, 0, len(seedUsers))
		for _, u := range seedUsers {
			rows = append(rows, &types.User{Name: u.Name, Email: pointers.NonEmpty(strings.TrimSpace(u.Email))})
		}
		if _, err := s.userRepo.Create(dbc, rows); err != nil {
			return fmt.Errorf("create users: %w", err)
		}
		userIDs := make(map[string]int, len(rows))
		for _, row := range rows {
			userIDs[row.Name] = row.ID
		}
		firstUser := rows[0].ID

		cats := make([]*types.Category, 0, len(f.Categories))
		for _, c := range f.Categories {
			cats = append(cats, &types.Category{Name: c.Name, Description: strings.TrimSpace(c.Description)})
		}
		if len(cats) > 0 {
			if _, err := s.categoryRepo.Create(dbc, cats); err != nil {
				return fmt.Errorf("create categories: %w", err)
			}
		}
		catIDs := make(map[string]int, len(cats))
		for _, c := range cats {
			catIDs[c.Name] = c.ID
		}

		for _, in := range f.Instruments {
			owner, ok := userIDs[in.Owner]
			if production || !ok {
				owner = firstUser
			}
			inst := &types.Instrument{
				Name:        in.Name,
				Description: strings.TrimSpace(in.Description),
				UserID:      owner,
				CategoryID:  catIDs[in.Category],
				Image:       pointers.NonEmpty(strings.TrimSpace(in.Image)),
			}
			if err := s.instrumentRepo.Create(dbc, inst); err != nil {
				return fmt.Errorf("create instrument %q: %w", in.Name, err)
			}
			if len(in.AlternateNames) > 0 {
				if err := s.altNameRepo.ApplyPlan(dbc, inst.ID, altnames.Build(nil, in.AlternateNames)); err != nil {
					return fmt.Errorf("create alternate names for %q: %w", in.Name, err)
				}
			}
		}

		sum = Summary{Users: len(rows), Categories: len(cats), Instruments: len(f.Instruments)}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	s.log.Info("Database seeded", "users", sum.Users, "categories", sum.Categories, "instruments", sum.Instruments, "production", production)
	return sum, nil
}
