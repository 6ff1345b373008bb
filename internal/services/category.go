package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/instrument-catalog/internal/data/repos"
	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/apierr"
)

const MsgCategoryNotFound = "The requested category id does not exist."

type CategoryService interface {
	List(ctx context.Context) ([]*types.Category, error)
	Get(ctx context.Context, id int) (*types.Category, error)
	ListInstruments(ctx context.Context, categoryID int) ([]*types.Instrument, error)
	// Exists lets the validator check category references.
	Exists(ctx context.Context, id int) (bool, error)
}

type categoryService struct {
	db             *gorm.DB
	log            *logger.Logger
	categoryRepo   repos.CategoryRepo
	instrumentRepo repos.InstrumentRepo
}

func NewCategoryService(db *gorm.DB, baseLog *logger.Logger, categoryRepo repos.CategoryRepo, instrumentRepo repos.InstrumentRepo) CategoryService {
	return &categoryService{
		db:             db,
		log:            baseLog.With("service", "CategoryService"),
		categoryRepo:   categoryRepo,
		instrumentRepo: instrumentRepo,
	}
}

func (cs *categoryService) List(ctx context.Context) ([]*types.Category, error) {
	out, err := cs.categoryRepo.List(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (cs *categoryService) Get(ctx context.Context, id int) (*types.Category, error) {
	c, err := cs.categoryRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("load category %d: %w", id, err)
	}
	if c == nil {
		return nil, apierr.NotFound("category_not_found", MsgCategoryNotFound)
	}
	return c, nil
}

// ListInstruments fails with NotFound for an unknown category rather than
// returning an empty list.
func (cs *categoryService) ListInstruments(ctx context.Context, categoryID int) ([]*types.Instrument, error) {
	if _, err := cs.Get(ctx, categoryID); err != nil {
		return nil, err
	}
	out, err := cs.instrumentRepo.ListByCategory(dbctx.New(ctx), categoryID)
	if err != nil {
		return nil, fmt.Errorf("list instruments for category %d: %w", categoryID, err)
	}
	return out, nil
}

func (cs *categoryService) Exists(ctx context.Context, id int) (bool, error) {
	return cs.categoryRepo.Exists(dbctx.New(ctx), id)
}
