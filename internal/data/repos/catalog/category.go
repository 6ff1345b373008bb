package catalog

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

type CategoryRepo interface {
	Create(dbc dbctx.Context, categories []*types.Category) ([]*types.Category, error)
	List(dbc dbctx.Context) ([]*types.Category, error)
	GetByID(dbc dbctx.Context, id int) (*types.Category, error)
	Exists(dbc dbctx.Context, id int) (bool, error)
	Count(dbc dbctx.Context) (int64, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

func (r *categoryRepo) Create(dbc dbctx.Context, categories []*types.Category) ([]*types.Category, error) {
	if len(categories) == 0 {
		return []*types.Category{}, nil
	}
	if err := dbc.DB(r.db).Create(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepo) List(dbc dbctx.Context) ([]*types.Category, error) {
	var results []*types.Category
	if err := dbc.DB(r.db).Order("id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, id int) (*types.Category, error) {
	var c types.Category
	err := dbc.DB(r.db).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) Exists(dbc dbctx.Context, id int) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&types.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *categoryRepo) Count(dbc dbctx.Context) (int64, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&types.Category{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
