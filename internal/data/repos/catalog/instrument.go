package catalog

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

type InstrumentRepo interface {
	Create(dbc dbctx.Context, inst *types.Instrument) error
	GetByID(dbc dbctx.Context, id int) (*types.Instrument, error)
	List(dbc dbctx.Context) ([]*types.Instrument, error)
	ListLatest(dbc dbctx.Context, limit int) ([]*types.Instrument, error)
	ListByCategory(dbc dbctx.Context, categoryID int) ([]*types.Instrument, error)
	ListByUser(dbc dbctx.Context, userID int) ([]*types.Instrument, error)
	Update(dbc dbctx.Context, id int, updates map[string]any) error
	Delete(dbc dbctx.Context, id int) (bool, error)
}

type instrumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInstrumentRepo(db *gorm.DB, baseLog *logger.Logger) InstrumentRepo {
	repoLog := baseLog.With("repo", "InstrumentRepo")
	return &instrumentRepo{db: db, log: repoLog}
}

func withAlternateNames(db *gorm.DB) *gorm.DB {
	return db.Preload("AlternateNames", func(q *gorm.DB) *gorm.DB {
		return q.Order("sort_index ASC")
	})
}

// Create inserts the instrument row only. Alternate names go through AlternateNameRepo.ApplyPlan.
func (r *instrumentRepo) Create(dbc dbctx.Context, inst *types.Instrument) error {
	return dbc.DB(r.db).Omit("User", "Category", "AlternateNames").Create(inst).Error
}

func (r *instrumentRepo) GetByID(dbc dbctx.Context, id int) (*types.Instrument, error) {
	var inst types.Instrument
	err := withAlternateNames(dbc.DB(r.db)).Where("id = ?", id).Take(&inst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *instrumentRepo) List(dbc dbctx.Context) ([]*types.Instrument, error) {
	var results []*types.Instrument
	if err := withAlternateNames(dbc.DB(r.db)).Order("name ASC, id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *instrumentRepo) ListLatest(dbc dbctx.Context, limit int) ([]*types.Instrument, error) {
	var results []*types.Instrument
	if limit <= 0 {
		return results, nil
	}
	if err := withAlternateNames(dbc.DB(r.db)).
		Order("id DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *instrumentRepo) ListByCategory(dbc dbctx.Context, categoryID int) ([]*types.Instrument, error) {
	var results []*types.Instrument
	if err := withAlternateNames(dbc.DB(r.db)).
		Where("category_id = ?", categoryID).
		Order("name ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *instrumentRepo) ListByUser(dbc dbctx.Context, userID int) ([]*types.Instrument, error) {
	var results []*types.Instrument
	if err := withAlternateNames(dbc.DB(r.db)).
		Where("user_id = ?", userID).
		Order("name ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *instrumentRepo) Update(dbc dbctx.Context, id int, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Instrument{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes the instrument and its alternate names. The bool reports
// whether an instrument row existed.
func (r *instrumentRepo) Delete(dbc dbctx.Context, id int) (bool, error) {
	db := dbc.DB(r.db)
	if err := db.Where("instrument_id = ?", id).Delete(&types.AlternateName{}).Error; err != nil {
		return false, err
	}
	res := db.Where("id = ?", id).Delete(&types.Instrument{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
