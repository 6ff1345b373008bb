package catalog

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/instrument-catalog/internal/catalog/altnames"
	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

type AlternateNameRepo interface {
	ListByInstrument(dbc dbctx.Context, instrumentID int) ([]types.AlternateName, error)
	ApplyPlan(dbc dbctx.Context, instrumentID int, plan altnames.Plan) error
}

type alternateNameRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAlternateNameRepo(db *gorm.DB, baseLog *logger.Logger) AlternateNameRepo {
	repoLog := baseLog.With("repo", "AlternateNameRepo")
	return &alternateNameRepo{db: db, log: repoLog}
}

func (r *alternateNameRepo) ListByInstrument(dbc dbctx.Context, instrumentID int) ([]types.AlternateName, error) {
	var results []types.AlternateName
	if err := dbc.DB(r.db).
		Where("instrument_id = ?", instrumentID).
		Order("sort_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ApplyPlan runs the plan's statements in order. Callers pass a transaction
// so that a failure leaves the stored list untouched.
func (r *alternateNameRepo) ApplyPlan(dbc dbctx.Context, instrumentID int, plan altnames.Plan) error {
	if plan.NoOp() {
		return nil
	}
	db := dbc.DB(r.db)

	if len(plan.Deletes) > 0 {
		if err := db.Where("instrument_id = ? AND id IN ?", instrumentID, plan.Deletes).
			Delete(&types.AlternateName{}).Error; err != nil {
			return fmt.Errorf("delete alternate names: %w", err)
		}
	}
	for _, step := range [][]altnames.Move{plan.Parks, plan.Moves} {
		for _, m := range step {
			res := db.Model(&types.AlternateName{}).
				Where("instrument_id = ? AND id = ?", instrumentID, m.ID).
				Update("sort_index", m.Index)
			if res.Error != nil {
				return fmt.Errorf("move alternate name %s to %d: %w", m.ID, m.Index, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("move alternate name %s: row not found", m.ID)
			}
		}
	}
	if len(plan.Inserts) > 0 {
		rows := make([]*types.AlternateName, 0, len(plan.Inserts))
		for _, ins := range plan.Inserts {
			rows = append(rows, &types.AlternateName{InstrumentID: instrumentID, Name: ins.Name, Index: ins.Index})
		}
		if err := db.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert alternate names: %w", err)
		}
	}
	r.log.Debug("Applied alternate name plan",
		"instrument_id", instrumentID,
		"deletes", len(plan.Deletes),
		"moves", len(plan.Moves),
		"inserts", len(plan.Inserts),
	)
	return nil
}
