package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/instrument-catalog/internal/catalog/altnames"
	"github.com/yungbote/instrument-catalog/internal/catalog/validation"
	"github.com/yungbote/instrument-catalog/internal/data/repos"
	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/observability"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/pkg/pointers"
	"github.com/yungbote/instrument-catalog/internal/platform/apierr"
)

const (
	MsgInstrumentNotFound = "The requested instrument id does not exist."
	MsgNotOwner           = "You must authenticate as the user who created this instrument in order to modify it."
)

func errInstrumentNotFound() error {
	return apierr.NotFound("instrument_not_found", MsgInstrumentNotFound)
}

func errNotOwner() error {
	return apierr.Forbidden("not_owner", MsgNotOwner)
}

type InstrumentValidator interface {
	Validate(ctx context.Context, in validation.Input, opts validation.Options) (*validation.Result, error)
}

type InstrumentService interface {
	List(ctx context.Context) ([]*types.Instrument, error)
	Latest(ctx context.Context, limit int) ([]*types.Instrument, error)
	Get(ctx context.Context, id int) (*types.Instrument, error)
	ListByUser(ctx context.Context, userID int) ([]*types.Instrument, error)
	// GetOwned loads an instrument the actor may modify.
	GetOwned(ctx context.Context, actorID, id int) (*types.Instrument, error)
	Create(ctx context.Context, actorID int, in validation.Input) (*types.Instrument, error)
	Update(ctx context.Context, actorID, id int, in validation.Input, mode validation.Mode) (*types.Instrument, error)
	// Delete is idempotent: a missing instrument reports existed=false and no error.
	Delete(ctx context.Context, actorID, id int) (existed bool, err error)
}

type instrumentService struct {
	db             *gorm.DB
	log            *logger.Logger
	instrumentRepo repos.InstrumentRepo
	altNameRepo    repos.AlternateNameRepo
	validator      InstrumentValidator
	metrics        *observability.Metrics
}

func NewInstrumentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	instrumentRepo repos.InstrumentRepo,
	altNameRepo repos.AlternateNameRepo,
	validator InstrumentValidator,
	metrics *observability.Metrics,
) InstrumentService {
	return &instrumentService{
		db:             db,
		log:            baseLog.With("service", "InstrumentService"),
		instrumentRepo: instrumentRepo,
		altNameRepo:    altNameRepo,
		validator:      validator,
		metrics:        metrics,
	}
}

func (is *instrumentService) List(ctx context.Context) ([]*types.Instrument, error) {
	out, err := is.instrumentRepo.List(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	return out, nil
}

func (is *instrumentService) Latest(ctx context.Context, limit int) ([]*types.Instrument, error) {
	out, err := is.instrumentRepo.ListLatest(dbctx.New(ctx), limit)
	if err != nil {
		return nil, fmt.Errorf("list latest instruments: %w", err)
	}
	return out, nil
}

func (is *instrumentService) Get(ctx context.Context, id int) (*types.Instrument, error) {
	inst, err := is.instrumentRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("load instrument %d: %w", id, err)
	}
	if inst == nil {
		return nil, errInstrumentNotFound()
	}
	return inst, nil
}

func (is *instrumentService) ListByUser(ctx context.Context, userID int) ([]*types.Instrument, error) {
	out, err := is.instrumentRepo.ListByUser(dbctx.New(ctx), userID)
	if err != nil {
		return nil, fmt.Errorf("list instruments for user: %w", err)
	}
	return out, nil
}

func (is *instrumentService) GetOwned(ctx context.Context, actorID, id int) (*types.Instrument, error) {
	inst, err := is.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inst.OwnedBy(actorID) {
		return nil, errNotOwner()
	}
	return inst, nil
}

func (is *instrumentService) validate(ctx context.Context, in validation.Input, opts validation.Options) (*validation.Record, error) {
	res, err := is.validator.Validate(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	if !res.Valid() {
		is.metrics.IncValidationFailure(opts.Mode.String())
		return nil, &validation.Error{Result: res}
	}
	return &res.Record, nil
}

func imageValue(img *string) *string {
	if img == nil {
		return nil
	}
	return pointers.NonEmpty(*img)
}

// Create validates outside any transaction (the image probe does network I/O)
// and then writes the instrument and its alternate names in one transaction.
func (is *instrumentService) Create(ctx context.Context, actorID int, in validation.Input) (*types.Instrument, error) {
	rec, err := is.validate(ctx, in, validation.Options{Mode: validation.ModeCreate})
	if err != nil {
		return nil, err
	}

	inst := &types.Instrument{
		Name:        *rec.Name,
		Description: *rec.Description,
		Image:       imageValue(rec.Image),
		CategoryID:  *rec.CategoryID,
		UserID:      actorID,
	}
	err = is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := is.instrumentRepo.Create(dbc, inst); err != nil {
			return fmt.Errorf("create instrument: %w", err)
		}
		return is.altNameRepo.ApplyPlan(dbc, inst.ID, altnames.Build(nil, rec.AlternateNames))
	})
	if err != nil {
		return nil, err
	}
	is.metrics.IncInstrumentWrite("create")
	is.log.Info("Instrument created", "instrument_id", inst.ID, "actor_id", actorID)
	return is.Get(ctx, inst.ID)
}

// Update applies a validated payload. Ownership is checked before validation
// and again inside the transaction, so a forbidden request mutates nothing.
func (is *instrumentService) Update(ctx context.Context, actorID, id int, in validation.Input, mode validation.Mode) (*types.Instrument, error) {
	existing, err := is.GetOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	rec, err := is.validate(ctx, in, validation.Options{Mode: mode, Existing: existing})
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if rec.Name != nil {
		updates["name"] = *rec.Name
	}
	if rec.Description != nil {
		updates["description"] = *rec.Description
	}
	if rec.Image != nil {
		updates["image"] = imageValue(rec.Image)
	}
	if rec.CategoryID != nil {
		updates["category_id"] = *rec.CategoryID
	}
	replaceAltNames := rec.AlternateNamesSet || mode == validation.ModeCreate

	err = is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		current, err := is.instrumentRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("reload instrument %d: %w", id, err)
		}
		if current == nil {
			return errInstrumentNotFound()
		}
		if !current.OwnedBy(actorID) {
			return errNotOwner()
		}
		if err := is.instrumentRepo.Update(dbc, id, updates); err != nil {
			return fmt.Errorf("update instrument %d: %w", id, err)
		}
		if !replaceAltNames {
			return nil
		}
		target := rec.AlternateNames
		if target == nil {
			target = []string{}
		}
		return is.altNameRepo.ApplyPlan(dbc, id, altnames.Build(current.AlternateNames, target))
	})
	if err != nil {
		return nil, err
	}
	is.metrics.IncInstrumentWrite("update")
	is.log.Info("Instrument updated", "instrument_id", id, "actor_id", actorID)
	return is.Get(ctx, id)
}

func (is *instrumentService) Delete(ctx context.Context, actorID, id int) (bool, error) {
	existed := false
	err := is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		current, err := is.instrumentRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load instrument %d: %w", id, err)
		}
		if current == nil {
			return nil
		}
		if !current.OwnedBy(actorID) {
			return errNotOwner()
		}
		existed, err = is.instrumentRepo.Delete(dbc, id)
		if err != nil {
			return fmt.Errorf("delete instrument %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if existed {
		is.metrics.IncInstrumentWrite("delete")
		is.log.Info("Instrument deleted", "instrument_id", id, "actor_id", actorID)
	}
	return existed, nil
}
