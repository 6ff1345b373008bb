package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

var ErrNonceConsumed = errors.New("nonce already used or not found")

type OAuthNonceRepo interface {
	Create(dbc dbctx.Context, nonces []*types.OAuthNonce) ([]*types.OAuthNonce, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.OAuthNonce, error)
	MarkUsed(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	FullDeleteExpires(dbc dbctx.Context, before time.Time) (int64, error)
}

type oauthNonceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOAuthNonceRepo(db *gorm.DB, baseLog *logger.Logger) OAuthNonceRepo {
	repoLog := baseLog.With("repo", "OAuthNonceRepo")
	return &oauthNonceRepo{db: db, log: repoLog}
}

func (r *oauthNonceRepo) Create(dbc dbctx.Context, nonces []*types.OAuthNonce) ([]*types.OAuthNonce, error) {
	if len(nonces) == 0 {
		return []*types.OAuthNonce{}, nil
	}
	if err := dbc.DB(r.db).Create(&nonces).Error; err != nil {
		return nil, err
	}
	return nonces, nil
}

func (r *oauthNonceRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.OAuthNonce, error) {
	var n types.OAuthNonce
	err := dbc.DB(r.db).Where("id = ?", id).Take(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkUsed consumes the nonce. A second call for the same id fails with ErrNonceConsumed.
func (r *oauthNonceRepo) MarkUsed(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	res := dbc.DB(r.db).
		Model(&types.OAuthNonce{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark nonce %s: %w", id, ErrNonceConsumed)
	}
	return nil
}

func (r *oauthNonceRepo) FullDeleteExpires(dbc dbctx.Context, before time.Time) (int64, error) {
	res := dbc.DB(r.db).
		Where("expires_at < ?", before).
		Delete(&types.OAuthNonce{})
	return res.RowsAffected, res.Error
}
