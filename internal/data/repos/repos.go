package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/instrument-catalog/internal/data/repos/auth"
	"github.com/yungbote/instrument-catalog/internal/data/repos/catalog"
	"github.com/yungbote/instrument-catalog/internal/data/repos/user"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

type UserRepo = user.UserRepo
type OAuthProfile = user.OAuthProfile
type OAuthNonceRepo = auth.OAuthNonceRepo

type CategoryRepo = catalog.CategoryRepo
type InstrumentRepo = catalog.InstrumentRepo
type AlternateNameRepo = catalog.AlternateNameRepo

var ErrNonceConsumed = auth.ErrNonceConsumed

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewOAuthNonceRepo(db *gorm.DB, baseLog *logger.Logger) OAuthNonceRepo {
	return auth.NewOAuthNonceRepo(db, baseLog)
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return catalog.NewCategoryRepo(db, baseLog)
}

func NewInstrumentRepo(db *gorm.DB, baseLog *logger.Logger) InstrumentRepo {
	return catalog.NewInstrumentRepo(db, baseLog)
}

func NewAlternateNameRepo(db *gorm.DB, baseLog *logger.Logger) AlternateNameRepo {
	return catalog.NewAlternateNameRepo(db, baseLog)
}
