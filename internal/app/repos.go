package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/instrument-catalog/internal/data/repos"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

type Repos struct {
	User          repos.UserRepo
	OAuthNonce    repos.OAuthNonceRepo
	Category      repos.CategoryRepo
	Instrument    repos.InstrumentRepo
	AlternateName repos.AlternateNameRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		OAuthNonce:    repos.NewOAuthNonceRepo(db, log),
		Category:      repos.NewCategoryRepo(db, log),
		Instrument:    repos.NewInstrumentRepo(db, log),
		AlternateName: repos.NewAlternateNameRepo(db, log),
	}
}
