package domain

import (
	"github.com/yungbote/instrument-catalog/internal/domain/auth"
	"github.com/yungbote/instrument-catalog/internal/domain/catalog"
	"github.com/yungbote/instrument-catalog/internal/domain/user"
)

type (
	User           = user.User
	Category       = catalog.Category
	Instrument     = catalog.Instrument
	InstrumentView = catalog.InstrumentView
	AlternateName  = catalog.AlternateName
	OAuthNonce     = auth.OAuthNonce
)

const (
	MaxUserNameLength = user.MaxNameLength
	MaxAlternateNames = catalog.MaxAlternateNames
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&User{},
		&Category{},
		&Instrument{},
		&AlternateName{},
		&OAuthNonce{},
	}
}
