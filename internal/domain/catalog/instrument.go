package catalog

import (
	"time"

	"github.com/yungbote/instrument-catalog/internal/domain/user"
)

const (
	MaxNameLength        = 128
	MaxDescriptionLength = 16384
	MaxImageLength       = 512
)

type Instrument struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:128;not null;column:name" json:"name"`
	Description string    `gorm:"size:16384;not null;column:description" json:"description"`
	Image       *string   `gorm:"size:512;column:image" json:"image"`
	UserID      int       `gorm:"not null;index;column:user_id" json:"-"`
	CategoryID  int       `gorm:"not null;index;column:category_id" json:"category_id"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime;index" json:"-"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"-"`

	User           *user.User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Category       *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	AlternateNames []AlternateName `gorm:"foreignKey:InstrumentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Instrument) TableName() string { return "instruments" }

// OwnedBy reports whether userID may mutate the instrument.
func (i *Instrument) OwnedBy(userID int) bool {
	return i != nil && userID != 0 && i.UserID == userID
}

// AlternateNameList returns the alternate names in display order.
// AlternateNames must already be sorted by Index, which the repos guarantee.
func (i *Instrument) AlternateNameList() []string {
	out := make([]string, 0, len(i.AlternateNames))
	for _, a := range i.AlternateNames {
		out = append(out, a.Name)
	}
	return out
}

// InstrumentView is the API wire shape of an instrument.
type InstrumentView struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Image          *string  `json:"image"`
	CategoryID     int      `json:"category_id"`
	AlternateNames []string `json:"alternate_names"`
}

func (i *Instrument) View() InstrumentView {
	return InstrumentView{
		ID:             i.ID,
		Name:           i.Name,
		Description:    i.Description,
		Image:          i.Image,
		CategoryID:     i.CategoryID,
		AlternateNames: i.AlternateNameList(),
	}
}
