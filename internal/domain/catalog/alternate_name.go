package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxAlternateNames      = 10
	MaxAlternateNameLength = 128
)

// AlternateName is one entry of an instrument's ordered alternate-name list.
// Rows are identified by a surrogate id so that reordering never has to
// touch the (instrument_id, name) pair of a surviving row.
type AlternateName struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	InstrumentID int       `gorm:"not null;column:instrument_id;uniqueIndex:idx_alt_names_instrument_index,priority:1;uniqueIndex:idx_alt_names_instrument_name,priority:1" json:"-"`
	Name         string    `gorm:"size:128;not null;column:name;uniqueIndex:idx_alt_names_instrument_name,priority:2" json:"name"`
	Index        int16     `gorm:"not null;column:sort_index;uniqueIndex:idx_alt_names_instrument_index,priority:2" json:"index"`
}

func (AlternateName) TableName() string { return "alternate_instrument_names" }

func (a *AlternateName) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
