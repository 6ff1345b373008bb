package catalog

const (
	MaxCategoryNameLength        = 64
	MaxCategoryDescriptionLength = 16384
)

// Category is seeded and read-only to users.
type Category struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"size:64;uniqueIndex;not null;column:name" json:"name"`
	Description string `gorm:"size:16384;not null;column:description" json:"description"`
}

func (Category) TableName() string { return "categories" }
