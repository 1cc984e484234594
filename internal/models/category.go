package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Display defaults for categories created without an icon or color.
const (
	DefaultCategoryIcon  = IconMoney
	DefaultCategoryColor = ColorBlue
)

// Category represents a transaction category. Names are unique per user and type.
type Category struct {
	Base
	UserID    string       `gorm:"type:uuid;not null;uniqueIndex:idx_categories_user_name_type,priority:1" json:"user_id"`
	Name      string       `gorm:"size:50;not null;uniqueIndex:idx_categories_user_name_type,priority:2" json:"name"`
	Type      CategoryType `gorm:"size:10;not null;uniqueIndex:idx_categories_user_name_type,priority:3" json:"type"`
	Icon      string       `gorm:"not null" json:"icon"`
	Color     string       `gorm:"size:7;not null" json:"color"`
	IsDefault bool         `gorm:"not null;default:false" json:"is_default"`
}

// Icon and color palette offered by clients.
const (
	IconMoney         = "\U0001F4B0"
	IconShopping      = "\U0001F6D2"
	IconFood          = "\U0001F37D"
	IconTransport     = "\U0001F68C"
	IconHome          = "\U0001F3E0"
	IconHealth        = "\u2695"
	IconEntertainment = "\U0001F3AE"
	IconEducation     = "\U0001F393"
	IconSalary        = "\U0001F4BC"
	IconGift          = "\U0001F381"

	ColorBlue   = "#3498db"
	ColorGreen  = "#2ecc71"
	ColorRed    = "#e74c3c"
	ColorYellow = "#f39c12"
	ColorPurple = "#9b59b6"
)
