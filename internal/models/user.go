package models

// Currency is a user's preferred display currency.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyBRL Currency = "BRL"
)

// DefaultCurrency is assigned when registration omits a currency.
const DefaultCurrency = CurrencyEUR

// Currencies lists the supported currencies.
var Currencies = []Currency{CurrencyEUR, CurrencyUSD, CurrencyGBP, CurrencyBRL}

// IsValid reports whether c is a supported currency.
func (c Currency) IsValid() bool {
	for _, v := range Currencies {
		if v == c {
			return true
		}
	}
	return false
}

// User represents the user model in the database
type User struct {
	Base
	Name         string        `gorm:"size:50;not null" json:"name"`
	Email        string        `gorm:"uniqueIndex;not null" json:"email"`
	Password     string        `gorm:"not null" json:"-"`
	Currency     Currency      `gorm:"size:3;not null;default:EUR" json:"currency"`
	Categories   []Category    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Transactions []Transaction `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Budgets      []Budget      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
