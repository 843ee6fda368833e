package models

import "time"

// Locale selects which translation key is read from the source payload.
type Locale string

const (
	LocaleZhHant Locale = "zh-hant"
	LocaleEn     Locale = "en"
)

// DefaultLocale is the locale the catalog is synced in.
const DefaultLocale = LocaleZhHant

// ParseLocale maps a configured value onto a known Locale.
func ParseLocale(s string) (Locale, bool) {
	switch Locale(s) {
	case LocaleZhHant, LocaleEn:
		return Locale(s), true
	}
	return "", false
}

// ProductRecord is one purchasable variant of a source product.
// Records are append-only: they are inserted once and never updated.
type ProductRecord struct {
	ID        int64     `bson:"id" json:"id" db:"id"`
	ProductID string    `bson:"product_id" json:"product_id" db:"product_id" validate:"required"`
	OptionID  string    `bson:"option_id" json:"option_id" db:"option_id"`
	URL       string    `bson:"url" json:"url" db:"url" validate:"required"`
	Name      string    `bson:"name" json:"name" db:"name" validate:"required"`
	Summary   string    `bson:"summary" json:"summary" db:"summary"`
	Price     int64     `bson:"price" json:"price" db:"price" validate:"gte=0"`
	Option    string    `bson:"option" json:"option" db:"option"`
	Detail    string    `bson:"detail" json:"detail" db:"detail"`
	CreatedAt time.Time `bson:"created_at" json:"created_at" db:"created_at"`
}

// ListingPage is one page of the catalog index and the item URLs found on it.
type ListingPage struct {
	Index    int      `json:"index"`
	ItemURLs []string `json:"item_urls"`
}

// Extraction is everything read from one detail page: the variant records,
// the ordered image URLs shared by them and the notes left by optional steps.
type Extraction struct {
	ProductID   string          `json:"product_id"`
	Records     []ProductRecord `json:"records"`
	ImageURLs   []string        `json:"image_urls"` // empty entries keep their position
	Diagnostics []string        `json:"diagnostics,omitempty"`
}
