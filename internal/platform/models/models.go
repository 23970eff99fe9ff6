package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductDraft is in-flight product assembled from a product page, not persisted yet.
type ProductDraft struct {
	Name        string
	Price       decimal.Decimal
	Description string
	// ImageSource is raw image reference found on the page, empty when page has no image.
	ImageSource string
	// ImageBytes is downloaded image content, set only after successful download.
	ImageBytes []byte
}

// HasImage reports whether product page contained image reference.
func (d *ProductDraft) HasImage() bool {
	return d.ImageSource != ""
}

// ProductRecord is product model handed over to the repository.
type ProductRecord struct {
	ID          int
	Name        string
	Price       decimal.Decimal
	Description string
	ImageSource string
	// ImagePath is public path of the product image, e.g. /images/products/<slug>.jpg.
	ImagePath string
	CreatedAt time.Time
}
