package storage

import (
	"github.com/MichalMitros/product-scraper/internal/platform/models"
	"github.com/samber/lo"

	pgmodels "github.com/MichalMitros/product-scraper/internal/platform/storage/gen/postgres/public/model"
)

//go:generate jet -dsn=${DATABASE_URL} -schema=public -path=./gen

// ToDBProduct converts models.ProductRecord into postgres product model.
// Empty image fields are stored as NULL.
func ToDBProduct(record *models.ProductRecord) *pgmodels.Product {
	return &pgmodels.Product{
		ID:          int32(record.ID),
		Name:        record.Name,
		Price:       record.Price,
		Description: record.Description,
		ImageURL:    lo.EmptyableToPtr(record.ImageSource),
		ImagePath:   lo.EmptyableToPtr(record.ImagePath),
		CreatedAt:   record.CreatedAt,
	}
}

// FromDBProduct converts postgres product model into models.ProductRecord.
func FromDBProduct(product *pgmodels.Product) *models.ProductRecord {
	return &models.ProductRecord{
		ID:          int(product.ID),
		Name:        product.Name,
		Price:       product.Price,
		Description: product.Description,
		ImageSource: lo.FromPtr(product.ImageURL),
		ImagePath:   lo.FromPtr(product.ImagePath),
		CreatedAt:   product.CreatedAt,
	}
}
