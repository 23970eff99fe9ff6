package modelstesting

import (
	"math/rand"
	"time"

	"github.com/MichalMitros/product-scraper/internal/platform/models"
	"github.com/go-faker/faker/v4"
	"github.com/shopspring/decimal"
)

// FakeRecord returns models.ProductRecord with fake data.
func FakeRecord(ops ...func(r *models.ProductRecord)) models.ProductRecord {
	name := faker.Word()
	record := models.ProductRecord{
		Name:        name,
		Price:       FakePrice(),
		Description: faker.Sentence(),
		ImageSource: faker.URL(),
		ImagePath:   "/images/products/" + name + ".jpg",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	for _, op := range ops {
		op(&record)
	}

	return record
}

// FakeDraft returns models.ProductDraft with fake data.
func FakeDraft(ops ...func(d *models.ProductDraft)) models.ProductDraft {
	draft := models.ProductDraft{
		Name:        faker.Word(),
		Price:       FakePrice(),
		Description: faker.Sentence(),
		ImageSource: faker.URL(),
	}

	for _, op := range ops {
		op(&draft)
	}

	return draft
}

// FakePrice returns random non-negative price with two decimal places.
func FakePrice() decimal.Decimal {
	return decimal.New(rand.Int63n(1_000_000), -2)
}
