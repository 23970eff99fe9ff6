package storagetesting

import (
	"database/sql"
	"os"
	"testing"

	pgmodels "github.com/MichalMitros/product-scraper/internal/platform/storage/gen/postgres/public/model"
	"github.com/MichalMitros/product-scraper/internal/platform/storage/gen/postgres/public/table"
	pg "github.com/go-jet/jet/v2/postgres"
	"github.com/go-jet/jet/v2/qrm"

	_ "github.com/lib/pq"
)

// Open opens connection to DB. Test is skipped when DATABASE_URL is not set.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("please provide database URL via DATABASE_URL environment variable")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("can't open connection to %q: %s", dbURL, err)
	}

	return db
}

// InsertProducts is a helper test function to insert products. Returns inserted products with IDs.
func InsertProducts(t *testing.T, exc qrm.Queryable, products ...pgmodels.Product) []pgmodels.Product {
	t.Helper()

	if len(products) == 0 {
		return nil
	}

	inserted := []pgmodels.Product{}
	err := table.Product.INSERT(table.Product.MutableColumns).
		MODELS(products).
		RETURNING(table.Product.AllColumns).
		Query(exc, &inserted)
	if err != nil {
		t.Fatal("can't insert products", err)
	}

	return inserted
}

// GetProducts is a helper test function to get all products ordered by ID.
func GetProducts(t *testing.T, queryable qrm.Queryable) []pgmodels.Product {
	t.Helper()

	products := []pgmodels.Product{}
	err := table.Product.SELECT(table.Product.AllColumns).
		WHERE(table.Product.ID.IS_NOT_NULL()).
		ORDER_BY(table.Product.ID.ASC()).
		Query(queryable, &products)
	if err != nil {
		t.Fatal("can't get products", err)
	}

	return products
}

// GetProduct is a helper test function to get product by ID. Returns nil when there is no such product.
func GetProduct(t *testing.T, queryable qrm.Queryable, id int) *pgmodels.Product {
	t.Helper()

	products := []pgmodels.Product{}
	err := table.Product.SELECT(table.Product.AllColumns).
		WHERE(table.Product.ID.EQ(pg.Int32(int32(id)))).
		Query(queryable, &products)
	if err != nil {
		t.Fatal("can't get product", err)
	}

	if len(products) == 0 {
		return nil
	}

	return &products[0]
}

// CleanupData is a helper test function to delete all products.
func CleanupData(t *testing.T, exc qrm.Executable) {
	t.Helper()

	_, err := table.Product.DELETE().WHERE(table.Product.ID.IS_NOT_NULL()).Exec(exc)
	if err != nil {
		t.Fatal("can't delete products data", err)
	}
}
