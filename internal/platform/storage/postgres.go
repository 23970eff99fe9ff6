package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/MichalMitros/product-scraper/internal/platform"
	"github.com/MichalMitros/product-scraper/internal/platform/models"
	"github.com/MichalMitros/product-scraper/internal/platform/storage/gen/postgres/public/table"

	pg "github.com/go-jet/jet/v2/postgres"
)

//go:embed schema.sql
var schema string

// Postgres is storage for scraped products.
type Postgres struct {
	db *sql.DB
}

// NewPostgres returns new Postgres.
func NewPostgres(db *sql.DB) Postgres {
	return Postgres{
		db: db,
	}
}

// Migrate creates product table if it doesn't exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	err := runInTransaction(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("can't apply database schema: %w", err)
	}

	return nil
}

// Save inserts new product and returns its assigned ID.
// Every call creates new product, records are never deduplicated.
func (p Postgres) Save(ctx context.Context, record *models.ProductRecord) (int, error) {
	dbProduct := ToDBProduct(record)

	err := table.Product.INSERT(table.Product.MutableColumns).
		MODEL(dbProduct).
		RETURNING(table.Product.ID).
		QueryContext(ctx, p.db, dbProduct)
	if err != nil {
		return 0, fmt.Errorf("can't insert product into database: %w", err)
	}

	return int(dbProduct.ID), nil
}

// Update updates all product fields except its creation time.
// It returns platform.ErrProductNotFound when there is no product with record's ID.
func (p Postgres) Update(ctx context.Context, record *models.ProductRecord) error {
	columnList := table.Product.MutableColumns.Except(table.Product.CreatedAt)

	result, err := table.Product.UPDATE(columnList).
		MODEL(ToDBProduct(record)).
		WHERE(table.Product.ID.EQ(pg.Int32(int32(record.ID)))).
		ExecContext(ctx, p.db)
	if err != nil {
		return fmt.Errorf("can't update product: %w", err)
	}

	return checkAffected(result)
}

// Delete deletes product with record's ID.
// It returns platform.ErrProductNotFound when there is no such product.
func (p Postgres) Delete(ctx context.Context, record *models.ProductRecord) error {
	result, err := table.Product.DELETE().
		WHERE(table.Product.ID.EQ(pg.Int32(int32(record.ID)))).
		ExecContext(ctx, p.db)
	if err != nil {
		return fmt.Errorf("can't delete product: %w", err)
	}

	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't check affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return platform.ErrProductNotFound
	}

	return nil
}

func runInTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	var (
		tx  *sql.Tx
		err error
	)

	if tx, err = db.BeginTx(ctx, nil); err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("can't rollback transaction: %w (rollback reason: %w)", rbErr, err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit transaction: %w", err)
	}

	return nil
}
