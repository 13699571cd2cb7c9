package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nzyazin/currency/internal/core/logger"
	"github.com/Nzyazin/currency/internal/core/models"
	"github.com/Nzyazin/currency/internal/core/repository"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS currencies (
    code        CHAR(3) PRIMARY KEY,
    name        TEXT NOT NULL,
    symbol      TEXT NOT NULL DEFAULT '',
    minor_units INTEGER NOT NULL DEFAULT 2
)`

type postgresCurrencyRepo struct {
	db  *sqlx.DB
	log logger.Logger
}

func NewPostgresCurrencyRepo(db *sqlx.DB, log logger.Logger) repository.CurrencyRepository {
	return &postgresCurrencyRepo{
		db:  db,
		log: log,
	}
}

// Migrate creates the currencies table if it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create currencies table: %w", err)
	}
	return nil
}

// Seed inserts currencies that are not stored yet. Existing rows are left untouched.
func Seed(ctx context.Context, db *sqlx.DB, currencies []models.Currency) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
		}
	}()

	const query = `INSERT INTO currencies (code, name, symbol, minor_units)
		VALUES (:code, :name, :symbol, :minor_units)
		ON CONFLICT (code) DO NOTHING`

	for _, c := range currencies {
		if _, err = tx.NamedExecContext(ctx, query, c); err != nil {
			return fmt.Errorf("seed currency %s: %w", c.Code, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (r *postgresCurrencyRepo) List(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency
	query := `SELECT code, name, symbol, minor_units FROM currencies ORDER BY code`
	if err := r.db.SelectContext(ctx, &currencies, query); err != nil {
		r.log.Error("Error listing currencies", logger.ErrorField("error", err))
		return nil, fmt.Errorf("error listing currencies: %w", err)
	}

	return currencies, nil
}

func (r *postgresCurrencyRepo) GetByCode(ctx context.Context, code string) (*models.Currency, error) {
	var currency models.Currency
	query := `SELECT code, name, symbol, minor_units FROM currencies WHERE code = $1`
	err := r.db.GetContext(ctx, &currency, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", repository.ErrCurrencyNotFound, code)
		}
		return nil, fmt.Errorf("error getting currency: %w", err)
	}

	return &currency, nil
}
