package universe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Liszten/kpiComp/internal/contracts"
)

// Repository persists the peer universe in data.universe
// ⭐ SSOT: 유니버스 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new universe repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert inserts or updates constituents in one batch
func (r *Repository) Upsert(ctx context.Context, constituents []contracts.Constituent) (int, error) {
	if len(constituents) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO data.universe (ticker, company_name, sector, industry, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			updated_at = NOW()`

	for _, c := range constituents {
		batch.Queue(query, c.Ticker, c.CompanyName, c.Sector, c.Industry)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, c := range constituents {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", c.Ticker, err)
		}
	}

	return len(constituents), nil
}

// ListBySector returns tickers in a sector (case-insensitive)
func (r *Repository) ListBySector(ctx context.Context, sector string) ([]string, error) {
	query := `
		SELECT ticker
		FROM data.universe
		WHERE lower(sector) = lower($1)
		ORDER BY ticker`

	rows, err := r.pool.Query(ctx, query, sector)
	if err != nil {
		return nil, fmt.Errorf("query universe by sector: %w", err)
	}

	tickers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan universe rows: %w", err)
	}
	return tickers, nil
}

// Sectors returns the distinct non-empty sectors
func (r *Repository) Sectors(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT sector
		FROM data.universe
		WHERE sector <> ''
		ORDER BY sector`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sectors: %w", err)
	}

	sectors, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan sectors: %w", err)
	}
	return sectors, nil
}
