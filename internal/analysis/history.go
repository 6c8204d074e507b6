package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Liszten/kpiComp/internal/rating"
)

// HistoryStore records finished reports
type HistoryStore interface {
	Record(ctx context.Context, report *Report) error
	List(ctx context.Context, ticker string, limit int) ([]HistoryEntry, error)
}

// HistoryEntry is one past rating of a ticker
type HistoryEntry struct {
	ID            uuid.UUID         `json:"id"`
	Ticker        string            `json:"ticker"`
	Sector        string            `json:"sector"`
	OverallRating float64           `json:"overall_rating"`
	AbsoluteScore float64           `json:"absolute_score"`
	RelativeScore float64           `json:"relative_score"`
	Confidence    rating.Confidence `json:"confidence"`
	PeerCount     int               `json:"peer_count"`
	AnalyzedAt    time.Time         `json:"analyzed_at"`
}

// DefaultHistoryLimit caps List when no limit is given
const DefaultHistoryLimit = 50

// HistoryRepository stores reports in data.rating_history
// ⭐ SSOT: 평가 이력 저장/조회는 여기서만
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Record inserts a report
func (r *HistoryRepository) Record(ctx context.Context, report *Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query := `
		INSERT INTO data.rating_history (
			id, ticker, sector,
			overall_rating, absolute_score, relative_score,
			confidence, peer_count, report, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		report.ID, report.Ticker, report.Sector,
		report.Rating.OverallRating, report.Rating.AbsoluteScore, report.Rating.RelativeScore,
		string(report.Rating.Confidence), report.SectorPeerCount, payload, report.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rating history: %w", err)
	}
	return nil
}

// List returns the newest ratings of a ticker first
func (r *HistoryRepository) List(ctx context.Context, ticker string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, ticker, sector,
			   overall_rating, absolute_score, relative_score,
			   confidence, peer_count, analyzed_at
		FROM data.rating_history
		WHERE ticker = $1
		ORDER BY analyzed_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query rating history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (HistoryEntry, error) {
		var e HistoryEntry
		var confidence string
		err := row.Scan(
			&e.ID, &e.Ticker, &e.Sector,
			&e.OverallRating, &e.AbsoluteScore, &e.RelativeScore,
			&confidence, &e.PeerCount, &e.AnalyzedAt,
		)
		e.Confidence = rating.Confidence(confidence)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan rating history: %w", err)
	}
	return entries, nil
}
