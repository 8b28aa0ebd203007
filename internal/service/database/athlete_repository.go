package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/kapu/ufc-athlete-scraper-go/pkg/errors"
	"go.uber.org/zap"
)

const athletesSchema = `
	CREATE TABLE IF NOT EXISTS athletes (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		nickname      TEXT NOT NULL DEFAULT '',
		division      TEXT NOT NULL DEFAULT '',
		gender        TEXT NOT NULL DEFAULT '',
		wld           TEXT NOT NULL DEFAULT '',
		about         JSONB NOT NULL,
		stats         JSONB NOT NULL,
		record        JSONB NOT NULL,
		fight_history JSONB NOT NULL,
		scraped_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// AthleteRepository stores athletes in postgres. Like the JSON dataset,
// an athlete already in the table is never replaced.
type AthleteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAthleteRepository(db *sql.DB, logger *zap.Logger) *AthleteRepository {
	return &AthleteRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AthleteRepository) Name() string {
	return "postgres"
}

// EnsureSchema creates the athletes table when it does not exist.
func (r *AthleteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, athletesSchema); err != nil {
		return errors.NewServiceError("failed to create athletes table", "postgres", "ensure_schema", err)
	}
	return nil
}

func (r *AthleteRepository) Store(ctx context.Context, records []*domain.AthleteRecord) error {
	_, err := r.InsertNew(ctx, records)
	return err
}

// InsertNew inserts the records whose id is not yet present, in one transaction.
// It returns the number of rows inserted.
func (r *AthleteRepository) InsertNew(ctx context.Context, records []*domain.AthleteRecord) (int, error) {
	query := `
		INSERT INTO athletes (id, name, nickname, division, gender, wld, about, stats, record, fight_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewServiceError("failed to begin transaction", "postgres", "insert_athletes", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, record := range records {
		id := record.ID()
		if id == "" {
			r.logger.Warn("Skipping athlete without id")
			continue
		}

		args, err := athleteArgs(record)
		if err != nil {
			return 0, errors.NewServiceError(fmt.Sprintf("failed to encode athlete %s", id), "postgres", "insert_athletes", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, errors.NewServiceError(fmt.Sprintf("failed to insert athlete %s", id), "postgres", "insert_athletes", err)
		}
		if affected, err := result.RowsAffected(); err == nil {
			inserted += int(affected)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewServiceError("failed to commit athletes", "postgres", "insert_athletes", err)
	}

	r.logger.Info("Athletes stored in PostgreSQL",
		zap.Int("received", len(records)),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}

// FindByID returns nil without error when the athlete is not stored.
func (r *AthleteRepository) FindByID(ctx context.Context, id string) (*domain.AthleteRecord, error) {
	query := `
		SELECT about, stats, record, fight_history
		FROM athletes
		WHERE id = $1
	`

	var aboutJSON, statsJSON, recordJSON, historyJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&aboutJSON, &statsJSON, &recordJSON, &historyJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query athlete by id: %w", err)
	}

	var record domain.AthleteRecord
	parts := []struct {
		data []byte
		dest any
	}{
		{aboutJSON, &record.About},
		{statsJSON, &record.Stats},
		{recordJSON, &record.Record},
		{historyJSON, &record.FightHistory},
	}
	for _, part := range parts {
		if err := json.Unmarshal(part.data, part.dest); err != nil {
			return nil, fmt.Errorf("failed to decode athlete %s: %w", id, err)
		}
	}
	return &record, nil
}

// AllIDs returns the ids of every stored athlete.
func (r *AthleteRepository) AllIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM athletes`)
	if err != nil {
		return nil, fmt.Errorf("failed to query athlete ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			r.logger.Warn("Failed to scan athlete id", zap.Error(err))
			continue
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate athlete ids: %w", err)
	}
	return ids, nil
}

// athleteArgs renders the insert arguments. JSON columns are sent as text so lib/pq does not treat them as bytea.
func athleteArgs(record *domain.AthleteRecord) ([]any, error) {
	about, err := domain.EncodeJSON(record.About)
	if err != nil {
		return nil, err
	}
	stats, err := domain.EncodeJSON(record.Stats)
	if err != nil {
		return nil, err
	}
	summary, err := domain.EncodeJSON(record.Record)
	if err != nil {
		return nil, err
	}
	history, err := domain.EncodeJSON(record.FightHistory)
	if err != nil {
		return nil, err
	}

	return []any{
		record.About.ID,
		record.About.Name,
		record.About.Nickname,
		record.About.Division,
		record.About.Gender,
		record.Record.WLD,
		string(about),
		string(stats),
		string(summary),
		string(history),
	}, nil
}
