package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/bmi-tracker/internal/domain/entity"
	"github.com/oksasatya/bmi-tracker/internal/domain/repository"
)

type BMIRepository struct {
	db DBTX
}

func NewBMIRepository(db DBTX) *BMIRepository {
	return &BMIRepository{db: db}
}

const selectBMIColumns = `SELECT id, user_id, weight, height, age, bmi, category, created_at FROM bmi_records`

func (r *BMIRepository) Create(ctx context.Context, rec *entity.BMIRecord) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO bmi_records (user_id, weight, height, age, bmi, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, rec.UserID, rec.Weight, rec.Height, rec.Age, rec.BMI, string(rec.Category))

	return row.Scan(&rec.ID, &rec.CreatedAt)
}

// ListRecent orders by created_at then id so ties never reorder between calls.
// A negative limit returns every record, as LIMIT NULL does.
func (r *BMIRepository) ListRecent(ctx context.Context, userID string, limit int) ([]entity.BMIRecord, error) {
	var lim any = limit
	if limit < 0 {
		lim = nil
	}
	rows, err := r.db.Query(ctx, selectBMIColumns+`
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.BMIRecord, 0, max(limit, 0))
	for rows.Next() {
		rec, err := scanBMIRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *BMIRepository) GetLatest(ctx context.Context, userID string) (*entity.BMIRecord, error) {
	row := r.db.QueryRow(ctx, selectBMIColumns+`
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID)

	rec, err := scanBMIRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *BMIRepository) DeleteByID(ctx context.Context, userID, id string) error {
	// ids that cannot be a uuid cannot exist; don't let postgres turn them into a 500
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	res, err := r.db.Exec(ctx, `
		DELETE FROM bmi_records
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanBMIRecord(row pgx.Row) (*entity.BMIRecord, error) {
	var (
		rec      entity.BMIRecord
		category string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Weight, &rec.Height, &rec.Age, &rec.BMI, &category, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Category = entity.Category(category)
	return &rec, nil
}

var _ repository.BMIRepository = (*BMIRepository)(nil)
