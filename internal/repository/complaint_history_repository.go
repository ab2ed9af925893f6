package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// ComplaintHistoryRepository persists the append-only audit trail.
type ComplaintHistoryRepository interface {
	Create(ctx context.Context, entry *domain.ComplaintHistory) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintHistory, error)
	// WithTx returns a copy bound to the given transaction.
	WithTx(tx pgx.Tx) ComplaintHistoryRepository
}

type complaintHistoryRepository struct {
	db DB
}

// NewComplaintHistoryRepository instantiates the repository.
func NewComplaintHistoryRepository(pool *pgxpool.Pool) ComplaintHistoryRepository {
	return &complaintHistoryRepository{db: pool}
}

func (r *complaintHistoryRepository) WithTx(tx pgx.Tx) ComplaintHistoryRepository {
	return &complaintHistoryRepository{db: tx}
}

func (r *complaintHistoryRepository) Create(ctx context.Context, entry *domain.ComplaintHistory) error {
	const query = `
        INSERT INTO complaint_history (complaint_id, actor_id, from_status, to_status, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.ComplaintID,
		entry.ActorID,
		entry.FromStatus,
		entry.ToStatus,
		entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *complaintHistoryRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintHistory, error) {
	const query = `
        SELECT id, complaint_id, actor_id, from_status, to_status, note, created_at
        FROM complaint_history WHERE complaint_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ComplaintHistory
	for rows.Next() {
		var entry domain.ComplaintHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.ComplaintID,
			&entry.ActorID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
