package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// ReviewRepository persists post-resolution reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	// GetByComplaint returns pgx.ErrNoRows when no review exists yet.
	GetByComplaint(ctx context.Context, complaintID string) (*domain.Review, error)
	ListByStaff(ctx context.Context, staffID string, from, to *time.Time) ([]domain.Review, error)
	// WithTx returns a copy bound to the given transaction.
	WithTx(tx pgx.Tx) ReviewRepository
}

type reviewRepository struct {
	db DB
}

// NewReviewRepository instantiates the repository.
func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{db: pool}
}

func (r *reviewRepository) WithTx(tx pgx.Tx) ReviewRepository {
	return &reviewRepository{db: tx}
}

const reviewColumns = `id, complaint_id, staff_id, citizen_id, rating,
        resolution_quality, timeliness, communication, comment, created_at`

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	const query = `
        INSERT INTO reviews (complaint_id, staff_id, citizen_id, rating, resolution_quality, timeliness, communication, comment)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		review.ComplaintID,
		review.StaffID,
		review.CitizenID,
		review.Rating,
		review.ResolutionQuality,
		review.Timeliness,
		review.Communication,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
}

func (r *reviewRepository) GetByComplaint(ctx context.Context, complaintID string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE complaint_id=$1`
	var review domain.Review
	if err := r.db.QueryRow(ctx, query, complaintID).Scan(
		&review.ID,
		&review.ComplaintID,
		&review.StaffID,
		&review.CitizenID,
		&review.Rating,
		&review.ResolutionQuality,
		&review.Timeliness,
		&review.Communication,
		&review.Comment,
		&review.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByStaff(ctx context.Context, staffID string, from, to *time.Time) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE staff_id=$1`
	args := []any{staffID}
	if from != nil {
		args = append(args, *from)
		query += ` AND created_at >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			query += ` AND created_at <= $3`
		} else {
			query += ` AND created_at <= $2`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID,
			&review.ComplaintID,
			&review.StaffID,
			&review.CitizenID,
			&review.Rating,
			&review.ResolutionQuality,
			&review.Timeliness,
			&review.Communication,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, review)
	}
	return result, rows.Err()
}
