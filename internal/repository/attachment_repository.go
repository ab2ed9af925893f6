package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// AttachmentRepository stores complaint attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.Attachment, error)
	// WithTx returns a copy bound to the given transaction.
	WithTx(tx pgx.Tx) AttachmentRepository
}

type attachmentRepository struct {
	db DB
}

// NewAttachmentRepository instantiates the repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{db: pool}
}

func (r *attachmentRepository) WithTx(tx pgx.Tx) AttachmentRepository {
	return &attachmentRepository{db: tx}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO complaint_attachments (complaint_id, url, kind)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		attachment.ComplaintID,
		attachment.URL,
		attachment.Kind,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, complaint_id, url, kind, created_at
        FROM complaint_attachments WHERE complaint_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.ID, &att.ComplaintID, &att.URL, &att.Kind, &att.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}
