package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// ComplaintFilter captures list query parameters.
type ComplaintFilter struct {
	OrganizationID *string
	CreatedBy      *string
	DepartmentID   *string
	AssignedTo     *string
	Category       *string
	Statuses       []domain.ComplaintStatus
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// StatusCounts aggregates complaint totals for the analytics summary.
type StatusCounts struct {
	Total      int64
	Open       int64
	InProgress int64
	Resolved   int64
	SLABreach  int64
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	CountByCreatorSince(ctx context.Context, creatorID string, since time.Time) (int, error)
	// UpdateStatus conditionally writes the new status (and optional fields)
	// only while the stored status still equals expected. Returns
	// pgx.ErrNoRows when the complaint is gone or another writer won.
	UpdateStatus(ctx context.Context, id string, expected domain.ComplaintStatus, update StatusUpdate) error
	UpdateAssignee(ctx context.Context, id string, staffID *string) error
	Counts(ctx context.Context, orgID *string, now time.Time) (*StatusCounts, error)
	// WithTx returns a copy bound to the given transaction.
	WithTx(tx pgx.Tx) ComplaintRepository
}

// StatusUpdate carries the mutable fields of a status transition.
type StatusUpdate struct {
	Status         domain.ComplaintStatus
	AssignedTo     *string
	SetAssignee    bool
	ResolutionTime *time.Time
}

type complaintRepository struct {
	db DB
}

// NewComplaintRepository instantiates the repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{db: pool}
}

func (r *complaintRepository) WithTx(tx pgx.Tx) ComplaintRepository {
	return &complaintRepository{db: tx}
}

const complaintColumns = `id, reference_key, org_id, created_by, title, description, category, priority,
        lat, lng, reporter_name, reporter_phone, reporter_email, status, department_id,
        assigned_staff_id, sla_deadline, resolution_time, created_at, updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (reference_key, org_id, created_by, title, description, category, priority,
            lat, lng, reporter_name, reporter_phone, reporter_email, status, department_id,
            assigned_staff_id, sla_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, created_at, updated_at`

	var lat, lng *float64
	if complaint.Location != nil {
		lat, lng = &complaint.Location.Lat, &complaint.Location.Lng
	}
	var repName, repPhone, repEmail *string
	if complaint.Reporter != nil {
		repName, repPhone, repEmail = &complaint.Reporter.Name, &complaint.Reporter.Phone, &complaint.Reporter.Email
	}

	return r.db.QueryRow(ctx, query,
		complaint.ReferenceKey,
		complaint.OrganizationID,
		complaint.CreatedBy,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		lat,
		lng,
		repName,
		repPhone,
		repEmail,
		complaint.Status,
		complaint.DepartmentID,
		complaint.AssignedTo,
		complaint.SLADeadline,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id=$1`, complaintColumns)
	row := r.db.QueryRow(ctx, query, id)
	return scanComplaint(row)
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("org_id=$%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_staff_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		complaintColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func (r *complaintRepository) CountByCreatorSince(ctx context.Context, creatorID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM complaints WHERE created_by=$1 AND created_at >= $2`
	var count int
	if err := r.db.QueryRow(ctx, query, creatorID, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, id string, expected domain.ComplaintStatus, update StatusUpdate) error {
	query := `UPDATE complaints SET status=$1, resolution_time=$2, updated_at=NOW()`
	args := []any{update.Status, update.ResolutionTime}
	if update.SetAssignee {
		args = append(args, update.AssignedTo)
		query += fmt.Sprintf(", assigned_staff_id=$%d", len(args))
	}
	args = append(args, id)
	query += fmt.Sprintf(" WHERE id=$%d", len(args))
	args = append(args, expected)
	query += fmt.Sprintf(" AND status=$%d", len(args))

	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) UpdateAssignee(ctx context.Context, id string, staffID *string) error {
	const query = `UPDATE complaints SET assigned_staff_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, staffID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) Counts(ctx context.Context, orgID *string, now time.Time) (*StatusCounts, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='OPEN'),
               COUNT(*) FILTER (WHERE status='IN_PROGRESS'),
               COUNT(*) FILTER (WHERE status='RESOLVED'),
               COUNT(*) FILTER (WHERE sla_deadline < $1 AND status IN ('OPEN','IN_PROGRESS'))
        FROM complaints`
	args := []any{now}
	if orgID != nil {
		args = append(args, *orgID)
		query += " WHERE org_id=$2"
	}

	var counts StatusCounts
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&counts.Total,
		&counts.Open,
		&counts.InProgress,
		&counts.Resolved,
		&counts.SLABreach,
	); err != nil {
		return nil, err
	}
	return &counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*domain.Complaint, error) {
	var (
		complaint                  domain.Complaint
		lat, lng                   *float64
		repName, repPhone, repMail *string
	)
	if err := row.Scan(
		&complaint.ID,
		&complaint.ReferenceKey,
		&complaint.OrganizationID,
		&complaint.CreatedBy,
		&complaint.Title,
		&complaint.Description,
		&complaint.Category,
		&complaint.Priority,
		&lat,
		&lng,
		&repName,
		&repPhone,
		&repMail,
		&complaint.Status,
		&complaint.DepartmentID,
		&complaint.AssignedTo,
		&complaint.SLADeadline,
		&complaint.ResolutionTime,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		complaint.Location = &domain.Location{Lat: *lat, Lng: *lng}
	}
	if repName != nil || repPhone != nil || repMail != nil {
		complaint.Reporter = &domain.ReporterSnapshot{}
		if repName != nil {
			complaint.Reporter.Name = *repName
		}
		if repPhone != nil {
			complaint.Reporter.Phone = *repPhone
		}
		if repMail != nil {
			complaint.Reporter.Email = *repMail
		}
	}
	return &complaint, nil
}
