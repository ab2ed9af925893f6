package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// StaffCandidate joins a staff profile with its display identity for ranking
// and responses.
type StaffCandidate struct {
	Profile domain.StaffProfile
	Name    string
	Email   string
}

// StaffRepository handles persistence for staff profiles.
type StaffRepository interface {
	Upsert(ctx context.Context, profile *domain.StaffProfile) error
	GetByUserID(ctx context.Context, userID string) (*domain.StaffProfile, error)
	// ListEligible returns dispatch candidates for a department: on duty
	// today with a known work-area point.
	ListEligible(ctx context.Context, departmentID string) ([]StaffCandidate, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]StaffCandidate, error)
	SetOnDuty(ctx context.Context, userID string, onDuty bool) error
	// ApplyRating folds one review rating into the stored (sum, count) pair.
	ApplyRating(ctx context.Context, userID string, rating int) (*domain.Rating, error)
	// WithTx returns a copy bound to the given transaction.
	WithTx(tx pgx.Tx) StaffRepository
}

type staffRepository struct {
	db DB
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{db: pool}
}

func (r *staffRepository) WithTx(tx pgx.Tx) StaffRepository {
	return &staffRepository{db: tx}
}

func (r *staffRepository) Upsert(ctx context.Context, profile *domain.StaffProfile) error {
	const query = `
        INSERT INTO staff_profiles (user_id, department_id, title, skills, shift_start, shift_end,
            on_duty_today, work_city, work_zones, work_lat, work_lng, contact_phone, contact_email)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT (user_id) DO UPDATE SET
            department_id=EXCLUDED.department_id, title=EXCLUDED.title, skills=EXCLUDED.skills,
            shift_start=EXCLUDED.shift_start, shift_end=EXCLUDED.shift_end,
            on_duty_today=EXCLUDED.on_duty_today, work_city=EXCLUDED.work_city,
            work_zones=EXCLUDED.work_zones, work_lat=EXCLUDED.work_lat, work_lng=EXCLUDED.work_lng,
            contact_phone=EXCLUDED.contact_phone, contact_email=EXCLUDED.contact_email,
            updated_at=NOW()
        RETURNING created_at, updated_at`

	var lat, lng *float64
	if profile.WorkArea.Location != nil {
		lat, lng = &profile.WorkArea.Location.Lat, &profile.WorkArea.Location.Lng
	}
	return r.db.QueryRow(ctx, query,
		profile.UserID,
		profile.DepartmentID,
		profile.Title,
		profile.Skills,
		profile.ShiftStart,
		profile.ShiftEnd,
		profile.OnDutyToday,
		profile.WorkArea.City,
		profile.WorkArea.Zones,
		lat,
		lng,
		profile.ContactPhone,
		profile.ContactEmail,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
}

const staffProfileColumns = `p.user_id, p.department_id, p.title, p.skills, p.shift_start, p.shift_end,
        p.on_duty_today, p.work_city, p.work_zones, p.work_lat, p.work_lng,
        p.contact_phone, p.contact_email, p.rating_sum, p.rating_count, p.created_at, p.updated_at`

func (r *staffRepository) GetByUserID(ctx context.Context, userID string) (*domain.StaffProfile, error) {
	query := `SELECT ` + staffProfileColumns + ` FROM staff_profiles p WHERE p.user_id=$1`
	profile, _, _, err := scanStaffProfile(r.db.QueryRow(ctx, query, userID), false)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *staffRepository) ListEligible(ctx context.Context, departmentID string) ([]StaffCandidate, error) {
	query := `SELECT ` + staffProfileColumns + `, u.name, u.email
        FROM staff_profiles p JOIN users u ON u.id = p.user_id
        WHERE p.department_id=$1 AND p.on_duty_today = TRUE
          AND p.work_lat IS NOT NULL AND p.work_lng IS NOT NULL`
	return r.queryCandidates(ctx, query, departmentID)
}

func (r *staffRepository) ListByDepartment(ctx context.Context, departmentID string) ([]StaffCandidate, error) {
	query := `SELECT ` + staffProfileColumns + `, u.name, u.email
        FROM staff_profiles p JOIN users u ON u.id = p.user_id
        WHERE p.department_id=$1 ORDER BY u.name ASC`
	return r.queryCandidates(ctx, query, departmentID)
}

func (r *staffRepository) queryCandidates(ctx context.Context, query string, args ...any) ([]StaffCandidate, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StaffCandidate
	for rows.Next() {
		profile, name, email, err := scanStaffProfile(rows, true)
		if err != nil {
			return nil, err
		}
		result = append(result, StaffCandidate{Profile: *profile, Name: name, Email: email})
	}
	return result, rows.Err()
}

func (r *staffRepository) SetOnDuty(ctx context.Context, userID string, onDuty bool) error {
	const query = `UPDATE staff_profiles SET on_duty_today=$1, updated_at=NOW() WHERE user_id=$2`
	cmd, err := r.db.Exec(ctx, query, onDuty, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) ApplyRating(ctx context.Context, userID string, rating int) (*domain.Rating, error) {
	const query = `
        UPDATE staff_profiles
        SET rating_sum = rating_sum + $1, rating_count = rating_count + 1, updated_at=NOW()
        WHERE user_id=$2
        RETURNING rating_sum, rating_count`
	var updated domain.Rating
	if err := r.db.QueryRow(ctx, query, rating, userID).Scan(&updated.Sum, &updated.Count); err != nil {
		return nil, err
	}
	return &updated, nil
}

func scanStaffProfile(row pgx.Row, withIdentity bool) (*domain.StaffProfile, string, string, error) {
	var (
		profile     domain.StaffProfile
		lat, lng    *float64
		name, email string
	)
	dest := []any{
		&profile.UserID,
		&profile.DepartmentID,
		&profile.Title,
		&profile.Skills,
		&profile.ShiftStart,
		&profile.ShiftEnd,
		&profile.OnDutyToday,
		&profile.WorkArea.City,
		&profile.WorkArea.Zones,
		&lat,
		&lng,
		&profile.ContactPhone,
		&profile.ContactEmail,
		&profile.Rating.Sum,
		&profile.Rating.Count,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	}
	if withIdentity {
		dest = append(dest, &name, &email)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, "", "", err
	}
	if lat != nil && lng != nil {
		profile.WorkArea.Location = &domain.Location{Lat: *lat, Lng: *lng}
	}
	return &profile, name, email, nil
}
