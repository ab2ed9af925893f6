package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	// FindByCategory returns the first department handling the category,
	// ordered by code so resolution stays deterministic. pgx.ErrNoRows when
	// nothing handles the category.
	FindByCategory(ctx context.Context, category string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

const departmentColumns = `id, name, code, categories_handled, sla_policy_hours, manager_id,
        contact_email, contact_phone, created_at, updated_at`

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, code, categories_handled, sla_policy_hours, manager_id, contact_email, contact_phone)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		dept.Name,
		dept.Code,
		dept.CategoriesHandled,
		dept.SLAPolicyHours,
		dept.ManagerID,
		dept.ContactEmail,
		dept.ContactPhone,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, code=$2, categories_handled=$3, sla_policy_hours=$4,
            manager_id=$5, contact_email=$6, contact_phone=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		dept.Name,
		dept.Code,
		dept.CategoriesHandled,
		dept.SLAPolicyHours,
		dept.ManagerID,
		dept.ContactEmail,
		dept.ContactPhone,
		dept.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *departmentRepository) FindByCategory(ctx context.Context, category string) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE $1 = ANY(categories_handled) ORDER BY code ASC LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, category))
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments ORDER BY code ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(
			&dept.ID,
			&dept.Name,
			&dept.Code,
			&dept.CategoriesHandled,
			&dept.SLAPolicyHours,
			&dept.ManagerID,
			&dept.ContactEmail,
			&dept.ContactPhone,
			&dept.CreatedAt,
			&dept.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

func (r *departmentRepository) scanOne(row pgx.Row) (*domain.Department, error) {
	var dept domain.Department
	if err := row.Scan(
		&dept.ID,
		&dept.Name,
		&dept.Code,
		&dept.CategoriesHandled,
		&dept.SLAPolicyHours,
		&dept.ManagerID,
		&dept.ContactEmail,
		&dept.ContactPhone,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}
