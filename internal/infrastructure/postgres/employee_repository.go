package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var _ repository.EmployeeRepository = (*EmployeeRepo)(nil)

// EmployeeRepo empleados sobre PostgreSQL.
type EmployeeRepo struct {
	q Querier
}

// NewEmployeeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEmployeeRepository(q Querier) *EmployeeRepo {
	return &EmployeeRepo{q: q}
}

const employeeColumns = `id, company_id, first_name, last_name, document_number, gender, cost_type,
	job_position_id, email, phone, hire_date, status, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }, extra ...any) (*entity.Employee, error) {
	var e entity.Employee
	dest := []any{&e.ID, &e.CompanyID, &e.FirstName, &e.LastName, &e.DocumentNumber, &e.Gender, &e.CostType,
		&e.JobPositionID, &e.Email, &e.Phone, &e.HireDate, &e.Status, &e.CreatedAt, &e.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create persiste un empleado. Documento repetido en la empresa => ErrDuplicate.
func (r *EmployeeRepo) Create(ctx context.Context, e *entity.Employee) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO employees (id, company_id, first_name, last_name, document_number, gender, cost_type,
			job_position_id, email, phone, hire_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.CompanyID, e.FirstName, e.LastName, e.DocumentNumber, e.Gender, e.CostType,
		e.JobPositionID, e.Email, e.Phone, e.HireDate, e.Status, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// GetByID empleado de la empresa.
func (r *EmployeeRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Employee, error) {
	e, err := scanEmployee(r.q.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// GetByDocumentNumber empleado por número de documento.
func (r *EmployeeRepo) GetByDocumentNumber(ctx context.Context, companyID, number string) (*entity.Employee, error) {
	e, err := scanEmployee(r.q.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE company_id = $1 AND document_number = $2`, companyID, number))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee by document: %w", err)
	}
	return e, nil
}

// List empleados con búsqueda por nombre o documento.
func (r *EmployeeRepo) List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Employee, int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+employeeColumns+`, COUNT(*) OVER()
		FROM employees
		WHERE company_id = $1
		  AND ($2 = '' OR first_name ILIKE $2 OR last_name ILIKE $2 OR document_number ILIKE $2)
		ORDER BY first_name, last_name
		LIMIT $3 OFFSET $4`, companyID, likePattern(search), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.Employee
		total int
	)
	for rows.Next() {
		e, err := scanEmployee(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan employee: %w", err)
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}

// Update actualiza el empleado.
func (r *EmployeeRepo) Update(ctx context.Context, e *entity.Employee) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE employees SET first_name = $3, last_name = $4, document_number = $5, gender = $6, cost_type = $7,
			job_position_id = $8, email = $9, phone = $10, hire_date = $11, status = $12, updated_at = $13
		WHERE company_id = $1 AND id = $2`,
		e.CompanyID, e.ID, e.FirstName, e.LastName, e.DocumentNumber, e.Gender, e.CostType,
		e.JobPositionID, e.Email, e.Phone, e.HireDate, e.Status, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update employee: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el empleado.
func (r *EmployeeRepo) Delete(ctx context.Context, companyID, id string) error {
	return deleteScoped(ctx, r.q, "employees", companyID, id)
}

// ── Cargos ────────────────────────────────────────────────────────────────────

var _ repository.JobPositionRepository = (*JobPositionRepo)(nil)

// JobPositionRepo cargos sobre PostgreSQL.
type JobPositionRepo struct {
	q Querier
}

// NewJobPositionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewJobPositionRepository(q Querier) *JobPositionRepo {
	return &JobPositionRepo{q: q}
}

// Create persiste un cargo.
func (r *JobPositionRepo) Create(ctx context.Context, p *entity.JobPosition) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO job_positions (id, company_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.CompanyID, p.Name, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert job position: %w", err)
	}
	return nil
}

// GetByID cargo de la empresa.
func (r *JobPositionRepo) GetByID(ctx context.Context, companyID, id string) (*entity.JobPosition, error) {
	var p entity.JobPosition
	err := r.q.QueryRow(ctx,
		`SELECT id, company_id, name, created_at FROM job_positions WHERE company_id = $1 AND id = $2`, companyID, id,
	).Scan(&p.ID, &p.CompanyID, &p.Name, &p.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job position: %w", err)
	}
	return &p, nil
}

// List cargos por nombre.
func (r *JobPositionRepo) List(ctx context.Context, companyID string) ([]*entity.JobPosition, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, company_id, name, created_at FROM job_positions WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list job positions: %w", err)
	}
	defer rows.Close()
	var list []*entity.JobPosition
	for rows.Next() {
		var p entity.JobPosition
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan job position: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Delete elimina el cargo (los empleados quedan sin cargo).
func (r *JobPositionRepo) Delete(ctx context.Context, companyID, id string) error {
	return deleteScoped(ctx, r.q, "job_positions", companyID, id)
}

// deleteScoped borra una fila de la empresa; sin filas => ErrNotFound, referenciada => ErrConflict.
// table siempre es una constante del paquete.
func deleteScoped(ctx context.Context, q Querier, table, companyID, id string) error {
	cmd, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
