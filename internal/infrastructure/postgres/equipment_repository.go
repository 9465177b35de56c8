package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var _ repository.EquipmentRepository = (*EquipmentRepo)(nil)

// EquipmentRepo equipos/vehículos sobre PostgreSQL. acquisition_cost usa el codec decimal del pool.
type EquipmentRepo struct {
	q Querier
}

// NewEquipmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEquipmentRepository(q Querier) *EquipmentRepo {
	return &EquipmentRepo{q: q}
}

const equipmentColumns = `id, company_id, internal_code, plate, brand, model, year, type, acquisition_cost, status, created_at, updated_at`

func scanEquipment(row interface{ Scan(...any) error }, extra ...any) (*entity.Equipment, error) {
	var eq entity.Equipment
	dest := []any{&eq.ID, &eq.CompanyID, &eq.InternalCode, &eq.Plate, &eq.Brand, &eq.Model, &eq.Year, &eq.Type,
		&eq.AcquisitionCost, &eq.Status, &eq.CreatedAt, &eq.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &eq, nil
}

// Create persiste el equipo (sin asignaciones; ver ReplaceContractors).
func (r *EquipmentRepo) Create(ctx context.Context, eq *entity.Equipment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO equipment (id, company_id, internal_code, plate, brand, model, year, type, acquisition_cost, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		eq.ID, eq.CompanyID, eq.InternalCode, eq.Plate, eq.Brand, eq.Model, eq.Year, eq.Type,
		eq.AcquisitionCost, eq.Status, eq.CreatedAt, eq.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert equipment: %w", err)
	}
	return nil
}

func (r *EquipmentRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Equipment, error) {
	eq, err := scanEquipment(r.q.QueryRow(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE `+where, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get equipment: %w", err)
	}
	ids, err := r.contractorIDs(ctx, eq.ID)
	if err != nil {
		return nil, err
	}
	eq.ContractorIDs = ids
	return eq, nil
}

// GetByID equipo con sus contratistas asignados.
func (r *EquipmentRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Equipment, error) {
	return r.getOne(ctx, `company_id = $1 AND id = $2`, companyID, id)
}

// GetByInternalCode equipo por código interno.
func (r *EquipmentRepo) GetByInternalCode(ctx context.Context, companyID, code string) (*entity.Equipment, error) {
	return r.getOne(ctx, `company_id = $1 AND internal_code = $2`, companyID, code)
}

func (r *EquipmentRepo) contractorIDs(ctx context.Context, equipmentID string) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT contractor_id FROM equipment_contractors WHERE equipment_id = $1 ORDER BY contractor_id`, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("list equipment contractors: %w", err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan equipment contractor: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List equipos con búsqueda por código, placa, marca o modelo.
func (r *EquipmentRepo) List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Equipment, int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+equipmentColumns+`, COUNT(*) OVER()
		FROM equipment
		WHERE company_id = $1
		  AND ($2 = '' OR internal_code ILIKE $2 OR plate ILIKE $2 OR brand ILIKE $2 OR model ILIKE $2)
		ORDER BY internal_code
		LIMIT $3 OFFSET $4`, companyID, likePattern(search), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.Equipment
		total int
	)
	for rows.Next() {
		eq, err := scanEquipment(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan equipment: %w", err)
		}
		list = append(list, eq)
	}
	return list, total, rows.Err()
}

// Update actualiza los datos del equipo.
func (r *EquipmentRepo) Update(ctx context.Context, eq *entity.Equipment) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE equipment SET internal_code = $3, plate = $4, brand = $5, model = $6, year = $7, type = $8,
			acquisition_cost = $9, status = $10, updated_at = $11
		WHERE company_id = $1 AND id = $2`,
		eq.CompanyID, eq.ID, eq.InternalCode, eq.Plate, eq.Brand, eq.Model, eq.Year, eq.Type,
		eq.AcquisitionCost, eq.Status, eq.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update equipment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReplaceContractors borra y vuelve a insertar las asignaciones. Usar dentro de una tx.
func (r *EquipmentRepo) ReplaceContractors(ctx context.Context, equipmentID string, contractorIDs []string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM equipment_contractors WHERE equipment_id = $1`, equipmentID); err != nil {
		return fmt.Errorf("delete equipment contractors: %w", err)
	}
	for _, cid := range contractorIDs {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO equipment_contractors (equipment_id, contractor_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			equipmentID, cid); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: contratista %s no existe", domain.ErrInvalidInput, cid)
			}
			return fmt.Errorf("insert equipment contractor: %w", err)
		}
	}
	return nil
}

// Delete elimina el equipo y sus asignaciones (cascade).
func (r *EquipmentRepo) Delete(ctx context.Context, companyID, id string) error {
	return deleteScoped(ctx, r.q, "equipment", companyID, id)
}

// ── Contratistas ──────────────────────────────────────────────────────────────

var _ repository.ContractorRepository = (*ContractorRepo)(nil)

// ContractorRepo contratistas sobre PostgreSQL.
type ContractorRepo struct {
	q Querier
}

// NewContractorRepository construye el adaptador. Pasar pool o tx (Querier).
func NewContractorRepository(q Querier) *ContractorRepo {
	return &ContractorRepo{q: q}
}

const contractorColumns = `id, company_id, name, tax_id, created_at, updated_at`

// Create persiste un contratista.
func (r *ContractorRepo) Create(ctx context.Context, c *entity.Contractor) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO contractors (id, company_id, name, tax_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, c.ID, c.CompanyID, c.Name, c.TaxID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert contractor: %w", err)
	}
	return nil
}

// GetByID contratista de la empresa.
func (r *ContractorRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Contractor, error) {
	var c entity.Contractor
	err := r.q.QueryRow(ctx, `SELECT `+contractorColumns+` FROM contractors WHERE company_id = $1 AND id = $2`, companyID, id).
		Scan(&c.ID, &c.CompanyID, &c.Name, &c.TaxID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contractor: %w", err)
	}
	return &c, nil
}

// List contratistas con búsqueda por nombre o NIT.
func (r *ContractorRepo) List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Contractor, int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+contractorColumns+`, COUNT(*) OVER()
		FROM contractors
		WHERE company_id = $1 AND ($2 = '' OR name ILIKE $2 OR tax_id ILIKE $2)
		ORDER BY name
		LIMIT $3 OFFSET $4`, companyID, likePattern(search), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list contractors: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.Contractor
		total int
	)
	for rows.Next() {
		var c entity.Contractor
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.TaxID, &c.CreatedAt, &c.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan contractor: %w", err)
		}
		list = append(list, &c)
	}
	return list, total, rows.Err()
}

// Update actualiza el contratista.
func (r *ContractorRepo) Update(ctx context.Context, c *entity.Contractor) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE contractors SET name = $3, tax_id = $4, updated_at = $5 WHERE company_id = $1 AND id = $2`,
		c.CompanyID, c.ID, c.Name, c.TaxID, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update contractor: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el contratista.
func (r *ContractorRepo) Delete(ctx context.Context, companyID, id string) error {
	return deleteScoped(ctx, r.q, "contractors", companyID, id)
}
