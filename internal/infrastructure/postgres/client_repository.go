package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository (usable con pool o tx).
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

const clientColumns = `id, company_id, name, tax_id, email, phone, address, status, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }, extra ...any) (*entity.Client, error) {
	var c entity.Client
	dest := []any{&c.ID, &c.CompanyID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Address, &c.Status, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste un nuevo cliente. NIT repetido en la empresa => ErrDuplicate.
func (r *ClientRepo) Create(ctx context.Context, client *entity.Client) error {
	query := `
		INSERT INTO clients (id, company_id, name, tax_id, email, phone, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		client.ID, client.CompanyID, client.Name, client.TaxID, client.Email, client.Phone,
		client.Address, client.Status, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Client, error) {
	c, err := scanClient(r.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE `+where, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// GetByID obtiene un cliente de la empresa por ID.
func (r *ClientRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Client, error) {
	return r.getOne(ctx, `company_id = $1 AND id = $2`, companyID, id)
}

// List lista clientes de la empresa con búsqueda y paginación.
func (r *ClientRepo) List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Client, int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+clientColumns+`, COUNT(*) OVER()
		FROM clients
		WHERE company_id = $1 AND ($2 = '' OR name ILIKE $2 OR tax_id ILIKE $2 OR email ILIKE $2)
		ORDER BY name
		LIMIT $3 OFFSET $4`, companyID, likePattern(search), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.Client
		total int
	)
	for rows.Next() {
		c, err := scanClient(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

// Update actualiza un cliente.
func (r *ClientRepo) Update(ctx context.Context, client *entity.Client) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE clients SET name = $3, tax_id = $4, email = $5, phone = $6, address = $7, status = $8, updated_at = $9
		WHERE company_id = $1 AND id = $2`,
		client.CompanyID, client.ID, client.Name, client.TaxID, client.Email, client.Phone,
		client.Address, client.Status, client.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update client: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un cliente; sus contactos quedan disponibles.
func (r *ClientRepo) Delete(ctx context.Context, companyID, id string) error {
	return deleteScoped(ctx, r.q, "clients", companyID, id)
}

// ── Contactos ─────────────────────────────────────────────────────────────────

var _ repository.ContactRepository = (*ContactRepo)(nil)

// ContactRepo contactos comerciales (usable con pool o tx).
type ContactRepo struct {
	q Querier
}

// NewContactRepository construye el adaptador. Pasar pool o tx (Querier).
func NewContactRepository(q Querier) *ContactRepo {
	return &ContactRepo{q: q}
}

const contactColumns = `id, company_id, client_id, name, email, phone, position, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }, extra ...any) (*entity.Contact, error) {
	var c entity.Contact
	dest := []any{&c.ID, &c.CompanyID, &c.ClientID, &c.Name, &c.Email, &c.Phone, &c.Position, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste un contacto.
func (r *ContactRepo) Create(ctx context.Context, c *entity.Contact) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO contacts (id, company_id, client_id, name, email, phone, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.CompanyID, c.ClientID, c.Name, c.Email, c.Phone, c.Position, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// GetByID contacto de la empresa.
func (r *ContactRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Contact, error) {
	c, err := scanContact(r.q.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// List contactos con búsqueda por nombre o email.
func (r *ContactRepo) List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Contact, int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+contactColumns+`, COUNT(*) OVER()
		FROM contacts
		WHERE company_id = $1 AND ($2 = '' OR name ILIKE $2 OR email ILIKE $2)
		ORDER BY name
		LIMIT $3 OFFSET $4`, companyID, likePattern(search), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.Contact
		total int
	)
	for rows.Next() {
		c, err := scanContact(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact: %w", err)
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

// ListAvailable contactos sin cliente asignado.
func (r *ContactRepo) ListAvailable(ctx context.Context, companyID string) ([]*entity.Contact, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE company_id = $1 AND client_id IS NULL ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list available contacts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update actualiza el contacto (incluye la asignación a cliente).
func (r *ContactRepo) Update(ctx context.Context, c *entity.Contact) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE contacts SET client_id = $3, name = $4, email = $5, phone = $6, position = $7, updated_at = $8
		WHERE company_id = $1 AND id = $2`,
		c.CompanyID, c.ID, c.ClientID, c.Name, c.Email, c.Phone, c.Position, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el contacto.
func (r *ContactRepo) Delete(ctx context.Context, companyID, id string) error {
	return deleteScoped(ctx, r.q, "contacts", companyID, id)
}

// ── Leads ─────────────────────────────────────────────────────────────────────

var _ repository.LeadRepository = (*LeadRepo)(nil)

// LeadRepo prospectos (usable con pool o tx).
type LeadRepo struct {
	q Querier
}

// NewLeadRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLeadRepository(q Querier) *LeadRepo {
	return &LeadRepo{q: q}
}

const leadColumns = `id, company_id, name, tax_id, email, phone, source, estimated_value, status,
	contact_id, converted_to_client_id, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }, extra ...any) (*entity.Lead, error) {
	var l entity.Lead
	dest := []any{&l.ID, &l.CompanyID, &l.Name, &l.TaxID, &l.Email, &l.Phone, &l.Source, &l.EstimatedValue, &l.Status,
		&l.ContactID, &l.ConvertedToClientID, &l.CreatedAt, &l.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &l, nil
}

// Create persiste un lead.
func (r *LeadRepo) Create(ctx context.Context, l *entity.Lead) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO leads (id, company_id, name, tax_id, email, phone, source, estimated_value, status,
			contact_id, converted_to_client_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		l.ID, l.CompanyID, l.Name, l.TaxID, l.Email, l.Phone, l.Source, l.EstimatedValue, l.Status,
		l.ContactID, l.ConvertedToClientID, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// GetByID lead de la empresa.
func (r *LeadRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Lead, error) {
	return r.getOne(ctx, `SELECT `+leadColumns+` FROM leads WHERE company_id = $1 AND id = $2`, companyID, id)
}

// GetForUpdate lead bloqueado (FOR UPDATE); solo tiene efecto dentro de una tx.
func (r *LeadRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Lead, error) {
	return r.getOne(ctx, `SELECT `+leadColumns+` FROM leads WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, id)
}

func (r *LeadRepo) getOne(ctx context.Context, query, companyID, id string) (*entity.Lead, error) {
	l, err := scanLead(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

// List leads con búsqueda y filtro de estado.
func (r *LeadRepo) List(ctx context.Context, companyID, search, status string, limit, offset int) ([]*entity.Lead, int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+leadColumns+`, COUNT(*) OVER()
		FROM leads
		WHERE company_id = $1
		  AND ($2 = '' OR name ILIKE $2 OR email ILIKE $2 OR tax_id ILIKE $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`, companyID, likePattern(search), status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.Lead
		total int
	)
	for rows.Next() {
		l, err := scanLead(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		list = append(list, l)
	}
	return list, total, rows.Err()
}

// Update actualiza el lead.
func (r *LeadRepo) Update(ctx context.Context, l *entity.Lead) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE leads SET name = $3, tax_id = $4, email = $5, phone = $6, source = $7, estimated_value = $8,
			status = $9, contact_id = $10, converted_to_client_id = $11, updated_at = $12
		WHERE company_id = $1 AND id = $2`,
		l.CompanyID, l.ID, l.Name, l.TaxID, l.Email, l.Phone, l.Source, l.EstimatedValue,
		l.Status, l.ContactID, l.ConvertedToClientID, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el lead.
func (r *LeadRepo) Delete(ctx context.Context, companyID, id string) error {
	return deleteScoped(ctx, r.q, "leads", companyID, id)
}
