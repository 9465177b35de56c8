package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var _ repository.DocumentTypeRepository = (*DocumentTypeRepo)(nil)

// DocumentTypeRepo tipos de documento; las reglas se guardan en JSONB.
type DocumentTypeRepo struct {
	q Querier
}

// NewDocumentTypeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentTypeRepository(q Querier) *DocumentTypeRepo {
	return &DocumentTypeRepo{q: q}
}

const documentTypeColumns = `id, company_id, name, subject_type, is_mandatory, has_expiration, is_monthly,
	is_multi_resource, rules, created_at, updated_at`

func scanDocumentType(row interface{ Scan(...any) error }) (*entity.DocumentType, error) {
	var dt entity.DocumentType
	if err := row.Scan(&dt.ID, &dt.CompanyID, &dt.Name, &dt.SubjectType, &dt.IsMandatory, &dt.HasExpiration,
		&dt.IsMonthly, &dt.IsMultiResource, &dt.Rules, &dt.CreatedAt, &dt.UpdatedAt); err != nil {
		return nil, err
	}
	return &dt, nil
}

// Create persiste un tipo de documento.
func (r *DocumentTypeRepo) Create(ctx context.Context, dt *entity.DocumentType) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO document_types (id, company_id, name, subject_type, is_mandatory, has_expiration, is_monthly,
			is_multi_resource, rules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		dt.ID, dt.CompanyID, dt.Name, dt.SubjectType, dt.IsMandatory, dt.HasExpiration, dt.IsMonthly,
		dt.IsMultiResource, dt.Rules, dt.CreatedAt, dt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document type: %w", err)
	}
	return nil
}

// GetByID tipo de documento de la empresa.
func (r *DocumentTypeRepo) GetByID(ctx context.Context, companyID, id string) (*entity.DocumentType, error) {
	dt, err := scanDocumentType(r.q.QueryRow(ctx,
		`SELECT `+documentTypeColumns+` FROM document_types WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document type: %w", err)
	}
	return dt, nil
}

// List tipos de la empresa, opcionalmente por tipo de sujeto.
func (r *DocumentTypeRepo) List(ctx context.Context, companyID, subjectType string) ([]*entity.DocumentType, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+documentTypeColumns+` FROM document_types
		 WHERE company_id = $1 AND ($2 = '' OR subject_type = $2) ORDER BY subject_type, name`, companyID, subjectType)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	defer rows.Close()
	var list []*entity.DocumentType
	for rows.Next() {
		dt, err := scanDocumentType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document type: %w", err)
		}
		list = append(list, dt)
	}
	return list, rows.Err()
}

// Update actualiza el tipo (el tipo de sujeto no cambia).
func (r *DocumentTypeRepo) Update(ctx context.Context, dt *entity.DocumentType) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE document_types SET name = $3, is_mandatory = $4, has_expiration = $5, is_monthly = $6,
			is_multi_resource = $7, rules = $8, updated_at = $9
		WHERE company_id = $1 AND id = $2`,
		dt.CompanyID, dt.ID, dt.Name, dt.IsMandatory, dt.HasExpiration, dt.IsMonthly, dt.IsMultiResource,
		dt.Rules, dt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update document type: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el tipo; con documentos cargados => ErrConflict.
func (r *DocumentTypeRepo) Delete(ctx context.Context, companyID, id string) error {
	return deleteScoped(ctx, r.q, "document_types", companyID, id)
}

// ── Documentos ────────────────────────────────────────────────────────────────

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo documentos y versiones (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, company_id, document_type_id, subject_type, subject_id, state, expiration_date,
	period, reject_reason, uploaded_by, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*entity.Document, error) {
	var d entity.Document
	if err := row.Scan(&d.ID, &d.CompanyID, &d.DocumentTypeID, &d.SubjectType, &d.SubjectID, &d.State,
		&d.ExpirationDate, &d.Period, &d.RejectReason, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserta el documento y sus versiones.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO documents (id, company_id, document_type_id, subject_type, subject_id, state, expiration_date,
			period, reject_reason, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.CompanyID, d.DocumentTypeID, d.SubjectType, d.SubjectID, d.State, d.ExpirationDate,
		d.Period, d.RejectReason, d.UploadedBy, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert document: %w", err)
	}
	for i := range d.Versions {
		if err := r.AddVersion(ctx, &d.Versions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *DocumentRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Document, error) {
	d, err := scanDocument(r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE `+where, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if err := r.loadVersions(ctx, []*entity.Document{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// GetByID documento con versiones.
func (r *DocumentRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Document, error) {
	return r.getOne(ctx, `company_id = $1 AND id = $2`, companyID, id)
}

// Find documento por (tipo, sujeto, periodo); NULL se compara como valor.
func (r *DocumentRepo) Find(ctx context.Context, q repository.DocumentQuery) (*entity.Document, error) {
	return r.getOne(ctx, `company_id = $1 AND document_type_id = $2
		AND subject_id IS NOT DISTINCT FROM $3::uuid AND period IS NOT DISTINCT FROM $4::text`,
		q.CompanyID, q.DocumentTypeID, q.SubjectID, q.Period)
}

// ListBySubject documentos del sujeto y, si se pide, los generales del mismo tipo de sujeto.
func (r *DocumentRepo) ListBySubject(ctx context.Context, companyID, subjectType string, subjectID *string, includeGeneral bool) ([]*entity.Document, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE company_id = $1 AND subject_type = $2
		  AND (subject_id IS NOT DISTINCT FROM $3::uuid OR ($4 AND subject_id IS NULL))
		ORDER BY updated_at DESC`, companyID, subjectType, subjectID, includeGeneral)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var list []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if err := r.loadVersions(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *DocumentRepo) loadVersions(ctx context.Context, docs []*entity.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Document, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		d.Versions = nil
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, document_id, version, file_key, file_name, mime_type, size_bytes, expiration_date,
		       was_approved, uploaded_by, created_at
		FROM document_versions WHERE document_id = ANY($1::uuid[]) ORDER BY document_id, version`, ids)
	if err != nil {
		return fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v entity.DocumentVersion
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.Version, &v.FileKey, &v.FileName, &v.MimeType, &v.SizeBytes,
			&v.ExpirationDate, &v.WasApproved, &v.UploadedBy, &v.CreatedAt); err != nil {
			return fmt.Errorf("scan document version: %w", err)
		}
		if d := byID[v.DocumentID]; d != nil {
			d.Versions = append(d.Versions, v)
		}
	}
	return rows.Err()
}

// Update persiste estado, vencimiento, motivo de rechazo y updated_at.
func (r *DocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE documents SET state = $3, expiration_date = $4, reject_reason = $5, updated_at = $6
		WHERE company_id = $1 AND id = $2`,
		d.CompanyID, d.ID, d.State, d.ExpirationDate, d.RejectReason, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddVersion agrega una versión al historial.
func (r *DocumentRepo) AddVersion(ctx context.Context, v *entity.DocumentVersion) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO document_versions (id, document_id, version, file_key, file_name, mime_type, size_bytes,
			expiration_date, was_approved, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		v.ID, v.DocumentID, v.Version, v.FileKey, v.FileName, v.MimeType, v.SizeBytes,
		v.ExpirationDate, v.WasApproved, v.UploadedBy, v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert document version: %w", err)
	}
	return nil
}

// UpdateVersion sobrescribe el archivo y metadatos de una versión (reemplazo o aprobación).
func (r *DocumentRepo) UpdateVersion(ctx context.Context, v *entity.DocumentVersion) error {
	_, err := r.q.Exec(ctx, `
		UPDATE document_versions SET file_key = $2, file_name = $3, mime_type = $4, size_bytes = $5,
			expiration_date = $6, was_approved = $7, uploaded_by = $8, created_at = $9
		WHERE id = $1`,
		v.ID, v.FileKey, v.FileName, v.MimeType, v.SizeBytes, v.ExpirationDate, v.WasApproved, v.UploadedBy, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("update document version: %w", err)
	}
	return nil
}

// DeleteVersion elimina una versión.
func (r *DocumentRepo) DeleteVersion(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM document_versions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete document version: %w", err)
	}
	return nil
}

// Delete elimina el documento y sus versiones (cascade).
func (r *DocumentRepo) Delete(ctx context.Context, companyID, id string) error {
	return deleteScoped(ctx, r.q, "documents", companyID, id)
}

// CountByType cuántos documentos usan el tipo.
func (r *DocumentRepo) CountByType(ctx context.Context, companyID, documentTypeID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE company_id = $1 AND document_type_id = $2`, companyID, documentTypeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents by type: %w", err)
	}
	return n, nil
}
