// Package documents administra el ciclo de vida de los documentos de cumplimiento:
// carga, renovación, reemplazo, reversión, aprobación y reportes.
//
// Los archivos se escriben en el object store antes que la fila en base de datos. Si la base falla
// se borra el archivo recién escrito; si el borrado también falla queda un huérfano registrado en el log.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Gestion-api/internal/application/ports"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/document"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
	"github.com/jhoicas/Gestion-api/pkg/logger"
	"github.com/jhoicas/Gestion-api/pkg/slug"
)

// TxRunner ejecuta cambios de documento y versiones en una sola transacción.
type TxRunner interface {
	RunDocuments(ctx context.Context, fn func(docRepo repository.DocumentRepository) error) error
}

// Deps dependencias del servicio.
type Deps struct {
	Types       repository.DocumentTypeRepository
	Documents   repository.DocumentRepository
	Tx          TxRunner
	Employees   repository.EmployeeRepository
	Equipment   repository.EquipmentRepository
	Companies   repository.CompanyRepository
	Files       ports.FileStore
	Signer      ports.URLSigner
	Renderer    ports.ComplianceRenderer
	Revalidator ports.Revalidator
	Log         *logger.Logger
	MaxBytes    int64
}

// Service casos de uso de documentos. Cada operación verifica el permiso del módulo
// correspondiente al tipo de sujeto del documento.
type Service struct {
	Deps
	log *logger.Logger
	now func() time.Time
}

// NewService construye el servicio.
func NewService(d Deps) *Service {
	return &Service{Deps: d, log: d.Log.Component("documents"), now: time.Now}
}

// ModuleFor módulo de permisos según el tipo de sujeto.
func ModuleFor(subjectType string) (permission.Module, error) {
	switch subjectType {
	case entity.SubjectEmployee:
		return permission.ModuleEmployeeDocuments, nil
	case entity.SubjectEquipment:
		return permission.ModuleEquipmentDocuments, nil
	case entity.SubjectCompany:
		return permission.ModuleCompanyDocuments, nil
	}
	return "", fmt.Errorf("%w: tipo de sujeto %q", domain.ErrInvalidInput, subjectType)
}

func (s *Service) authorize(tc tenant.Context, subjectType string, action permission.Action) error {
	module, err := ModuleFor(subjectType)
	if err != nil {
		return err
	}
	if !tc.Can(module, action) {
		return domain.ErrForbidden
	}
	return nil
}

// File archivo recibido.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadInput carga inicial de un documento.
type UploadInput struct {
	DocumentTypeID string
	SubjectType    string
	SubjectID      *string // nil = documento general (multi-recurso)
	Period         *string
	ExpirationDate *time.Time
	File           File
}

// VersionInput nueva versión para renovar o reemplazar.
type VersionInput struct {
	ExpirationDate *time.Time
	File           File
}

// View documento con su tipo y estado efectivo.
type View struct {
	Document *entity.Document
	Type     *entity.DocumentType
	State    string
}

// Upload crea el documento con su primera versión en estado SUBMITTED.
func (s *Service) Upload(ctx context.Context, tc tenant.Context, in UploadInput) (*View, error) {
	if err := s.authorize(tc, in.SubjectType, permission.Create); err != nil {
		return nil, err
	}
	if err := s.validateFile(in.File); err != nil {
		return nil, err
	}
	dt, err := s.documentType(ctx, tc.CompanyID, in.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	if dt.SubjectType != in.SubjectType {
		return nil, fmt.Errorf("%w: el tipo de documento es para %s", domain.ErrInvalidInput, dt.SubjectType)
	}
	period, err := periodFor(dt, in.Period)
	if err != nil {
		return nil, err
	}
	expiration, err := expirationFor(dt, in.ExpirationDate)
	if err != nil {
		return nil, err
	}

	subjectID, err := s.checkSubject(ctx, tc, dt, in.SubjectID)
	if err != nil {
		return nil, err
	}

	existing, err := s.Documents.Find(ctx, repository.DocumentQuery{
		CompanyID: tc.CompanyID, DocumentTypeID: dt.ID, SubjectID: subjectID, Period: period,
	})
	if err != nil {
		return nil, s.internal("documents.Find", tc, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ya existe el documento, use renovar o reemplazar", domain.ErrDuplicate)
	}

	now := s.now()
	doc := &entity.Document{
		ID:             uuid.New().String(),
		CompanyID:      tc.CompanyID,
		DocumentTypeID: dt.ID,
		SubjectType:    dt.SubjectType,
		SubjectID:      subjectID,
		State:          entity.DocumentSubmitted,
		ExpirationDate: expiration,
		Period:         period,
		UploadedBy:     tc.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	v := s.newVersion(doc, 1, in.File, expiration, tc.UserID, now)
	doc.Versions = []entity.DocumentVersion{v}

	if err := s.putFile(ctx, tc, v.FileKey, in.File); err != nil {
		return nil, err
	}
	if err := s.Tx.RunDocuments(ctx, func(repo repository.DocumentRepository) error {
		return repo.Create(ctx, doc)
	}); err != nil {
		s.discard(ctx, v.FileKey)
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("%w: ya existe el documento, use renovar o reemplazar", domain.ErrDuplicate)
		}
		return nil, s.internal("documents.Create", tc, err)
	}

	s.revalidate(ctx, tc, doc.SubjectType)
	return s.view(dt, doc), nil
}

// Renew agrega una versión nueva a un documento aprobado o vencido; queda en SUBMITTED.
func (s *Service) Renew(ctx context.Context, tc tenant.Context, id string, in VersionInput) (*View, error) {
	doc, dt, err := s.load(ctx, tc, id, permission.Update)
	if err != nil {
		return nil, err
	}
	if err := document.CanApply(document.OpRenew, document.EffectiveState(dt, doc, s.now())); err != nil {
		return nil, err
	}
	if err := s.validateFile(in.File); err != nil {
		return nil, err
	}
	expiration, err := expirationFor(dt, in.ExpirationDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	v := s.newVersion(doc, document.NextVersion(doc), in.File, expiration, tc.UserID, now)
	doc.State = entity.DocumentSubmitted
	doc.ExpirationDate = expiration
	doc.RejectReason = ""
	doc.UpdatedAt = now

	if err := s.putFile(ctx, tc, v.FileKey, in.File); err != nil {
		return nil, err
	}
	if err := s.Tx.RunDocuments(ctx, func(repo repository.DocumentRepository) error {
		if err := repo.AddVersion(ctx, &v); err != nil {
			return err
		}
		return repo.Update(ctx, doc)
	}); err != nil {
		s.discard(ctx, v.FileKey)
		return nil, s.internal("documents.Renew", tc, err)
	}
	doc.Versions = append(doc.Versions, v)

	s.revalidate(ctx, tc, doc.SubjectType)
	return s.view(dt, doc), nil
}

// Replace sobrescribe la versión vigente (corrección de un archivo equivocado); el archivo anterior se borra.
func (s *Service) Replace(ctx context.Context, tc tenant.Context, id string, in VersionInput) (*View, error) {
	doc, dt, err := s.load(ctx, tc, id, permission.Update)
	if err != nil {
		return nil, err
	}
	if err := document.CanApply(document.OpReplace, document.EffectiveState(dt, doc, s.now())); err != nil {
		return nil, err
	}
	if err := s.validateFile(in.File); err != nil {
		return nil, err
	}
	expiration, err := expirationFor(dt, in.ExpirationDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	latest := doc.Latest()
	oldKey := latest.FileKey
	replaced := s.newVersion(doc, latest.Version, in.File, expiration, tc.UserID, now)
	replaced.ID = latest.ID
	doc.State = entity.DocumentSubmitted
	doc.ExpirationDate = expiration
	doc.RejectReason = ""
	doc.UpdatedAt = now

	if err := s.putFile(ctx, tc, replaced.FileKey, in.File); err != nil {
		return nil, err
	}
	if err := s.Tx.RunDocuments(ctx, func(repo repository.DocumentRepository) error {
		if err := repo.UpdateVersion(ctx, &replaced); err != nil {
			return err
		}
		return repo.Update(ctx, doc)
	}); err != nil {
		s.discard(ctx, replaced.FileKey)
		return nil, s.internal("documents.Replace", tc, err)
	}
	s.discard(ctx, oldKey)
	*latest = replaced

	s.revalidate(ctx, tc, doc.SubjectType)
	return s.view(dt, doc), nil
}

// Revert descarta la versión vigente y restaura la anterior. Con una sola versión elimina
// el documento completo y devuelve nil.
func (s *Service) Revert(ctx context.Context, tc tenant.Context, id string) (*View, error) {
	doc, dt, err := s.load(ctx, tc, id, permission.Update)
	if err != nil {
		return nil, err
	}
	if err := document.CanApply(document.OpRevert, document.EffectiveState(dt, doc, s.now())); err != nil {
		return nil, err
	}
	plan, err := document.PlanRevert(doc)
	if err != nil {
		return nil, err
	}
	document.ApplyRevert(doc, plan, s.now())

	if err := s.Tx.RunDocuments(ctx, func(repo repository.DocumentRepository) error {
		if plan.DeleteDocument {
			return repo.Delete(ctx, tc.CompanyID, doc.ID)
		}
		if err := repo.DeleteVersion(ctx, plan.Removed.ID); err != nil {
			return err
		}
		return repo.Update(ctx, doc)
	}); err != nil {
		return nil, s.internal("documents.Revert", tc, err)
	}
	s.discard(ctx, plan.Removed.FileKey)

	s.revalidate(ctx, tc, doc.SubjectType)
	if plan.DeleteDocument {
		return nil, nil
	}
	return s.view(dt, doc), nil
}

// Approve SUBMITTED -> APPROVED; la versión vigente queda marcada como aprobada.
func (s *Service) Approve(ctx context.Context, tc tenant.Context, id string) (*View, error) {
	doc, dt, err := s.load(ctx, tc, id, permission.Update)
	if err != nil {
		return nil, err
	}
	if err := document.CanApply(document.OpApprove, document.EffectiveState(dt, doc, s.now())); err != nil {
		return nil, err
	}
	doc.State = entity.DocumentApproved
	doc.RejectReason = ""
	doc.UpdatedAt = s.now()
	latest := doc.Latest()
	latest.WasApproved = true

	if err := s.Tx.RunDocuments(ctx, func(repo repository.DocumentRepository) error {
		if err := repo.UpdateVersion(ctx, latest); err != nil {
			return err
		}
		return repo.Update(ctx, doc)
	}); err != nil {
		return nil, s.internal("documents.Approve", tc, err)
	}
	s.revalidate(ctx, tc, doc.SubjectType)
	return s.view(dt, doc), nil
}

// Reject SUBMITTED|APPROVED -> REJECTED con motivo obligatorio.
func (s *Service) Reject(ctx context.Context, tc tenant.Context, id, reason string) (*View, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: el motivo de rechazo es obligatorio", domain.ErrInvalidInput)
	}
	doc, dt, err := s.load(ctx, tc, id, permission.Update)
	if err != nil {
		return nil, err
	}
	if err := document.CanApply(document.OpReject, document.EffectiveState(dt, doc, s.now())); err != nil {
		return nil, err
	}
	doc.State = entity.DocumentRejected
	doc.RejectReason = reason
	doc.UpdatedAt = s.now()

	if err := s.Documents.Update(ctx, doc); err != nil {
		return nil, s.internal("documents.Update", tc, err)
	}
	s.revalidate(ctx, tc, doc.SubjectType)
	return s.view(dt, doc), nil
}

// Delete borra el documento y luego sus archivos.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, id string) error {
	doc, _, err := s.load(ctx, tc, id, permission.Delete)
	if err != nil {
		return err
	}
	if err := s.Documents.Delete(ctx, tc.CompanyID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return s.internal("documents.Delete", tc, err)
	}
	for _, v := range doc.Versions {
		s.discard(ctx, v.FileKey)
	}
	s.revalidate(ctx, tc, doc.SubjectType)
	return nil
}

// Get documento con su estado efectivo.
func (s *Service) Get(ctx context.Context, tc tenant.Context, id string) (*View, error) {
	doc, dt, err := s.load(ctx, tc, id, permission.View)
	if err != nil {
		return nil, err
	}
	return s.view(dt, doc), nil
}

// ListBySubject documentos del sujeto más los generales del mismo tipo de sujeto.
// subjectID nil lista solo los generales.
func (s *Service) ListBySubject(ctx context.Context, tc tenant.Context, subjectType string, subjectID *string) ([]*View, error) {
	if err := s.authorize(tc, subjectType, permission.View); err != nil {
		return nil, err
	}
	if subjectType == entity.SubjectCompany && subjectID == nil {
		subjectID = &tc.CompanyID
	}
	docs, err := s.Documents.ListBySubject(ctx, tc.CompanyID, subjectType, subjectID, true)
	if err != nil {
		return nil, s.internal("documents.ListBySubject", tc, err)
	}
	types, err := s.typesByID(ctx, tc, subjectType)
	if err != nil {
		return nil, err
	}
	out := make([]*View, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.view(types[d.DocumentTypeID], d))
	}
	return out, nil
}

// DownloadURL URL firmada de una versión; version 0 = vigente.
func (s *Service) DownloadURL(ctx context.Context, tc tenant.Context, id string, version int) (string, time.Time, error) {
	doc, _, err := s.load(ctx, tc, id, permission.View)
	if err != nil {
		return "", time.Time{}, err
	}
	v := doc.Latest()
	if version > 0 {
		v = nil
		for i := range doc.Versions {
			if doc.Versions[i].Version == version {
				v = &doc.Versions[i]
			}
		}
	}
	if v == nil {
		return "", time.Time{}, domain.ErrNotFound
	}
	url, exp, err := s.Signer.URL(v.FileKey, v.FileName)
	if err != nil {
		return "", time.Time{}, s.internal("signer.URL", tc, err)
	}
	return url, exp, nil
}

// Compliance resumen de cumplimiento del sujeto para el periodo (vacío = mes actual).
func (s *Service) Compliance(ctx context.Context, tc tenant.Context, subjectType, subjectID, period string) (document.Summary, error) {
	if err := s.authorize(tc, subjectType, permission.View); err != nil {
		return document.Summary{}, err
	}
	if period != "" {
		p, err := document.ParsePeriod(period)
		if err != nil {
			return document.Summary{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
		}
		period = p
	}
	subject, err := s.subject(ctx, tc, subjectType, subjectID)
	if err != nil {
		return document.Summary{}, err
	}
	types, err := s.Types.List(ctx, tc.CompanyID, subjectType)
	if err != nil {
		return document.Summary{}, s.internal("types.List", tc, err)
	}
	sid := subject.ID
	docs, err := s.Documents.ListBySubject(ctx, tc.CompanyID, subjectType, &sid, true)
	if err != nil {
		return document.Summary{}, s.internal("documents.ListBySubject", tc, err)
	}
	return document.Evaluate(types, docs, subject, s.now(), period), nil
}

// ComplianceReport PDF del resumen de cumplimiento.
func (s *Service) ComplianceReport(ctx context.Context, tc tenant.Context, subjectType, subjectID, period string) ([]byte, error) {
	summary, err := s.Compliance(ctx, tc, subjectType, subjectID, period)
	if err != nil {
		return nil, err
	}
	company, err := s.Companies.GetByID(ctx, tc.CompanyID)
	if err != nil {
		return nil, s.internal("companies.GetByID", tc, err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa", domain.ErrNotFound)
	}
	pdf, err := s.Renderer.RenderCompliance(company, summary, s.now())
	if err != nil {
		return nil, s.internal("renderer.RenderCompliance", tc, err)
	}
	return pdf, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *Service) load(ctx context.Context, tc tenant.Context, id string, action permission.Action) (*entity.Document, *entity.DocumentType, error) {
	doc, err := s.Documents.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, nil, s.internal("documents.GetByID", tc, err)
	}
	if doc == nil {
		return nil, nil, domain.ErrNotFound
	}
	if err := s.authorize(tc, doc.SubjectType, action); err != nil {
		return nil, nil, err
	}
	dt, err := s.documentType(ctx, tc.CompanyID, doc.DocumentTypeID)
	if err != nil {
		return nil, nil, err
	}
	return doc, dt, nil
}

func (s *Service) documentType(ctx context.Context, companyID, id string) (*entity.DocumentType, error) {
	dt, err := s.Types.GetByID(ctx, companyID, id)
	if err != nil {
		s.log.Error().Err(err).Str("op", "types.GetByID").Str("company_id", companyID).Str("id", id).Msg("documents: fallo de persistencia")
		return nil, domain.ErrInternal
	}
	if dt == nil {
		return nil, fmt.Errorf("%w: tipo de documento", domain.ErrNotFound)
	}
	return dt, nil
}

func (s *Service) typesByID(ctx context.Context, tc tenant.Context, subjectType string) (map[string]*entity.DocumentType, error) {
	list, err := s.Types.List(ctx, tc.CompanyID, subjectType)
	if err != nil {
		return nil, s.internal("types.List", tc, err)
	}
	out := make(map[string]*entity.DocumentType, len(list))
	for _, dt := range list {
		out[dt.ID] = dt
	}
	return out, nil
}

// checkSubject valida el sujeto y la aplicabilidad; devuelve el SubjectID a persistir.
func (s *Service) checkSubject(ctx context.Context, tc tenant.Context, dt *entity.DocumentType, subjectID *string) (*string, error) {
	if dt.IsMultiResource && subjectID == nil {
		return nil, nil
	}
	id := ""
	if subjectID != nil {
		id = *subjectID
	}
	subject, err := s.subject(ctx, tc, dt.SubjectType, id)
	if err != nil {
		return nil, err
	}
	if !document.AppliesTo(dt, subject) {
		return nil, fmt.Errorf("%w: no cumple %s", domain.ErrNotApplicable, strings.Join(document.FailedRules(dt, subject), ", "))
	}
	return &subject.ID, nil
}

// subject carga la foto actual del sujeto dentro de la empresa.
func (s *Service) subject(ctx context.Context, tc tenant.Context, subjectType, id string) (document.Subject, error) {
	switch subjectType {
	case entity.SubjectEmployee:
		e, err := s.Employees.GetByID(ctx, tc.CompanyID, id)
		if err != nil {
			return document.Subject{}, s.internal("employees.GetByID", tc, err)
		}
		if e == nil {
			return document.Subject{}, fmt.Errorf("%w: empleado", domain.ErrNotFound)
		}
		return document.EmployeeSubject(e), nil
	case entity.SubjectEquipment:
		eq, err := s.Equipment.GetByID(ctx, tc.CompanyID, id)
		if err != nil {
			return document.Subject{}, s.internal("equipment.GetByID", tc, err)
		}
		if eq == nil {
			return document.Subject{}, fmt.Errorf("%w: equipo", domain.ErrNotFound)
		}
		return document.EquipmentSubject(eq), nil
	case entity.SubjectCompany:
		if id != "" && id != tc.CompanyID {
			return document.Subject{}, fmt.Errorf("%w: empresa", domain.ErrNotFound)
		}
		c, err := s.Companies.GetByID(ctx, tc.CompanyID)
		if err != nil {
			return document.Subject{}, s.internal("companies.GetByID", tc, err)
		}
		if c == nil {
			return document.Subject{}, fmt.Errorf("%w: empresa", domain.ErrNotFound)
		}
		return document.CompanySubject(c), nil
	}
	return document.Subject{}, fmt.Errorf("%w: tipo de sujeto %q", domain.ErrInvalidInput, subjectType)
}

// newVersion cada llamada produce una llave de archivo nueva, aunque se repitan número y nombre.
func (s *Service) newVersion(doc *entity.Document, n int, f File, expiration *time.Time, userID string, now time.Time) entity.DocumentVersion {
	id := uuid.New().String()
	return entity.DocumentVersion{
		ID:             id,
		DocumentID:     doc.ID,
		Version:        n,
		FileKey:        ObjectKey(doc, id, n, f.Name),
		FileName:       f.Name,
		MimeType:       normalizeMime(f.ContentType),
		SizeBytes:      int64(len(f.Data)),
		ExpirationDate: expiration,
		UploadedBy:     userID,
		CreatedAt:      now,
	}
}

// ObjectKey companies/{company}/{subjectType}/{subject|general}/{type}/{document}/v{n}-{upload}-{nombre}.
// upload identifica la carga concreta del archivo.
func ObjectKey(doc *entity.Document, upload string, version int, fileName string) string {
	subject := "general"
	if doc.SubjectID != nil {
		subject = *doc.SubjectID
	}
	return fmt.Sprintf("companies/%s/%s/%s/%s/%s/v%d-%s-%s",
		doc.CompanyID, strings.ToLower(doc.SubjectType), subject, doc.DocumentTypeID, doc.ID, version, upload, slug.FileName(fileName))
}

func (s *Service) putFile(ctx context.Context, tc tenant.Context, key string, f File) error {
	if err := s.Files.Put(ctx, key, f.Data, normalizeMime(f.ContentType)); err != nil {
		return s.internal("files.Put", tc, err)
	}
	return nil
}

// discard borra un archivo; un fallo deja un huérfano que solo se registra.
func (s *Service) discard(ctx context.Context, key string) {
	if err := s.Files.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("documents: archivo huérfano en el object store")
	}
}

func (s *Service) view(dt *entity.DocumentType, doc *entity.Document) *View {
	return &View{Document: doc, Type: dt, State: document.EffectiveState(dt, doc, s.now())}
}

func (s *Service) revalidate(ctx context.Context, tc tenant.Context, subjectType string) {
	if module, err := ModuleFor(subjectType); err == nil {
		s.Revalidator.Revalidate(ctx, tc.CompanyID, string(module))
	}
}

func (s *Service) internal(op string, tc tenant.Context, err error) error {
	s.log.Error().Err(err).Str("op", op).Str("company_id", tc.CompanyID).Str("user_id", tc.UserID).Msg("documents: fallo de persistencia")
	return domain.ErrInternal
}
