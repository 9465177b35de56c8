package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var (
	_ repository.DocumentTypeRepository = (*DocumentTypeRepo)(nil)
	_ repository.DocumentRepository     = (*DocumentRepo)(nil)
)

func copyDocument(d entity.Document) entity.Document {
	d.Versions = append([]entity.DocumentVersion(nil), d.Versions...)
	return d
}

// DocumentTypeRepo tipos de documento.
type DocumentTypeRepo struct{ s *Store }

func (r *DocumentTypeRepo) Create(_ context.Context, dt *entity.DocumentType) error {
	defer r.s.lock()()
	r.s.st.docTypes[dt.ID] = *dt
	return nil
}

func (r *DocumentTypeRepo) GetByID(_ context.Context, companyID, id string) (*entity.DocumentType, error) {
	defer r.s.lock()()
	dt, ok := r.s.st.docTypes[id]
	if !ok || dt.CompanyID != companyID {
		return nil, nil
	}
	return &dt, nil
}

func (r *DocumentTypeRepo) List(_ context.Context, companyID, subjectType string) ([]*entity.DocumentType, error) {
	defer r.s.lock()()
	var out []*entity.DocumentType
	for _, dt := range r.s.st.docTypes {
		if dt.CompanyID == companyID && (subjectType == "" || dt.SubjectType == subjectType) {
			out = append(out, ptr(dt))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectType != out[j].SubjectType {
			return out[i].SubjectType < out[j].SubjectType
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *DocumentTypeRepo) Update(_ context.Context, dt *entity.DocumentType) error {
	defer r.s.lock()()
	existing, ok := r.s.st.docTypes[dt.ID]
	if !ok || existing.CompanyID != dt.CompanyID {
		return domain.ErrNotFound
	}
	r.s.st.docTypes[dt.ID] = *dt
	return nil
}

func (r *DocumentTypeRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	dt, ok := r.s.st.docTypes[id]
	if !ok || dt.CompanyID != companyID {
		return domain.ErrNotFound
	}
	for _, d := range r.s.st.documents {
		if d.DocumentTypeID == id {
			return domain.ErrConflict
		}
	}
	delete(r.s.st.docTypes, id)
	return nil
}

// DocumentRepo documentos; las versiones viajan dentro del documento.
type DocumentRepo struct{ s *Store }

func (r *DocumentRepo) Create(_ context.Context, d *entity.Document) error {
	defer r.s.lock()()
	for _, other := range r.s.st.documents {
		if other.DocumentTypeID == d.DocumentTypeID && eqPtr(other.SubjectID, d.SubjectID) && eqPtr(other.Period, d.Period) {
			return domain.ErrDuplicate
		}
	}
	r.s.st.documents[d.ID] = copyDocument(*d)
	return nil
}

func (r *DocumentRepo) GetByID(_ context.Context, companyID, id string) (*entity.Document, error) {
	defer r.s.lock()()
	d, ok := r.s.st.documents[id]
	if !ok || d.CompanyID != companyID {
		return nil, nil
	}
	return ptr(copyDocument(d)), nil
}

func (r *DocumentRepo) Find(_ context.Context, q repository.DocumentQuery) (*entity.Document, error) {
	defer r.s.lock()()
	for _, d := range r.s.st.documents {
		if d.CompanyID == q.CompanyID && d.DocumentTypeID == q.DocumentTypeID &&
			eqPtr(d.SubjectID, q.SubjectID) && eqPtr(d.Period, q.Period) {
			return ptr(copyDocument(d)), nil
		}
	}
	return nil, nil
}

func (r *DocumentRepo) ListBySubject(_ context.Context, companyID, subjectType string, subjectID *string, includeGeneral bool) ([]*entity.Document, error) {
	defer r.s.lock()()
	var out []*entity.Document
	for _, d := range r.s.st.documents {
		if d.CompanyID != companyID || d.SubjectType != subjectType {
			continue
		}
		if eqPtr(d.SubjectID, subjectID) || (includeGeneral && d.SubjectID == nil) {
			out = append(out, ptr(copyDocument(d)))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *DocumentRepo) Update(_ context.Context, d *entity.Document) error {
	defer r.s.lock()()
	existing, ok := r.s.st.documents[d.ID]
	if !ok || existing.CompanyID != d.CompanyID {
		return domain.ErrNotFound
	}
	existing.State = d.State
	existing.ExpirationDate = d.ExpirationDate
	existing.RejectReason = d.RejectReason
	existing.UpdatedAt = d.UpdatedAt
	r.s.st.documents[d.ID] = existing
	return nil
}

func (r *DocumentRepo) AddVersion(_ context.Context, v *entity.DocumentVersion) error {
	defer r.s.lock()()
	d, ok := r.s.st.documents[v.DocumentID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, existing := range d.Versions {
		if existing.Version == v.Version {
			return domain.ErrConflict
		}
	}
	d.Versions = append(append([]entity.DocumentVersion(nil), d.Versions...), *v)
	sort.Slice(d.Versions, func(i, j int) bool { return d.Versions[i].Version < d.Versions[j].Version })
	r.s.st.documents[v.DocumentID] = d
	return nil
}

func (r *DocumentRepo) UpdateVersion(_ context.Context, v *entity.DocumentVersion) error {
	defer r.s.lock()()
	d, ok := r.s.st.documents[v.DocumentID]
	if !ok {
		return domain.ErrNotFound
	}
	d = copyDocument(d)
	for i := range d.Versions {
		if d.Versions[i].ID == v.ID {
			d.Versions[i] = *v
		}
	}
	r.s.st.documents[v.DocumentID] = d
	return nil
}

func (r *DocumentRepo) DeleteVersion(_ context.Context, id string) error {
	defer r.s.lock()()
	for docID, d := range r.s.st.documents {
		kept := d.Versions[:0:0]
		for _, v := range d.Versions {
			if v.ID != id {
				kept = append(kept, v)
			}
		}
		d.Versions = kept
		r.s.st.documents[docID] = d
	}
	return nil
}

func (r *DocumentRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	d, ok := r.s.st.documents[id]
	if !ok || d.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.s.st.documents, id)
	return nil
}

func (r *DocumentRepo) CountByType(_ context.Context, companyID, documentTypeID string) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, d := range r.s.st.documents {
		if d.CompanyID == companyID && d.DocumentTypeID == documentTypeID {
			n++
		}
	}
	return n, nil
}
