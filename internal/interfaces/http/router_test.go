package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/application/access"
	"github.com/jhoicas/Gestion-api/internal/application/audit"
	"github.com/jhoicas/Gestion-api/internal/application/auth"
	"github.com/jhoicas/Gestion-api/internal/application/crm"
	"github.com/jhoicas/Gestion-api/internal/application/documents"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/cache"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/storage"
	apphttp "github.com/jhoicas/Gestion-api/internal/interfaces/http"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Aplicación completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	st := memory.New()
	log := logger.Nop()
	rev := cache.NewMemoryRevalidator()

	files, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = files.Close() })
	signer := storage.NewPresigner(testJWTSecret, time.Minute, "/api/files")

	auditLog := audit.NewLogger(st.AuditLogs(), log)
	resolver := tenant.NewResolver(st.Companies(), st.Members(), st.Preferences(), log)
	accessSvc := access.NewService(st.Members(), st.Roles(), st.Overrides(), auditLog, rev, log)

	deps := apphttp.RouterDeps{
		AuthUC:      auth.NewAuthUseCase(st.Users(), resolver, accessSvc, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer}, log),
		CompanyUC:   usecase.NewCompanyUseCase(st.Companies(), st, rev, log),
		EmployeeUC:  usecase.NewEmployeeUseCase(st.Employees(), st.JobPositions(), rev, log),
		EquipmentUC: usecase.NewEquipmentUseCase(st.Equipment(), st.Contractors(), st, rev, log),
		RoleUC:      usecase.NewRoleUseCase(st.Roles(), st.Members(), st, auditLog, rev, log),
		MemberUC: usecase.NewMemberUseCase(usecase.MemberDeps{
			Members: st.Members(), Users: st.Users(), Roles: st.Roles(), Invitations: st.Invitations(),
			Companies: st.Companies(), Tx: st, Audit: auditLog, Revalidator: rev, Log: log,
		}),
		DocumentTypeUC: usecase.NewDocumentTypeUseCase(st.DocumentTypes(), st.Documents(), st.JobPositions(), rev, log),
		CRM:            crm.NewService(st.Clients(), st.Contacts(), st.Leads(), st, rev, log),
		Documents: documents.NewService(documents.Deps{
			Types: st.DocumentTypes(), Documents: st.Documents(), Tx: st,
			Employees: st.Employees(), Equipment: st.Equipment(), Companies: st.Companies(),
			Files: files, Signer: signer, Renderer: pdf.NewMarotoReport(), Revalidator: rev,
			Log: log, MaxBytes: 1 << 20,
		}),
		Access:    accessSvc,
		Audit:     auditLog,
		Tenants:   resolver,
		Versions:  rev,
		Files:     signer,
		Objects:   files,
		JWTSecret: testJWTSecret,
	}
	app := fiber.New(apphttp.AppConfig(log))
	apphttp.Router(app, deps)
	return &apiClient{t: t, app: app}
}

func (a *apiClient) do(method, path, token string, body any, headers ...string) (*http.Response, []byte) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.send(req)
}

func (a *apiClient) send(req *http.Request) (*http.Response, []byte) {
	a.t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, raw
}

func (a *apiClient) register(email string) string {
	a.t.Helper()
	resp, raw := a.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Email: email, Password: "secreto123", Name: email})
	require.Equal(a.t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var out dto.LoginResponse
	require.NoError(a.t, json.Unmarshal(raw, &out))
	return out.Token
}

func (a *apiClient) createCompany(token, nit string) dto.CompanyResponse {
	a.t.Helper()
	resp, raw := a.do(http.MethodPost, "/api/companies", token, dto.CreateCompanyRequest{Name: "Acme " + nit, NIT: nit})
	require.Equal(a.t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var out dto.CompanyResponse
	require.NoError(a.t, json.Unmarshal(raw, &out))
	return out
}

// inviteMember invita y acepta; devuelve el token del invitado y su id de miembro.
func (a *apiClient) inviteMember(owner, email string) (string, string) {
	a.t.Helper()
	resp, raw := a.do(http.MethodPost, "/api/invitations", owner, dto.CreateInvitationRequest{Email: email})
	require.Equal(a.t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var inv dto.InvitationResponse
	require.NoError(a.t, json.Unmarshal(raw, &inv))

	guest := a.register(email)
	resp, raw = a.do(http.MethodPost, "/api/invitations/accept", guest, dto.AcceptInvitationRequest{Token: inv.Token})
	require.Equal(a.t, fiber.StatusOK, resp.StatusCode, string(raw))

	resp, raw = a.do(http.MethodGet, "/api/members", owner, nil)
	require.Equal(a.t, fiber.StatusOK, resp.StatusCode, string(raw))
	var members dto.ListResponse[dto.MemberResponse]
	require.NoError(a.t, json.Unmarshal(raw, &members))
	for _, m := range members.Items {
		if m.Email == email {
			return guest, m.ID
		}
	}
	a.t.Fatalf("miembro %s no encontrado", email)
	return "", ""
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out.Code
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo de tenant y permisos
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_SinEmpresa_NoActiveTenantPeroMeResponde(t *testing.T) {
	api := newAPI(t)
	tok := api.register("ana@acme.co")

	resp, raw := api.do(http.MethodGet, "/api/employees", tok, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, apphttp.CodeNoActiveTenant, errorCode(t, raw))

	resp, raw = api.do(http.MethodGet, "/api/me", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var me dto.MeResponse
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.Nil(t, me.Company)
}

func TestRouter_SinToken_401(t *testing.T) {
	api := newAPI(t)
	resp, _ := api.do(http.MethodGet, "/api/employees", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_PropietarioCreaYListaConETag(t *testing.T) {
	api := newAPI(t)
	tok := api.register("ana@acme.co")
	api.createCompany(tok, "900123456-7")

	resp, raw := api.do(http.MethodPost, "/api/employees", tok, dto.EmployeeRequest{FirstName: "Luis", LastName: "Pérez", DocumentNumber: "1010"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = api.do(http.MethodGet, "/api/employees", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var list dto.ListResponse[dto.EmployeeResponse]
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Luis Pérez", list.Items[0].FullName)

	etag := resp.Header.Get(fiber.HeaderETag)
	require.NotEmpty(t, etag)
	resp, _ = api.do(http.MethodGet, "/api/employees", tok, nil, fiber.HeaderIfNoneMatch, etag)
	assert.Equal(t, fiber.StatusNotModified, resp.StatusCode)

	// una escritura invalida la etiqueta
	resp, _ = api.do(http.MethodPost, "/api/employees", tok, dto.EmployeeRequest{FirstName: "Eva", DocumentNumber: "2020"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = api.do(http.MethodGet, "/api/employees", tok, nil, fiber.HeaderIfNoneMatch, etag)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouter_InvitadoSinRol_403HastaOverride(t *testing.T) {
	api := newAPI(t)
	owner := api.register("ana@acme.co")
	api.createCompany(owner, "900123456-7")

	resp, raw := api.do(http.MethodPost, "/api/invitations", owner, dto.CreateInvitationRequest{Email: "beto@acme.co"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var inv dto.InvitationResponse
	require.NoError(t, json.Unmarshal(raw, &inv))
	require.NotEmpty(t, inv.Token)

	guest := api.register("beto@acme.co")
	resp, raw = api.do(http.MethodPost, "/api/invitations/accept", guest, dto.AcceptInvitationRequest{Token: inv.Token})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	resp, raw = api.do(http.MethodGet, "/api/employees", guest, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apphttp.CodeForbidden, errorCode(t, raw))

	resp, raw = api.do(http.MethodGet, "/api/members", owner, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var members dto.ListResponse[dto.MemberResponse]
	require.NoError(t, json.Unmarshal(raw, &members))
	var guestMemberID string
	for _, m := range members.Items {
		if m.Email == "beto@acme.co" {
			guestMemberID = m.ID
		}
	}
	require.NotEmpty(t, guestMemberID)

	resp, raw = api.do(http.MethodPost, "/api/members/"+guestMemberID+"/overrides", owner,
		dto.OverrideRequest{Module: "employees", Action: "view", Granted: true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	resp, _ = api.do(http.MethodGet, "/api/employees", guest, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = api.do(http.MethodPost, "/api/employees", guest, dto.EmployeeRequest{FirstName: "X", DocumentNumber: "1"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "view no concede create")

	resp, raw = api.do(http.MethodGet, "/api/audit-logs", owner, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var logs dto.ListResponse[dto.AuditLogResponse]
	require.NoError(t, json.Unmarshal(raw, &logs))
	actions := make([]string, 0, len(logs.Items))
	for _, e := range logs.Items {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, audit.PermissionOverrideSet)
	assert.Contains(t, actions, audit.InvitationAccepted)
}

func TestRouter_OverrideConservaMiembroTrasOtrasPeticiones(t *testing.T) {
	api := newAPI(t)
	owner := api.register("ana@acme.co")
	api.createCompany(owner, "900123456-7")
	guest, guestMemberID := api.inviteMember(owner, "beto@acme.co")

	resp, raw := api.do(http.MethodPost, "/api/members/"+guestMemberID+"/overrides", owner,
		dto.OverrideRequest{Module: "employees", Action: "view", Granted: true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	// peticiones con parámetros de la misma longitud que el id del miembro
	for i := 0; i < 3; i++ {
		resp, _ = api.do(http.MethodGet, "/api/employees/"+uuid.NewString(), owner, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		resp, _ = api.do(http.MethodGet, "/api/members/"+uuid.NewString()+"/overrides", owner, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	}

	resp, raw = api.do(http.MethodGet, "/api/members/"+guestMemberID+"/overrides", owner, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var overrides []dto.OverrideResponse
	require.NoError(t, json.Unmarshal(raw, &overrides))
	require.Len(t, overrides, 1)
	assert.Equal(t, guestMemberID, overrides[0].MemberID)

	resp, raw = api.do(http.MethodGet, "/api/employees", guest, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
}

func TestRouter_RolConNombreReservado_400(t *testing.T) {
	api := newAPI(t)
	tok := api.register("ana@acme.co")
	api.createCompany(tok, "900123456-7")

	resp, raw := api.do(http.MethodPost, "/api/roles", tok, dto.RoleRequest{Name: "Owner"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, string(raw))
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos y descarga firmada
// ──────────────────────────────────────────────────────────────────────────────

func uploadRequest(t *testing.T, token string, fields map[string]string, fileName, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}

func TestRouter_DocumentoDeEmpresa_CargaDescargaYCumplimiento(t *testing.T) {
	api := newAPI(t)
	tok := api.register("ana@acme.co")
	company := api.createCompany(tok, "900123456-7")

	resp, raw := api.do(http.MethodPost, "/api/document-types", tok, dto.DocumentTypeRequest{
		Name: "RUT", SubjectType: "COMPANY", IsMandatory: true,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var dt dto.DocumentTypeResponse
	require.NoError(t, json.Unmarshal(raw, &dt))

	content := []byte("%PDF-1.4 rut")
	resp, raw = api.send(uploadRequest(t, tok, map[string]string{
		"documentTypeId": dt.ID,
		"subjectType":    "company",
		"subjectId":      company.ID,
	}, "rut.pdf", "application/pdf", content))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var doc dto.DocumentResponse
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "SUBMITTED", doc.State)
	require.Len(t, doc.Versions, 1)

	resp, raw = api.do(http.MethodGet, "/api/documents/"+doc.ID+"/download", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var dl dto.DownloadResponse
	require.NoError(t, json.Unmarshal(raw, &dl))
	require.True(t, strings.HasPrefix(dl.URL, "/api/files/"), dl.URL)

	// la URL firmada no necesita Bearer
	resp, raw = api.do(http.MethodGet, dl.URL, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, content, raw)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))

	resp, _ = api.do(http.MethodGet, "/api/files/token-falso", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, raw = api.do(http.MethodPost, "/api/documents/"+doc.ID+"/approve", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	resp, raw = api.do(http.MethodGet, "/api/compliance/COMPANY/"+company.ID, tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var sum dto.ComplianceResponse
	require.NoError(t, json.Unmarshal(raw, &sum))
	assert.Equal(t, 1, sum.Complete)
	assert.Equal(t, 0, sum.Missing)

	resp, raw = api.do(http.MethodGet, "/api/compliance/COMPANY/"+company.ID+"/report.pdf", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestRouter_DocumentoSinArchivo_400(t *testing.T) {
	api := newAPI(t)
	tok := api.register("ana@acme.co")
	api.createCompany(tok, "900123456-7")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("subjectType", "COMPANY"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)

	resp, raw := api.send(req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, errorCode(t, raw))
}
