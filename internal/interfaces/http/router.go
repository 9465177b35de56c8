package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/access"
	"github.com/jhoicas/Gestion-api/internal/application/audit"
	"github.com/jhoicas/Gestion-api/internal/application/auth"
	"github.com/jhoicas/Gestion-api/internal/application/crm"
	"github.com/jhoicas/Gestion-api/internal/application/documents"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	CompanyUC      *usecase.CompanyUseCase
	EmployeeUC     *usecase.EmployeeUseCase
	EquipmentUC    *usecase.EquipmentUseCase
	RoleUC         *usecase.RoleUseCase
	MemberUC       *usecase.MemberUseCase
	DocumentTypeUC *usecase.DocumentTypeUseCase
	CRM            *crm.Service
	Documents      *documents.Service
	Access         *access.Service
	Audit          *audit.Logger
	Tenants        *tenant.Resolver
	Versions       tagVersioner
	Files          tokenResolver
	Objects        objectReader
	AuthLimiter    *RateLimiter
	JWTSecret      string
}

// Router registra las rutas de la API.
// Las rutas públicas y las que solo exigen sesión se registran antes que el grupo con
// TenantMiddleware: fiber ejecuta los middlewares de grupo de "/" para toda ruta posterior.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.CompanyUC)
	authGroup := api.Group("/auth")
	if deps.AuthLimiter != nil {
		authGroup.Use(deps.AuthLimiter.Middleware())
	}
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Archivos: la URL firmada es la credencial.
	fileHandler := NewFileHandler(deps.Files, deps.Objects)
	api.Get("/files/:token", fileHandler.Get)

	// Solo sesión: funcionan sin empresa activa.
	requireAuth := AuthMiddleware(deps.JWTSecret)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	memberHandler := NewMemberHandler(deps.MemberUC, deps.Access)

	api.Get("/me", requireAuth, authHandler.Me)
	api.Put("/me/active-company", requireAuth, authHandler.SwitchCompany)
	api.Get("/me/companies", requireAuth, authHandler.MyCompanies)
	api.Post("/companies", requireAuth, companyHandler.Create)
	api.Post("/invitations/accept", requireAuth, memberHandler.AcceptInvitation)

	// Rutas con empresa activa y matriz de permisos resuelta.
	protected := api.Group("/", requireAuth, TenantMiddleware(deps.Tenants, deps.Access))
	can := RequirePermission
	cached := func(m permission.Module) fiber.Handler { return CacheTag(deps.Versions, string(m)) }

	// Empresa activa
	settings := permission.ModuleSettings
	protected.Get("/company", cached(settings), companyHandler.Current)
	protected.Put("/company", can(settings, permission.Update), companyHandler.Update)

	// Empleados y cargos
	employeeHandler := NewEmployeeHandler(deps.EmployeeUC)
	emp := permission.ModuleEmployees
	employees := protected.Group("/employees", cached(emp))
	employees.Get("/", can(emp, permission.View), employeeHandler.List)
	employees.Post("/", can(emp, permission.Create), employeeHandler.Create)
	employees.Get("/:id", can(emp, permission.View), employeeHandler.GetByID)
	employees.Put("/:id", can(emp, permission.Update), employeeHandler.Update)
	employees.Delete("/:id", can(emp, permission.Delete), employeeHandler.Delete)

	positions := protected.Group("/job-positions", cached(emp))
	positions.Get("/", can(emp, permission.View), employeeHandler.ListPositions)
	positions.Post("/", can(emp, permission.Create), employeeHandler.CreatePosition)
	positions.Delete("/:id", can(emp, permission.Delete), employeeHandler.DeletePosition)

	// Equipos y contratistas
	equipmentHandler := NewEquipmentHandler(deps.EquipmentUC)
	eq := permission.ModuleEquipment
	equipment := protected.Group("/equipment", cached(eq))
	equipment.Get("/", can(eq, permission.View), equipmentHandler.List)
	equipment.Post("/", can(eq, permission.Create), equipmentHandler.Create)
	equipment.Get("/:id", can(eq, permission.View), equipmentHandler.GetByID)
	equipment.Put("/:id", can(eq, permission.Update), equipmentHandler.Update)
	equipment.Delete("/:id", can(eq, permission.Delete), equipmentHandler.Delete)

	ct := permission.ModuleContractors
	contractors := protected.Group("/contractors", cached(ct))
	contractors.Get("/", can(ct, permission.View), equipmentHandler.ListContractors)
	contractors.Post("/", can(ct, permission.Create), equipmentHandler.CreateContractor)
	contractors.Get("/:id", can(ct, permission.View), equipmentHandler.GetContractor)
	contractors.Put("/:id", can(ct, permission.Update), equipmentHandler.UpdateContractor)
	contractors.Delete("/:id", can(ct, permission.Delete), equipmentHandler.DeleteContractor)

	// Comercial
	crmHandler := NewCRMHandler(deps.CRM)
	cl := permission.ModuleClients
	clients := protected.Group("/clients", cached(cl))
	clients.Get("/", can(cl, permission.View), crmHandler.ListClients)
	clients.Post("/", can(cl, permission.Create), crmHandler.CreateClient)
	clients.Get("/:id", can(cl, permission.View), crmHandler.GetClient)
	clients.Put("/:id", can(cl, permission.Update), crmHandler.UpdateClient)
	clients.Delete("/:id", can(cl, permission.Delete), crmHandler.DeleteClient)

	co := permission.ModuleContacts
	contacts := protected.Group("/contacts", cached(co))
	contacts.Get("/", can(co, permission.View), crmHandler.ListContacts)
	contacts.Get("/available", can(co, permission.View), crmHandler.ListAvailableContacts)
	contacts.Post("/", can(co, permission.Create), crmHandler.CreateContact)
	contacts.Get("/:id", can(co, permission.View), crmHandler.GetContact)
	contacts.Put("/:id", can(co, permission.Update), crmHandler.UpdateContact)
	contacts.Delete("/:id", can(co, permission.Delete), crmHandler.DeleteContact)

	ld := permission.ModuleLeads
	leads := protected.Group("/leads", cached(ld))
	leads.Get("/", can(ld, permission.View), crmHandler.ListLeads)
	leads.Post("/", can(ld, permission.Create), crmHandler.CreateLead)
	leads.Get("/:id", can(ld, permission.View), crmHandler.GetLead)
	leads.Put("/:id", can(ld, permission.Update), crmHandler.UpdateLead)
	leads.Delete("/:id", can(ld, permission.Delete), crmHandler.DeleteLead)
	leads.Post("/:id/convert", can(ld, permission.Update), can(cl, permission.Create), crmHandler.ConvertLead)

	// Roles
	roleHandler := NewRoleHandler(deps.RoleUC)
	rl := permission.ModuleRoles
	roles := protected.Group("/roles", cached(rl))
	roles.Get("/", can(rl, permission.View), roleHandler.List)
	roles.Post("/", can(rl, permission.Create), roleHandler.Create)
	roles.Get("/:id", can(rl, permission.View), roleHandler.Get)
	roles.Put("/:id", can(rl, permission.Update), roleHandler.Update)
	roles.Put("/:id/permissions", can(rl, permission.Update), roleHandler.UpdatePermissions)
	roles.Delete("/:id", can(rl, permission.Delete), roleHandler.Delete)

	// Miembros y overrides
	us := permission.ModuleUsers
	members := protected.Group("/members", cached(us))
	members.Get("/", can(us, permission.View), memberHandler.List)
	members.Put("/:id/role", can(us, permission.Update), memberHandler.ChangeRole)
	members.Post("/:id/deactivate", can(us, permission.Update), memberHandler.Deactivate)
	members.Post("/:id/reactivate", can(us, permission.Update), memberHandler.Reactivate)
	members.Get("/:id/overrides", can(us, permission.View), memberHandler.ListOverrides)
	members.Post("/:id/overrides", can(us, permission.Update), memberHandler.SetOverride)
	members.Delete("/:id/overrides/:overrideId", can(us, permission.Update), memberHandler.RemoveOverride)

	// Invitaciones
	inv := permission.ModuleInvitations
	invitations := protected.Group("/invitations", cached(inv))
	invitations.Get("/", can(inv, permission.View), memberHandler.ListInvitations)
	invitations.Post("/", can(inv, permission.Create), memberHandler.Invite)
	invitations.Delete("/:id", can(inv, permission.Delete), memberHandler.CancelInvitation)

	// Bitácora
	auditHandler := NewAuditHandler(deps.Audit)
	protected.Get("/audit-logs", can(permission.ModuleAudit, permission.View), auditHandler.List)

	// Tipos de documento
	dtHandler := NewDocumentTypeHandler(deps.DocumentTypeUC)
	dt := permission.ModuleDocumentTypes
	docTypes := protected.Group("/document-types", cached(dt))
	docTypes.Get("/", can(dt, permission.View), dtHandler.List)
	docTypes.Post("/", can(dt, permission.Create), dtHandler.Create)
	docTypes.Get("/:id", can(dt, permission.View), dtHandler.Get)
	docTypes.Put("/:id", can(dt, permission.Update), dtHandler.Update)
	docTypes.Delete("/:id", can(dt, permission.Delete), dtHandler.Delete)

	// Documentos: el módulo depende del tipo de sujeto, lo valida el servicio.
	docHandler := NewDocumentHandler(deps.Documents)
	docs := protected.Group("/documents")
	docs.Post("/", docHandler.Upload)
	docs.Get("/", docHandler.List)
	docs.Get("/:id", docHandler.Get)
	docs.Post("/:id/renew", docHandler.Renew)
	docs.Post("/:id/replace", docHandler.Replace)
	docs.Post("/:id/revert", docHandler.Revert)
	docs.Post("/:id/approve", docHandler.Approve)
	docs.Post("/:id/reject", docHandler.Reject)
	docs.Delete("/:id", docHandler.Delete)
	docs.Get("/:id/download", docHandler.Download)

	protected.Get("/compliance/:subjectType/:subjectId/report.pdf", docHandler.ComplianceReport)
	protected.Get("/compliance/:subjectType/:subjectId", docHandler.Compliance)
}
