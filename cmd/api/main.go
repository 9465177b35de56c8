package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/Gestion-api/internal/application/access"
	"github.com/jhoicas/Gestion-api/internal/application/audit"
	"github.com/jhoicas/Gestion-api/internal/application/auth"
	"github.com/jhoicas/Gestion-api/internal/application/crm"
	"github.com/jhoicas/Gestion-api/internal/application/documents"
	"github.com/jhoicas/Gestion-api/internal/application/ports"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/Gestion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/Gestion-api/internal/interfaces/http"
	"github.com/jhoicas/Gestion-api/pkg/config"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Caché: sin Redis las versiones viven en memoria del proceso.
	var rev ports.Revalidator = cache.NewMemoryRevalidator()
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, revalidación en memoria")
		} else {
			defer rdb.Close()
			rev = cache.NewRedisRevalidator(rdb, log)
		}
	}

	files, err := storage.Open(storage.Options{Path: cfg.Storage.Path})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("abrir almacenamiento de archivos")
	}
	defer files.Close()
	signer := storage.NewPresigner(cfg.Storage.SigningSecret, cfg.Storage.URLTTL, "/api/files")

	companyRepo := postgres.NewCompanyRepository(pool)
	memberRepo := postgres.NewMemberRepository(pool)
	prefRepo := postgres.NewPreferenceRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)
	overrideRepo := postgres.NewOverrideRepository(pool)
	invitationRepo := postgres.NewInvitationRepository(pool)
	employeeRepo := postgres.NewEmployeeRepository(pool)
	positionRepo := postgres.NewJobPositionRepository(pool)
	equipmentRepo := postgres.NewEquipmentRepository(pool)
	contractorRepo := postgres.NewContractorRepository(pool)
	docTypeRepo := postgres.NewDocumentTypeRepository(pool)
	documentRepo := postgres.NewDocumentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	auditLog := audit.NewLogger(postgres.NewAuditLogRepository(pool), log)
	resolver := tenant.NewResolver(companyRepo, memberRepo, prefRepo, log)
	accessSvc := access.NewService(memberRepo, roleRepo, overrideRepo, auditLog, rev, log)

	authUC := auth.NewAuthUseCase(userRepo, resolver, accessSvc, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
	companyUC := usecase.NewCompanyUseCase(companyRepo, txRunner, rev, log)
	employeeUC := usecase.NewEmployeeUseCase(employeeRepo, positionRepo, rev, log)
	equipmentUC := usecase.NewEquipmentUseCase(equipmentRepo, contractorRepo, txRunner, rev, log)
	roleUC := usecase.NewRoleUseCase(roleRepo, memberRepo, txRunner, auditLog, rev, log)
	memberUC := usecase.NewMemberUseCase(usecase.MemberDeps{
		Members:     memberRepo,
		Users:       userRepo,
		Roles:       roleRepo,
		Invitations: invitationRepo,
		Companies:   companyRepo,
		Tx:          txRunner,
		Audit:       auditLog,
		Revalidator: rev,
		Log:         log,
	})
	docTypeUC := usecase.NewDocumentTypeUseCase(docTypeRepo, documentRepo, positionRepo, rev, log)
	crmSvc := crm.NewService(
		postgres.NewClientRepository(pool),
		postgres.NewContactRepository(pool),
		postgres.NewLeadRepository(pool),
		txRunner, rev, log,
	)
	documentSvc := documents.NewService(documents.Deps{
		Types:       docTypeRepo,
		Documents:   documentRepo,
		Tx:          txRunner,
		Employees:   employeeRepo,
		Equipment:   equipmentRepo,
		Companies:   companyRepo,
		Files:       files,
		Signer:      signer,
		Renderer:    infrapdf.NewMarotoReport(),
		Revalidator: rev,
		Log:         log,
		MaxBytes:    cfg.Storage.MaxUploadBytes(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := httpRouter.NewMetrics(reg)

	appCfg := httpRouter.AppConfig(log)
	appCfg.AppName = cfg.App.Name
	appCfg.ReadTimeout = time.Second * 10
	appCfg.WriteTimeout = time.Second * 30
	appCfg.IdleTimeout = time.Second * 60
	appCfg.BodyLimit = cfg.HTTP.BodyLimitMB << 20
	app := fiber.New(appCfg)
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.AccessLog(log))
	app.Use(metrics.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs (solo si se generó docs/swagger.json)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Gestión API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", metrics.Handler())

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		CompanyUC:      companyUC,
		EmployeeUC:     employeeUC,
		EquipmentUC:    equipmentUC,
		RoleUC:         roleUC,
		MemberUC:       memberUC,
		DocumentTypeUC: docTypeUC,
		CRM:            crmSvc,
		Documents:      documentSvc,
		Access:         accessSvc,
		Audit:          auditLog,
		Tenants:        resolver,
		Versions:       rev,
		Files:          signer,
		Objects:        files,
		AuthLimiter:    httpRouter.NewRateLimiter(cfg.RateLimit.AuthPerSecond, cfg.RateLimit.AuthBurst),
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
