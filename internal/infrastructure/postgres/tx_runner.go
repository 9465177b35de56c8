package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Gestion-api/internal/application/crm"
	"github.com/jhoicas/Gestion-api/internal/application/documents"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

// Ensure TxRunner implementa los runners que piden los casos de uso.
var (
	_ crm.TxRunner               = (*TxRunner)(nil)
	_ documents.TxRunner         = (*TxRunner)(nil)
	_ usecase.EquipmentTxRunner  = (*TxRunner)(nil)
	_ usecase.MembershipTxRunner = (*TxRunner)(nil)
	_ usecase.RoleTxRunner       = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// inTx inicia una transacción, ejecuta fn y hace Commit; cualquier error deja Rollback.
func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunCRM repos comerciales atados a una tx (alta de cliente con contacto, conversión de lead).
func (r *TxRunner) RunCRM(ctx context.Context, fn func(
	clientRepo repository.ClientRepository,
	contactRepo repository.ContactRepository,
	leadRepo repository.LeadRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewClientRepository(tx), NewContactRepository(tx), NewLeadRepository(tx))
	})
}

// RunEquipment equipo + reasignación de contratistas en una tx.
func (r *TxRunner) RunEquipment(ctx context.Context, fn func(
	equipmentRepo repository.EquipmentRepository,
	contractorRepo repository.ContractorRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewEquipmentRepository(tx), NewContractorRepository(tx))
	})
}

// RunDocuments documento + versiones en una tx.
func (r *TxRunner) RunDocuments(ctx context.Context, fn func(docRepo repository.DocumentRepository) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewDocumentRepository(tx))
	})
}

// RunMembership alta de empresa con owner, aceptación de invitaciones.
func (r *TxRunner) RunMembership(ctx context.Context, fn func(
	companyRepo repository.CompanyRepository,
	memberRepo repository.MemberRepository,
	prefRepo repository.PreferenceRepository,
	invitationRepo repository.InvitationRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewCompanyRepository(tx), NewMemberRepository(tx), NewPreferenceRepository(tx), NewInvitationRepository(tx))
	})
}

// RunRoles rol + concesiones en una tx.
func (r *TxRunner) RunRoles(ctx context.Context, fn func(roleRepo repository.RoleRepository) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewRoleRepository(tx))
	})
}
