package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk93102/clm-backend/internal/domain"
)

type Store struct {
	pool          *pgxpool.Pool
	contracts     *ContractRepo
	definitions   *DefinitionRepo
	instances     *InstanceRepo
	approvals     *ApprovalRepo
	slaRules      *SLARuleRepo
	slaBreaches   *SLABreachRepo
	audit         *AuditRepo
	notifications *NotificationRepo
	users         *UserRepo
	userRoles     *UserRoleRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:          pool,
		contracts:     NewContractRepo(pool),
		definitions:   NewDefinitionRepo(pool),
		instances:     NewInstanceRepo(pool),
		approvals:     NewApprovalRepo(pool),
		slaRules:      NewSLARuleRepo(pool),
		slaBreaches:   NewSLABreachRepo(pool),
		audit:         NewAuditRepo(pool),
		notifications: NewNotificationRepo(pool),
		users:         NewUserRepo(pool),
		userRoles:     NewUserRoleRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// InTx runs fn inside a single database transaction. Repository calls made
// with the derived context share that transaction; a nested InTx joins the
// ambient one instead of opening another.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(withTx(ctx, tx))
	})
}

func (s *Store) Contracts() domain.ContractRepository             { return s.contracts }
func (s *Store) Definitions() domain.WorkflowDefinitionRepository { return s.definitions }
func (s *Store) Instances() domain.WorkflowInstanceRepository     { return s.instances }
func (s *Store) Approvals() domain.StageApprovalRepository        { return s.approvals }
func (s *Store) SLARules() domain.SLARuleRepository               { return s.slaRules }
func (s *Store) SLABreaches() domain.SLABreachRepository          { return s.slaBreaches }
func (s *Store) Audit() domain.AuditRepository                    { return s.audit }
func (s *Store) Notifications() domain.NotificationRepository     { return s.notifications }
func (s *Store) Users() domain.UserRepository                     { return s.users }
func (s *Store) UserRoles() domain.UserRoleRepository             { return s.userRoles }
