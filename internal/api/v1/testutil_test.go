package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/domain"
	"github.com/vk93102/clm-backend/internal/server/middleware"
	"github.com/vk93102/clm-backend/internal/workflow"
)

// ---------------------------------------------------------------------------
// Context helpers: inject tenant/user/role into context for DoCtx requests.
// ---------------------------------------------------------------------------

func tenantCtx(tenantID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	return ctx
}

func actorCtx(tenantID, userID uuid.UUID) context.Context {
	ctx := tenantCtx(tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	contracts     domain.ContractRepository
	definitions   domain.WorkflowDefinitionRepository
	instances     domain.WorkflowInstanceRepository
	approvals     domain.StageApprovalRepository
	slaRules      domain.SLARuleRepository
	slaBreaches   domain.SLABreachRepository
	audit         domain.AuditRepository
	notifications domain.NotificationRepository
	users         domain.UserRepository
	userRoles     domain.UserRoleRepository
}

func (m *mockDataStore) Contracts() domain.ContractRepository             { return m.contracts }
func (m *mockDataStore) Definitions() domain.WorkflowDefinitionRepository { return m.definitions }
func (m *mockDataStore) Instances() domain.WorkflowInstanceRepository     { return m.instances }
func (m *mockDataStore) Approvals() domain.StageApprovalRepository        { return m.approvals }
func (m *mockDataStore) SLARules() domain.SLARuleRepository               { return m.slaRules }
func (m *mockDataStore) SLABreaches() domain.SLABreachRepository          { return m.slaBreaches }
func (m *mockDataStore) Audit() domain.AuditRepository                    { return m.audit }
func (m *mockDataStore) Notifications() domain.NotificationRepository     { return m.notifications }
func (m *mockDataStore) Users() domain.UserRepository                     { return m.users }
func (m *mockDataStore) UserRoles() domain.UserRoleRepository             { return m.userRoles }

// ---------------------------------------------------------------------------
// Mock WorkflowDefinitionRepository
// ---------------------------------------------------------------------------

type mockDefinitionRepo struct {
	createFunc     func(ctx context.Context, d *domain.WorkflowDefinition) error
	getByIDFunc    func(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowDefinition, error)
	listActiveFunc func(ctx context.Context, tenantID uuid.UUID) ([]*domain.WorkflowDefinition, error)
	listFunc       func(ctx context.Context, tenantID uuid.UUID) ([]*domain.WorkflowDefinition, error)
	updateFunc     func(ctx context.Context, d *domain.WorkflowDefinition) error
	deleteFunc     func(ctx context.Context, tenantID, id uuid.UUID) error
}

func (m *mockDefinitionRepo) Create(ctx context.Context, d *domain.WorkflowDefinition) error {
	return m.createFunc(ctx, d)
}

func (m *mockDefinitionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowDefinition, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockDefinitionRepo) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*domain.WorkflowDefinition, error) {
	return m.listActiveFunc(ctx, tenantID)
}

func (m *mockDefinitionRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.WorkflowDefinition, error) {
	return m.listFunc(ctx, tenantID)
}

func (m *mockDefinitionRepo) Update(ctx context.Context, d *domain.WorkflowDefinition) error {
	return m.updateFunc(ctx, d)
}

func (m *mockDefinitionRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.deleteFunc(ctx, tenantID, id)
}

// ---------------------------------------------------------------------------
// Mock WorkflowInstanceRepository
// ---------------------------------------------------------------------------

type mockInstanceRepo struct {
	createFunc              func(ctx context.Context, inst *domain.WorkflowInstance) error
	getByIDFunc             func(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowInstance, error)
	lockFunc                func(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowInstance, error)
	getActiveByContractFunc func(ctx context.Context, tenantID, contractID uuid.UUID) (*domain.WorkflowInstance, error)
	listByContractFunc      func(ctx context.Context, tenantID, contractID uuid.UUID) ([]*domain.WorkflowInstance, error)
	listByStatusFunc        func(ctx context.Context, tenantID uuid.UUID, status domain.InstanceStatus) ([]*domain.WorkflowInstance, error)
	advanceStageFunc        func(ctx context.Context, tenantID, id uuid.UUID, stageSeq int, stageName string) error
	transitionStatusFunc    func(ctx context.Context, tenantID, id uuid.UUID, from, to domain.InstanceStatus, completedAt *time.Time) error
}

func (m *mockInstanceRepo) Create(ctx context.Context, inst *domain.WorkflowInstance) error {
	return m.createFunc(ctx, inst)
}

func (m *mockInstanceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowInstance, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockInstanceRepo) Lock(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowInstance, error) {
	if m.lockFunc != nil {
		return m.lockFunc(ctx, tenantID, id)
	}
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockInstanceRepo) GetActiveByContract(ctx context.Context, tenantID, contractID uuid.UUID) (*domain.WorkflowInstance, error) {
	return m.getActiveByContractFunc(ctx, tenantID, contractID)
}

func (m *mockInstanceRepo) ListByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]*domain.WorkflowInstance, error) {
	return m.listByContractFunc(ctx, tenantID, contractID)
}

func (m *mockInstanceRepo) ListByStatus(ctx context.Context, tenantID uuid.UUID, status domain.InstanceStatus) ([]*domain.WorkflowInstance, error) {
	return m.listByStatusFunc(ctx, tenantID, status)
}

func (m *mockInstanceRepo) AdvanceStage(ctx context.Context, tenantID, id uuid.UUID, stageSeq int, stageName string) error {
	return m.advanceStageFunc(ctx, tenantID, id, stageSeq, stageName)
}

func (m *mockInstanceRepo) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.InstanceStatus, completedAt *time.Time) error {
	return m.transitionStatusFunc(ctx, tenantID, id, from, to, completedAt)
}

// ---------------------------------------------------------------------------
// Mock StageApprovalRepository
// ---------------------------------------------------------------------------

type mockApprovalRepo struct {
	createFunc                func(ctx context.Context, a *domain.StageApproval) error
	getByIDFunc               func(ctx context.Context, tenantID, id uuid.UUID) (*domain.StageApproval, error)
	listByInstanceFunc        func(ctx context.Context, tenantID, instanceID uuid.UUID) ([]*domain.StageApproval, error)
	listByStageFunc           func(ctx context.Context, tenantID, instanceID uuid.UUID, stageSeq int) ([]*domain.StageApproval, error)
	listPendingByApproverFunc func(ctx context.Context, tenantID, approverID uuid.UUID) ([]*domain.StageApproval, error)
	listOverdueFunc           func(ctx context.Context, now time.Time) ([]*domain.StageApproval, error)
	resolveFunc               func(ctx context.Context, tenantID, id uuid.UUID, status domain.ApprovalStatus, respondedAt time.Time, comments string, delegatedTo *uuid.UUID) error
}

func (m *mockApprovalRepo) Create(ctx context.Context, a *domain.StageApproval) error {
	return m.createFunc(ctx, a)
}

func (m *mockApprovalRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.StageApproval, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockApprovalRepo) ListByInstance(ctx context.Context, tenantID, instanceID uuid.UUID) ([]*domain.StageApproval, error) {
	return m.listByInstanceFunc(ctx, tenantID, instanceID)
}

func (m *mockApprovalRepo) ListByStage(ctx context.Context, tenantID, instanceID uuid.UUID, stageSeq int) ([]*domain.StageApproval, error) {
	return m.listByStageFunc(ctx, tenantID, instanceID, stageSeq)
}

func (m *mockApprovalRepo) ListPendingByApprover(ctx context.Context, tenantID, approverID uuid.UUID) ([]*domain.StageApproval, error) {
	return m.listPendingByApproverFunc(ctx, tenantID, approverID)
}

func (m *mockApprovalRepo) ListOverdue(ctx context.Context, now time.Time) ([]*domain.StageApproval, error) {
	return m.listOverdueFunc(ctx, now)
}

func (m *mockApprovalRepo) Resolve(ctx context.Context, tenantID, id uuid.UUID, status domain.ApprovalStatus, respondedAt time.Time, comments string, delegatedTo *uuid.UUID) error {
	return m.resolveFunc(ctx, tenantID, id, status, respondedAt, comments, delegatedTo)
}

// ---------------------------------------------------------------------------
// Mock SLARuleRepository
// ---------------------------------------------------------------------------

type mockSLARuleRepo struct {
	createFunc     func(ctx context.Context, r *domain.SLARule) error
	getByIDFunc    func(ctx context.Context, tenantID, id uuid.UUID) (*domain.SLARule, error)
	listActiveFunc func(ctx context.Context, tenantID uuid.UUID) ([]*domain.SLARule, error)
	updateFunc     func(ctx context.Context, r *domain.SLARule) error
	deleteFunc     func(ctx context.Context, tenantID, id uuid.UUID) error
}

func (m *mockSLARuleRepo) Create(ctx context.Context, r *domain.SLARule) error {
	return m.createFunc(ctx, r)
}

func (m *mockSLARuleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.SLARule, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockSLARuleRepo) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*domain.SLARule, error) {
	return m.listActiveFunc(ctx, tenantID)
}

func (m *mockSLARuleRepo) Update(ctx context.Context, r *domain.SLARule) error {
	return m.updateFunc(ctx, r)
}

func (m *mockSLARuleRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.deleteFunc(ctx, tenantID, id)
}

// ---------------------------------------------------------------------------
// Mock SLABreachRepository
// ---------------------------------------------------------------------------

type mockSLABreachRepo struct {
	createIfAbsentFunc   func(ctx context.Context, b *domain.SLABreach) (bool, error)
	getByIDFunc          func(ctx context.Context, tenantID, id uuid.UUID) (*domain.SLABreach, error)
	listByStatusFunc     func(ctx context.Context, tenantID uuid.UUID, status domain.BreachStatus) ([]*domain.SLABreach, error)
	listByInstanceFunc   func(ctx context.Context, tenantID, instanceID uuid.UUID) ([]*domain.SLABreach, error)
	markEscalatedFunc    func(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	transitionStatusFunc func(ctx context.Context, tenantID, id uuid.UUID, from, to domain.BreachStatus, notes string, actualCompletion *time.Time) error
}

func (m *mockSLABreachRepo) CreateIfAbsent(ctx context.Context, b *domain.SLABreach) (bool, error) {
	return m.createIfAbsentFunc(ctx, b)
}

func (m *mockSLABreachRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.SLABreach, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockSLABreachRepo) ListByStatus(ctx context.Context, tenantID uuid.UUID, status domain.BreachStatus) ([]*domain.SLABreach, error) {
	return m.listByStatusFunc(ctx, tenantID, status)
}

func (m *mockSLABreachRepo) ListByInstance(ctx context.Context, tenantID, instanceID uuid.UUID) ([]*domain.SLABreach, error) {
	return m.listByInstanceFunc(ctx, tenantID, instanceID)
}

func (m *mockSLABreachRepo) MarkEscalated(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return m.markEscalatedFunc(ctx, id, sentAt)
}

func (m *mockSLABreachRepo) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.BreachStatus, notes string, actualCompletion *time.Time) error {
	return m.transitionStatusFunc(ctx, tenantID, id, from, to, notes, actualCompletion)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	recordFunc         func(ctx context.Context, entry *domain.AuditEntry) error
	listByTenantFunc   func(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error)
	listByResourceFunc func(ctx context.Context, tenantID uuid.UUID, resourceType string, resourceID uuid.UUID) ([]*domain.AuditEntry, error)
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if m.recordFunc == nil {
		return nil
	}
	return m.recordFunc(ctx, entry)
}

func (m *mockAuditRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error) {
	return m.listByTenantFunc(ctx, tenantID, limit, offset)
}

func (m *mockAuditRepo) ListByResource(ctx context.Context, tenantID uuid.UUID, resourceType string, resourceID uuid.UUID) ([]*domain.AuditEntry, error) {
	return m.listByResourceFunc(ctx, tenantID, resourceType, resourceID)
}

// ---------------------------------------------------------------------------
// Mock WorkflowEngine
// ---------------------------------------------------------------------------

type mockEngine struct {
	startFunc   func(ctx context.Context, tenantID, contractID uuid.UUID, definitionID *uuid.UUID, initiator uuid.UUID, metadata map[string]any) (*domain.WorkflowInstance, error)
	processFunc func(ctx context.Context, tenantID, approvalID uuid.UUID, action workflow.Action, actor uuid.UUID, comments string, delegateTo *uuid.UUID) (*domain.WorkflowInstance, error)
	cancelFunc  func(ctx context.Context, tenantID, instanceID, actor uuid.UUID, reason string) error
	pauseFunc   func(ctx context.Context, tenantID, instanceID, actor uuid.UUID) error
	resumeFunc  func(ctx context.Context, tenantID, instanceID, actor uuid.UUID) error
}

func (m *mockEngine) StartWorkflow(ctx context.Context, tenantID, contractID uuid.UUID, definitionID *uuid.UUID, initiator uuid.UUID, metadata map[string]any) (*domain.WorkflowInstance, error) {
	return m.startFunc(ctx, tenantID, contractID, definitionID, initiator, metadata)
}

func (m *mockEngine) ProcessApproval(ctx context.Context, tenantID, approvalID uuid.UUID, action workflow.Action, actor uuid.UUID, comments string, delegateTo *uuid.UUID) (*domain.WorkflowInstance, error) {
	return m.processFunc(ctx, tenantID, approvalID, action, actor, comments, delegateTo)
}

func (m *mockEngine) CancelWorkflow(ctx context.Context, tenantID, instanceID, actor uuid.UUID, reason string) error {
	return m.cancelFunc(ctx, tenantID, instanceID, actor, reason)
}

func (m *mockEngine) PauseWorkflow(ctx context.Context, tenantID, instanceID, actor uuid.UUID) error {
	return m.pauseFunc(ctx, tenantID, instanceID, actor)
}

func (m *mockEngine) ResumeWorkflow(ctx context.Context, tenantID, instanceID, actor uuid.UUID) error {
	return m.resumeFunc(ctx, tenantID, instanceID, actor)
}

// ---------------------------------------------------------------------------
// Mock SLAService
// ---------------------------------------------------------------------------

type mockSLAService struct {
	acknowledgeFunc func(ctx context.Context, tenantID, breachID uuid.UUID, notes string) error
	resolveFunc     func(ctx context.Context, tenantID, breachID uuid.UUID, notes string, completedAt time.Time) error
}

func (m *mockSLAService) AcknowledgeBreach(ctx context.Context, tenantID, breachID uuid.UUID, notes string) error {
	return m.acknowledgeFunc(ctx, tenantID, breachID, notes)
}

func (m *mockSLAService) ResolveBreach(ctx context.Context, tenantID, breachID uuid.UUID, notes string, completedAt time.Time) error {
	return m.resolveFunc(ctx, tenantID, breachID, notes, completedAt)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc func(ctx context.Context, tenantID uuid.UUID, email, password, name string) (*domain.User, error)
	loginFunc    func(ctx context.Context, tenantID uuid.UUID, email, password string) (string, string, error)
	refreshFunc  func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, tenantID uuid.UUID, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, tenantID, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (string, string, error) {
	return m.loginFunc(ctx, tenantID, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshFunc(ctx, refreshToken)
}
