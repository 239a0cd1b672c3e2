package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusDraft           ContractStatus = "draft"
	ContractStatusPendingApproval ContractStatus = "pending_approval"
	ContractStatusApproved        ContractStatus = "approved"
	ContractStatusRejected        ContractStatus = "rejected"
)

// Contract is the slice of the contract record the workflow core reads for
// rule evaluation and writes a status back to. Document content, versions
// and signatures live outside this service.
type Contract struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Title        string
	ContractType string
	Value        float64
	Currency     string
	Status       ContractStatus
	Department   string
	Counterparty string
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Fields flattens the contract into the field map the rule evaluator
// operates on. Keys match the condition-document field names tenants
// configure against.
func (c *Contract) Fields() map[string]any {
	return map[string]any{
		"contract_type":  c.ContractType,
		"contract_value": c.Value,
		"currency":       c.Currency,
		"status":         string(c.Status),
		"department":     c.Department,
		"counterparty":   c.Counterparty,
		"title":          c.Title,
		"created_by":     c.CreatedBy.String(),
	}
}

type ContractRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status ContractStatus) error
}
