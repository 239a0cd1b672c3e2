package domain

import "errors"

// Sentinel errors for the domain layer. State-machine precondition
// violations propagate to the caller; rule and stage-spec parse failures
// degrade to "no match" inside the matcher and surface as hard errors only
// where a definition is being saved.
var (
	ErrNotFound              = errors.New("domain: not found")
	ErrConflict              = errors.New("domain: conflict")
	ErrUnauthorized          = errors.New("domain: unauthorized")
	ErrNoMatchingWorkflow    = errors.New("domain: no matching workflow")
	ErrInstanceAlreadyActive = errors.New("domain: workflow instance already active for contract")
	ErrApprovalNotPending    = errors.New("domain: approval already processed")
	ErrInvalidDelegateTarget = errors.New("domain: delegate target required")
	ErrInvalidTransition     = errors.New("domain: invalid state transition")
	ErrMalformedRule         = errors.New("domain: malformed trigger condition")
	ErrMalformedStageSpec    = errors.New("domain: malformed stage specification")
)
