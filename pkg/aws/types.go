package aws

import "context"

// Identity captures the principal that authenticated with STS.
type Identity struct {
	AccountID string
	Arn       string
}

// Role is a provisioned IAM role.
type Role struct {
	Name          string
	Arn           string
	TrustDocument string
}

// AttachedPolicy is a managed policy attached to a role.
type AttachedPolicy struct {
	Name string
	Arn  string
}

// Table describes a DynamoDB table.
type Table struct {
	Name      string
	Status    string
	ItemCount int64
}

// IdentityService resolves the calling account against AWS APIs.
type IdentityService interface {
	GetCallerIdentity(ctx context.Context) (Identity, error)
}

// RoleService handles role and policy operations against AWS APIs.
// Lookups surface the SDK's typed errors so callers can distinguish
// NotFound and AlreadyExists conditions from real failures.
type RoleService interface {
	GetRole(ctx context.Context, name string) (Role, error)
	CreateRole(ctx context.Context, name, trustDocument string) (Role, error)
	DeleteRole(ctx context.Context, name string) error
	ListAttachedPolicies(ctx context.Context, roleName string) ([]AttachedPolicy, error)
	AttachPolicy(ctx context.Context, roleName, policyArn string) error
	DetachPolicy(ctx context.Context, roleName, policyArn string) error
	PutInlinePolicy(ctx context.Context, roleName, policyName, document string) error
	GetInlinePolicy(ctx context.Context, roleName, policyName string) (string, error)
	DeleteInlinePolicy(ctx context.Context, roleName, policyName string) error
}

// TableService inspects DynamoDB tables.
type TableService interface {
	DescribeTable(ctx context.Context, name string) (Table, error)
}
