package mocks

import (
	"context"
	"fmt"

	awslib "github.com/msi-handson/lambda-role/pkg/aws"
)

type IdentityService struct {
	GetCallerIdentityFunc func(ctx context.Context) (awslib.Identity, error)

	GetCallerIdentityCalls int
}

func (m *IdentityService) GetCallerIdentity(ctx context.Context) (awslib.Identity, error) {
	m.GetCallerIdentityCalls++
	if m.GetCallerIdentityFunc == nil {
		return awslib.Identity{}, fmt.Errorf("GetCallerIdentityFunc is not set")
	}
	return m.GetCallerIdentityFunc(ctx)
}

type RoleService struct {
	GetRoleFunc              func(ctx context.Context, name string) (awslib.Role, error)
	CreateRoleFunc           func(ctx context.Context, name, trustDocument string) (awslib.Role, error)
	DeleteRoleFunc           func(ctx context.Context, name string) error
	ListAttachedPoliciesFunc func(ctx context.Context, roleName string) ([]awslib.AttachedPolicy, error)
	AttachPolicyFunc         func(ctx context.Context, roleName, policyArn string) error
	DetachPolicyFunc         func(ctx context.Context, roleName, policyArn string) error
	PutInlinePolicyFunc      func(ctx context.Context, roleName, policyName, document string) error
	GetInlinePolicyFunc      func(ctx context.Context, roleName, policyName string) (string, error)
	DeleteInlinePolicyFunc   func(ctx context.Context, roleName, policyName string) error

	GetRoleCalls              int
	CreateRoleCalls           int
	DeleteRoleCalls           int
	ListAttachedPoliciesCalls int
	AttachPolicyCalls         int
	DetachPolicyCalls         int
	PutInlinePolicyCalls      int
	GetInlinePolicyCalls      int
	DeleteInlinePolicyCalls   int
}

func (m *RoleService) GetRole(ctx context.Context, name string) (awslib.Role, error) {
	m.GetRoleCalls++
	if m.GetRoleFunc == nil {
		return awslib.Role{}, fmt.Errorf("GetRoleFunc is not set")
	}
	return m.GetRoleFunc(ctx, name)
}

func (m *RoleService) CreateRole(ctx context.Context, name, trustDocument string) (awslib.Role, error) {
	m.CreateRoleCalls++
	if m.CreateRoleFunc == nil {
		return awslib.Role{}, fmt.Errorf("CreateRoleFunc is not set")
	}
	return m.CreateRoleFunc(ctx, name, trustDocument)
}

func (m *RoleService) DeleteRole(ctx context.Context, name string) error {
	m.DeleteRoleCalls++
	if m.DeleteRoleFunc == nil {
		return fmt.Errorf("DeleteRoleFunc is not set")
	}
	return m.DeleteRoleFunc(ctx, name)
}

func (m *RoleService) ListAttachedPolicies(ctx context.Context, roleName string) ([]awslib.AttachedPolicy, error) {
	m.ListAttachedPoliciesCalls++
	if m.ListAttachedPoliciesFunc == nil {
		return nil, fmt.Errorf("ListAttachedPoliciesFunc is not set")
	}
	return m.ListAttachedPoliciesFunc(ctx, roleName)
}

func (m *RoleService) AttachPolicy(ctx context.Context, roleName, policyArn string) error {
	m.AttachPolicyCalls++
	if m.AttachPolicyFunc == nil {
		return fmt.Errorf("AttachPolicyFunc is not set")
	}
	return m.AttachPolicyFunc(ctx, roleName, policyArn)
}

func (m *RoleService) DetachPolicy(ctx context.Context, roleName, policyArn string) error {
	m.DetachPolicyCalls++
	if m.DetachPolicyFunc == nil {
		return fmt.Errorf("DetachPolicyFunc is not set")
	}
	return m.DetachPolicyFunc(ctx, roleName, policyArn)
}

func (m *RoleService) PutInlinePolicy(ctx context.Context, roleName, policyName, document string) error {
	m.PutInlinePolicyCalls++
	if m.PutInlinePolicyFunc == nil {
		return fmt.Errorf("PutInlinePolicyFunc is not set")
	}
	return m.PutInlinePolicyFunc(ctx, roleName, policyName, document)
}

func (m *RoleService) GetInlinePolicy(ctx context.Context, roleName, policyName string) (string, error) {
	m.GetInlinePolicyCalls++
	if m.GetInlinePolicyFunc == nil {
		return "", fmt.Errorf("GetInlinePolicyFunc is not set")
	}
	return m.GetInlinePolicyFunc(ctx, roleName, policyName)
}

func (m *RoleService) DeleteInlinePolicy(ctx context.Context, roleName, policyName string) error {
	m.DeleteInlinePolicyCalls++
	if m.DeleteInlinePolicyFunc == nil {
		return fmt.Errorf("DeleteInlinePolicyFunc is not set")
	}
	return m.DeleteInlinePolicyFunc(ctx, roleName, policyName)
}

type TableService struct {
	DescribeTableFunc func(ctx context.Context, name string) (awslib.Table, error)

	DescribeTableCalls int
}

func (m *TableService) DescribeTable(ctx context.Context, name string) (awslib.Table, error) {
	m.DescribeTableCalls++
	if m.DescribeTableFunc == nil {
		return awslib.Table{}, fmt.Errorf("DescribeTableFunc is not set")
	}
	return m.DescribeTableFunc(ctx, name)
}
