// Package reconcile drives remote IAM state toward a declared role
// descriptor set using idempotent operations: every mutation is safe to
// repeat and safe to race against another run targeting the same role.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	awslib "github.com/msi-handson/lambda-role/pkg/aws"
	"github.com/msi-handson/lambda-role/pkg/policy"
)

// RoleSpec declares the role to converge on. Descriptors are built
// fresh each run and never persisted; the remote objects are the only
// durable state.
type RoleSpec struct {
	Name        string
	TrustPolicy policy.Document
}

// ManagedPolicyBinding declares that a managed policy must be attached
// to the role.
type ManagedPolicyBinding struct {
	RoleName  string
	PolicyARN string
}

// InlinePolicyBinding declares the inline document stored under
// PolicyName on the role. Applying it always overwrites prior content.
type InlinePolicyBinding struct {
	RoleName   string
	PolicyName string
	Document   policy.Document
}

// Reconciler converges remote role state spec by spec.
type Reconciler struct {
	roles awslib.RoleService
	log   *zap.Logger
}

// New creates a Reconciler issuing operations through roles.
func New(roles awslib.RoleService, log *zap.Logger) *Reconciler {
	return &Reconciler{
		roles: roles,
		log:   log,
	}
}

// EnsureRole makes the named role exist. An existing role is left
// completely untouched, including a trust document that no longer
// matches spec. Losing the creation race to a concurrent run counts as
// success.
func (r *Reconciler) EnsureRole(ctx context.Context, spec RoleSpec) error {
	role, err := r.roles.GetRole(ctx, spec.Name)
	switch {
	case err == nil:
		r.log.Info("role already exists, leaving it unchanged",
			zap.String("role", spec.Name),
			zap.String("arn", role.Arn))
		return nil
	case !awslib.IsNotFound(err):
		return fmt.Errorf("failed to look up role %q: %w", spec.Name, err)
	}

	trust, err := spec.TrustPolicy.JSON()
	if err != nil {
		return fmt.Errorf("failed to render trust policy for role %q: %w", spec.Name, err)
	}

	role, err = r.roles.CreateRole(ctx, spec.Name, trust)
	if awslib.IsAlreadyExists(err) {
		r.log.Info("role was created by a concurrent run",
			zap.String("role", spec.Name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create role %q: %w", spec.Name, err)
	}

	r.log.Info("created role",
		zap.String("role", spec.Name),
		zap.String("arn", role.Arn))
	return nil
}

// EnsureAttached makes the managed policy attached to the role.
// Attachment failures are fatal: a role without its execution policy
// misbehaves at runtime, so they must not pass silently.
func (r *Reconciler) EnsureAttached(ctx context.Context, binding ManagedPolicyBinding) error {
	attached, err := r.roles.ListAttachedPolicies(ctx, binding.RoleName)
	if err != nil {
		return fmt.Errorf("failed to list attached policies for role %q: %w", binding.RoleName, err)
	}

	for _, p := range attached {
		if p.Arn == binding.PolicyARN {
			r.log.Info("managed policy already attached",
				zap.String("role", binding.RoleName),
				zap.String("policy_arn", binding.PolicyARN))
			return nil
		}
	}

	if err := r.roles.AttachPolicy(ctx, binding.RoleName, binding.PolicyARN); err != nil {
		return fmt.Errorf("failed to attach policy %s to role %q: %w", binding.PolicyARN, binding.RoleName, err)
	}

	r.log.Info("attached managed policy",
		zap.String("role", binding.RoleName),
		zap.String("policy_arn", binding.PolicyARN))
	return nil
}

// PutInline writes the inline policy document. The remote API replaces
// by name, so there is no existence check: a put is always the right
// move and the last writer wins.
func (r *Reconciler) PutInline(ctx context.Context, binding InlinePolicyBinding) error {
	document, err := binding.Document.JSON()
	if err != nil {
		return fmt.Errorf("failed to render inline policy %q: %w", binding.PolicyName, err)
	}

	if err := r.roles.PutInlinePolicy(ctx, binding.RoleName, binding.PolicyName, document); err != nil {
		return fmt.Errorf("failed to put inline policy %q on role %q: %w", binding.PolicyName, binding.RoleName, err)
	}

	r.log.Info("applied inline policy",
		zap.String("role", binding.RoleName),
		zap.String("policy", binding.PolicyName))
	return nil
}
