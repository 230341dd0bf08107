package reconcile

import (
	"context"

	"go.uber.org/zap"

	awslib "github.com/msi-handson/lambda-role/pkg/aws"
)

// StepStatus classifies the outcome of one teardown step.
type StepStatus int

const (
	// StepOK means the resource was removed.
	StepOK StepStatus = iota
	// StepTolerated means the resource was already absent.
	StepTolerated
	// StepFailed means the step errored for a reason other than
	// absence; teardown still continues.
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepOK:
		return "ok"
	case StepTolerated:
		return "already absent"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepResult records what one teardown step did. Err carries the
// remote error for Tolerated and Failed outcomes.
type StepResult struct {
	Step   string
	Status StepStatus
	Err    error
}

// TeardownTarget names the role and the two policy bindings to remove.
type TeardownTarget struct {
	RoleName   string
	PolicyName string
	PolicyARN  string
}

// Teardown removes the inline policy, then detaches the managed policy,
// then deletes the role. No step outcome stops the
// later steps: absence is expected on re-runs, and any other per-step
// error is logged as a warning so a partially provisioned role can
// always be driven to fully absent by running teardown again.
func (r *Reconciler) Teardown(ctx context.Context, target TeardownTarget) []StepResult {
	return []StepResult{
		r.removeInlinePolicy(ctx, target),
		r.detachManagedPolicy(ctx, target),
		r.removeRole(ctx, target),
	}
}

func (r *Reconciler) removeInlinePolicy(ctx context.Context, target TeardownTarget) StepResult {
	const step = "delete inline policy"

	err := r.roles.DeleteInlinePolicy(ctx, target.RoleName, target.PolicyName)
	switch {
	case err == nil:
		r.log.Info("deleted inline policy",
			zap.String("role", target.RoleName),
			zap.String("policy", target.PolicyName))
		return StepResult{Step: step, Status: StepOK}
	case awslib.IsNotFound(err):
		r.log.Warn("inline policy already absent",
			zap.String("role", target.RoleName),
			zap.String("policy", target.PolicyName))
		return StepResult{Step: step, Status: StepTolerated, Err: err}
	default:
		r.log.Warn("failed to delete inline policy, continuing",
			zap.String("role", target.RoleName),
			zap.String("policy", target.PolicyName),
			zap.String("code", awslib.ErrorCode(err)),
			zap.Error(err))
		return StepResult{Step: step, Status: StepFailed, Err: err}
	}
}

func (r *Reconciler) detachManagedPolicy(ctx context.Context, target TeardownTarget) StepResult {
	const step = "detach managed policy"

	err := r.roles.DetachPolicy(ctx, target.RoleName, target.PolicyARN)
	switch {
	case err == nil:
		r.log.Info("detached managed policy",
			zap.String("role", target.RoleName),
			zap.String("policy_arn", target.PolicyARN))
		return StepResult{Step: step, Status: StepOK}
	case awslib.IsNotFound(err):
		r.log.Warn("managed policy already detached",
			zap.String("role", target.RoleName),
			zap.String("policy_arn", target.PolicyARN))
		return StepResult{Step: step, Status: StepTolerated, Err: err}
	default:
		r.log.Warn("failed to detach managed policy, continuing",
			zap.String("role", target.RoleName),
			zap.String("policy_arn", target.PolicyARN),
			zap.String("code", awslib.ErrorCode(err)),
			zap.Error(err))
		return StepResult{Step: step, Status: StepFailed, Err: err}
	}
}

func (r *Reconciler) removeRole(ctx context.Context, target TeardownTarget) StepResult {
	const step = "delete role"

	err := r.roles.DeleteRole(ctx, target.RoleName)
	switch {
	case err == nil:
		r.log.Info("deleted role", zap.String("role", target.RoleName))
		return StepResult{Step: step, Status: StepOK}
	case awslib.IsNotFound(err):
		r.log.Warn("role already absent", zap.String("role", target.RoleName))
		return StepResult{Step: step, Status: StepTolerated, Err: err}
	default:
		r.log.Warn("failed to delete role, continuing",
			zap.String("role", target.RoleName),
			zap.String("code", awslib.ErrorCode(err)),
			zap.Error(err))
		return StepResult{Step: step, Status: StepFailed, Err: err}
	}
}
