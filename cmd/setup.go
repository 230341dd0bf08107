package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	awslib "github.com/msi-handson/lambda-role/pkg/aws"
	"github.com/msi-handson/lambda-role/pkg/policy"
	"github.com/msi-handson/lambda-role/pkg/reconcile"
)

func newSetupCmd(opts *rootOptions, newDeps depsFactory, runner workflowRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the execution role and grant it access to the table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.config()
			deps, err := newDeps(cfg)
			if err != nil {
				return err
			}
			return runner(context.Background(), cfg, deps)
		},
	}
}

// resolveIdentity determines the account the run targets. An explicit
// account id skips the STS lookup entirely.
func resolveIdentity(ctx context.Context, cfg Config, identity awslib.IdentityService) (awslib.Identity, error) {
	if cfg.AccountID != "" {
		return awslib.Identity{AccountID: cfg.AccountID}, nil
	}

	id, err := identity.GetCallerIdentity(ctx)
	if err != nil {
		return awslib.Identity{}, fmt.Errorf("cannot resolve account id (pass --account-id or set AWS_ACCOUNT_ID): %w", err)
	}
	return id, nil
}

func runSetup(ctx context.Context, cfg Config, deps runDeps) error {
	identity, err := resolveIdentity(ctx, cfg, deps.identity)
	if err != nil {
		return err
	}

	deps.log.Info("resolved identity",
		zap.String("account_id", identity.AccountID),
		zap.String("region", cfg.Region))

	access, err := policy.TableAccess(identity.AccountID, cfg.Region, cfg.TableName)
	if err != nil {
		return err
	}

	rec := reconcile.New(deps.roles, deps.log)

	if err := rec.EnsureRole(ctx, reconcile.RoleSpec{
		Name:        cfg.RoleName,
		TrustPolicy: policy.LambdaTrust(),
	}); err != nil {
		return err
	}
	if err := rec.EnsureAttached(ctx, reconcile.ManagedPolicyBinding{
		RoleName:  cfg.RoleName,
		PolicyARN: executionPolicyARN,
	}); err != nil {
		return err
	}
	if err := rec.PutInline(ctx, reconcile.InlinePolicyBinding{
		RoleName:   cfg.RoleName,
		PolicyName: inlinePolicyName,
		Document:   access,
	}); err != nil {
		return err
	}

	deps.log.Info("setup complete",
		zap.String("role", cfg.RoleName),
		zap.String("table", cfg.TableName))
	return nil
}
