package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msi-handson/lambda-role/pkg/reconcile"
)

func newTeardownCmd(opts *rootOptions, newDeps depsFactory, runner workflowRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "teardown",
		Short: "Remove the execution role and its policies",
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

func runTeardown(ctx context.Context, cfg Config, deps runDeps) error {
	rec := reconcile.New(deps.roles, deps.log)

	results := rec.Teardown(ctx, reconcile.TeardownTarget{
		RoleName:   cfg.RoleName,
		PolicyName: inlinePolicyName,
		PolicyARN:  executionPolicyARN,
	})

	var failed, skipped int
	for _, r := range results {
		switch r.Status {
		case reconcile.StepFailed:
			failed++
		case reconcile.StepTolerated:
			skipped++
		}
	}

	deps.log.Info("teardown finished",
		zap.String("role", cfg.RoleName),
		zap.Int("steps", len(results)),
		zap.Int("already_absent", skipped),
		zap.Int("failed", failed))

	// Problems are reported through the log; teardown still exits clean
	// so it can be retried or run against half-built state.
	return nil
}
