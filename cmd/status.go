package cmd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	awslib "github.com/msi-handson/lambda-role/pkg/aws"
	"github.com/msi-handson/lambda-role/pkg/policy"
)

func newStatusCmd(opts *rootOptions, newDeps depsFactory, runner workflowRunner) *cobra.Command {
	var openConsole bool

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the execution role matches the expected shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.config()
			deps, err := newDeps(cfg)
			if err != nil {
				return err
			}
			if err := runner(context.Background(), cfg, deps); err != nil {
				return err
			}
			if openConsole {
				return deps.open(consoleRoleURL(cfg.RoleName))
			}
			return nil
		},
	}

	statusCmd.Flags().BoolVar(&openConsole, "console", false, "open the role in the AWS Console after reporting")

	return statusCmd
}

func consoleRoleURL(roleName string) string {
	return "https://console.aws.amazon.com/iam/home#/roles/details/" + url.PathEscape(roleName)
}

func runStatus(ctx context.Context, cfg Config, deps runDeps) error {
	identity, err := resolveIdentity(ctx, cfg, deps.identity)
	if err != nil {
		return err
	}

	role, err := deps.roles.GetRole(ctx, cfg.RoleName)
	if awslib.IsNotFound(err) {
		fmt.Fprintf(deps.stdout, "role %s: absent\n", cfg.RoleName)
		return fmt.Errorf("role %q is not provisioned", cfg.RoleName)
	}
	if err != nil {
		return fmt.Errorf("failed to look up role %q: %w", cfg.RoleName, err)
	}

	fmt.Fprintf(deps.stdout, "role %s: present (%s)\n", role.Name, role.Arn)

	problems := 0

	wantTrust, err := policy.LambdaTrust().JSON()
	if err != nil {
		return err
	}
	if policy.Equal(role.TrustDocument, wantTrust) {
		fmt.Fprintln(deps.stdout, "trust policy: ok")
	} else {
		// A pre-existing role keeps whatever trust policy it had, so
		// divergence is reported without failing the check.
		fmt.Fprintln(deps.stdout, "trust policy: diverged")
		deps.log.Warn("trust policy diverged", zap.String("role", role.Name))
	}

	attached, err := deps.roles.ListAttachedPolicies(ctx, cfg.RoleName)
	if err != nil {
		return fmt.Errorf("failed to list attached policies for role %q: %w", cfg.RoleName, err)
	}
	hasExecutionPolicy := false
	for _, p := range attached {
		if p.Arn == executionPolicyARN {
			hasExecutionPolicy = true
			break
		}
	}
	if hasExecutionPolicy {
		fmt.Fprintln(deps.stdout, "managed policy: attached")
	} else {
		fmt.Fprintln(deps.stdout, "managed policy: missing")
		problems++
	}

	inline, err := deps.roles.GetInlinePolicy(ctx, cfg.RoleName, inlinePolicyName)
	switch {
	case awslib.IsNotFound(err):
		fmt.Fprintf(deps.stdout, "inline policy %s: missing\n", inlinePolicyName)
		problems++
	case err != nil:
		return fmt.Errorf("failed to read inline policy %q: %w", inlinePolicyName, err)
	default:
		want, err := policy.TableAccess(identity.AccountID, cfg.Region, cfg.TableName)
		if err != nil {
			return err
		}
		wantBody, err := want.JSON()
		if err != nil {
			return err
		}
		if policy.Equal(inline, wantBody) {
			fmt.Fprintf(deps.stdout, "inline policy %s: up to date\n", inlinePolicyName)
		} else {
			fmt.Fprintf(deps.stdout, "inline policy %s: diverged\n", inlinePolicyName)
			problems++
		}
	}

	table, err := deps.tables.DescribeTable(ctx, cfg.TableName)
	switch {
	case awslib.IsNotFound(err):
		fmt.Fprintf(deps.stdout, "table %s: not found (create it before running the functions)\n", cfg.TableName)
	case err != nil:
		return fmt.Errorf("failed to describe table %q: %w", cfg.TableName, err)
	default:
		fmt.Fprintf(deps.stdout, "table %s: %s (%d items)\n", table.Name, table.Status, table.ItemCount)
	}

	if problems > 0 {
		return fmt.Errorf("%d check(s) failed", problems)
	}
	return nil
}
