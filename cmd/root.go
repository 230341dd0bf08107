package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	awslib "github.com/msi-handson/lambda-role/pkg/aws"
)

const (
	defaultRoleName  = "ensyu-lambda-role"
	defaultTableName = "Items"
	defaultRegion    = "ap-northeast-1"

	inlinePolicyName   = "items-table-access"
	executionPolicyARN = "arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"
)

// Executor abstracts command execution for easier testing.
type Executor interface {
	Start(name string, args []string) error
}

type osExecutor struct{}

func (osExecutor) Start(name string, args []string) error {
	return exec.Command(name, args...).Start()
}

// Config is the resolved run configuration. It is built once from flags
// and environment before any remote call and passed by value from there on.
type Config struct {
	RoleName    string
	TableName   string
	Region      string
	AccountID   string
	Profile     string
	EndpointURL string
	LogFormat   string
	Verbose     bool
}

// rootOptions holds raw flag values before resolution against the
// environment and defaults.
type rootOptions struct {
	roleName    string
	tableName   string
	region      string
	accountID   string
	profile     string
	endpointURL string
	logFormat   string
	verbose     bool
}

func (o *rootOptions) config() Config {
	return Config{
		RoleName:    firstNonEmpty(o.roleName, os.Getenv("ROLE_NAME"), defaultRoleName),
		TableName:   firstNonEmpty(o.tableName, os.Getenv("TABLE_NAME"), defaultTableName),
		Region:      firstNonEmpty(o.region, os.Getenv("AWS_REGION"), defaultRegion),
		AccountID:   firstNonEmpty(o.accountID, os.Getenv("AWS_ACCOUNT_ID")),
		Profile:     firstNonEmpty(o.profile, os.Getenv("AWS_PROFILE")),
		EndpointURL: firstNonEmpty(o.endpointURL, os.Getenv("AWS_ENDPOINT_URL")),
		LogFormat:   o.logFormat,
		Verbose:     o.verbose,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type runDeps struct {
	identity awslib.IdentityService
	roles    awslib.RoleService
	tables   awslib.TableService
	open     func(string) error
	executor Executor
	goos     string
	log      *zap.Logger
	stdout   io.Writer
}

type depsFactory func(cfg Config) (runDeps, error)

type workflowRunner func(ctx context.Context, cfg Config, deps runDeps) error

// NewRootCmd creates the root CLI command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultRunDeps, runSetup, runTeardown, runStatus)
}

func newRootCmd(newDeps depsFactory, setup, teardown, status workflowRunner) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "lambda-role",
		Short: "Provision the execution role for the Items exercise Lambda functions",
		Long: `Creates the IAM execution role the Items exercise Lambda functions run as.
The role gets the basic execution policy plus an inline policy granting
CRUD access to the Items table. Every command is safe to run repeatedly.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.roleName, "role", "", "IAM role name (defaults to ROLE_NAME env var, then ensyu-lambda-role)")
	flags.StringVar(&opts.tableName, "table", "", "DynamoDB table name (defaults to TABLE_NAME env var, then Items)")
	flags.StringVar(&opts.region, "region", "", "AWS region (defaults to AWS_REGION env var, then ap-northeast-1)")
	flags.StringVar(&opts.accountID, "account-id", "", "AWS account id (defaults to AWS_ACCOUNT_ID env var, then an STS lookup)")
	flags.StringVarP(&opts.profile, "profile", "p", "", "AWS profile to use (defaults to AWS_PROFILE env var)")
	flags.StringVar(&opts.endpointURL, "endpoint-url", "", "custom AWS endpoint, e.g. a local stack (defaults to AWS_ENDPOINT_URL env var)")
	flags.StringVar(&opts.logFormat, "log-format", "console", "log output format, console or json")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newSetupCmd(opts, newDeps, setup),
		newTeardownCmd(opts, newDeps, teardown),
		newStatusCmd(opts, newDeps, status),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func defaultRunDeps(cfg Config) (runDeps, error) {
	log, err := newLogger(os.Stderr, cfg.LogFormat, cfg.Verbose)
	if err != nil {
		return runDeps{}, err
	}

	service := awslib.NewService(awslib.ClientConfig{
		Profile:     cfg.Profile,
		Region:      cfg.Region,
		EndpointURL: cfg.EndpointURL,
	})

	deps := runDeps{
		identity: service,
		roles:    service,
		tables:   service,
		executor: osExecutor{},
		goos:     runtime.GOOS,
		log:      log,
		stdout:   os.Stdout,
	}
	deps.open = func(targetURL string) error {
		return openBrowser(targetURL, deps)
	}

	return deps, nil
}

// openBrowser opens the given URL in the user's default browser.
func openBrowser(targetURL string, deps runDeps) error {
	var command string
	var args []string

	switch deps.goos {
	case "darwin":
		command = "open"
	case "linux":
		command = "xdg-open"
	case "windows":
		command = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	default:
		return fmt.Errorf("unsupported platform: %s", deps.goos)
	}

	args = append(args, targetURL)
	return deps.executor.Start(command, args)
}
