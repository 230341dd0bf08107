package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type execCall struct {
	name string
	args []string
}

type fakeExecutor struct {
	startErr error
	calls    []execCall
}

func (f *fakeExecutor) Start(name string, args []string) error {
	f.calls = append(f.calls, execCall{
		name: name,
		args: append([]string(nil), args...),
	})
	return f.startErr
}

func noopDeps(cfg Config) (runDeps, error) {
	return runDeps{log: zap.NewNop()}, nil
}

func TestConfigResolution(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		env  map[string]string
		want Config
	}{
		{
			name: "defaults when nothing is set",
			args: []string{},
			env:  map[string]string{},
			want: Config{
				RoleName:  "ensyu-lambda-role",
				TableName: "Items",
				Region:    "ap-northeast-1",
				LogFormat: "console",
			},
		},
		{
			name: "environment fills in when flags are absent",
			args: []string{},
			env: map[string]string{
				"ROLE_NAME":        "env-role",
				"TABLE_NAME":       "EnvItems",
				"AWS_REGION":       "us-west-2",
				"AWS_ACCOUNT_ID":   "123456789012",
				"AWS_PROFILE":      "env-profile",
				"AWS_ENDPOINT_URL": "http://env-stack:4566",
			},
			want: Config{
				RoleName:    "env-role",
				TableName:   "EnvItems",
				Region:      "us-west-2",
				AccountID:   "123456789012",
				Profile:     "env-profile",
				EndpointURL: "http://env-stack:4566",
				LogFormat:   "console",
			},
		},
		{
			name: "flags win over the environment",
			args: []string{
				"--role", "flag-role",
				"--table", "FlagItems",
				"--region", "eu-west-1",
				"--account-id", "999999999999",
				"--profile", "flag-profile",
				"--endpoint-url", "http://flag-stack:4566",
			},
			env: map[string]string{
				"ROLE_NAME":        "env-role",
				"TABLE_NAME":       "EnvItems",
				"AWS_REGION":       "us-west-2",
				"AWS_ACCOUNT_ID":   "123456789012",
				"AWS_PROFILE":      "env-profile",
				"AWS_ENDPOINT_URL": "http://env-stack:4566",
			},
			want: Config{
				RoleName:    "flag-role",
				TableName:   "FlagItems",
				Region:      "eu-west-1",
				AccountID:   "999999999999",
				Profile:     "flag-profile",
				EndpointURL: "http://flag-stack:4566",
				LogFormat:   "console",
			},
		},
		{
			name: "log flags pass through unresolved",
			args: []string{"--log-format", "json", "-v"},
			env:  map[string]string{},
			want: Config{
				RoleName:  "ensyu-lambda-role",
				TableName: "Items",
				Region:    "ap-northeast-1",
				LogFormat: "json",
				Verbose:   true,
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"ROLE_NAME", "TABLE_NAME", "AWS_REGION", "AWS_ACCOUNT_ID", "AWS_PROFILE", "AWS_ENDPOINT_URL"} {
				t.Setenv(key, tc.env[key])
			}

			var captured Config
			capture := func(ctx context.Context, cfg Config, deps runDeps) error {
				captured = cfg
				return nil
			}

			root := newRootCmd(noopDeps, capture, capture, capture)
			root.SetArgs(append([]string{"setup"}, tc.args...))

			if err := root.Execute(); err != nil {
				t.Fatalf("unexpected execute error: %v", err)
			}

			if captured != tc.want {
				t.Fatalf("resolved config mismatch:\n got %+v\nwant %+v", captured, tc.want)
			}
		})
	}
}

func TestSubcommandsShareConfigResolution(t *testing.T) {
	for _, sub := range []string{"setup", "teardown", "status"} {
		sub := sub
		t.Run(sub, func(t *testing.T) {
			t.Setenv("ROLE_NAME", "from-env")

			var captured Config
			capture := func(ctx context.Context, cfg Config, deps runDeps) error {
				captured = cfg
				return nil
			}

			root := newRootCmd(noopDeps, capture, capture, capture)
			root.SetArgs([]string{sub})

			if err := root.Execute(); err != nil {
				t.Fatalf("unexpected execute error: %v", err)
			}

			if captured.RoleName != "from-env" {
				t.Fatalf("expected %s to resolve role name from the environment, got %q", sub, captured.RoleName)
			}
		})
	}
}

func TestDepsFactoryErrorStopsRun(t *testing.T) {
	t.Parallel()

	ran := false
	runner := func(ctx context.Context, cfg Config, deps runDeps) error {
		ran = true
		return nil
	}

	root := newRootCmd(func(cfg Config) (runDeps, error) {
		return runDeps{}, errors.New("unsupported log format \"xml\"")
	}, runner, runner, runner)
	root.SetArgs([]string{"setup"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "unsupported log format") {
		t.Fatalf("expected factory error, got %v", err)
	}
	if ran {
		t.Fatal("runner must not run when dependencies fail to build")
	}
}

func TestRootCmdFlagsConfigured(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()

	flags := root.PersistentFlags()
	for _, name := range []string{"role", "table", "region", "account-id", "profile", "endpoint-url", "log-format", "verbose"} {
		if flags.Lookup(name) == nil {
			t.Fatalf("expected %s flag to be registered", name)
		}
	}
	if got := flags.Lookup("profile").Shorthand; got != "p" {
		t.Fatalf("expected profile shorthand 'p', got %q", got)
	}
	if got := flags.Lookup("verbose").Shorthand; got != "v" {
		t.Fatalf("expected verbose shorthand 'v', got %q", got)
	}
	if got := flags.Lookup("log-format").DefValue; got != "console" {
		t.Fatalf("expected log-format default 'console', got %q", got)
	}

	var subs []string
	for _, c := range root.Commands() {
		subs = append(subs, c.Name())
	}
	for _, want := range []string{"setup", "teardown", "status"} {
		found := false
		for _, got := range subs {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected %s subcommand to be registered, got %v", want, subs)
		}
	}
}

func TestOpenBrowser(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		goos          string
		startErr      error
		wantName      string
		wantArgs      []string
		wantErrSubstr string
	}{
		{
			name:     "darwin",
			goos:     "darwin",
			wantName: "open",
			wantArgs: []string{"https://example.com"},
		},
		{
			name:     "linux",
			goos:     "linux",
			wantName: "xdg-open",
			wantArgs: []string{"https://example.com"},
		},
		{
			name:     "windows",
			goos:     "windows",
			wantName: "rundll32",
			wantArgs: []string{"url.dll,FileProtocolHandler", "https://example.com"},
		},
		{
			name:          "unsupported",
			goos:          "plan9",
			wantErrSubstr: "unsupported platform: plan9",
		},
		{
			name:          "start error",
			goos:          "linux",
			startErr:      errors.New("start failed"),
			wantName:      "xdg-open",
			wantArgs:      []string{"https://example.com"},
			wantErrSubstr: "start failed",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			executor := &fakeExecutor{startErr: tc.startErr}
			deps := runDeps{
				executor: executor,
				goos:     tc.goos,
			}

			err := openBrowser("https://example.com", deps)
			if tc.wantErrSubstr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErrSubstr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErrSubstr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tc.goos == "plan9" {
				if len(executor.calls) != 0 {
					t.Fatalf("expected no executor calls for unsupported platform, got %d", len(executor.calls))
				}
				return
			}

			if len(executor.calls) != 1 {
				t.Fatalf("expected 1 executor call, got %d", len(executor.calls))
			}
			call := executor.calls[0]
			if call.name != tc.wantName {
				t.Fatalf("unexpected executor call: %+v", call)
			}
			if strings.Join(call.args, "|") != strings.Join(tc.wantArgs, "|") {
				t.Fatalf("unexpected args: got %v want %v", call.args, tc.wantArgs)
			}
		})
	}
}
