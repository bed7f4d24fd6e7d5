package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codefionn/execguard/internal/config"
	"github.com/codefionn/execguard/internal/fspath"
	"github.com/codefionn/execguard/internal/logger"
	"github.com/codefionn/execguard/internal/safety"
	"github.com/codefionn/execguard/internal/sandbox"
)

type app struct {
	in  io.Reader
	out io.Writer

	configPath   string
	cwdFlag      string
	approvalFlag string
	sandboxFlag  string
	jsonOutput   bool
	noColor      bool

	cfg    *config.Config
	cwd    fspath.AbsolutePath
	engine *safety.Engine

	newSelector func(sandbox.Config) safety.SandboxSelector
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{
		in:  in,
		out: out,
		newSelector: func(cfg sandbox.Config) safety.SandboxSelector {
			return sandbox.NewSelector(cfg)
		},
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "execguard",
		Short: "Decide whether patches and commands may run unattended",
		Long: `execguard judges a proposed file patch or a classified command against
the configured approval policy and sandbox policy.

Every request ends in exactly one decision:
  auto-approve  run it, inside the named OS sandbox when one is given
  ask-user      a human must approve it first
  reject        refuse it, with a reason

Use 'execguard help <command>' for more information on a specific command.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Configuration file (JSON, JSONC or YAML; default "+config.GetConfigPath()+")")
	flags.StringVar(&a.cwdFlag, "cwd", "", "Working directory requests are evaluated in (default: current directory)")
	flags.StringVar(&a.approvalFlag, "approval", "", "Override the approval policy (untrusted, on-failure, on-request, never)")
	flags.StringVar(&a.sandboxFlag, "sandbox-mode", "", "Override the sandbox mode (read-only, workspace-write, danger-full-access)")
	flags.BoolVar(&a.jsonOutput, "json", false, "Print results as JSON")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(
		a.checkPatchCmd(),
		a.checkExecCmd(),
		a.sandboxCmd(),
		a.rootsCmd(),
		a.initConfigCmd(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and initializes
// logging before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.noColor {
		color.NoColor = true
	}

	path := a.configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.approvalFlag != "" {
		cfg.ApprovalPolicy = a.approvalFlag
	}
	if a.sandboxFlag != "" {
		cfg.Sandbox.Mode = a.sandboxFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}

	a.cwd, err = resolveCwd(a.cwdFlag)
	if err != nil {
		return err
	}

	a.engine = safety.NewEngine(a.newSelector(cfg.SandboxConfig()))
	slog.Debug("configuration loaded",
		"command", cmd.Name(),
		"config", path,
		"approval", cfg.ApprovalPolicy,
		"sandbox_mode", cfg.Sandbox.Mode,
		"cwd", a.cwd.String())
	return nil
}

func (a *app) initLogging() error {
	level := a.cfg.LogLevel
	if env := strings.TrimSpace(os.Getenv("EXECGUARD_LOG_LEVEL")); env != "" {
		level = env
	}
	logPath := a.cfg.LogPath
	if env := strings.TrimSpace(os.Getenv("EXECGUARD_LOG_PATH")); env != "" {
		logPath = env
	}

	if err := logger.Init(logger.ParseLevel(level), logPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(slog.New(logger.NewSlogHandler(logger.Global().WithPrefix("cli"))))
	return nil
}

func resolveCwd(flag string) (fspath.AbsolutePath, error) {
	wd, err := os.Getwd()
	if err != nil {
		return fspath.AbsolutePath{}, fmt.Errorf("failed to determine working directory: %w", err)
	}
	base, err := fspath.New(wd)
	if err != nil {
		return fspath.AbsolutePath{}, err
	}
	if flag == "" {
		return base, nil
	}
	return fspath.Resolve(&base, flag)
}

// readInput returns the contents of the file named by args[0], or standard
// input when no file or "-" is given.
func (a *app) readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}
