package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codefionn/execguard/internal/config"
	"github.com/codefionn/execguard/internal/fspath"
	"github.com/codefionn/execguard/internal/sandbox"
)

type sandboxOutput struct {
	Sandbox   sandbox.Kind          `json:"sandbox"`
	Available bool                  `json:"available"`
	Plan      *sandbox.LandlockPlan `json:"landlock_plan,omitempty"`
	// Rules counts the go-landlock rules built from Plan; zero off Linux.
	Rules     int                   `json:"landlock_rules,omitempty"`
}

func (a *app) sandboxCmd() *cobra.Command {
	var showPlan bool

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Show which OS sandbox is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := a.newSelector(a.cfg.SandboxConfig()).Select()
			out := sandboxOutput{Sandbox: kind, Available: ok}

			if showPlan {
				sandboxPolicy, err := a.cfg.SandboxPolicy(a.cwd)
				if err != nil {
					return err
				}
				if plan, needed := sandbox.PlanLandlock(sandboxPolicy, a.cwd); needed {
					out.Plan = &plan
					out.Rules = plan.RuleCount()
				}
			}

			if a.jsonOutput {
				return a.printJSON(out)
			}

			if ok {
				fmt.Fprintf(a.out, "sandbox: %s\n", color.GreenString(kind.String()))
			} else {
				fmt.Fprintf(a.out, "sandbox: %s\n", color.YellowString("none available"))
			}
			if showPlan {
				a.printPlan(out.Plan, out.Rules)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPlan, "plan", false, "Also print the Landlock rules the sandbox policy maps to")
	return cmd
}

func (a *app) printPlan(plan *sandbox.LandlockPlan, rules int) {
	if plan == nil {
		fmt.Fprintln(a.out, "landlock plan: not needed (full access)")
		return
	}
	fmt.Fprintln(a.out, color.CyanString("landlock plan:"))
	printList(a.out, "read-only dirs", plan.ReadOnlyDirs)
	printList(a.out, "read-write dirs", plan.ReadWriteDirs)
	printList(a.out, "read-write files", plan.ReadWriteFiles)
	if rules > 0 {
		fmt.Fprintf(a.out, "landlock rules: %d\n", rules)
	}
}

type rootsOutput struct {
	SandboxMode   string   `json:"sandbox_mode"`
	FullDiskWrite bool     `json:"full_disk_write"`
	FullNetwork   bool     `json:"full_network"`
	WritableRoots []string `json:"writable_roots"`
	ReadableRoots []string `json:"readable_roots"`
}

func (a *app) rootsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roots",
		Short: "Print the effective writable and readable roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sandboxPolicy, err := a.cfg.SandboxPolicy(a.cwd)
			if err != nil {
				return err
			}
			readable, err := a.cfg.ReadableRoots(a.cwd)
			if err != nil {
				return err
			}

			out := rootsOutput{
				SandboxMode:   sandboxPolicy.Mode.String(),
				FullDiskWrite: sandboxPolicy.HasFullDiskWriteAccess(),
				FullNetwork:   sandboxPolicy.HasFullNetworkAccess(),
				WritableRoots: fspath.Strings(sandboxPolicy.WritableRootsWithCwd(a.cwd)),
				ReadableRoots: fspath.Strings(readable),
			}
			if a.jsonOutput {
				return a.printJSON(out)
			}

			fmt.Fprintf(a.out, "sandbox mode: %s\n", out.SandboxMode)
			if out.FullDiskWrite {
				fmt.Fprintln(a.out, color.RedString("full disk write access"))
			} else {
				printList(a.out, "writable roots", out.WritableRoots)
			}
			printList(a.out, "readable roots", out.ReadableRoots)
			fmt.Fprintf(a.out, "network access: %t\n", out.FullNetwork)
			return nil
		},
	}
}

func (a *app) initConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		// The configuration may not exist yet; skip the shared setup.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = config.GetConfigPath()
			}
			if !force && fileExists(path) {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
