package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codefionn/execguard/internal/execcheck"
	"github.com/codefionn/execguard/internal/fspath"
	"github.com/codefionn/execguard/internal/patch"
	"github.com/codefionn/execguard/internal/safety"
)

func (a *app) checkPatchCmd() *cobra.Command {
	var fromDiff bool

	cmd := &cobra.Command{
		Use:   "check-patch [file]",
		Short: "Judge a proposed patch",
		Long: `Reads a patch action as JSON, for example

  {"changes": [{"path": "src/main.go", "kind": "update", "move_path": "src/app.go"}]}

or, with --diff, a unified diff, and prints the safety decision.
Reads standard input when no file (or "-") is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}

			action, err := decodeAction(data, fromDiff)
			if err != nil {
				return err
			}

			approval, err := a.cfg.Approval()
			if err != nil {
				return err
			}
			sandboxPolicy, err := a.cfg.SandboxPolicy(a.cwd)
			if err != nil {
				return err
			}

			check := a.engine.AssessPatchSafety(action, approval, sandboxPolicy, a.cwd)
			slog.Info("patch assessed", "changes", len(action.Changes), "decision", check.Decision.String())
			return a.printDecision(decisionOutput{Request: "patch", SafetyCheck: check})
		},
	}

	cmd.Flags().BoolVar(&fromDiff, "diff", false, "Input is a unified diff instead of JSON")
	return cmd
}

func decodeAction(data []byte, fromDiff bool) (patch.Action, error) {
	if fromDiff {
		action, err := patch.ParseUnifiedDiff(data)
		if errors.Is(err, patch.ErrEmptyDiff) {
			// Judged as an empty patch.
			return patch.Action{}, nil
		}
		return action, err
	}

	var action patch.Action
	if err := json.Unmarshal(data, &action); err != nil {
		return patch.Action{}, fmt.Errorf("failed to decode patch action: %w", err)
	}
	return action, nil
}

// execInput is the JSON form of a classified command as produced by the
// command classifier, plus per-request context.
type execInput struct {
	execcheck.ValidExec
	// WriteableFolders restricts this command to the listed folders. Folders
	// outside the configured writable roots are ignored.
	WriteableFolders []string `json:"writeable_folders,omitempty"`
	UserApproved     bool     `json:"user_approved,omitempty"`
}

func (a *app) checkExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-exec [file]",
		Short: "Judge a classified command",
		Long: `Reads a classified command as JSON, for example

  {
    "program": "cp",
    "args": [
      {"index": 0, "type": "ReadableFile", "value": "a.txt"},
      {"index": 1, "type": "WriteableFile", "value": "b.txt"}
    ],
    "system_path": ["/bin/cp", "/usr/bin/cp"]
  }

and prints the safety decision together with the executable that would run.
Reads standard input when no file (or "-") is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}

			var input execInput
			if err := json.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("failed to decode command: %w", err)
			}

			req, err := a.execRequest(input)
			if err != nil {
				return err
			}

			check, executable := a.engine.AssessExecSafety(req)
			slog.Info("command assessed", "program", input.Program, "decision", check.Decision.String())
			return a.printDecision(decisionOutput{Request: "exec", SafetyCheck: check, Executable: executable})
		},
	}
}

func (a *app) execRequest(input execInput) (safety.ExecRequest, error) {
	approval, err := a.cfg.Approval()
	if err != nil {
		return safety.ExecRequest{}, err
	}
	sandboxPolicy, err := a.cfg.SandboxPolicy(a.cwd)
	if err != nil {
		return safety.ExecRequest{}, err
	}
	readable, err := a.cfg.ReadableRoots(a.cwd)
	if err != nil {
		return safety.ExecRequest{}, err
	}

	writeable := make([]fspath.AbsolutePath, 0, len(input.WriteableFolders))
	for _, folder := range input.WriteableFolders {
		resolved, err := fspath.Resolve(&a.cwd, folder)
		if err != nil {
			return safety.ExecRequest{}, fmt.Errorf("writeable_folders: %w", err)
		}
		writeable = append(writeable, resolved)
	}

	cwd := a.cwd
	return safety.ExecRequest{
		Exec:             input.ValidExec,
		Cwd:              &cwd,
		ReadableFolders:  readable,
		WriteableFolders: writeable,
		ApprovalPolicy:   approval,
		SandboxPolicy:    sandboxPolicy,
		UserApproved:     input.UserApproved,
	}, nil
}
