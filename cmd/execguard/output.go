package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/codefionn/execguard/internal/safety"
)

type decisionOutput struct {
	Request string `json:"request"`
	safety.SafetyCheck
	Executable string `json:"executable,omitempty"`
}

func (a *app) printDecision(out decisionOutput) error {
	if a.jsonOutput {
		return a.printJSON(out)
	}

	var line string
	switch out.Decision {
	case safety.DecisionAutoApprove:
		line = color.GreenString(out.SafetyCheck.String())
	case safety.DecisionReject:
		line = color.RedString(out.SafetyCheck.String())
	default:
		line = color.YellowString(out.SafetyCheck.String())
	}
	fmt.Fprintf(a.out, "%s: %s\n", out.Request, line)
	if out.Executable != "" {
		fmt.Fprintf(a.out, "executable: %s\n", out.Executable)
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(w, "%s: (none)\n", title)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
