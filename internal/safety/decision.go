// Package safety turns a proposed patch or classified command, together with
// the caller's approval and sandbox policies, into exactly one terminal
// decision: auto-approve (optionally inside a named sandbox), ask the user,
// or reject.
package safety

import (
	"fmt"
	"strings"

	"github.com/codefionn/execguard/internal/sandbox"
)

// Decision tags a SafetyCheck.
type Decision int

const (
	DecisionAskUser Decision = iota
	DecisionAutoApprove
	DecisionReject
)

func (d Decision) String() string {
	switch d {
	case DecisionAutoApprove:
		return "auto-approve"
	case DecisionAskUser:
		return "ask-user"
	case DecisionReject:
		return "reject"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Decision) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "auto-approve":
		*d = DecisionAutoApprove
	case "ask-user":
		*d = DecisionAskUser
	case "reject":
		*d = DecisionReject
	default:
		return fmt.Errorf("unknown decision %q", string(text))
	}
	return nil
}

// Reject reasons. They name the rule that fired, never filesystem layout the
// caller did not supply.
const (
	ReasonEmptyPatch             = "empty patch"
	ReasonEmptyCommand           = "empty command"
	ReasonPatchOutsideProject    = "writing outside of the project; rejected by user approval settings"
	ReasonCommandOutsideFolders  = "command touches files outside of the permitted folders; rejected by user approval settings"
	reasonInvalidCommandArgument = "invalid command argument"
)

// SafetyCheck is the terminal decision for one request. SandboxType and
// UserExplicitlyApproved are set only for DecisionAutoApprove, Reason only
// for DecisionReject.
type SafetyCheck struct {
	Decision               Decision     `json:"decision"`
	SandboxType            sandbox.Kind `json:"sandbox_type,omitempty"`
	UserExplicitlyApproved bool         `json:"user_explicitly_approved,omitempty"`
	Reason                 string       `json:"reason,omitempty"`
}

// AutoApprove lets the action run, inside kind unless it is sandbox.KindNone.
func AutoApprove(kind sandbox.Kind, userExplicitlyApproved bool) SafetyCheck {
	return SafetyCheck{
		Decision:               DecisionAutoApprove,
		SandboxType:            kind,
		UserExplicitlyApproved: userExplicitlyApproved,
	}
}

// AskUser defers the decision to a human.
func AskUser() SafetyCheck {
	return SafetyCheck{Decision: DecisionAskUser}
}

// Reject refuses the action with a human-readable reason.
func Reject(reason string) SafetyCheck {
	return SafetyCheck{Decision: DecisionReject, Reason: reason}
}

func (c SafetyCheck) String() string {
	switch c.Decision {
	case DecisionAutoApprove:
		s := "auto-approve (sandbox: " + c.SandboxType.String()
		if c.UserExplicitlyApproved {
			s += ", approved by user"
		}
		return s + ")"
	case DecisionReject:
		return "reject: " + c.Reason
	default:
		return c.Decision.String()
	}
}
