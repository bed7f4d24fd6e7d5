package safety

import (
	"errors"

	"github.com/codefionn/execguard/internal/execcheck"
	"github.com/codefionn/execguard/internal/fspath"
	"github.com/codefionn/execguard/internal/logger"
	"github.com/codefionn/execguard/internal/patch"
	"github.com/codefionn/execguard/internal/policy"
	"github.com/codefionn/execguard/internal/sandbox"
)

// SandboxSelector names the sandbox available right now, if any.
// *sandbox.Selector implements it.
type SandboxSelector interface {
	Select() (sandbox.Kind, bool)
}

// Engine evaluates safety requests. It holds no mutable state; a single
// Engine may serve any number of goroutines.
type Engine struct {
	selector SandboxSelector
}

// NewEngine returns an Engine consulting selector. A nil selector behaves as
// if no sandbox were ever available.
func NewEngine(selector SandboxSelector) *Engine {
	return &Engine{selector: selector}
}

func (e *Engine) selectSandbox() (sandbox.Kind, bool) {
	if e.selector == nil {
		return sandbox.KindNone, false
	}
	return e.selector.Select()
}

// AssessPatchSafety decides whether action may be applied in cwd.
//
// The order below encodes the product's risk tolerance and must stay as is:
// empty patches are a bug signal; UnlessTrusted always asks; contained
// patches (and every patch under OnFailure) auto-approve inside a sandbox, or
// bare under DangerFullAccess, and ask when no sandbox exists; uncontained
// patches are rejected under Never and otherwise put to the user.
func (e *Engine) AssessPatchSafety(action patch.Action, approval policy.ApprovalPolicy, sandboxPolicy policy.SandboxPolicy, cwd fspath.AbsolutePath) SafetyCheck {
	if action.IsEmpty() {
		return e.log("patch", Reject(ReasonEmptyPatch))
	}
	if approval == policy.UnlessTrusted {
		return e.log("patch", AskUser())
	}

	contained := patch.IsConstrained(action, sandboxPolicy, cwd)
	return e.log("patch", e.decide(contained, approval, sandboxPolicy, ReasonPatchOutsideProject))
}

// ExecRequest is a classified command plus the policy context to judge it in.
type ExecRequest struct {
	Exec execcheck.ValidExec
	// Cwd resolves relative file arguments; nil makes them an error.
	Cwd              *fspath.AbsolutePath
	ReadableFolders []fspath.AbsolutePath
	// WriteableFolders narrows the effective writable roots; folders outside
	// them are dropped.
	WriteableFolders []fspath.AbsolutePath
	ApprovalPolicy   policy.ApprovalPolicy
	SandboxPolicy    policy.SandboxPolicy
	// UserApproved records that a human already approved this exact command.
	UserApproved bool
}

// AssessExecSafety decides whether a classified command may run and returns
// the executable it would run ("" when the request is rejected as invalid).
//
// Writeable folders are bounded by the sandbox policy: none under ReadOnly,
// under WorkspaceWrite the request's folders that lie inside the effective
// writable roots (all effective roots when the request names none), and no
// containment requirement under DangerFullAccess. Unresolvable arguments
// reject the request outright; arguments outside the folders make it
// uncontained and fall through to the same table as patches.
func (e *Engine) AssessExecSafety(req ExecRequest) (SafetyCheck, string) {
	if req.Exec.Program == "" {
		return e.log("exec", Reject(ReasonEmptyCommand)), ""
	}
	if req.UserApproved {
		return e.log("exec", AutoApprove(sandbox.KindNone, true)), execcheck.ResolveExecutable(req.Exec)
	}
	if req.ApprovalPolicy == policy.UnlessTrusted {
		return e.log("exec", AskUser()), execcheck.ResolveExecutable(req.Exec)
	}

	contained := true
	executable := ""
	if req.SandboxPolicy.Mode != policy.ModeDangerFullAccess {
		var err error
		executable, err = execcheck.Check(req.Exec, req.Cwd, req.ReadableFolders, writeableFolders(req))
		if err != nil {
			if isInputError(err) {
				return e.log("exec", Reject(reasonInvalidCommandArgument+": "+err.Error())), ""
			}
			logger.Debug("exec: %s not contained: %v", req.Exec.Program, err)
			contained = false
		}
	}
	if executable == "" {
		executable = execcheck.ResolveExecutable(req.Exec)
	}

	check := e.decide(contained, req.ApprovalPolicy, req.SandboxPolicy, ReasonCommandOutsideFolders)
	return e.log("exec", check), executable
}

// writeableFolders returns the folders a command may write to. Request
// folders can only narrow the policy's effective roots, never extend them.
func writeableFolders(req ExecRequest) []fspath.AbsolutePath {
	if req.SandboxPolicy.Mode != policy.ModeWorkspaceWrite {
		return nil
	}

	var cwd fspath.AbsolutePath
	if req.Cwd != nil {
		cwd = *req.Cwd
	}
	roots := req.SandboxPolicy.WritableRootsWithCwd(cwd)
	if len(req.WriteableFolders) == 0 {
		return roots
	}

	folders := make([]fspath.AbsolutePath, 0, len(req.WriteableFolders))
	for _, folder := range req.WriteableFolders {
		if fspath.ContainedInAny(roots, folder) {
			folders = append(folders, folder)
			continue
		}
		logger.Debug("exec: ignoring writeable folder %s outside the writable roots", folder)
	}
	return folders
}

func isInputError(err error) bool {
	var relErr *fspath.CannotResolveRelativePathError
	var canonErr *fspath.CannotCanonicalizePathError
	return errors.As(err, &relErr) || errors.As(err, &canonErr)
}

// decide is the shared tail of the decision table, after the empty-request
// and UnlessTrusted checks.
func (e *Engine) decide(contained bool, approval policy.ApprovalPolicy, sandboxPolicy policy.SandboxPolicy, rejectReason string) SafetyCheck {
	// OnFailure proceeds without proven containment and only asks after the
	// sandboxed run actually fails.
	switch {
	case contained || approval == policy.OnFailure:
		if sandboxPolicy.Mode == policy.ModeDangerFullAccess {
			return AutoApprove(sandbox.KindNone, false)
		}
		if kind, ok := e.selectSandbox(); ok {
			return AutoApprove(kind, false)
		}
		return AskUser()
	case approval == policy.Never:
		return Reject(rejectReason)
	default:
		return AskUser()
	}
}

func (e *Engine) log(what string, check SafetyCheck) SafetyCheck {
	logger.Debug("%s safety: %s", what, check)
	return check
}
