// Package execcheck verifies that the file arguments of a classified command
// stay inside the folders the caller permits, and resolves which executable
// the command will actually run.
package execcheck

import (
	"fmt"
	"strings"
)

// ArgKind tags the type the command classifier assigned to an argument.
type ArgKind int

const (
	ArgUnknown ArgKind = iota
	ArgReadableFile
	ArgWriteableFile
	ArgOpaqueNonFile
	ArgPositiveInteger
	ArgSedCommand
	ArgLiteral
)

var argKindNames = map[ArgKind]string{
	ArgUnknown:         "Unknown",
	ArgReadableFile:    "ReadableFile",
	ArgWriteableFile:   "WriteableFile",
	ArgOpaqueNonFile:   "OpaqueNonFile",
	ArgPositiveInteger: "PositiveInteger",
	ArgSedCommand:      "SedCommand",
	ArgLiteral:         "Literal",
}

// ArgType is the classifier's verdict for one argument. Literal is set only
// for ArgLiteral.
type ArgType struct {
	Kind    ArgKind
	Literal string
}

// Convenience values for the payload-free kinds.
var (
	ReadableFile    = ArgType{Kind: ArgReadableFile}
	WriteableFile   = ArgType{Kind: ArgWriteableFile}
	OpaqueNonFile   = ArgType{Kind: ArgOpaqueNonFile}
	Unknown         = ArgType{Kind: ArgUnknown}
	PositiveInteger = ArgType{Kind: ArgPositiveInteger}
	SedCommand      = ArgType{Kind: ArgSedCommand}
)

// Literal returns the ArgType for an argument that must equal value.
func Literal(value string) ArgType {
	return ArgType{Kind: ArgLiteral, Literal: value}
}

// IsFile reports whether the argument names a file and is subject to containment.
func (t ArgType) IsFile() bool {
	return t.Kind == ArgReadableFile || t.Kind == ArgWriteableFile
}

// String renders the type as "ReadableFile", "Literal:value", etc.
func (t ArgType) String() string {
	name, ok := argKindNames[t.Kind]
	if !ok {
		return fmt.Sprintf("ArgKind(%d)", int(t.Kind))
	}
	if t.Kind == ArgLiteral {
		return name + ":" + t.Literal
	}
	return name
}

// MarshalText implements encoding.TextMarshaler.
func (t ArgType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Names are matched
// case-insensitively; "Literal:value" carries its payload after the colon.
func (t *ArgType) UnmarshalText(text []byte) error {
	s := string(text)
	name, literal, hasLiteral := strings.Cut(s, ":")
	for kind, kindName := range argKindNames {
		if !strings.EqualFold(name, kindName) {
			continue
		}
		if kind == ArgLiteral {
			if !hasLiteral {
				return fmt.Errorf("literal argument type %q is missing its value", s)
			}
			*t = Literal(literal)
			return nil
		}
		if hasLiteral {
			return fmt.Errorf("argument type %q does not take a value", s)
		}
		*t = ArgType{Kind: kind}
		return nil
	}
	return fmt.Errorf("unknown argument type %q", s)
}

// MatchedArg is a positional argument as classified.
type MatchedArg struct {
	Index int     `json:"index"`
	Type  ArgType `json:"type"`
	Value string  `json:"value"`
}

// MatchedOpt is an option (flag plus value) as classified.
type MatchedOpt struct {
	Name  string  `json:"name"`
	Type  ArgType `json:"type"`
	Value string  `json:"value"`
}

// ValidExec is the classifier's typed view of one command invocation.
// SystemPath lists candidate executables in priority order.
type ValidExec struct {
	Program    string       `json:"program"`
	Args       []MatchedArg `json:"args,omitempty"`
	Opts       []MatchedOpt `json:"opts,omitempty"`
	SystemPath []string     `json:"system_path,omitempty"`
}
