package patch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// ErrEmptyDiff is returned when a diff contains no file sections.
var ErrEmptyDiff = errors.New("diff contains no file changes")

// ParseUnifiedDiff builds an Action from a unified or git-style diff. Paths
// are returned as written in the diff, minus git's a/ and b/ prefixes, so
// they are usually relative to the repository root.
func ParseUnifiedDiff(data []byte) (Action, error) {
	fileDiffs, err := diff.ParseMultiFileDiff(data)
	if err != nil {
		return Action{}, fmt.Errorf("failed to parse unified diff: %w", err)
	}
	if len(fileDiffs) == 0 {
		return Action{}, ErrEmptyDiff
	}

	var action Action
	for i, fd := range fileDiffs {
		change, err := changeFromFileDiff(fd)
		if err != nil {
			return Action{}, fmt.Errorf("file %d of diff: %w", i+1, err)
		}
		action.Changes = append(action.Changes, change)
	}
	return action, nil
}

func changeFromFileDiff(fd *diff.FileDiff) (FileChange, error) {
	gitStyle := hasExtended(fd, "diff --git ")
	stripPrefixes := gitStyle || (hasPrefixOrDevNull(fd.OrigName, "a/") && hasPrefixOrDevNull(fd.NewName, "b/"))

	orig := cleanName(fd.OrigName, "a/", stripPrefixes)
	next := cleanName(fd.NewName, "b/", stripPrefixes)
	renameFrom := extendedValue(fd, "rename from ")
	renameTo := extendedValue(fd, "rename to ")

	switch {
	case orig == devNull && next == devNull:
		return FileChange{}, errors.New("both sides are /dev/null")
	case orig == devNull || hasExtended(fd, "new file mode "):
		if next == "" || next == devNull {
			return FileChange{}, errors.New("added file has no name")
		}
		return FileChange{Path: next, Kind: ChangeAdd}, nil
	case next == devNull || hasExtended(fd, "deleted file mode "):
		if orig == "" || orig == devNull {
			return FileChange{}, errors.New("deleted file has no name")
		}
		return FileChange{Path: orig, Kind: ChangeDelete}, nil
	case renameFrom != "" && renameTo != "":
		return FileChange{Path: renameFrom, Kind: ChangeUpdate, MovePath: renameTo}, nil
	case orig == "" || next == "":
		return FileChange{}, errors.New("file header is missing a name")
	case orig != next:
		return FileChange{Path: orig, Kind: ChangeUpdate, MovePath: next}, nil
	default:
		return FileChange{Path: orig, Kind: ChangeUpdate}, nil
	}
}

func cleanName(name, prefix string, strip bool) string {
	name = strings.TrimSpace(name)
	if name == devNull {
		return name
	}
	if strip {
		name = strings.TrimPrefix(name, prefix)
	}
	return name
}

func hasPrefixOrDevNull(name, prefix string) bool {
	name = strings.TrimSpace(name)
	return name == devNull || strings.HasPrefix(name, prefix)
}

func hasExtended(fd *diff.FileDiff, prefix string) bool {
	for _, line := range fd.Extended {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func extendedValue(fd *diff.FileDiff, prefix string) string {
	for _, line := range fd.Extended {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}
