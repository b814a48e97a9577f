package planner

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"bookshelf/internal/logging"
	"bookshelf/internal/pathfmt"
)

// BuildFix classifies files already inside destRoot. A file whose current
// path equals its rendered path is compliant; every other file is queued as a
// move and goes through the same collision checks as Build. No hashing is
// involved: a rename never duplicates content.
func BuildFix(files []File, tmpl *pathfmt.Template, destRoot string, opts ...Option) FixPlan {
	o := newOptions(opts)
	candidates, uncategorized := render(files, tmpl, destRoot)
	plan := FixPlan{Uncategorized: uncategorized}

	var moving []candidate
	for _, c := range candidates {
		if absPath(c.file.Path) == absPath(c.dest) {
			plan.Compliant = append(plan.Compliant, c.file.Path)
			continue
		}
		moving = append(moving, c)
	}

	for _, group := range groupByDest(moving) {
		occupied := occupiedByOther(group)
		if len(group.members) > 1 || occupied {
			plan.Conflicts = append(plan.Conflicts, newConflict(group, occupied))
			o.logger.Debug("fix destination blocked",
				logging.String(logging.FieldDest, group.dest),
				logging.Int("claims", len(group.members)),
				logging.Bool("exists_on_disk", occupied),
			)
			continue
		}
		plan.Moves = append(plan.Moves, operationFor(group.members[0]))
	}

	slices.SortFunc(plan.Moves, func(a, b PlannedOperation) int { return strings.Compare(a.Source, b.Source) })
	slices.Sort(plan.Compliant)
	slices.SortFunc(plan.Uncategorized, func(a, b Uncategorized) int { return strings.Compare(a.Source, b.Source) })
	slices.SortFunc(plan.Conflicts, func(a, b Conflict) int { return strings.Compare(a.Dest, b.Dest) })
	return plan
}

// occupiedByOther reports whether the group's destination holds a file that
// is not one of the group's own sources. Uninspectable destinations count as
// occupied.
func occupiedByOther(group destGroup) bool {
	destInfo, err := os.Lstat(group.dest)
	if err != nil {
		exists, statErr := pathExists(group.dest)
		return exists || statErr != nil
	}
	for _, m := range group.members {
		// Same inode covers case-only renames on case-insensitive filesystems.
		if srcInfo, err := os.Lstat(m.file.Path); err == nil && os.SameFile(srcInfo, destInfo) {
			return false
		}
	}
	return true
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
