package planner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"bookshelf/internal/logging"
	"bookshelf/internal/pathfmt"
)

type candidate struct {
	file File
	dest string
}

type destGroup struct {
	dest    string
	members []candidate
}

// Build plans copying files into destRoot according to tmpl.
//
// A destination claimed by more than one file is always a conflict. A
// destination claimed by one file that already exists is hashed on both sides:
// equal content lands in AlreadyPresent, anything else (including a failed
// hash) is a conflict. Remaining files become operations.
func Build(files []File, tmpl *pathfmt.Template, destRoot string, opts ...Option) Plan {
	o := newOptions(opts)
	candidates, uncategorized := render(files, tmpl, destRoot)
	plan := Plan{Uncategorized: uncategorized}

	var existing []candidate
	for _, group := range groupByDest(candidates) {
		if len(group.members) > 1 {
			_, err := os.Lstat(group.dest)
			plan.Conflicts = append(plan.Conflicts, newConflict(group, err == nil))
			o.logger.Debug("destination claimed by several files",
				logging.String(logging.FieldDest, group.dest),
				logging.Int("claims", len(group.members)),
			)
			continue
		}
		c := group.members[0]
		exists, err := pathExists(c.dest)
		switch {
		case err != nil:
			logging.WarnWithContext(o.logger, "destination could not be inspected", "plan_dest_unreadable",
				logging.String(logging.FieldDest, c.dest),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the library directory"),
				logging.String(logging.FieldImpact, "file reported as a conflict"),
			)
			plan.Conflicts = append(plan.Conflicts, newConflict(group, true))
		case exists:
			existing = append(existing, c)
		default:
			plan.Operations = append(plan.Operations, operationFor(c))
		}
	}

	for i, result := range o.compareAll(existing) {
		c := existing[i]
		if result.match {
			plan.AlreadyPresent = append(plan.AlreadyPresent, AlreadyPresent{Source: c.file.Path, Dest: c.dest, Hash: result.hash})
			continue
		}
		if result.err != nil {
			logging.WarnWithContext(o.logger, "content hash failed", "plan_hash_failed",
				logging.String(logging.FieldPath, c.file.Path),
				logging.String(logging.FieldDest, c.dest),
				logging.Error(result.err),
				logging.String(logging.FieldImpact, "file reported as a conflict instead of already present"),
			)
		}
		plan.Conflicts = append(plan.Conflicts, Conflict{Dest: c.dest, Sources: []string{c.file.Path}, ExistsOnDisk: true})
	}

	sortPlan(&plan)
	return plan
}

// render resolves each file's destination under destRoot.
// render resolves each distinct source path once; repeated entries for the
// same file are ignored so they cannot conflict with themselves.
func render(files []File, tmpl *pathfmt.Template, destRoot string) ([]candidate, []Uncategorized) {
	candidates := make([]candidate, 0, len(files))
	var uncategorized []Uncategorized
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if _, dup := seen[file.Path]; dup {
			continue
		}
		seen[file.Path] = struct{}{}
		rel, err := tmpl.Render(file.Metadata, filenameOf(file))
		if err != nil {
			missing, ok := pathfmt.MissingFields(err)
			if !ok {
				missing = []string{err.Error()}
			}
			uncategorized = append(uncategorized, Uncategorized{Source: file.Path, MissingFields: missing})
			continue
		}
		candidates = append(candidates, candidate{file: file, dest: filepath.Join(destRoot, rel)})
	}
	return candidates, uncategorized
}

func filenameOf(file File) string {
	if strings.TrimSpace(file.Filename) != "" {
		return file.Filename
	}
	return filepath.Base(file.Path)
}

// groupByDest buckets candidates by destination in first-seen order.
func groupByDest(candidates []candidate) []destGroup {
	index := make(map[string]int, len(candidates))
	var groups []destGroup
	for _, c := range candidates {
		i, ok := index[c.dest]
		if !ok {
			i = len(groups)
			index[c.dest] = i
			groups = append(groups, destGroup{dest: c.dest})
		}
		groups[i].members = append(groups[i].members, c)
	}
	return groups
}

func newConflict(group destGroup, existsOnDisk bool) Conflict {
	sources := make([]string, 0, len(group.members))
	for _, m := range group.members {
		sources = append(sources, m.file.Path)
	}
	slices.Sort(sources)
	return Conflict{Dest: group.dest, Sources: sources, ExistsOnDisk: existsOnDisk}
}

// operationFor re-roots auxiliary files under the book's new parent directory.
func operationFor(c candidate) PlannedOperation {
	op := PlannedOperation{Source: c.file.Path, Dest: c.dest}
	parent := filepath.Dir(c.dest)
	for _, aux := range c.file.Auxiliary {
		op.Auxiliary = append(op.Auxiliary, AuxiliaryMove{
			Source: aux.Path,
			Dest:   filepath.Join(parent, aux.RelativePath),
		})
	}
	return op
}

func pathExists(path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type comparison struct {
	match bool
	hash  string
	err   error
}

// compareAll hashes each candidate's source and destination with bounded
// concurrency. Results are indexed like the input.
func (o options) compareAll(candidates []candidate) []comparison {
	results := make([]comparison, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	var mu sync.Mutex
	emit := func(kind ProgressKind, path string) {
		if o.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		o.progress(Progress{Kind: kind, Path: path})
	}

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			results[i] = o.compare(c, emit)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o options) compare(c candidate, emit func(ProgressKind, string)) comparison {
	emit(HashingSource, c.file.Path)
	sourceHash, err := o.hasher.Hash(c.file.Path)
	if err != nil {
		return comparison{err: err}
	}
	emit(HashingDest, c.dest)
	destHash, err := o.hasher.Hash(c.dest)
	if err != nil {
		return comparison{err: err}
	}
	if sourceHash != destHash {
		return comparison{}
	}
	return comparison{match: true, hash: sourceHash}
}

func sortPlan(plan *Plan) {
	slices.SortFunc(plan.Operations, func(a, b PlannedOperation) int { return strings.Compare(a.Source, b.Source) })
	slices.SortFunc(plan.AlreadyPresent, func(a, b AlreadyPresent) int { return strings.Compare(a.Source, b.Source) })
	slices.SortFunc(plan.Uncategorized, func(a, b Uncategorized) int { return strings.Compare(a.Source, b.Source) })
	slices.SortFunc(plan.Conflicts, func(a, b Conflict) int { return strings.Compare(a.Dest, b.Dest) })
}
