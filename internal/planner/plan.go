package planner

import "bookshelf/internal/metadata"

// AuxiliaryFile is a companion file (cue sheet, PDF) that travels with a book.
type AuxiliaryFile struct {
	Path string
	// RelativePath is relative to the book's parent directory.
	RelativePath string
}

// File is one scanned audiobook.
type File struct {
	Path      string
	Filename  string
	Metadata  metadata.Record
	Auxiliary []AuxiliaryFile
}

// AuxiliaryMove is the copy or rename of one auxiliary file.
type AuxiliaryMove struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

// PlannedOperation moves or copies one book and its auxiliary files.
type PlannedOperation struct {
	Source    string          `json:"source"`
	Dest      string          `json:"dest"`
	Auxiliary []AuxiliaryMove `json:"auxiliary,omitempty"`
}

// Conflict reports a destination that cannot be written safely.
type Conflict struct {
	Dest    string   `json:"dest"`
	Sources []string `json:"sources"`
	// ExistsOnDisk is set when a different file already occupies Dest, or
	// when the occupant could not be compared.
	ExistsOnDisk bool `json:"exists_on_disk"`
}

// AlreadyPresent is a book whose destination already holds identical content.
type AlreadyPresent struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Hash   string `json:"hash"`
}

// Uncategorized is a book whose metadata cannot fill the template.
type Uncategorized struct {
	Source        string   `json:"source"`
	MissingFields []string `json:"missing_fields"`
}

// Plan is the result of Build.
type Plan struct {
	Operations     []PlannedOperation `json:"operations"`
	AlreadyPresent []AlreadyPresent   `json:"already_present"`
	Uncategorized  []Uncategorized    `json:"uncategorized"`
	Conflicts      []Conflict         `json:"conflicts"`
}

// HasIssues reports whether execution should be refused.
func (p Plan) HasIssues(allowUncategorized bool) bool {
	return len(p.Conflicts) > 0 || (!allowUncategorized && len(p.Uncategorized) > 0)
}

// FixPlan is the result of BuildFix.
type FixPlan struct {
	Moves         []PlannedOperation `json:"moves"`
	Compliant     []string           `json:"compliant"`
	Uncategorized []Uncategorized    `json:"uncategorized"`
	Conflicts     []Conflict         `json:"conflicts"`
}

// HasIssues reports whether the fix should be refused.
func (p FixPlan) HasIssues() bool {
	return len(p.Conflicts) > 0
}
