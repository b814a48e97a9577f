package organizer

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"bookshelf/internal/logging"
	"bookshelf/internal/planner"
	"bookshelf/internal/services"
)

// ValidatePlacement verifies that dest resolves inside root and keeps the
// extension of source. This catches template or planner bugs before any
// bytes are written.
func ValidatePlacement(root, source, dest string, logger *slog.Logger) error {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return services.Wrap(services.ErrValidation, "organize", "validate placement",
			"destination path is required", nil)
	}

	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(dest))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		if logger != nil {
			logger.Error("placement validation failed",
				logging.String(logging.FieldPath, source),
				logging.String(logging.FieldDest, dest),
				logging.String(logging.FieldEventType, "placement_outside_root"),
				logging.String(logging.FieldErrorHint, "check the format template for absolute or parent components"),
			)
		}
		return services.Wrap(services.ErrValidation, "organize", "validate placement",
			fmt.Sprintf("destination %q is outside library root %q", dest, root), nil)
	}

	want := strings.ToLower(filepath.Ext(source))
	if got := strings.ToLower(filepath.Ext(dest)); want != "" && got != want {
		if logger != nil {
			logger.Error("placement validation failed",
				logging.String(logging.FieldPath, source),
				logging.String(logging.FieldDest, dest),
				logging.String(logging.FieldEventType, "placement_extension_mismatch"),
				logging.String(logging.FieldErrorHint, "end the format template with {filename}"),
			)
		}
		return services.Wrap(services.ErrValidation, "organize", "validate placement",
			fmt.Sprintf("destination %q does not keep extension %q", dest, want), nil)
	}
	return nil
}

func (o *Organizer) validateOperations(ops []planner.PlannedOperation) error {
	for _, op := range ops {
		if err := ValidatePlacement(o.root, op.Source, op.Dest, o.logger); err != nil {
			return err
		}
	}
	return nil
}
