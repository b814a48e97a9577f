package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external binary bookshelf shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArg, when set, is passed to the binary to report its version.
	VersionArg string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

const versionTimeout = 3 * time.Second

// CheckBinaries evaluates the provided requirements and reports availability.
// Available binaries with a VersionArg are asked for their version.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Command = resolved
		if req.VersionArg != "" {
			status.Version = probeVersion(ctx, resolved, req.VersionArg)
		}
		results = append(results, status)
	}
	return results
}

// AudioTools lists the binaries used for tag I/O.
func AudioTools(ffprobe, ffmpeg string) []Requirement {
	return []Requirement{
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Required for reading tags and chapters",
			VersionArg:  "-version",
		},
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Required for writing tags",
			VersionArg:  "-version",
		},
	}
}

// probeVersion returns the first output line of command arg, or "" when
// the binary does not answer in time.
func probeVersion(ctx context.Context, command, arg string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	output, err := exec.CommandContext(ctx, command, arg).Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(line)
}
