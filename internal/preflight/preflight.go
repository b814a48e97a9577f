package preflight

import (
	"context"
	"fmt"
	"strings"

	"bookshelf/internal/config"
	"bookshelf/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Options selects the optional check groups.
type Options struct {
	// Online adds reachability checks for the metadata endpoints.
	Online bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range deps.CheckBinaries(ctx, deps.AudioTools(cfg.Tools.FFprobe, cfg.Tools.FFmpeg)) {
		results = append(results, fromStatus(status))
	}

	results = append(results, CheckCacheDirectory("Cache directory", cfg.Paths.CacheDir))

	// Library directory (when configured)
	if dest := strings.TrimSpace(cfg.Organize.Dest); dest != "" {
		results = append(results, CheckDirectoryAccess("Library directory", dest))
	}

	if opts.Online {
		endpoints := []struct{ name, url string }{
			{"Audible", cfg.Lookup.AudibleBaseURL},
			{"Audnexus", cfg.Lookup.AudnexusBaseURL},
			{"Open Library", cfg.Lookup.OpenLibraryBaseURL},
		}
		for _, endpoint := range endpoints {
			results = append(results, CheckEndpoint(ctx, endpoint.name, endpoint.url, cfg.Lookup.UserAgent))
		}
	}
	return results
}

// Failed reports whether any required check did not pass.
func Failed(results []Result) bool {
	for _, result := range results {
		if !result.Passed && !result.Optional {
			return true
		}
	}
	return false
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case !status.Available:
		result.Detail = status.Detail
	case status.Version != "":
		result.Detail = fmt.Sprintf("%s (%s)", status.Command, status.Version)
	default:
		result.Detail = status.Command
	}
	return result
}
