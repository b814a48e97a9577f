// Package tagio reads and writes audiobook container tags through the ffmpeg
// tool suite.
package tagio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/logging"
	"bookshelf/internal/media/ffprobe"
	"bookshelf/internal/metadata"
	"bookshelf/internal/services"
)

// Reader loads the metadata stored in an audiobook container.
type Reader interface {
	Read(ctx context.Context, path string) (metadata.Record, error)
}

// Writer stores metadata into an audiobook container.
type Writer interface {
	Write(ctx context.Context, path string, record metadata.Record) error
}

// tagKeys maps each field to the container tag keys it is read from. The first
// key is the one written back.
var tagKeys = map[metadata.Field][]string{
	metadata.FieldTitle:          {"title"},
	metadata.FieldAuthor:         {"artist", "album_artist"},
	metadata.FieldNarrator:       {"narrator", "composer"},
	metadata.FieldSeries:         {"show", "series"},
	metadata.FieldSeriesPosition: {"episode_sort", "series_position"},
	metadata.FieldYear:           {"date", "year"},
	metadata.FieldDescription:    {"description", "synopsis", "comment"},
	metadata.FieldPublisher:      {"publisher"},
	metadata.FieldGenre:          {"genre"},
	metadata.FieldISBN:           {"isbn"},
	metadata.FieldASIN:           {"asin"},
}

type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// FFprobeReader reads tags through ffprobe.
type FFprobeReader struct {
	Binary string
	probe  probeFunc
}

// NewFFprobeReader returns a reader using the given ffprobe binary.
func NewFFprobeReader(binary string) *FFprobeReader {
	return &FFprobeReader{Binary: binary, probe: ffprobe.Inspect}
}

// Read implements Reader.
func (r *FFprobeReader) Read(ctx context.Context, path string) (metadata.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return metadata.Record{}, services.Wrap(services.ErrNotFound, "metadata", "read", "audiobook not found", err)
	}
	probe := r.probe
	if probe == nil {
		probe = ffprobe.Inspect
	}
	result, err := probe(ctx, r.Binary, path)
	if err != nil {
		return metadata.Record{}, services.Wrap(services.ErrExternalTool, "metadata", "ffprobe", "failed to read tags from "+filepath.Base(path), err)
	}
	return RecordFromProbe(result), nil
}

// RecordFromProbe maps ffprobe output onto a Record.
func RecordFromProbe(result ffprobe.Result) metadata.Record {
	var record metadata.Record
	for _, field := range metadata.TrackedFields {
		value, ok := result.Tag(tagKeys[field]...)
		if !ok {
			continue
		}
		if field.Numeric() {
			n, ok := leadingNumber(value)
			if !ok {
				continue
			}
			value = strconv.FormatUint(uint64(n), 10)
		}
		_ = record.Set(field, value)
	}

	if seconds := result.DurationSeconds(); seconds > 0 && !math.IsNaN(seconds) {
		d := uint64(seconds)
		record.DurationSeconds = &d
	}
	if count := result.ChapterCount(); count > 0 {
		record.ChapterCount = metadata.Number(uint32(count))
	}
	if cover, ok := result.CoverArt(); ok {
		info := fmt.Sprintf("embedded (%s", strings.ToUpper(cover.CodecName))
		if cover.Width > 0 && cover.Height > 0 {
			info += fmt.Sprintf(", %dx%d", cover.Width, cover.Height)
		}
		info += ")"
		record.CoverInfo = &info
	}
	return record
}

// leadingNumber parses "2021", "2021-05-04" or "3/12" style values.
func leadingNumber(value string) (uint32, bool) {
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(value[:end], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// FFmpegWriter rewrites container tags with a stream copy through ffmpeg.
type FFmpegWriter struct {
	Binary string
	logger *slog.Logger
	run    commandRunner
}

// NewFFmpegWriter constructs a tag writer.
func NewFFmpegWriter(binary string, logger *slog.Logger) *FFmpegWriter {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegWriter{
		Binary: binary,
		logger: logging.NewComponentLogger(logger, "tagwriter"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (w *FFmpegWriter) WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) {
	if w != nil && r != nil {
		w.run = r
	}
}

// Write implements Writer. The file is replaced atomically and its hash
// sidecar dropped because the content changed.
func (w *FFmpegWriter) Write(ctx context.Context, path string, record metadata.Record) error {
	if w == nil {
		return fmt.Errorf("tag writer not initialized")
	}
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(services.ErrNotFound, "metadata", "write", "audiobook not found", err)
	}

	tmpPath := filepath.Join(filepath.Dir(path), ".tags-"+filepath.Base(path)+".tmp")
	args := BuildFFmpegArgs(path, tmpPath, record)

	w.logger.Debug("executing ffmpeg tag rewrite",
		logging.String(logging.FieldPath, path),
		logging.Int("arg_count", len(args)),
	)
	if err := w.run(ctx, w.Binary, args...); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrExternalTool, "metadata", "ffmpeg", "failed to write tags", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "metadata", "ffmpeg", "ffmpeg did not produce output file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	if err := contenthash.RemoveSidecar(path); err != nil {
		logging.WarnWithContext(w.logger, "stale hash sidecar left behind", "hash_sidecar_stale",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run bookshelf rehash --force on the directory"),
			logging.String(logging.FieldImpact, "duplicate detection may use an outdated hash"),
		)
	}
	w.logger.Info("tags written",
		logging.String(logging.FieldEventType, "tags_written"),
		logging.String(logging.FieldPath, path),
	)
	return nil
}

// BuildFFmpegArgs returns the ffmpeg arguments that copy src to dst with every
// tracked field set to its value in record, or cleared when absent.
func BuildFFmpegArgs(src, dst string, record metadata.Record) []string {
	args := []string{
		"-y", "-v", "error", "-hide_banner",
		"-i", src,
		"-map", "0", "-map_metadata", "0", "-c", "copy",
		"-movflags", "use_metadata_tags",
	}
	for _, field := range metadata.TrackedFields {
		value, _ := record.Value(field)
		keys := tagKeys[field]
		args = append(args, "-metadata", keys[0]+"="+value)
		if value != "" {
			continue
		}
		// A cleared field must not reappear through an alias on the next read.
		for _, alias := range keys[1:] {
			args = append(args, "-metadata", alias+"=")
		}
	}
	args = append(args, "-f", "mp4", dst)
	return args
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
