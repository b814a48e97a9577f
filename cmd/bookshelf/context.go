package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bookshelf/internal/config"
	"bookshelf/internal/logging"
	"bookshelf/internal/lookup"
	"bookshelf/internal/notifications"
	"bookshelf/internal/safety"
	"bookshelf/internal/tagio"
)

type commandContext struct {
	configFlag string
	verbose    bool
	quiet      bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	input *bufio.Reader

	// Test seams. Nil means the ffprobe/ffmpeg/$EDITOR implementations.
	reader tagio.Reader
	writer tagio.Writer
	edit   func(ctx context.Context, content string) (string, error)
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) levelOverride() string {
	switch {
	case c.verbose:
		return "debug"
	case c.quiet:
		return "error"
	default:
		return ""
	}
}

// loggerFor returns a component logger writing to stderr. Logger
// construction failures fall back to a console logger so commands still run.
func (c *commandContext) loggerFor(component string) *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue(), c.levelOverride())
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: "warn", Format: "console"})
			logger.Warn("logger configuration rejected; using defaults",
				logging.Error(err),
				logging.String(logging.FieldEventType, "logger_config_invalid"),
			)
		}
		c.logger = logger
	})
	return logging.NewComponentLogger(c.logger, component)
}

func (c *commandContext) tagReader() tagio.Reader {
	if c.reader != nil {
		return c.reader
	}
	return tagio.NewFFprobeReader(c.configValue().Tools.FFprobe)
}

func (c *commandContext) tagWriter() tagio.Writer {
	if c.writer != nil {
		return c.writer
	}
	return tagio.NewFFmpegWriter(c.configValue().Tools.FFmpeg, c.loggerFor("tags"))
}

func (c *commandContext) lookupService() (*lookup.Service, error) {
	return lookup.NewService(lookup.ConfigFrom(c.configValue()), c.loggerFor("lookup"))
}

func (c *commandContext) pendingStore() (*safety.PendingStore, error) {
	return safety.NewPendingStore(c.configValue().PendingDir())
}

func (c *commandContext) backups(root string) *safety.Backups {
	return safety.NewBackups(root, c.configValue().Backups.MaxStorageBytes, c.loggerFor("backups"))
}

// trustedSource resolves the --trust-source flag against lookup.trusted_source.
func (c *commandContext) trustedSource(flag string) (lookup.TrustedSource, error) {
	if strings.TrimSpace(flag) != "" {
		return lookup.ParseTrustedSource(flag)
	}
	return lookup.ParseTrustedSource(c.configValue().Lookup.TrustedSource)
}

// notify publishes event and logs delivery failures. Notifications never
// change a command's outcome.
func (c *commandContext) notify(cmd *cobra.Command, event notifications.Event, payload notifications.Payload) {
	if err := notifications.NewService(c.configValue()).Publish(cmd.Context(), event, payload); err != nil {
		logging.WarnWithContext(c.loggerFor("notifications"), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic or run bookshelf test-notify"),
			logging.String(logging.FieldImpact, "no notification delivered"),
		)
	}
}

func (c *commandContext) openEditor(ctx context.Context, content string) (string, error) {
	if c.edit != nil {
		return c.edit(ctx, content)
	}
	return runEditor(ctx, content)
}

// infof prints progress chatter that --quiet suppresses.
func (c *commandContext) infof(cmd *cobra.Command, format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// confirm asks a yes/no question on the command's input. Anything but
// "y" or "yes" declines.
func (c *commandContext) confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if c.input == nil {
		c.input = bufio.NewReader(cmd.InOrStdin())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	line, err := c.input.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
