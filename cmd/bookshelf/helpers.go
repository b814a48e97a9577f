package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bookshelf/internal/config"
	"bookshelf/internal/scanner"
	"bookshelf/internal/services"
	"bookshelf/internal/textutil"
)

// resolveBook expands arg and checks that it names an existing .m4b file.
func resolveBook(arg string) (string, error) {
	path, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrNotFound, "cli", "resolve", fmt.Sprintf("file does not exist: %s", path), nil)
		}
		return "", fmt.Errorf("inspect %s: %w", path, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "cli", "resolve", fmt.Sprintf("%s is a directory", path), nil)
	}
	if !scanner.IsBook(path) {
		return "", services.Wrap(services.ErrValidation, "cli", "resolve", fmt.Sprintf("%s is not an .m4b file", path), nil)
	}
	return path, nil
}

// resolveDir expands arg and checks that it names an existing directory.
func resolveDir(arg, what string) (string, error) {
	path, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrNotFound, "cli", "resolve", fmt.Sprintf("%s does not exist: %s", what, path), nil)
		}
		return "", fmt.Errorf("inspect %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "cli", "resolve", fmt.Sprintf("%s is not a directory: %s", what, path), nil)
	}
	return path, nil
}

// backupRoot is the tree whose .bak files count against the storage limit
// for path: the library when path lives in it, otherwise its directory.
func (c *commandContext) backupRoot(path string) string {
	if dest := c.configValue().Organize.Dest; dest != "" {
		if rel, err := filepath.Rel(dest, path); err == nil && !strings.HasPrefix(rel, "..") {
			return dest
		}
	}
	return filepath.Dir(path)
}

func yesNo(value bool) string {
	return textutil.Ternary(value, "yes", "no")
}

func plural(n int, singular, many string) string {
	return fmt.Sprintf("%d %s", n, textutil.Ternary(n == 1, singular, many))
}
