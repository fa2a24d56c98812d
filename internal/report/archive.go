package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	archivePrefix = "briefing-"
	archiveSuffix = ".txt"
	archiveLayout = "2006-01-02"
)

// Archive keeps one text file per day of rendered briefings.
type Archive struct {
	dir      string
	keepDays int
}

// NewArchive stores files under dir; keepDays <= 0 disables pruning.
func NewArchive(dir string, keepDays int) *Archive {
	return &Archive{dir: dir, keepDays: keepDays}
}

// PathFor returns the archive file used for day.
func (a *Archive) PathFor(day time.Time) string {
	return filepath.Join(a.dir, archivePrefix+day.Format(archiveLayout)+archiveSuffix)
}

// Append adds text to the file for now and prunes expired files.
func (a *Archive) Append(now time.Time, text string) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}

	path := a.PathFor(now)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}

	if _, err := a.Prune(now); err != nil {
		return path, err
	}
	return path, nil
}

// Prune deletes archive files dated more than keepDays before now.
func (a *Archive) Prune(now time.Time) ([]string, error) {
	if a.keepDays <= 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log dir: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -a.keepDays)

	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveSuffix) {
			continue
		}
		day, err := time.Parse(archiveLayout, strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveSuffix))
		if err != nil {
			continue
		}
		if !day.Before(cutoff) {
			continue
		}
		path := filepath.Join(a.dir, name)
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
