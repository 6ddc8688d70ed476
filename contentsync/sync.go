// Package contentsync reconciles a directory tree of markdown files with the
// blog_posts table. Post content stays in the files; only metadata rows are
// created, exactly one per canonical slug, no matter how many language
// variants of a post exist on disk.
package contentsync

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/utils"
)

// Options carries the metadata defaults applied to newly created posts.
type Options struct {
	// DefaultAuthor is the display label written to every created post.
	DefaultAuthor string
	// DefaultCategory is assigned to every created post.
	DefaultCategory string
	// FallbackUsername names the account resolved as author reference. A
	// missing account leaves the reference unset, never fails the run.
	FallbackUsername string
}

// FileError records a single file that could not be processed.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Report summarizes one synchronization pass.
type Report struct {
	RunID      string      `json:"run_id"`
	Discovered int         `json:"discovered"`
	Processed  int         `json:"processed"`
	Created    int         `json:"created"`
	Skipped    int         `json:"skipped"`
	Errors     []FileError `json:"errors"`
}

func (o *Options) applyDefaults() {
	if o.DefaultAuthor == "" {
		o.DefaultAuthor = "KGR33N"
	}
	if o.DefaultCategory == "" {
		o.DefaultCategory = "general"
	}
	if o.FallbackUsername == "" {
		o.FallbackUsername = "admin"
	}
}

// Sync scans dir recursively for markdown files and inserts a post row for
// every canonical slug that does not exist yet. Language subdirectories
// (en/, pl/, ...) collapse onto one row via base-slug deduplication. A
// missing directory is a logged no-op. Per-file failures are recorded in the
// report and never abort the pass; all inserts commit together at the end,
// and a commit failure rolls the whole pass back.
func Sync(db *gorm.DB, dir string, opts Options) (*Report, error) {
	report := &Report{RunID: uuid.NewString()[:8]}
	opts.applyDefaults()

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logf("content sync run=%s: directory %s not found, nothing to do", report.RunID, dir)
		return report, nil
	}

	files, err := discoverMarkdown(dir)
	if err != nil {
		return report, fmt.Errorf("content scan failed: %w", err)
	}
	report.Discovered = len(files)
	logf("content sync run=%s: %d markdown files under %s", report.RunID, len(files), dir)

	// Fallback author reference; absence is fine.
	var authorID *uint
	var fallback models.User
	if err := db.Where("username = ?", opts.FallbackUsername).First(&fallback).Error; err == nil {
		authorID = &fallback.ID
	}

	tx := db.Begin()
	if tx.Error != nil {
		return report, fmt.Errorf("content sync begin failed: %w", tx.Error)
	}

	seen := map[string]bool{}
	for _, path := range files {
		slug, meta, err := readPostFile(path)
		if err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Message: err.Error()})
			logf("content sync run=%s: %s: %v", report.RunID, path, err)
			continue
		}

		// First file wins per base slug; later language variants are skips.
		if seen[slug] {
			report.Skipped++
			continue
		}
		seen[slug] = true
		report.Processed++

		var count int64
		if err := tx.Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Message: err.Error()})
			continue
		}
		if count > 0 {
			report.Skipped++
			continue
		}

		published := time.Now()
		if t, ok := timeField(meta, "pubDate"); ok {
			published = t
		}
		post := models.Post{
			Slug:          slug,
			Author:        opts.DefaultAuthor,
			AuthorID:      authorID,
			Category:      opts.DefaultCategory,
			FeaturedImage: stringField(meta, "heroImage"),
			IsPublished:   true,
			PublishedAt:   published,
			CreatedAt:     published,
		}
		if err := tx.Create(&post).Error; err != nil {
			// The unique slug index turns a concurrent-run race into a
			// reportable per-file failure instead of a duplicate row.
			report.Errors = append(report.Errors, FileError{Path: path, Message: err.Error()})
			continue
		}
		report.Created++
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return report, fmt.Errorf("content sync commit failed: %w", err)
	}

	logf("content sync run=%s: discovered=%d processed=%d created=%d skipped=%d errors=%d",
		report.RunID, report.Discovered, report.Processed, report.Created, report.Skipped, len(report.Errors))
	return report, nil
}

// discoverMarkdown walks dir collecting markdown files, including files
// nested in per-language subdirectories. Walk order is filesystem dependent
// and must not matter beyond which variant seeds a post's metadata.
func discoverMarkdown(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".markdown":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// readPostFile loads a markdown file and derives its canonical base slug:
// an explicit frontmatter slug wins, otherwise the extension-stripped file
// name. The language directory segment is never part of the slug.
func readPostFile(path string) (string, map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	meta, _, err := parseFrontMatter(raw)
	if err != nil {
		return "", nil, err
	}
	slug := strings.TrimSpace(stringField(meta, "slug"))
	if slug == "" {
		base := filepath.Base(path)
		slug = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return slug, meta, nil
}

func logf(format string, args ...any) {
	if utils.Sugar != nil {
		utils.Sugar.Infof(format, args...)
	}
}
