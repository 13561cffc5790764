// Package journal handles the dated markdown files that observations
// land in: discovery, tolerant reading, and importance-based retention.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	datedStemRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	datedFileRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.md$`)
)

// HasDatedStem reports whether a filename starts with a YYYY-MM-DD date.
func HasDatedStem(name string) bool {
	return datedStemRe.MatchString(name)
}

// FileDate extracts the date from a strictly dated filename
// (YYYY-MM-DD.md). Names with suffixes or other shapes don't count.
func FileDate(name string) (time.Time, bool) {
	m := datedFileRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// MarkdownFiles returns every .md file in dir, sorted by name.
func MarkdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".md") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// DatedFiles returns the markdown files in dir whose names begin with a
// date, sorted by name (which is chronological for dated stems).
func DatedFiles(dir string) ([]string, error) {
	all, err := MarkdownFiles(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range all {
		if HasDatedStem(filepath.Base(f)) {
			files = append(files, f)
		}
	}
	return files, nil
}

// ReadLossy reads a file, replacing invalid UTF-8 sequences with the
// replacement rune. Journal files come from many tools and the odd
// bad byte shouldn't abort a whole ingest run.
func ReadLossy(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}
