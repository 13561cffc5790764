package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeJournal(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func dateFile(today time.Time, ageDays int) string {
	return today.AddDate(0, 0, -ageDays).Format("2006-01-02") + ".md"
}

func TestShouldPrune(t *testing.T) {
	tests := []struct {
		importance float64
		ageDays    int
		want       bool
	}{
		{0.9, 365, false}, // structural never ages out
		{0.8, 100, false},
		{0.5, 30, false}, // potential: kept through day 30
		{0.5, 31, true},
		{0.3, 7, false}, // contextual: kept through day 7
		{0.3, 8, true},
		{0.3, 10, true},
	}
	for _, tc := range tests {
		if got := shouldPrune(tc.importance, tc.ageDays); got != tc.want {
			t.Errorf("shouldPrune(%v, %d) = %v, want %v", tc.importance, tc.ageDays, got, tc.want)
		}
	}
}

func TestPruneTiers(t *testing.T) {
	dir := t.TempDir()
	today := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	content := "# Daily log\n" +
		"- [decision|i=0.85] keep the structural one\n" +
		"- [note|i=0.30] drop the contextual one\n" +
		"- [note|i=0.50] keep the potential one\n" +
		"plain prose stays put\n"
	path := writeJournal(t, dir, dateFile(today, 10), content)

	report, err := Prune(dir, today, false)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if report.Pruned != 1 || report.FilesModified != 1 {
		t.Errorf("pruned/modified = %d/%d, want 1/1", report.Pruned, report.FilesModified)
	}
	if len(report.Promoted) != 1 || report.Promoted[0].Content != "keep the structural one" {
		t.Errorf("promoted = %+v", report.Promoted)
	}
	if report.Promoted[0].Type != "decision" || report.Promoted[0].Importance != 0.85 {
		t.Errorf("promoted obs = %+v", report.Promoted[0])
	}

	after, _ := os.ReadFile(path)
	got := string(after)
	if strings.Contains(got, "contextual") {
		t.Error("contextual observation survived the rewrite")
	}
	for _, want := range []string{"# Daily log", "structural", "potential", "plain prose stays put"} {
		if !strings.Contains(got, want) {
			t.Errorf("rewrite lost %q:\n%s", want, got)
		}
	}
}

func TestPruneSkipsYoungFiles(t *testing.T) {
	dir := t.TempDir()
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	content := "- [note|i=0.10] too young to touch\n"
	path := writeJournal(t, dir, dateFile(today, 5), content)

	report, err := Prune(dir, today, false)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if report.Pruned != 0 {
		t.Errorf("pruned = %d, want 0", report.Pruned)
	}
	after, _ := os.ReadFile(path)
	if string(after) != content {
		t.Error("young file was modified")
	}
}

func TestPruneDryRun(t *testing.T) {
	dir := t.TempDir()
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	content := "- [note|i=0.20] would be pruned\n"
	path := writeJournal(t, dir, dateFile(today, 30), content)

	report, err := Prune(dir, today, true)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if report.Pruned != 1 {
		t.Errorf("pruned = %d, want 1 (counted, not applied)", report.Pruned)
	}
	after, _ := os.ReadFile(path)
	if string(after) != content {
		t.Error("dry run modified the file")
	}
}

func TestPruneIgnoresUndatedFiles(t *testing.T) {
	dir := t.TempDir()
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	writeJournal(t, dir, "MEMORY.md", "- [note|i=0.10] ancient but not dated\n")
	writeJournal(t, dir, "2020-01-15-notes.md", "- [note|i=0.10] suffixed stems don't count here\n")

	report, err := Prune(dir, today, false)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if report.Pruned != 0 || len(report.Files) != 0 {
		t.Errorf("report = %+v, want untouched", report)
	}
}

func TestPruneMissingDir(t *testing.T) {
	report, err := Prune(filepath.Join(t.TempDir(), "nope"), time.Now(), false)
	if err != nil {
		t.Fatalf("Prune on missing dir: %v", err)
	}
	if report.Pruned != 0 {
		t.Errorf("pruned = %d, want 0", report.Pruned)
	}
}

func TestPruneUntouchedFileNotRewritten(t *testing.T) {
	dir := t.TempDir()
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	content := "- [decision|i=0.90] nothing prunable here\n"
	path := writeJournal(t, dir, dateFile(today, 100), content)

	before, _ := os.Stat(path)
	time.Sleep(10 * time.Millisecond)

	report, err := Prune(dir, today, false)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if report.FilesModified != 0 {
		t.Errorf("filesModified = %d, want 0", report.FilesModified)
	}
	if len(report.Promoted) != 1 {
		t.Errorf("promoted = %+v, want the structural line", report.Promoted)
	}

	after, _ := os.Stat(path)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("file was rewritten despite zero prunes")
	}
}

func TestDatedFiles(t *testing.T) {
	dir := t.TempDir()
	writeJournal(t, dir, "2026-02-18.md", "x")
	writeJournal(t, dir, "2026-02-19-standup.md", "x")
	writeJournal(t, dir, "notes.md", "x")
	writeJournal(t, dir, "2026-02-17.txt", "x")

	files, err := DatedFiles(dir)
	if err != nil {
		t.Fatalf("DatedFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "2026-02-18.md" || filepath.Base(files[1]) != "2026-02-19-standup.md" {
		t.Errorf("files = %v", files)
	}
}

func TestFileDate(t *testing.T) {
	d, ok := FileDate("2026-02-18.md")
	if !ok || d.Format("2006-01-02") != "2026-02-18" {
		t.Errorf("FileDate = %v, %v", d, ok)
	}
	for _, name := range []string{"2026-02-18-notes.md", "MEMORY.md", "2026-13-45.md"} {
		if _, ok := FileDate(name); ok {
			t.Errorf("FileDate(%q) matched", name)
		}
	}
}

func TestReadLossy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.md")
	if err := os.WriteFile(path, []byte{'o', 'k', 0xff, '!', '\n'}, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadLossy(path)
	if err != nil {
		t.Fatalf("ReadLossy: %v", err)
	}
	if !strings.Contains(got, "ok") || !strings.Contains(got, "\uFFFD") {
		t.Errorf("got %q, want lossy replacement", got)
	}
}
