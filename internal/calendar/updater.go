package calendar

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// generatedHeadings are the section markers owned by this tool. Both the
// current emoji form and the legacy plain form are recognized so notes
// written by older runs are cleaned up too. Everything outside these spans
// is preserved untouched.
var generatedHeadings = []string{
	activityHeading,
	"## GitHub Activity",
	analyticsHeading,
	"## Development Analytics",
}

// Updater merges generated sections into the daily-note files under the
// calendar root. It assumes a single writer per file; concurrent invocations
// targeting the same date are unsupported.
type Updater struct {
	root   string
	logger *log.Logger
}

// NewUpdater creates a new Updater instance rooted at the calendar directory.
func NewUpdater(root string, logger *log.Logger) *Updater {
	return &Updater{
		root:   root,
		logger: logger,
	}
}

// FilePath resolves the deterministic note path for a date:
// {root}/{year}/{MonthName}/{DD-MM-YYYY}.md.
func FilePath(root string, day time.Time) string {
	return filepath.Join(
		root,
		day.Format("2006"),
		day.Format("January"),
		day.Format("02-01-2006")+".md",
	)
}

// MergeSections writes the rendered sections into the note file for the
// given date, creating the file with a date title when it does not exist.
// Previously generated sections are removed by marker before the fresh ones
// are appended after a single blank line, so repeated application with
// identical input yields a byte-identical file. The path written is
// returned.
func (u *Updater) MergeSections(day time.Time, sections []string) (string, error) {
	path := FilePath(u.root, day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create calendar directory: %w", err)
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		existing = []byte(fmt.Sprintf("# %s\n", day.Format("January 02, 2006")))
		u.logger.Printf("creating note file %s", path)
	}

	cleaned := strings.TrimRight(RemoveGeneratedSections(string(existing)), "\n")

	var content string
	switch {
	case len(sections) == 0:
		content = cleaned + "\n"
	case cleaned == "":
		content = strings.Join(sections, "\n\n") + "\n"
	default:
		content = cleaned + "\n\n" + strings.Join(sections, "\n\n") + "\n"
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// RemoveGeneratedSections strips every generated span: from a known heading
// up to (but not including) the next second-level heading or end of input.
func RemoveGeneratedSections(content string) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	skipping := false
	for _, line := range lines {
		if isGeneratedHeading(line) {
			skipping = true
			continue
		}
		if skipping {
			if !strings.HasPrefix(line, "## ") {
				continue
			}
			skipping = false
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isGeneratedHeading(line string) bool {
	trimmed := strings.TrimRight(line, " \t")
	for _, h := range generatedHeadings {
		if trimmed == h {
			return true
		}
	}
	return false
}
