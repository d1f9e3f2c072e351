// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"strings"
	"time"
)

// CommitRecord describes a single commit collected for the target day.
// Commits are unique per repository by their full SHA; the same commit
// reachable from multiple branches is recorded once.
type CommitRecord struct {
	SHA       string    `json:"sha"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
}

// ShortSHA returns the truncated 7-character form used for display.
func (c CommitRecord) ShortSHA() string {
	if len(c.SHA) <= 7 {
		return c.SHA
	}
	return c.SHA[:7]
}

// PullRequestRecord describes a pull request created within the target day.
type PullRequestRecord struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// IssueRecord describes an issue created within the target day.
type IssueRecord struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// RepositoryActivity holds everything collected for one repository on one day.
// It is constructed once per fetch and never mutated afterwards.
type RepositoryActivity struct {
	Name         string              `json:"name"`
	FullName     string              `json:"full_name"`
	Commits      []CommitRecord      `json:"commits"`
	PullRequests []PullRequestRecord `json:"pull_requests"`
	Issues       []IssueRecord       `json:"issues"`
}

// HasActivity reports whether anything at all was collected.
func (r *RepositoryActivity) HasActivity() bool {
	return len(r.Commits) > 0 || len(r.PullRequests) > 0 || len(r.Issues) > 0
}

// FirstCommitTime returns the timestamp of the earliest commit, if any.
func (r *RepositoryActivity) FirstCommitTime() (time.Time, bool) {
	if len(r.Commits) == 0 {
		return time.Time{}, false
	}
	first := r.Commits[0].Timestamp
	for _, c := range r.Commits[1:] {
		if c.Timestamp.Before(first) {
			first = c.Timestamp
		}
	}
	return first, true
}

// AggregateResult is the unit handed to the formatter: totals across all
// repositories plus per-repository detail for those with nonzero activity.
// Errors holds per-repository failure messages that were not fatal to the run.
type AggregateResult struct {
	TotalCommits      int                            `json:"total_commits"`
	TotalPullRequests int                            `json:"total_prs"`
	TotalIssues       int                            `json:"total_issues"`
	Contributions     int                            `json:"contributions,omitempty"`
	Repositories      map[string]*RepositoryActivity `json:"repositories"`
	Errors            map[string]string              `json:"errors,omitempty"`
}

// NormalizeRepoIdentifier converts the accepted repository input formats
// (bare name, "owner/name", full URL with optional trailing path segments)
// to a canonical "owner/name" string. Blank input yields an empty string.
// The operation is idempotent.
func NormalizeRepoIdentifier(raw, defaultOwner string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if idx := strings.Index(raw, "github.com"); idx >= 0 {
		rest := raw[idx+len("github.com"):]
		rest = strings.Trim(rest, "/")
		parts := strings.Split(rest, "/")
		if len(parts) < 2 {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}
	if strings.Contains(raw, "/") {
		return raw
	}
	if defaultOwner == "" {
		return raw
	}
	return defaultOwner + "/" + raw
}

// SplitRepoPath splits a normalized "owner/name" identifier.
func SplitRepoPath(full string) (owner, name string) {
	owner, name, _ = strings.Cut(full, "/")
	return owner, name
}

// DisplayName returns the repository name without its owner prefix.
func DisplayName(full string) string {
	if idx := strings.LastIndex(full, "/"); idx >= 0 {
		return full[idx+1:]
	}
	return full
}

// DayWindow returns the UTC-anchored [start, end) window for the calendar
// day containing t.
func DayWindow(t time.Time) (start, end time.Time) {
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
