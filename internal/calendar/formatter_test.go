package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupali59/devnotes/internal/domain"
)

func sampleResult() *domain.AggregateResult {
	morning := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	afternoon := time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)

	return &domain.AggregateResult{
		TotalCommits:      3,
		TotalPullRequests: 1,
		TotalIssues:       1,
		Contributions:     4,
		Repositories: map[string]*domain.RepositoryActivity{
			"late-project": {
				Name:     "late-project",
				FullName: "o/late-project",
				Commits: []domain.CommitRecord{
					{SHA: "ccc3333cccdddd", Title: "refactor layout", Timestamp: afternoon},
				},
			},
			"early-project": {
				Name:     "early-project",
				FullName: "o/early-project",
				Commits: []domain.CommitRecord{
					{SHA: "aaa1111aaabbbb", Title: "feat: add importer", Timestamp: morning},
					{SHA: "bbb2222bbbcccc", Title: "fix importer edge case", Timestamp: morning.Add(time.Hour)},
				},
				PullRequests: []domain.PullRequestRecord{
					{Number: 12, Title: "Importer", State: "open", CreatedAt: morning},
				},
				Issues: []domain.IssueRecord{
					{Number: 3, Title: "Importer drops rows", State: "closed", CreatedAt: morning},
				},
			},
		},
	}
}

func TestFormatActivity(t *testing.T) {
	out := FormatActivity(sampleResult())

	assert.True(t, strings.HasPrefix(out, "## 🚀 GitHub Activity"))
	assert.Contains(t, out, "**Activity Summary:** 3 commits, 1 pull request, 1 issue")

	// Repositories are ordered by first commit timestamp.
	early := strings.Index(out, "1. early-project")
	late := strings.Index(out, "2. late-project")
	require.Positive(t, early)
	require.Positive(t, late)
	assert.Less(t, early, late)

	assert.Contains(t, out, "- `aaa1111` feat: add importer")
	assert.Contains(t, out, "**early-project#12** Importer")
	assert.Contains(t, out, "**early-project#3** Importer drops rows")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestFormatActivity_EmptyResult(t *testing.T) {
	out := FormatActivity(&domain.AggregateResult{Repositories: map[string]*domain.RepositoryActivity{}})
	assert.Empty(t, out)
}

func TestFormatActivity_Stable(t *testing.T) {
	result := sampleResult()
	first := FormatActivity(result)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FormatActivity(result))
	}
}

func TestFormatActivity_TruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("x", 120)
	result := &domain.AggregateResult{
		TotalCommits: 1,
		Repositories: map[string]*domain.RepositoryActivity{
			"p": {
				Name: "p",
				Commits: []domain.CommitRecord{
					{SHA: "abc1234def", Title: long, Timestamp: time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)},
				},
			},
		},
	}
	out := FormatActivity(result)
	assert.Contains(t, out, strings.Repeat("x", 77)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 78))
}

func TestFormatAnalytics(t *testing.T) {
	generatedAt := time.Date(2026, 8, 30, 7, 30, 0, 0, time.UTC)
	out := FormatAnalytics(sampleResult(), generatedAt)

	assert.True(t, strings.HasPrefix(out, "## 📈 Development Analytics"))
	assert.Contains(t, out, "| **Commits** | 3 |")
	assert.Contains(t, out, "| **Pull Requests** | 1 |")
	assert.Contains(t, out, "| **Issues** | 1 |")
	assert.Contains(t, out, "| **Contributions** | 4 |")
	assert.Contains(t, out, "Active development across 2 repositories")
	assert.Contains(t, out, "Average of 1.5 commits per active repository")
	assert.Contains(t, out, "Busiest repository: early-project (2 commits)")
	assert.Contains(t, out, "*Generated on 2026-08-30*")
}

func TestSections(t *testing.T) {
	generatedAt := time.Date(2026, 8, 30, 7, 30, 0, 0, time.UTC)

	sections := Sections(sampleResult(), generatedAt)
	require.Len(t, sections, 2)
	assert.True(t, strings.HasPrefix(sections[0], "## 🚀 GitHub Activity"))
	assert.True(t, strings.HasPrefix(sections[1], "## 📈 Development Analytics"))

	// No activity at all: nothing to write.
	empty := &domain.AggregateResult{Repositories: map[string]*domain.RepositoryActivity{}}
	assert.Empty(t, Sections(empty, generatedAt))
	assert.Empty(t, Sections(nil, generatedAt))
}
