// Package calendar renders collected activity as Markdown and merges it into
// the daily-note files of the vault.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/rupali59/devnotes/internal/domain"
)

const (
	activityHeading  = "## 🚀 GitHub Activity"
	analyticsHeading = "## 📈 Development Analytics"

	maxCommitTitleLen = 80
)

// Sections renders the generated note sections for one day. The slice is
// empty when there is nothing to write.
func Sections(result *domain.AggregateResult, generatedAt time.Time) []string {
	if result == nil {
		return nil
	}
	var sections []string
	if activity := FormatActivity(result); activity != "" {
		sections = append(sections, activity)
	}
	if len(sections) > 0 {
		sections = append(sections, FormatAnalytics(result, generatedAt))
	}
	return sections
}

// FormatActivity renders the GitHub Activity section. Repositories are
// ordered by their first commit timestamp ascending so the section reads as
// a timeline of the day; repositories without commits follow, by name. The
// output is fully determined by the input.
func FormatActivity(result *domain.AggregateResult) string {
	if len(result.Repositories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(activityHeading)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "**Activity Summary:** %s\n\n", summaryLine(result))
	b.WriteString("### Development Summary\n\n")
	b.WriteString("**🔧 Projects Worked On:**\n")

	for i, repo := range orderedRepositories(result) {
		fmt.Fprintf(&b, "\n#### **%d. %s**\n\n", i+1, repo.Name)
		fmt.Fprintf(&b, "- **Commits**: %d\n", len(repo.Commits))
		if len(repo.PullRequests) > 0 {
			fmt.Fprintf(&b, "- **Pull Requests**: %d\n", len(repo.PullRequests))
		}
		if len(repo.Issues) > 0 {
			fmt.Fprintf(&b, "- **Issues**: %d\n", len(repo.Issues))
		}
		if len(repo.Commits) > 0 {
			b.WriteString("\n**Work Details:**\n")
			for _, c := range repo.Commits {
				fmt.Fprintf(&b, "- `%s` %s\n", c.ShortSHA(), truncate(c.Title, maxCommitTitleLen))
			}
		}
		for _, pr := range repo.PullRequests {
			fmt.Fprintf(&b, "- %s **%s#%d** %s\n", stateMarker(pr.State), repo.Name, pr.Number, pr.Title)
		}
		for _, issue := range repo.Issues {
			fmt.Fprintf(&b, "- %s **%s#%d** %s\n", stateMarker(issue.State), repo.Name, issue.Number, issue.Title)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatAnalytics renders the Development Analytics section: the daily
// summary table plus a few computed insights. The generatedAt stamp is the
// only part not determined by the aggregate itself.
func FormatAnalytics(result *domain.AggregateResult, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString(analyticsHeading)
	b.WriteString("\n\n")
	b.WriteString("### Daily Summary\n\n")
	b.WriteString("| Metric | GitHub |\n")
	b.WriteString("|--------|--------|\n")
	fmt.Fprintf(&b, "| **Commits** | %d |\n", result.TotalCommits)
	fmt.Fprintf(&b, "| **Pull Requests** | %d |\n", result.TotalPullRequests)
	fmt.Fprintf(&b, "| **Issues** | %d |\n", result.TotalIssues)
	if result.Contributions > 0 {
		fmt.Fprintf(&b, "| **Contributions** | %d |\n", result.Contributions)
	}

	if insights := formatInsights(result); len(insights) > 0 {
		b.WriteString("\n### Technical Insights\n\n")
		for _, line := range insights {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	fmt.Fprintf(&b, "\n*Generated on %s*", generatedAt.UTC().Format("2006-01-02"))
	return b.String()
}

func formatInsights(result *domain.AggregateResult) []string {
	var insights []string

	active := orderedRepositories(result)
	if len(active) > 1 {
		insights = append(insights, fmt.Sprintf("Active development across %d repositories", len(active)))
	}

	var counts stats.Float64Data
	busiest := ""
	busiestCommits := 0
	for _, repo := range active {
		if n := len(repo.Commits); n > 0 {
			counts = append(counts, float64(n))
			if n > busiestCommits {
				busiest, busiestCommits = repo.Name, n
			}
		}
	}
	if len(counts) > 1 {
		if mean, err := stats.Mean(counts); err == nil {
			insights = append(insights, fmt.Sprintf("Average of %.1f commits per active repository", mean))
		}
		if median, err := stats.Median(counts); err == nil {
			insights = append(insights, fmt.Sprintf("Median of %.1f commits per active repository", median))
		}
	}
	if busiest != "" {
		insights = append(insights, fmt.Sprintf("Busiest repository: %s (%s)", busiest, pluralize(busiestCommits, "commit")))
	}
	return insights
}

// orderedRepositories returns the active repositories in display order:
// first-commit timestamp ascending, commit-less repositories after, by name.
func orderedRepositories(result *domain.AggregateResult) []*domain.RepositoryActivity {
	repos := make([]*domain.RepositoryActivity, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, r)
	}
	sort.Slice(repos, func(i, j int) bool {
		ti, iok := repos[i].FirstCommitTime()
		tj, jok := repos[j].FirstCommitTime()
		switch {
		case iok && jok:
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return repos[i].Name < repos[j].Name
		case iok:
			return true
		case jok:
			return false
		default:
			return repos[i].Name < repos[j].Name
		}
	})
	return repos
}

func summaryLine(result *domain.AggregateResult) string {
	var parts []string
	if result.TotalCommits > 0 {
		parts = append(parts, pluralize(result.TotalCommits, "commit"))
	}
	if result.TotalPullRequests > 0 {
		parts = append(parts, pluralize(result.TotalPullRequests, "pull request"))
	}
	if result.TotalIssues > 0 {
		parts = append(parts, pluralize(result.TotalIssues, "issue"))
	}
	if len(parts) == 0 {
		return "no tracked activity"
	}
	return strings.Join(parts, ", ")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func stateMarker(state string) string {
	switch state {
	case "open":
		return "🟢"
	case "closed":
		return "🟡"
	default:
		return "🔴"
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
