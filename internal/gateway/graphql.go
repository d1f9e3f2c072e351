package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shurcooL/githubv4"

	"github.com/rupali59/devnotes/internal/domain"
)

// contributionsQuery counts the user's contributions for a single day via
// the contribution calendar.
type contributionsQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				TotalContributions githubv4.Int
			}
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

// FetchContributionCount returns the total contribution count for the
// configured user on the given day. Without a configured username the count
// is simply zero.
func (g *GitHubGateway) FetchContributionCount(ctx context.Context, day time.Time) (int, error) {
	if g.username == "" {
		return 0, nil
	}
	dayStart, dayEnd := domain.DayWindow(day)

	callCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	var q contributionsQuery
	variables := map[string]interface{}{
		"login": githubv4.String(g.username),
		"from":  githubv4.DateTime{Time: dayStart},
		"to":    githubv4.DateTime{Time: dayEnd.Add(-time.Second)},
	}
	if err := g.graphqlClient.Query(callCtx, &q, variables); err != nil {
		return 0, fmt.Errorf("failed to fetch contribution calendar: %w", err)
	}
	return int(q.User.ContributionsCollection.ContributionCalendar.TotalContributions), nil
}
