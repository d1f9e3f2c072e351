// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rupali59/devnotes/internal/domain"
	"github.com/rupali59/devnotes/internal/gateway"
)

const (
	maxWorkers       = 10
	maxReportedRepos = 5
)

// AuthFailureError is the fail-closed summary returned when any repository
// reports a hard authorization failure. The caller must not write any output
// when it is returned.
type AuthFailureError struct {
	Repos []string
}

func (e *AuthFailureError) Error() string {
	listed := e.Repos
	suffix := ""
	if len(listed) > maxReportedRepos {
		suffix = fmt.Sprintf(" and %d more", len(listed)-maxReportedRepos)
		listed = listed[:maxReportedRepos]
	}
	return fmt.Sprintf(
		"github API access denied (403 Forbidden) for %s%s: check that the token is valid and not expired, that it has the required permissions, and that the network is reachable; no note files were written",
		strings.Join(listed, ", "), suffix)
}

// Collector fans repository fetches out onto a bounded worker pool and
// aggregates the results.
type Collector struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewCollector creates a new Collector instance.
func NewCollector(fetcher gateway.Fetcher, logger *log.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Collect fetches activity for every repository concurrently and aggregates
// the totals. Results are consumed in completion order. A hard authorization
// failure on any repository fails the whole collection: in-flight fetches
// still finish, but no new ones start and the aggregate is discarded in
// favor of an *AuthFailureError. Non-fatal per-repository failures are
// recorded in the error map and contribute nothing to the totals.
func (c *Collector) Collect(ctx context.Context, repos []string, day time.Time) (*domain.AggregateResult, error) {
	result := &domain.AggregateResult{
		Repositories: make(map[string]*domain.RepositoryActivity),
		Errors:       make(map[string]string),
	}

	var (
		mu        sync.Mutex
		authRepos []string
		authSeen  atomic.Bool
	)

	var eg errgroup.Group
	eg.SetLimit(workerCount(len(repos)))

	for _, repo := range repos {
		repo := repo
		eg.Go(func() error {
			if authSeen.Load() {
				// A fatal failure is already recorded; stop submitting work.
				return nil
			}
			activity, err := c.fetcher.FetchRepositoryActivity(ctx, repo, day)
			if err != nil {
				var authErr *gateway.AuthError
				if errors.As(err, &authErr) {
					authSeen.Store(true)
					mu.Lock()
					authRepos = append(authRepos, authErr.Repo)
					mu.Unlock()
					c.logger.Printf("access denied for %s: %v", repo, err)
					return nil
				}
				mu.Lock()
				result.Errors[repo] = err.Error()
				mu.Unlock()
				c.logger.Printf("skipping %s: %v", repo, err)
				return nil
			}

			mu.Lock()
			result.TotalCommits += len(activity.Commits)
			result.TotalPullRequests += len(activity.PullRequests)
			result.TotalIssues += len(activity.Issues)
			if activity.HasActivity() {
				result.Repositories[activity.Name] = activity
			}
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; failures are aggregated above.
	_ = eg.Wait()

	if len(authRepos) > 0 {
		sort.Strings(authRepos)
		return nil, &AuthFailureError{Repos: authRepos}
	}

	contributions, err := c.fetcher.FetchContributionCount(ctx, day)
	if err != nil {
		c.logger.Printf("contribution count unavailable: %v", err)
	} else {
		result.Contributions = contributions
	}

	return result, nil
}

func workerCount(repos int) int {
	if repos < 1 {
		return 1
	}
	if repos > maxWorkers {
		return maxWorkers
	}
	return repos
}
