package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/rupali59/devnotes/internal/domain"
)

const (
	perPage = 100

	// Listing calls (branches, pulls, issues) are small; commit range
	// fetches can be much larger.
	listTimeout  = 10 * time.Second
	fetchTimeout = 30 * time.Second
)

// Fetcher defines the behavior of a gateway for fetching activity from GitHub.
type Fetcher interface {
	FetchRepositoryActivity(ctx context.Context, repo string, day time.Time) (*domain.RepositoryActivity, error)
	FetchContributionCount(ctx context.Context, day time.Time) (int, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	username      string
	logger        *log.Logger

	maxAttempts int
	backoffBase time.Duration
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// The username doubles as the default owner for tracked repositories given
// as bare names.
func NewGitHubGateway(token, username string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		username:      username,
		logger:        logger,
		maxAttempts:   defaultMaxAttempts,
		backoffBase:   defaultBackoffBase,
	}, nil
}

// FetchRepositoryActivity collects commits, pull requests and issues for one
// repository on the given calendar day (UTC-anchored). A hard authorization
// failure on any call aborts the fetch and is returned as *AuthError; every
// other per-call failure is logged and contributes nothing, so the fetch
// returns partial data instead of failing.
func (g *GitHubGateway) FetchRepositoryActivity(ctx context.Context, repo string, day time.Time) (*domain.RepositoryActivity, error) {
	full := domain.NormalizeRepoIdentifier(repo, g.username)
	if full == "" || !strings.Contains(full, "/") {
		return nil, fmt.Errorf("invalid repository identifier %q", repo)
	}
	owner, name := domain.SplitRepoPath(full)
	dayStart, dayEnd := domain.DayWindow(day)

	branches, err := g.listBranches(ctx, owner, name)
	if err != nil {
		return nil, &AuthError{Repo: full, Err: err}
	}

	commits, err := g.collectCommits(ctx, owner, name, branches, dayStart, dayEnd)
	if err != nil {
		return nil, &AuthError{Repo: full, Err: err}
	}

	prs, err := g.collectPullRequests(ctx, owner, name, dayStart, dayEnd)
	if err != nil {
		return nil, &AuthError{Repo: full, Err: err}
	}

	issues, err := g.collectIssues(ctx, owner, name, dayStart, dayEnd)
	if err != nil {
		return nil, &AuthError{Repo: full, Err: err}
	}

	return &domain.RepositoryActivity{
		Name:         domain.DisplayName(full),
		FullName:     full,
		Commits:      commits,
		PullRequests: prs,
		Issues:       issues,
	}, nil
}

// listBranches enumerates branch names. A non-fatal listing failure falls
// back to a single default-branch pass (empty branch name), as does an empty
// branch list. Only auth failures propagate.
func (g *GitHubGateway) listBranches(ctx context.Context, owner, name string) ([]string, error) {
	var branches []string
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: perPage}}
	for {
		var page []*github.Branch
		var resp *github.Response
		err := g.call(ctx, fmt.Sprintf("list branches for %s/%s", owner, name), func() (*github.Response, error) {
			callCtx, cancel := context.WithTimeout(ctx, listTimeout)
			defer cancel()
			var cerr error
			page, resp, cerr = g.restClient.Repositories.ListBranches(callCtx, owner, name, opts)
			return resp, cerr
		})
		if err != nil {
			if errors.Is(err, ErrAuthDenied) {
				return nil, err
			}
			g.logger.Printf("falling back to default branch for %s/%s: %v", owner, name, err)
			return []string{""}, nil
		}
		for _, b := range page {
			branches = append(branches, b.GetName())
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	if len(branches) == 0 {
		// Zero branches returned still deserves a default-branch attempt.
		branches = []string{""}
	}
	return branches, nil
}

// collectCommits scans every branch for commits on the target day,
// deduplicating by full SHA across branches. Commits arrive newest-first, so
// a page is abandoned as soon as a commit predates the day.
func (g *GitHubGateway) collectCommits(ctx context.Context, owner, name string, branches []string, dayStart, dayEnd time.Time) ([]domain.CommitRecord, error) {
	seen := make(map[string]bool)
	var records []domain.CommitRecord

	for _, branch := range branches {
		opts := &github.CommitsListOptions{
			SHA:         branch,
			Since:       dayStart,
			ListOptions: github.ListOptions{PerPage: perPage},
		}
		for {
			var page []*github.RepositoryCommit
			var resp *github.Response
			err := g.call(ctx, fmt.Sprintf("list commits for %s/%s", owner, name), func() (*github.Response, error) {
				callCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
				defer cancel()
				var cerr error
				page, resp, cerr = g.restClient.Repositories.ListCommits(callCtx, owner, name, opts)
				return resp, cerr
			})
			if err != nil {
				if errors.Is(err, ErrAuthDenied) {
					return nil, err
				}
				g.logger.Printf("skipping commits for %s/%s (branch %q): %v", owner, name, branch, err)
				break
			}

			stop := false
			for _, c := range page {
				committed := c.GetCommit().GetCommitter().GetDate().Time.UTC()
				if committed.Before(dayStart) {
					stop = true
					break
				}
				if !committed.Before(dayEnd) {
					continue
				}
				sha := c.GetSHA()
				if sha == "" || seen[sha] {
					continue
				}
				seen[sha] = true

				title, body, _ := strings.Cut(c.GetCommit().GetMessage(), "\n\n")
				records = append(records, domain.CommitRecord{
					SHA:       sha,
					Title:     strings.TrimSpace(title),
					Body:      strings.TrimSpace(body),
					Author:    c.GetCommit().GetAuthor().GetName(),
					Timestamp: committed,
					URL:       c.GetHTMLURL(),
				})
			}
			if stop || resp == nil || resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
	}

	// Chronological order is required for grouping downstream.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

// collectPullRequests lists pull requests in all states and keeps those
// created within the day window. Listings are newest-first, so pagination
// stops once a page crosses the window start.
func (g *GitHubGateway) collectPullRequests(ctx context.Context, owner, name string, dayStart, dayEnd time.Time) ([]domain.PullRequestRecord, error) {
	var records []domain.PullRequestRecord
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	for {
		var page []*github.PullRequest
		var resp *github.Response
		err := g.call(ctx, fmt.Sprintf("list pull requests for %s/%s", owner, name), func() (*github.Response, error) {
			callCtx, cancel := context.WithTimeout(ctx, listTimeout)
			defer cancel()
			var cerr error
			page, resp, cerr = g.restClient.PullRequests.List(callCtx, owner, name, opts)
			return resp, cerr
		})
		if err != nil {
			if errors.Is(err, ErrAuthDenied) {
				return nil, err
			}
			g.logger.Printf("skipping pull requests for %s/%s: %v", owner, name, err)
			return records, nil
		}

		stop := false
		for _, pr := range page {
			created := pr.GetCreatedAt().Time.UTC()
			if created.Before(dayStart) {
				stop = true
				break
			}
			if !created.Before(dayEnd) {
				continue
			}
			records = append(records, domain.PullRequestRecord{
				Number:    pr.GetNumber(),
				Title:     pr.GetTitle(),
				State:     pr.GetState(),
				CreatedAt: created,
			})
		}
		if stop || resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return records, nil
}

// collectIssues mirrors collectPullRequests for issues, skipping the pull
// requests the issues endpoint also returns.
func (g *GitHubGateway) collectIssues(ctx context.Context, owner, name string, dayStart, dayEnd time.Time) ([]domain.IssueRecord, error) {
	var records []domain.IssueRecord
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	for {
		var page []*github.Issue
		var resp *github.Response
		err := g.call(ctx, fmt.Sprintf("list issues for %s/%s", owner, name), func() (*github.Response, error) {
			callCtx, cancel := context.WithTimeout(ctx, listTimeout)
			defer cancel()
			var cerr error
			page, resp, cerr = g.restClient.Issues.ListByRepo(callCtx, owner, name, opts)
			return resp, cerr
		})
		if err != nil {
			if errors.Is(err, ErrAuthDenied) {
				return nil, err
			}
			g.logger.Printf("skipping issues for %s/%s: %v", owner, name, err)
			return records, nil
		}

		stop := false
		for _, issue := range page {
			if issue.IsPullRequest() {
				continue
			}
			created := issue.GetCreatedAt().Time.UTC()
			if created.Before(dayStart) {
				stop = true
				break
			}
			if !created.Before(dayEnd) {
				continue
			}
			records = append(records, domain.IssueRecord{
				Number:    issue.GetNumber(),
				Title:     issue.GetTitle(),
				State:     issue.GetState(),
				CreatedAt: created,
			})
		}
		if stop || resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return records, nil
}
