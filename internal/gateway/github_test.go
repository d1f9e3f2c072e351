package gateway

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDay = "2026-08-29"

func commitJSON(sha, message, date string) string {
	return fmt.Sprintf(`{
		"sha": %q,
		"html_url": "https://github.com/o/r/commit/%s",
		"commit": {
			"message": %q,
			"author": {"name": "Rupali", "date": %q},
			"committer": {"name": "Rupali", "date": %q}
		}
	}`, sha, sha, message, date, date)
}

func TestGitHubGateway_FetchRepositoryActivity(t *testing.T) {
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/branches", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "main"}, {"name": "feature"}]`)
	})
	mux.HandleFunc("/repos/o/r/commits", func(w http.ResponseWriter, r *http.Request) {
		// Newest-first, as the API returns them. The feature branch shares
		// one sha with main and adds one older than the target day.
		switch r.URL.Query().Get("sha") {
		case "main":
			fmt.Fprintf(w, "[%s,%s]",
				commitJSON("aaa1111aaa", "feat: add parser\n\nlong description", testDay+"T14:00:00Z"),
				commitJSON("bbb2222bbb", "fix: typo", testDay+"T09:00:00Z"))
		case "feature":
			fmt.Fprintf(w, "[%s,%s]",
				commitJSON("aaa1111aaa", "feat: add parser\n\nlong description", testDay+"T14:00:00Z"),
				commitJSON("ccc3333ccc", "old work", "2026-08-27T10:00:00Z"))
		default:
			fmt.Fprint(w, `[]`)
		}
	})
	mux.HandleFunc("/repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		fmt.Fprintf(w, `[
			{"number": 7, "title": "Add parser", "state": "open", "created_at": %q},
			{"number": 6, "title": "Last week", "state": "closed", "created_at": "2026-08-20T10:00:00Z"}
		]`, testDay+"T15:00:00Z")
	})
	mux.HandleFunc("/repos/o/r/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		fmt.Fprintf(w, `[
			{"number": 9, "title": "Parser panics", "state": "open", "created_at": %q},
			{"number": 8, "title": "Actually a PR", "state": "open", "created_at": %q, "pull_request": {"url": "x"}}
		]`, testDay+"T16:00:00Z", testDay+"T16:30:00Z")
	})

	gateway, _ := setupTestGateway(t, mux)
	activity, err := gateway.FetchRepositoryActivity(context.Background(), "o/r", day)
	require.NoError(t, err)

	// Two unique shas on the day; the cross-branch duplicate counts once and
	// the older commit is excluded.
	require.Len(t, activity.Commits, 2)
	assert.Equal(t, "bbb2222bbb", activity.Commits[0].SHA) // chronological order
	assert.Equal(t, "aaa1111aaa", activity.Commits[1].SHA)
	assert.Equal(t, "feat: add parser", activity.Commits[1].Title)
	assert.Equal(t, "long description", activity.Commits[1].Body)
	assert.Equal(t, "aaa1111", activity.Commits[1].ShortSHA())

	require.Len(t, activity.PullRequests, 1)
	assert.Equal(t, 7, activity.PullRequests[0].Number)

	require.Len(t, activity.Issues, 1)
	assert.Equal(t, 9, activity.Issues[0].Number)

	assert.Equal(t, "r", activity.Name)
	assert.Equal(t, "o/r", activity.FullName)
	assert.True(t, activity.HasActivity())
}

func TestGitHubGateway_FetchRepositoryActivity_BranchListingFallsBack(t *testing.T) {
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	var commitCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/branches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	mux.HandleFunc("/repos/o/r/commits", func(w http.ResponseWriter, r *http.Request) {
		commitCalls++
		// Default-branch pass carries no sha filter.
		assert.Empty(t, r.URL.Query().Get("sha"))
		fmt.Fprintf(w, "[%s]", commitJSON("ddd4444ddd", "direct to default", testDay+"T11:00:00Z"))
	})
	mux.HandleFunc("/repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/repos/o/r/issues", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	gateway, _ := setupTestGateway(t, mux)
	activity, err := gateway.FetchRepositoryActivity(context.Background(), "o/r", day)
	require.NoError(t, err)

	assert.Equal(t, 1, commitCalls)
	require.Len(t, activity.Commits, 1)
	assert.Equal(t, "ddd4444ddd", activity.Commits[0].SHA)
}

func TestGitHubGateway_FetchRepositoryActivity_EmptyBranchList(t *testing.T) {
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	var commitCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/branches", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/repos/o/r/commits", func(w http.ResponseWriter, r *http.Request) {
		commitCalls++
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/repos/o/r/issues", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	gateway, _ := setupTestGateway(t, mux)
	activity, err := gateway.FetchRepositoryActivity(context.Background(), "o/r", day)
	require.NoError(t, err)

	// A default-branch fetch must still be attempted.
	assert.Equal(t, 1, commitCalls)
	assert.False(t, activity.HasActivity())
}

func TestGitHubGateway_FetchRepositoryActivity_AuthFailurePropagates(t *testing.T) {
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "4999")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	})

	gateway, _ := setupTestGateway(t, mux)
	activity, err := gateway.FetchRepositoryActivity(context.Background(), "o/r", day)

	assert.Nil(t, activity)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthDenied)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "o/r", authErr.Repo)
}

func TestGitHubGateway_FetchRepositoryActivity_PartialFailureContinues(t *testing.T) {
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/branches", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "main"}]`)
	})
	mux.HandleFunc("/repos/o/r/commits", func(w http.ResponseWriter, r *http.Request) {
		// Permanent non-auth failure: contributes nothing, does not abort.
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	mux.HandleFunc("/repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"number": 3, "title": "Still works", "state": "open", "created_at": %q}]`, testDay+"T12:00:00Z")
	})
	mux.HandleFunc("/repos/o/r/issues", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	gateway, _ := setupTestGateway(t, mux)
	activity, err := gateway.FetchRepositoryActivity(context.Background(), "o/r", day)
	require.NoError(t, err)

	assert.Empty(t, activity.Commits)
	require.Len(t, activity.PullRequests, 1)
}

func TestGitHubGateway_FetchRepositoryActivity_InvalidIdentifier(t *testing.T) {
	gateway, _ := setupTestGateway(t, http.NewServeMux())
	gateway.username = ""

	_, err := gateway.FetchRepositoryActivity(context.Background(), "   ", time.Now())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthDenied)
}

func TestGitHubGateway_FetchContributionCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"user":{"contributionsCollection":{"contributionCalendar":{"totalContributions":12}}}}}`)
	})

	gateway, _ := setupTestGateway(t, mux)
	count, err := gateway.FetchContributionCount(context.Background(), time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}
