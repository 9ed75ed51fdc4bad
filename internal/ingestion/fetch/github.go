package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/platform/github"
)

var errNoGithubClient = errors.New("github client not configured")

func (f *LiveFetcher) fetchGithub(ctx context.Context, src *types.Source) (string, error) {
	if f.gh == nil {
		return "", errNoGithubClient
	}
	owner, repo, err := github.ParseRepoURL(src.URL)
	if err != nil {
		return "", err
	}

	r, err := f.gh.Repository(ctx, owner, repo)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", r.GetFullName(), r.GetDescription())
	fmt.Fprintf(&b, "stars=%d forks=%d open_issues=%d\n", r.GetStargazersCount(), r.GetForksCount(), r.GetOpenIssuesCount())

	if commits, err := f.gh.RecentCommits(ctx, owner, repo, itemsPerSource); err != nil {
		f.log.Warn("GitHub commits unavailable", "source_id", src.ID, "error", err)
	} else if len(commits) > 0 {
		b.WriteString("\nRecent commits:\n")
		for _, c := range commits {
			msg, _, _ := strings.Cut(c.GetCommit().GetMessage(), "\n")
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(msg))
		}
	}

	if issues, err := f.gh.OpenIssues(ctx, owner, repo, itemsPerSource); err != nil {
		f.log.Warn("GitHub issues unavailable", "source_id", src.ID, "error", err)
	} else if len(issues) > 0 {
		b.WriteString("\nOpen issues:\n")
		for _, is := range issues {
			fmt.Fprintf(&b, "- #%d %s\n", is.GetNumber(), is.GetTitle())
		}
	}
	return strings.TrimSpace(b.String()), nil
}
