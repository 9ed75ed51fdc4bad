package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

const (
	DefaultTimeout = 30 * time.Second
	// ProactiveRate keeps unauthenticated callers under the hourly quota.
	ProactiveRate = 1.2
)

type Config struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// Client is the subset of the GitHub REST API the backend reads.
type Client interface {
	Repository(ctx context.Context, owner, repo string) (*gh.Repository, error)
	RecentCommits(ctx context.Context, owner, repo string, n int) ([]*gh.RepositoryCommit, error)
	OpenIssues(ctx context.Context, owner, repo string, n int) ([]*gh.Issue, error)
	Contributors(ctx context.Context, owner, repo string, n int) ([]*gh.Contributor, error)
	Authenticated() bool
}

type client struct {
	log    *logger.Logger
	gh     *gh.Client
	bucket *rate.Limiter
	authed bool
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	var httpClient *http.Client
	token := strings.TrimSpace(cfg.Token)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = DefaultTimeout

	c := gh.NewClient(httpClient)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		c.BaseURL = u
	}

	return &client{
		log:    log.With("client", "GitHubClient"),
		gh:     c,
		bucket: rate.NewLimiter(rate.Limit(ProactiveRate), 1),
		authed: token != "",
	}, nil
}

func (c *client) Authenticated() bool { return c.authed }

func (c *client) wait(ctx context.Context) error {
	if err := c.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

func (c *client) Repository(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("get repo %s/%s: %w", owner, repo, err)
	}
	return r, nil
}

func (c *client) RecentCommits(ctx context.Context, owner, repo string, n int) ([]*gh.RepositoryCommit, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	commits, _, err := c.gh.Repositories.ListCommits(ctx, owner, repo, &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: n},
	})
	if err != nil {
		return nil, fmt.Errorf("list commits %s/%s: %w", owner, repo, err)
	}
	return commits, nil
}

func (c *client) OpenIssues(ctx context.Context, owner, repo string, n int) ([]*gh.Issue, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	issues, _, err := c.gh.Issues.ListByRepo(ctx, owner, repo, &gh.IssueListByRepoOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: n},
	})
	if err != nil {
		return nil, fmt.Errorf("list issues %s/%s: %w", owner, repo, err)
	}
	return issues, nil
}

func (c *client) Contributors(ctx context.Context, owner, repo string, n int) ([]*gh.Contributor, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	contributors, _, err := c.gh.Repositories.ListContributors(ctx, owner, repo, &gh.ListContributorsOptions{
		ListOptions: gh.ListOptions{PerPage: n},
	})
	if err != nil {
		return nil, fmt.Errorf("list contributors %s/%s: %w", owner, repo, err)
	}
	return contributors, nil
}

// ParseRepoURL extracts owner and repo from a github.com URL.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse github url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("github url %q has no owner/repo", raw)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
