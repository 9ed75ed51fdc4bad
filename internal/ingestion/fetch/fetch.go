package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/platform/github"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

const (
	ModePlaceholder = "placeholder"
	ModeLive        = "live"

	// PlaceholderContent stands in for real source content until live
	// fetching is enabled.
	PlaceholderContent = "这是从信息源获取的示例内容，实际应用中应从源获取真实内容。"

	DefaultConcurrency = 4
	DefaultTimeout     = 15 * time.Second
	itemsPerSource     = 10
)

var ErrNothingFetched = errors.New("no content could be fetched from any source")

// Fetcher returns the raw text to summarize for a set of sources.
type Fetcher interface {
	Fetch(ctx context.Context, srcs []*types.Source) (string, error)
}

type Config struct {
	Mode        string        `yaml:"mode"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

type placeholderFetcher struct{}

func NewPlaceholderFetcher() Fetcher { return placeholderFetcher{} }

func (placeholderFetcher) Fetch(ctx context.Context, srcs []*types.Source) (string, error) {
	return PlaceholderContent, nil
}

// LiveFetcher pulls feeds, articles and GitHub activity in parallel.
type LiveFetcher struct {
	log         *logger.Logger
	http        *http.Client
	gh          github.Client
	concurrency int
}

func NewLiveFetcher(log *logger.Logger, cfg Config, gh github.Client) *LiveFetcher {
	conc := cfg.Concurrency
	if conc < 1 {
		conc = DefaultConcurrency
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LiveFetcher{
		log:         log.With("component", "LiveFetcher"),
		http:        &http.Client{Timeout: timeout},
		gh:          gh,
		concurrency: conc,
	}
}

// New picks the fetcher for cfg.Mode; anything but "live" is the placeholder.
func New(log *logger.Logger, cfg Config, gh github.Client) Fetcher {
	if strings.EqualFold(strings.TrimSpace(cfg.Mode), ModeLive) {
		return NewLiveFetcher(log, cfg, gh)
	}
	return NewPlaceholderFetcher()
}

// Fetch joins per-source sections in input order. A failing source is logged
// and skipped; only a total failure is an error.
func (f *LiveFetcher) Fetch(ctx context.Context, srcs []*types.Source) (string, error) {
	if len(srcs) == 0 {
		return "", ErrNothingFetched
	}
	sections := make([]string, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, src := range srcs {
		g.Go(func() error {
			body, err := f.fetchOne(gctx, src)
			if err != nil {
				f.log.Warn("Source fetch failed",
					"source_id", src.ID,
					"source_type", src.Type,
					"error", err,
				)
				return nil
			}
			if strings.TrimSpace(body) == "" {
				return nil
			}
			sections[i] = fmt.Sprintf("### %s (%s)\n%s\n\n%s", src.Name, src.Type, src.URL, body)
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return "", ErrNothingFetched
	}
	return strings.Join(out, "\n\n"), nil
}

func (f *LiveFetcher) fetchOne(ctx context.Context, src *types.Source) (string, error) {
	switch src.Type {
	case types.SourceTypeGithub:
		return f.fetchGithub(ctx, src)
	case types.SourceTypeBlog:
		text, err := f.fetchFeed(ctx, src.URL)
		if err == nil {
			return text, nil
		}
		f.log.Debug("Blog is not a feed, extracting article", "source_id", src.ID, "error", err)
		return f.fetchArticle(ctx, src.URL)
	default:
		return f.fetchFeed(ctx, src.URL)
	}
}
