package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/newsboy-backend/internal/ingestion/fetch"
	"github.com/yungbote/newsboy-backend/internal/platform/github"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/realtime/bus"
	"github.com/yungbote/newsboy-backend/internal/summarize"
)

type Clients struct {
	GitHub     github.Client
	Summarizer summarize.Summarizer
	Fetcher    fetch.Fetcher
	Bus        bus.Bus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	gh, err := github.NewClient(log, cfg.GitHub)
	if err != nil {
		return Clients{}, fmt.Errorf("init github client: %w", err)
	}

	summarizer, err := summarize.New(log, cfg.AI)
	if err != nil {
		return Clients{}, fmt.Errorf("init summarizer: %w", err)
	}

	fetcher := fetch.New(log, cfg.Fetch, gh)

	// Redis
	var b bus.Bus
	if strings.TrimSpace(cfg.Events.Addr) != "" {
		rb, err := bus.NewRedisBus(log, cfg.Events)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		b = rb
	} else {
		log.Info("REDIS_ADDR not set, lifecycle events stay in-process")
		b = bus.NewMemoryBus()
	}

	return Clients{
		GitHub:     gh,
		Summarizer: summarizer,
		Fetcher:    fetcher,
		Bus:        b,
	}, nil
}

func (c Clients) Close() error {
	if c.Bus != nil {
		return c.Bus.Close()
	}
	return nil
}
