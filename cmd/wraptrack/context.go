package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"wraptrack/internal/config"
	"wraptrack/internal/job"
	"wraptrack/internal/logging"
	"wraptrack/internal/notify"
	"wraptrack/internal/store"
	"wraptrack/internal/transition"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = c.loadConfig()
	})
	return c.config, c.configErr
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = slog.Default()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = slog.Default()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job database: %w", err)
	}
	defer st.Close()
	return fn(st)
}

func (c *commandContext) newEngine(st *store.Store) *transition.Engine {
	cfg, _ := c.ensureConfig()
	return transition.NewEngine(st, notify.NewService(cfg), c.ensureLogger())
}

// mustGetJob loads a job by full id or unique id prefix.
func mustGetJob(ctx context.Context, st *store.Store, id string) (*job.Job, error) {
	j, err := st.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if j != nil {
		return j, nil
	}

	jobs, err := st.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	var match *job.Job
	for _, candidate := range jobs {
		if !strings.HasPrefix(candidate.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("job id prefix %s is ambiguous", id)
		}
		match = candidate
	}
	if match == nil {
		return nil, fmt.Errorf("no job with id %s", id)
	}
	// Re-read through GetJob so the send-back history is attached.
	return mustGetJob(ctx, st, match.ID)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
