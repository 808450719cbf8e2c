package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"labelq/internal/assign"
	"labelq/internal/config"
	"labelq/internal/fastqueue"
	"labelq/internal/fill"
	"labelq/internal/logging"
	"labelq/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime holds the stores and services a command works with.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	fast   fastqueue.Queue
	filler *fill.Filler
	coord  *assign.Coordinator
}

func (r *runtime) Close() error {
	var errs []error
	if r.fast != nil {
		errs = append(errs, r.fast.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}

type runtimeOptions struct {
	// skipRebuild leaves a memory fast queue empty on open.
	skipRebuild bool
}

// openRuntime opens the database and fast queue. A memory fast queue starts
// empty in every process, so it is rebuilt from durable membership unless the
// caller asks otherwise.
func (c *commandContext) openRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	fast, err := fastqueue.Open(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open fast queue: %w", err)
	}

	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		store:  st,
		fast:   fast,
		filler: fill.NewFromConfig(cfg, st, fast, logger),
		coord:  assign.New(st, fast, logger),
	}
	if cfg.FastQueue.Backend == config.BackendMemory && !opts.skipRebuild {
		if _, err := rt.filler.Rebuild(ctx); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("rebuild memory fast queue: %w", err)
		}
	}
	return rt, nil
}

func (c *commandContext) withRuntime(cmd *cobra.Command, fn func(context.Context, *runtime) error) error {
	return c.withRuntimeOptions(cmd, runtimeOptions{}, fn)
}

func (c *commandContext) withRuntimeOptions(cmd *cobra.Command, opts runtimeOptions, fn func(context.Context, *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := c.openRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
