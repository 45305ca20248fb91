package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/config"
	"github.com/farmtrack/nightcheck/internal/repository/mongodb"
	"github.com/farmtrack/nightcheck/pkg/logger"
)

type commandContext struct {
	envFlag     *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(envFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{envFlag: envFlag, verboseFlag: verboseFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.envFlag != nil {
			path = strings.TrimSpace(*c.envFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.ApplyTimezone(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *zap.Logger {
	opts := logger.Options{Level: "warn", Format: "console"}
	if c.verboseFlag != nil && *c.verboseFlag {
		opts.Level = "debug"
	}
	l, err := logger.New(opts)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// withRepository connects to MongoDB for the duration of fn.
func (c *commandContext) withRepository(ctx context.Context, fn func(*mongodb.Repository, *zap.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	log := c.logger()
	defer func() { _ = log.Sync() }()

	connectCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	repo, err := mongodb.NewRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log.Named("repo.mongodb"))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			log.Warn("failed to close mongodb connection", zap.Error(err))
		}
	}()

	return fn(repo, log)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
