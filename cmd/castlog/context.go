package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services/x"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/kaigaicareerlog/castlog/internal/utils"
)

type commandContext struct {
	logLevelFlag *string
	dryRunFlag   *bool

	configOnce sync.Once
	config     *config.Config
	logger     *logrus.Logger
	runID      *utils.RunIDHook
	configErr  error
}

func newCommandContext(logLevelFlag *string, dryRunFlag *bool) *commandContext {
	return &commandContext{
		logLevelFlag: logLevelFlag,
		dryRunFlag:   dryRunFlag,
	}
}

// ensureConfig loads the configuration and sets up the logger once per process
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = fmt.Errorf("failed to load configuration: %w", err)
			return
		}

		level := cfg.LogLevel
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = *c.logLevelFlag
		}
		c.logger = utils.NewLogger(level)
		c.runID = utils.NewRunIDHook()
		c.logger.AddHook(c.runID)
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *logrus.Logger {
	if _, err := c.ensureConfig(); err != nil || c.logger == nil {
		return utils.NewLogger("info")
	}
	return c.logger
}

func (c *commandContext) dryRun() bool {
	return c.dryRunFlag != nil && *c.dryRunFlag
}

// runContext tags ctx with the id of this command run
func (c *commandContext) runContext(ctx context.Context) context.Context {
	if c.runID == nil {
		return ctx
	}
	return utils.WithRunID(ctx, c.runID.RunID)
}

// episodesPath resolves an optional file argument against the RSS directory
func (c *commandContext) episodesPath(args []string, index int) (string, error) {
	path := ""
	if index < len(args) {
		path = args[index]
	}
	return store.Resolve(path, c.config.RSSDir)
}

// openDB opens the post ledger, creating the data directory if needed
func (c *commandContext) openDB() (*models.Database, error) {
	if err := os.MkdirAll(c.config.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := models.NewDatabase(c.config.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// poster returns the X client. A dry run never posts, so it needs no
// credentials.
func (c *commandContext) poster() (x.Poster, error) {
	xcfg, err := c.config.RequireX()
	if err != nil {
		if c.dryRun() {
			return nil, nil
		}
		return nil, err
	}
	client, err := x.NewClient(xcfg, c.log())
	if err != nil {
		return nil, err
	}
	return client, nil
}
