package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/five82/bindery/internal/app"
	"github.com/five82/bindery/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration once, applying the flags the user
// set on cmd.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.LoadWithFlags(path, cmd.Flags())
	})
	return c.config, c.configErr
}

// withServices opens the wired services for the duration of fn.
func (c *commandContext) withServices(cmd *cobra.Command, fn func(*app.Services) error) error {
	cfg, err := c.ensureConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return fn(svc)
}

func (c *commandContext) runTUI(cmd *cobra.Command) error {
	return c.withServices(cmd, func(svc *app.Services) error {
		return svc.RunTUI(cmd.Context())
	})
}
