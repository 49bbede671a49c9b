package main

import (
	"strings"
	"sync"

	"github.com/skyhawk180/tcllauncher/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
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
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// resolvedConfigFile returns the path of the loaded config file, or "" when
// no file existed and defaults are in effect.
func (c *commandContext) resolvedConfigFile() string {
	if _, err := c.ensureConfig(); err != nil {
		return ""
	}
	if !c.configExists {
		return ""
	}
	return c.configPath
}
