//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-processor/cmd"
	"media-processor/domain/settings"
	"media-processor/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	output     bytes.Buffer
	err        error
}

// SharedConfigContext is reset before each scenario
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		*testCtx = configContext{tempDir: tempDir}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a config file "([^"]*)" containing:$`, testCtx.aConfigFileContaining)
	ctx.Step(`^no config file "([^"]*)" exists$`, testCtx.noConfigFileExists)
	ctx.Step(`^I load the configuration$`, testCtx.iLoadTheConfiguration)
	ctx.Step(`^I set config key "([^"]*)" to "([^"]*)"$`, testCtx.iSetConfigKeyTo)
	ctx.Step(`^I validate the configuration$`, testCtx.iValidateTheConfiguration)
	ctx.Step(`^the config value "([^"]*)" should be "([^"]*)"$`, testCtx.theConfigValueShouldBe)
	ctx.Step(`^the config command should succeed$`, testCtx.theConfigCommandShouldSucceed)
	ctx.Step(`^the config command should fail with an invalid configuration error$`, testCtx.theConfigCommandShouldFailWithAnInvalidConfigurationError)
	ctx.Step(`^the config command should fail with an unknown key error$`, testCtx.theConfigCommandShouldFailWithAnUnknownKeyError)
	ctx.Step(`^the config command output should contain "([^"]*)"$`, testCtx.theConfigCommandOutputShouldContain)
	ctx.Step(`^reloading the configuration should give "([^"]*)" = "([^"]*)"$`, testCtx.reloadingTheConfigurationShouldGive)
}

func (c *configContext) aConfigFileContaining(name string, doc *godog.DocString) error {
	c.configPath = filepath.Join(c.tempDir, name)
	return os.WriteFile(c.configPath, []byte(doc.Content), 0o644)
}

func (c *configContext) noConfigFileExists(name string) error {
	c.configPath = filepath.Join(c.tempDir, name)
	return nil
}

func (c *configContext) iLoadTheConfiguration() error {
	c.cfg, c.err = config.Load(c.configPath)
	return nil
}

func (c *configContext) loaded() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *configContext) iSetConfigKeyTo(key, value string) error {
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigSetWithDependencies(cfg, c.configPath, key, value, &c.output)
	return nil
}

func (c *configContext) iValidateTheConfiguration() error {
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigValidateWithDependencies(cfg, os.DevNull, &c.output)
	return nil
}

func (c *configContext) theConfigValueShouldBe(key, want string) error {
	if c.err != nil {
		return fmt.Errorf("configuration failed: %w", c.err)
	}
	got, err := config.NewConfigManager(c.cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s to be %q, got %q", key, want, got)
	}
	return nil
}

func (c *configContext) theConfigCommandShouldSucceed() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got: %w", c.err)
	}
	return nil
}

func (c *configContext) theConfigCommandShouldFailWithAnInvalidConfigurationError() error {
	if !errors.Is(c.err, settings.ErrInvalidConfiguration) {
		return fmt.Errorf("expected invalid configuration error, got: %v", c.err)
	}
	return nil
}

func (c *configContext) theConfigCommandShouldFailWithAnUnknownKeyError() error {
	if !errors.Is(c.err, config.ErrUnknownKey) {
		return fmt.Errorf("expected unknown key error, got: %v", c.err)
	}
	return nil
}

func (c *configContext) theConfigCommandOutputShouldContain(text string) error {
	if !strings.Contains(c.output.String(), text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, c.output.String())
	}
	return nil
}

func (c *configContext) reloadingTheConfigurationShouldGive(key, want string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	got, err := config.NewConfigManager(cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected reloaded %s to be %q, got %q", key, want, got)
	}
	return nil
}
