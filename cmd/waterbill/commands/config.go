package commands

import (
	"errors"
	"fmt"
	"os"
	"time"
	"waterbill-backend/lib/browser"
	"waterbill-backend/lib/configutil"
	configlibsql "waterbill-backend/lib/configutil/libsql"
	"waterbill-backend/lib/scrapers/bsaonline"

	"dario.cat/mergo"
)

const defaultDatabaseFile = "waterbill.db"

type BrowserConfig struct {
	Driver    string `json:"driver"`
	Headless  *bool  `json:"headless"`
	UserAgent string `json:"user_agent"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	// durations are go durations ("30s") or a number of seconds.
	IdleTimeout string `json:"idle_timeout"`
	SettleDelay string `json:"settle_delay"`
}

type Config struct {
	Portal   bsaonline.Config    `json:"portal"`
	Browser  BrowserConfig       `json:"browser"`
	Cooldown string              `json:"cooldown"`
	Database configlibsql.Struct `json:"database"`
}

// Settings is Config resolved into the values the packages take.
type Settings struct {
	Portal   bsaonline.Config
	Browser  browser.Options
	Cooldown time.Duration
	Database configlibsql.Struct
}

func defaultConfig() Config {
	options := browser.DefaultOptions()
	return Config{
		Portal: bsaonline.DefaultConfig(),
		Browser: BrowserConfig{
			Driver:      string(options.Driver),
			UserAgent:   options.UserAgent,
			Width:       options.Viewport.Width,
			Height:      options.Viewport.Height,
			IdleTimeout: options.IdleTimeout.String(),
			SettleDelay: options.SettleDelay.String(),
		},
		Cooldown: bsaonline.DefaultCooldown.String(),
		Database: configlibsql.Struct{File: defaultDatabaseFile},
	}
}

// LoadSettings reads the json5 config at path (and its .local override) when
// present, fills what it leaves out with defaults and finally applies
// environment overrides (a .env file in the working directory included).
func LoadSettings(path string) (Settings, error) {
	err := configutil.LoadDotenv(".env")
	if err != nil {
		return Settings{}, err
	}

	config, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("read %s: %w", path, err)
	}
	err = mergo.Merge(&config, defaultConfig())
	if err != nil {
		return Settings{}, err
	}

	configutil.EnvString("BSA_MUNICIPALITY_UID", &config.Portal.Municipality.UID)
	configutil.EnvString("BSA_CITY", &config.Portal.Municipality.City)
	configutil.EnvString("BSA_BASE_URL", &config.Portal.BaseUrl)
	configutil.EnvString("BROWSER_DRIVER", &config.Browser.Driver)
	configutil.EnvString("DATABASE_FILE", &config.Database.File)
	configutil.EnvString("DATABASE_URL", &config.Database.Url)
	configutil.EnvString("DATABASE_AUTH_TOKEN", &config.Database.AuthToken)

	// headless is not merged, mergo treats false as unset.
	headless := browser.DefaultOptions().Headless
	if config.Browser.Headless != nil {
		headless = *config.Browser.Headless
	}
	err = configutil.EnvBool("HEADLESS_BROWSER", &headless)
	if err != nil {
		return Settings{}, err
	}
	config.Browser.Headless = &headless

	settings, err := config.resolve()
	if err != nil {
		return Settings{}, err
	}
	err = configutil.EnvDuration("SCRAPE_DELAY", &settings.Cooldown)
	if err != nil {
		return Settings{}, err
	}
	err = configutil.EnvDuration("NETWORK_IDLE_TIMEOUT", &settings.Browser.IdleTimeout)
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (c Config) resolve() (Settings, error) {
	durations := []struct {
		name  string
		value string
		out   *time.Duration
	}{
		{"cooldown", c.Cooldown, new(time.Duration)},
		{"idle_timeout", c.Browser.IdleTimeout, new(time.Duration)},
		{"settle_delay", c.Browser.SettleDelay, new(time.Duration)},
	}
	for _, d := range durations {
		parsed, err := configutil.ParseDuration(d.value)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.out = parsed
	}

	driver := browser.Driver(c.Browser.Driver)
	if driver != browser.DriverHTTP && driver != browser.DriverChrome {
		return Settings{}, fmt.Errorf("unknown browser driver %q", c.Browser.Driver)
	}

	return Settings{
		Portal: c.Portal,
		Browser: browser.Options{
			Driver:    driver,
			Headless:  *c.Browser.Headless,
			UserAgent: c.Browser.UserAgent,
			Viewport: browser.Viewport{
				Width:  c.Browser.Width,
				Height: c.Browser.Height,
			},
			IdleTimeout: *durations[1].out,
			SettleDelay: *durations[2].out,
		},
		Cooldown: *durations[0].out,
		Database: c.Database,
	}, nil
}
