package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// PatternRule maps a case-insensitive substring of an adapter description to
// an interface configuration file. Rules are checked in order; the first
// match wins, so more specific substrings must come before generic ones.
type PatternRule struct {
	Pattern string `mapstructure:"pattern"`
	Config  string `mapstructure:"config"`
}

// Config represents the ocdrun configuration. Every policy knob the tool
// would otherwise bake in for a particular lab setup (speed cap, vendor
// patterns, allow-list) can be overridden from ~/.ocdrun/config.yaml.
type Config struct {
	OpenOCD      string        `mapstructure:"openocd"`
	ScriptsDir   string        `mapstructure:"scripts_dir"`
	TargetConfig string        `mapstructure:"target_config"`
	DefaultSpeed int           `mapstructure:"default_speed"`
	WaitTimeout  int           `mapstructure:"wait_timeout"`
	GracePeriod  int           `mapstructure:"grace_period"`
	StandDB      string        `mapstructure:"stand_db"`
	Telnet       string        `mapstructure:"telnet"`
	Patterns     []PatternRule `mapstructure:"patterns"`
	AllowList    []string      `mapstructure:"allow_list"`
	Helpers      []string      `mapstructure:"helper_scripts"`
	CloakConfig  string        `mapstructure:"cloak_config"`
	SimArgs      []string      `mapstructure:"sim_args"`
}

// DebugAdapterEnv, when set to a non-empty value in the environment, adds a
// bare FTDI development-board pattern to the auto-config allow-list so
// breakout boards can be used during bring-up.
const DebugAdapterEnv = "OCDRUN_DEBUG_ADAPTERS"

// configFile, when non-empty, pins Load to an explicit file instead of the
// default search path. Set from the root command's --config flag.
var configFile string

// SetFile pins the configuration to an explicit file. An empty path restores
// the default ~/.ocdrun/config.yaml search.
func SetFile(path string) {
	configFile = path
}

// Load loads the configuration from ~/.ocdrun/config.yaml or returns defaults
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		configDir := filepath.Join(home, ".ocdrun")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir)
	}

	setDefaults(home)

	// A missing default config file is fine, defaults apply; a missing
	// explicit file surfaces as a read error
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if expanded, err := homedir.Expand(cfg.ScriptsDir); err == nil {
		cfg.ScriptsDir = expanded
	}
	if expanded, err := homedir.Expand(cfg.StandDB); err == nil {
		cfg.StandDB = expanded
	}

	return &cfg, nil
}

// EffectiveAllowList returns the auto-config adapter allow-list, including
// the debug-only FTDI entry when the environment toggle is set.
func (c *Config) EffectiveAllowList() []string {
	list := append([]string{}, c.AllowList...)
	if os.Getenv(DebugAdapterEnv) != "" {
		list = append(list, "Single RS232-HS")
	}
	return list
}

func setDefaults(home string) {
	viper.SetDefault("openocd", "openocd")
	viper.SetDefault("scripts_dir", "/usr/share/openocd/scripts")
	viper.SetDefault("target_config", "target/riscv.cfg")
	viper.SetDefault("default_speed", 500)
	viper.SetDefault("wait_timeout", 10)
	viper.SetDefault("grace_period", 5)
	viper.SetDefault("stand_db", filepath.Join(home, ".ocdrun", "stands.db"))
	viper.SetDefault("telnet", "telnet")
	viper.SetDefault("cloak_config", "cloak.tcl")
	viper.SetDefault("helper_scripts", []string{"debug_util.tcl"})
	viper.SetDefault("sim_args", []string{"--isa", "rv64imafdc"})

	// Ordering matters: TINY-H must be matched before the generic Olimex
	// rule or every Olimex probe would resolve to the OCD-H config.
	viper.SetDefault("patterns", []map[string]string{
		{"pattern": "arm-usb-tiny-h", "config": "ftdi/olimex-arm-usb-tiny-h.cfg"},
		{"pattern": "arm-usb-ocd-h", "config": "ftdi/olimex-arm-usb-ocd-h.cfg"},
		{"pattern": "olimex", "config": "ftdi/olimex-arm-usb-ocd-h.cfg"},
		{"pattern": "digilent", "config": "ftdi/digilent-hs2.cfg"},
		{"pattern": "j-link", "config": "jlink.cfg"},
	})

	viper.SetDefault("allow_list", []string{
		"ARM-USB-TINY-H",
		"ARM-USB-OCD-H",
		"Digilent",
		"J-Link",
	})
}

// ConfigDir returns the ocdrun configuration directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ocdrun"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(configDir, 0755)
}
