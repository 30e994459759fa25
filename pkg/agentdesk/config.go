package agentdesk

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/coordinator"
	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/transport"
)

const (
	DefaultBaseURL = "https://api.agentdesk.dev/v1"

	// EnvPrefix is prepended to every configuration key when read from the environment
	EnvPrefix = "AGENTDESK"
)

// Configuration keys, shared by files, environment variables and CLI flags
const (
	KeyBaseURL           = "base_url"
	KeyAPIKey            = "api_key"
	KeyTokenPath         = "token_path"
	KeyTimeout           = "timeout"
	KeyDebug             = "debug"
	KeyAutoSwitchTask    = "auto_switch_task"
	KeyAutoSwitchSession = "auto_switch_session"
	KeyAutoUseSkill      = "auto_use_skill"
)

// Config represents the SDK configuration
type Config struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey    string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	TokenPath string        `mapstructure:"token_path" yaml:"token_path,omitempty"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Debug     bool          `mapstructure:"debug" yaml:"debug"`

	AutoSwitchTask    bool `mapstructure:"auto_switch_task" yaml:"auto_switch_task"`
	AutoSwitchSession bool `mapstructure:"auto_switch_session" yaml:"auto_switch_session"`
	AutoUseSkill      bool `mapstructure:"auto_use_skill" yaml:"auto_use_skill"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	auto := coordinator.DefaultAutoExecution()
	return &Config{
		BaseURL:           DefaultBaseURL,
		Timeout:           transport.DefaultTimeout,
		AutoSwitchTask:    auto.SwitchTask,
		AutoSwitchSession: auto.SwitchSession,
		AutoUseSkill:      auto.UseSkill,
	}
}

// AutoExecution returns the coordinator auto-execution flags
func (c *Config) AutoExecution() coordinator.AutoExecution {
	return coordinator.AutoExecution{
		SwitchTask:    c.AutoSwitchTask,
		SwitchSession: c.AutoSwitchSession,
		UseSkill:      c.AutoUseSkill,
	}
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.BaseURL == "" {
		result = multierror.Append(result, fmt.Errorf("%s is required", KeyBaseURL))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("%s %q is not an absolute URL", KeyBaseURL, c.BaseURL))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("%s must be positive, got %s", KeyTimeout, c.Timeout))
	}
	if c.APIKey != "" && c.TokenPath != "" {
		result = multierror.Append(result, fmt.Errorf("%s and %s are mutually exclusive", KeyAPIKey, KeyTokenPath))
	}

	if err := result.ErrorOrNil(); err != nil {
		return apperrors.New(apperrors.ErrCodeConfig, "invalid configuration", err)
	}
	return nil
}

// NewViper returns a viper instance with the defaults registered and
// AGENTDESK_* environment variables bound.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault(KeyBaseURL, d.BaseURL)
	v.SetDefault(KeyAPIKey, d.APIKey)
	v.SetDefault(KeyTokenPath, d.TokenPath)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyDebug, d.Debug)
	v.SetDefault(KeyAutoSwitchTask, d.AutoSwitchTask)
	v.SetDefault(KeyAutoSwitchSession, d.AutoSwitchSession)
	v.SetDefault(KeyAutoUseSkill, d.AutoUseSkill)
	return v
}

// ConfigFromViper decodes and validates the configuration held by v
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeConfig, "failed to decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig layers the defaults, the optional config file at path (YAML,
// JSON or TOML) and the environment, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConfig, fmt.Sprintf("failed to read config file %s", path), err)
		}
	}
	return ConfigFromViper(v)
}
