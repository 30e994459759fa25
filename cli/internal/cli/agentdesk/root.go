package agentdesk

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stoewer/go-strcase"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	sdk "github.com/agentdesk/agentdesk-go/pkg/agentdesk"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/transport"
)

// GlobalConfig holds the persistent flags shared by every subcommand
type GlobalConfig struct {
	ConfigFile string
	Verbosity  int

	viper *viper.Viper
	log   logr.Logger
}

// NewRootCmd creates the root agentdesk command
func NewRootCmd() *cobra.Command {
	cfg := &GlobalConfig{viper: sdk.NewViper(), log: logr.Discard()}

	cmd := &cobra.Command{
		Use:   "agentdesk",
		Short: "Manage and chat with agentdesk agents",
		Long: `agentdesk talks to an agentdesk server: manage agents, tools, skills,
sessions, tasks, curricula and modules, or open an interactive chat with an agent.

Configuration is read from --config, then AGENTDESK_* environment variables,
then flags, in increasing precedence.

Examples:
  agentdesk chat agent-123
  agentdesk agents list --max-results 20
  agentdesk tasks get task-42 -o yaml
  agentdesk config view`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigFile, "config", "", "Path to a YAML, JSON or TOML configuration file")
	flags.CountVarP(&cfg.Verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	flags.String("base-url", sdk.DefaultBaseURL, "Base URL of the agentdesk API")
	flags.String("api-key", "", "API key sent as bearer token")
	flags.String("token-path", "", "File holding the bearer token, re-read periodically")
	flags.Duration("timeout", transport.DefaultTimeout, "Per-request timeout")
	flags.Bool("debug", false, "Log every request and response")
	flags.Bool("auto-switch-task", true, "Run switchTask function calls without approval")
	flags.Bool("auto-switch-session", true, "Run switchSession function calls without approval")
	flags.Bool("auto-use-skill", true, "Run useSkill function calls without approval")

	cmd.AddCommand(NewChatCmd(cfg))
	cmd.AddCommand(NewConfigCmd(cfg))
	cmd.AddCommand(NewVersionCmd())
	for _, c := range newResourceCmds(cfg) {
		cmd.AddCommand(c)
	}

	return cmd
}

// setup binds flags to configuration keys and builds the logger
func (g *GlobalConfig) setup(cmd *cobra.Command) error {
	if err := bindFlags(g.viper, cmd.Flags()); err != nil {
		return err
	}
	if g.ConfigFile != "" {
		g.viper.SetConfigFile(g.ConfigFile)
		if err := g.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	verbosity := g.Verbosity
	// request logging happens at V(1)
	if g.viper.GetBool(sdk.KeyDebug) && verbosity < 1 {
		verbosity = 1
	}
	g.log = newLogger(cmd.ErrOrStderr(), verbosity)
	return nil
}

// Config returns the resolved SDK configuration
func (g *GlobalConfig) Config() (*sdk.Config, error) {
	return sdk.ConfigFromViper(g.viper)
}

// Client builds an SDK client from the resolved configuration. Callers must Close it.
func (g *GlobalConfig) Client(ctx context.Context) (*sdk.Client, error) {
	cfg, err := g.Config()
	if err != nil {
		return nil, err
	}
	return sdk.New(ctx, cfg, sdk.WithLogger(g.log))
}

// bindFlags maps every flag onto the configuration key of the same name in
// snake case, so --base-url and AGENTDESK_BASE_URL set the same value.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key := strcase.SnakeCase(f.Name)
		if !isConfigKey(key) {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

func isConfigKey(key string) bool {
	switch key {
	case sdk.KeyBaseURL, sdk.KeyAPIKey, sdk.KeyTokenPath, sdk.KeyTimeout, sdk.KeyDebug,
		sdk.KeyAutoSwitchTask, sdk.KeyAutoSwitchSession, sdk.KeyAutoUseSkill:
		return true
	}
	return false
}

// newLogger returns a console zap logger writing to w. Each verbosity step
// lowers the level by one, so 1 enables logr V(1) output.
func newLogger(w io.Writer, verbosity int) logr.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(zapcore.Level(-verbosity)),
	)
	return zapr.NewLogger(zap.New(core))
}

// Execute runs the root command. Cobra prints the error.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
