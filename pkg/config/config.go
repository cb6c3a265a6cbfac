package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"pitwallrelay/pkg/opponents"
	"pitwallrelay/pkg/relay"
	"pitwallrelay/pkg/spotter"
	"pitwallrelay/pkg/strategy"
)

// Config is the fully resolved process configuration. Components receive
// their own slice of it at construction and never read viper directly.
type Config struct {
	LogLevel    string
	SessionID   string
	PollHz      int
	DBPath      string
	StatusEvery int

	Telegram TelegramConfig

	Relay     relay.Config
	Opponents opponents.Config
	Spotter   spotter.Config
	Strategy  strategy.Config
}

type TelegramConfig struct {
	Token string
}

// PollInterval converts the poll rate into a tick period.
func (c Config) PollInterval() time.Duration {
	return time.Second / time.Duration(c.PollHz)
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("sessionId", "local-session")
	viper.SetDefault("pollHz", 10)
	viper.SetDefault("db.path", "./pitwallrelay.db")
	viper.SetDefault("statusEvery", 600)

	viper.SetDefault("telegram.token", "")

	viper.SetDefault("relay.url", "")
	viper.SetDefault("relay.dialTimeout", "12s")
	viper.SetDefault("relay.maxAttempts", 10)
	viper.SetDefault("relay.initialBackoff", "1s")
	viper.SetDefault("relay.maxBackoff", "30s")

	viper.SetDefault("opponents.proximityWindow", 0.05)
	viper.SetDefault("opponents.aggressionThreshold", 7.0)
	viper.SetDefault("opponents.mistakeThreshold", 3)
	viper.SetDefault("opponents.mistakeDebounce", "5s")
	viper.SetDefault("opponents.warnCooldown", "60s")
	viper.SetDefault("opponents.analysisInterval", "1s")
	viper.SetDefault("opponents.aggressionIncrement", 1.0)
	viper.SetDefault("opponents.aggressionDecay", 0.1)

	viper.SetDefault("spotter.aheadWindow", 0.05)

	viper.SetDefault("strategy.fuelPerLap", 2.5)
	viper.SetDefault("strategy.pitLossSec", 25.0)
	viper.SetDefault("strategy.tireStalenessLaps", 15)
	viper.SetDefault("strategy.tireWearLimitLaps", 30)
}

// Load resolves configuration from defaults, an optional JSON config file in
// configDir, and PITWALL_* environment variables, in increasing precedence.
func Load(configDir string) (Config, error) {
	setDefaults()

	viper.SetConfigName("pitwallrelay.cfg.json")
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "reading config file")
		}
	}

	viper.SetEnvPrefix("PITWALL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	cfg := Config{
		LogLevel:    viper.GetString("logLevel"),
		SessionID:   viper.GetString("sessionId"),
		PollHz:      viper.GetInt("pollHz"),
		DBPath:      viper.GetString("db.path"),
		StatusEvery: viper.GetInt("statusEvery"),
		Telegram: TelegramConfig{
			Token: viper.GetString("telegram.token"),
		},
		Relay: relay.Config{
			URL:            viper.GetString("relay.url"),
			DialTimeout:    viper.GetDuration("relay.dialTimeout"),
			MaxAttempts:    viper.GetInt("relay.maxAttempts"),
			InitialBackoff: viper.GetDuration("relay.initialBackoff"),
			MaxBackoff:     viper.GetDuration("relay.maxBackoff"),
		},
		Opponents: opponents.Config{
			ProximityWindow:     viper.GetFloat64("opponents.proximityWindow"),
			AggressionThreshold: viper.GetFloat64("opponents.aggressionThreshold"),
			MistakeThreshold:    viper.GetInt("opponents.mistakeThreshold"),
			MistakeDebounce:     viper.GetDuration("opponents.mistakeDebounce"),
			WarnCooldown:        viper.GetDuration("opponents.warnCooldown"),
			AnalysisInterval:    viper.GetDuration("opponents.analysisInterval"),
			AggressionIncrement: viper.GetFloat64("opponents.aggressionIncrement"),
			AggressionDecay:     viper.GetFloat64("opponents.aggressionDecay"),
		},
		Spotter: spotter.Config{
			AheadWindow: viper.GetFloat64("spotter.aheadWindow"),
		},
		Strategy: strategy.Config{
			FuelPerLap:        viper.GetFloat64("strategy.fuelPerLap"),
			PitLossSec:        viper.GetFloat64("strategy.pitLossSec"),
			TireStalenessLaps: viper.GetInt("strategy.tireStalenessLaps"),
			TireWearLimitLaps: viper.GetInt("strategy.tireWearLimitLaps"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PollHz < 1 || c.PollHz > 100 {
		return errors.Errorf("pollHz %d outside supported range 1-100", c.PollHz)
	}
	if c.Relay.MaxAttempts < 1 {
		return errors.Errorf("relay.maxAttempts must be positive, got %d", c.Relay.MaxAttempts)
	}
	if c.Relay.InitialBackoff <= 0 || c.Relay.MaxBackoff < c.Relay.InitialBackoff {
		return errors.New("relay backoff window is inverted")
	}
	return nil
}
