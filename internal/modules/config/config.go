package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"

	defaultConfigFile = "configs/values_local.yaml"
)

// Config ...
type Config struct {
	LogLevel string `yaml:"log_level"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Name       string `yaml:"name"`
		HealthAddr string `yaml:"health_addr"`
	} `yaml:"service"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	OKX struct {
		APIKey     string `yaml:"api_key"`
		APISecret  string `yaml:"api_secret"`
		Passphrase string `yaml:"passphrase"`
		BaseURL    string `yaml:"base_url"`
		WSURL      string `yaml:"ws_url"`
		// запросов в секунду к REST
		RateLimit float64 `yaml:"rate_limit"`
		// без реальных ордеров, только лог + уведомление
		DryRun bool   `yaml:"dry_run"`
		TdMode string `yaml:"td_mode"`
		// сигнал старше этого раннер не исполняет, 0 => без ограничения
		SignalMaxAge time.Duration `yaml:"signal_max_age"`
	} `yaml:"okx"`

	Strategy StrategyConfig `yaml:"strategy"`
	Sizing   SizingConfig   `yaml:"sizing"`
}

type StrategyConfig struct {
	Instruments []string `yaml:"instruments"`
	Timeframe   string   `yaml:"timeframe"`
	// сколько истории прогнать через движок до живой торговли
	WarmupBars int `yaml:"warmup_bars"`

	PatternLength   int `yaml:"pattern_length"`
	LeaderboardSize int `yaml:"leaderboard_size"`

	// виртуальные уровни - только для оценки паттернов
	VirtualStopPips   float64 `yaml:"virtual_stop_pips"`
	VirtualTargetPips float64 `yaml:"virtual_target_pips"`
	// реальные SL/TP, 0 => не ставим
	RealStopPips   float64 `yaml:"real_stop_pips"`
	RealTargetPips float64 `yaml:"real_target_pips"`

	WinReward   int `yaml:"win_reward"`
	LossPenalty int `yaml:"loss_penalty"`

	// дни недели без торговли: "friday", "sat", ...
	ExcludedDays []string `yaml:"excluded_days"`

	SnapshotEvery time.Duration `yaml:"snapshot_every"`
}

type SizingConfig struct {
	FixedLot float64 `yaml:"fixed_lot"`
	UseRisk  bool    `yaml:"use_risk"`
	RiskPct  float64 `yaml:"risk_pct"`
	// как часто обновлять equity с биржи
	EquityRefresh time.Duration `yaml:"equity_refresh"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	return Load(configFileName)
}

// Load читает yaml через viper (файл + ENV поверх), затем перекладывает
// AllSettings обратно в yaml и декодирует в типизированный Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	// AutomaticEnv отдаёт ENV только через Get - проходим по ключам явно
	settings := make(map[string]any, len(v.AllKeys()))
	for _, k := range v.AllKeys() {
		setNested(settings, strings.Split(k, "."), v.Get(k))
	}

	bs, err := yaml.Marshal(settings)
	if err != nil {
		return nil, errors.Wrap(err, "marshal settings to yaml")
	}

	config := defaults()
	if err := yaml.NewDecoder(bytes.NewReader(bs)).Decode(config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return config, nil
}

func defaults() *Config {
	c := &Config{LogLevel: getenvDefault("LOG_LEVEL", "info")}
	c.Service.Name = "pattern_bot"
	c.Service.HealthAddr = getenvDefault("HEALTH_ADDR", ":8080")
	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831

	c.OKX.BaseURL = "https://www.okx.com"
	c.OKX.WSURL = "wss://ws.okx.com:8443/ws/v5/business"
	c.OKX.RateLimit = floatFromEnv("OKX_RATE_LIMIT", 5)
	c.OKX.DryRun = boolFromEnv("DRY_RUN", true)
	c.OKX.TdMode = "cross"
	c.OKX.SignalMaxAge = durationFromEnv("SIGNAL_MAX_AGE", "1m")

	c.Strategy = StrategyConfig{
		Timeframe:         getenvDefault("TIMEFRAME", "1H"),
		WarmupBars:        intFromEnv("WARMUP_BARS", 300),
		PatternLength:     7,
		LeaderboardSize:   10,
		VirtualStopPips:   floatFromEnv("VIRTUAL_STOP_PIPS", 500),
		VirtualTargetPips: floatFromEnv("VIRTUAL_TARGET_PIPS", 500),
		RealStopPips:      floatFromEnv("REAL_STOP_PIPS", 500),
		RealTargetPips:    floatFromEnv("REAL_TARGET_PIPS", 500),
		WinReward:         1,
		LossPenalty:       3,
		ExcludedDays:      []string{"friday"},
		SnapshotEvery:     durationFromEnv("SNAPSHOT_EVERY", "5m"),
	}
	c.Sizing = SizingConfig{
		FixedLot:      floatFromEnv("FIXED_LOT", 1),
		UseRisk:       boolFromEnv("USE_RISK", false),
		RiskPct:       floatFromEnv("RISK_PCT", 1.0),
		EquityRefresh: durationFromEnv("EQUITY_REFRESH", "1m"),
	}
	return c
}

func (c *Config) Validate() error {
	if len(c.Strategy.Instruments) == 0 {
		return fmt.Errorf("strategy.instruments is empty")
	}
	if c.Strategy.PatternLength <= 0 {
		return fmt.Errorf("strategy.pattern_length must be > 0, got %d", c.Strategy.PatternLength)
	}
	if c.Strategy.LeaderboardSize <= 0 {
		return fmt.Errorf("strategy.leaderboard_size must be > 0, got %d", c.Strategy.LeaderboardSize)
	}
	if c.Strategy.VirtualStopPips < 0 || c.Strategy.VirtualTargetPips < 0 ||
		c.Strategy.RealStopPips < 0 || c.Strategy.RealTargetPips < 0 {
		return fmt.Errorf("pip distances must be >= 0")
	}
	if c.Sizing.FixedLot < 0 {
		return fmt.Errorf("sizing.fixed_lot must be >= 0")
	}
	if c.Sizing.UseRisk && c.Sizing.RiskPct <= 0 {
		return fmt.Errorf("sizing.risk_pct must be > 0 when use_risk is on")
	}
	if c.OKX.RateLimit <= 0 {
		return fmt.Errorf("okx.rate_limit must be > 0")
	}
	return nil
}

func setNested(m map[string]any, path []string, val any) {
	for i, p := range path {
		if i == len(path)-1 {
			m[p] = val
			return
		}
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
