package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// MarketConfig 市场交易相关参数
type MarketConfig struct {
	FeeRateBP                int   `mapstructure:"fee_rate_bp"` // 手续费率，万分比
	MinFee                   int64 `mapstructure:"min_fee"`
	MaxFee                   int64 `mapstructure:"max_fee"`
	MaxUnitPrice             int64 `mapstructure:"max_unit_price"`
	MaxDescriptionLen        int   `mapstructure:"max_description_len"`
	ListingRateLimit         int   `mapstructure:"listing_rate_limit"`
	ListingRateWindowMinutes int   `mapstructure:"listing_rate_window_minutes"`
	ListingExpireDays        int   `mapstructure:"listing_expire_days"`
}

// SignInConfig 每日签到奖励参数
type SignInConfig struct {
	BaseBonus  int64 `mapstructure:"base_bonus"`
	StreakStep int64 `mapstructure:"streak_step"`
	MaxBonus   int64 `mapstructure:"max_bonus"`
}

type AppSubConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Market   MarketConfig   `mapstructure:"market"`
	SignIn   SignInConfig   `mapstructure:"signin"`
	App      AppSubConfig   `mapstructure:"app"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. GCM_SERVER_PORT=9000
		v.SetEnvPrefix("GCM") // gamecore market
		v.AutomaticEnv()

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
