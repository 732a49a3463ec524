package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort        string `mapstructure:"SERVER_PORT"`
	MongoUri          string `mapstructure:"MONGO_URI"`
	RedisUrl          string `mapstructure:"REDIS_URL"`
	IsLocalCors       bool   `mapstructure:"LOCAL_CORS"`
	ReplayTTLSeconds  int    `mapstructure:"REPLAY_TTL_SECONDS"`
	ReaperSeconds     int    `mapstructure:"REAPER_INTERVAL_SECONDS"`
	DepartTimeoutSecs int    `mapstructure:"DEPART_TIMEOUT_SECONDS"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
