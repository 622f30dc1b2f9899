package ioc

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/KNICEX/pinbar-monitor/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// InitConfig 读取 .env 与配置文件, 任何错误都返回 config.ErrInvalidConfig
func InitConfig() (config.Config, error) {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.yaml", "specify config file")
	envFile := pflag.String("env-file", ".env", "optional dotenv file")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("%w: load %s: %v", config.ErrInvalidConfig, *envFile, err)
	}

	viper.SetConfigFile(*file)
	if err := viper.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("%w: read %s: %v", config.ErrInvalidConfig, *file, err)
	}
	return config.Load(viper.GetViper())
}
