package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/KNICEX/pinbar-monitor/internal/schedule"
	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

const EnvPrefix = "PINBAR"

type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Cex          CexConfig          `mapstructure:"cex"`
	Monitor      MonitorConfig      `mapstructure:"monitor"`
	Notification NotificationConfig `mapstructure:"notification"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" default:"text" validate:"oneof=text json"`
}

type CexConfig struct {
	Binance BinanceConfig `mapstructure:"binance"`
}

// BinanceConfig 行情接口只需要公开数据, key 可以为空
type BinanceConfig struct {
	ApiKey    string        `mapstructure:"api_key"`
	ApiSecret string        `mapstructure:"api_secret"`
	BaseURL   string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout   time.Duration `mapstructure:"timeout" default:"10s" validate:"gt=0s"`
}

type MonitorConfig struct {
	Symbols              []string      `mapstructure:"symbols" validate:"required,min=1,dive,tradingpair"`
	Timeframes           []string      `mapstructure:"timeframes" validate:"required,min=1,dive,interval"`
	CronExpression       string        `mapstructure:"cron_expression" validate:"omitempty,cronexpr"`
	CheckIntervalMinutes int           `mapstructure:"check_interval_minutes" default:"60" validate:"gte=1"`
	KlineLimit           int           `mapstructure:"kline_limit" default:"50" validate:"gte=41,lte=1000"`
	FetchTimeout         time.Duration `mapstructure:"fetch_timeout" default:"15s" validate:"gt=0s"`
	RetryBackoff         time.Duration `mapstructure:"retry_backoff" default:"60s" validate:"gt=0s"`
	Timezone             string        `mapstructure:"timezone" default:"Local" validate:"location"`
}

type NotificationConfig struct {
	SendTimeout time.Duration `mapstructure:"send_timeout" default:"30s" validate:"gt=0s"`
	Email       EmailConfig   `mapstructure:"email"`
	Webhook     WebhookConfig `mapstructure:"webhook"`
}

type EmailConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	SMTPServer    string `mapstructure:"smtp_server"`
	SMTPPort      int    `mapstructure:"smtp_port" default:"587" validate:"gte=1,lte=65535"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	SenderEmail   string `mapstructure:"sender_email" validate:"omitempty,email"`
	ReceiverEmail string `mapstructure:"receiver_email" validate:"omitempty,email"`
	UseTLS        bool   `mapstructure:"use_tls" default:"true"`
}

type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" validate:"omitempty,url"`
}

type MetricsConfig struct {
	// 为空时不启动 metrics http server
	Addr string `mapstructure:"addr"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 注册失败只可能是 tag 名非法, 属于编码错误
	lo.Must0(v.RegisterValidation("tradingpair", func(fl validator.FieldLevel) bool {
		_, err := exchange.ParseTradingPair(fl.Field().String())
		return err == nil
	}))
	lo.Must0(v.RegisterValidation("interval", func(fl validator.FieldLevel) bool {
		return exchange.Interval(fl.Field().String()).Valid()
	}))
	lo.Must0(v.RegisterValidation("cronexpr", func(fl validator.FieldLevel) bool {
		return schedule.Spec{Cron: fl.Field().String()}.Validate() == nil
	}))
	// 内置 timezone 不接受 Local
	lo.Must0(v.RegisterValidation("location", func(fl validator.FieldLevel) bool {
		_, err := time.LoadLocation(fl.Field().String())
		return fl.Field().String() != "" && err == nil
	}))
	v.RegisterStructValidation(validateEmail, EmailConfig{})
	v.RegisterStructValidation(validateWebhook, WebhookConfig{})
	return v
}

func validateEmail(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(EmailConfig)
	if !cfg.Enabled {
		return
	}
	if cfg.SMTPServer == "" {
		sl.ReportError(cfg.SMTPServer, "smtp_server", "SMTPServer", "required", "")
	}
	if cfg.SenderEmail == "" {
		sl.ReportError(cfg.SenderEmail, "sender_email", "SenderEmail", "required", "")
	}
	if cfg.ReceiverEmail == "" {
		sl.ReportError(cfg.ReceiverEmail, "receiver_email", "ReceiverEmail", "required", "")
	}
}

func validateWebhook(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(WebhookConfig)
	if cfg.Enabled && cfg.URL == "" {
		sl.ReportError(cfg.URL, "url", "URL", "required", "")
	}
}

// Load 默认值 -> 配置文件/环境变量 -> 校验
func Load(v *viper.Viper) (Config, error) {
	bindEnv(v)

	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.Monitor.Symbols = splitList(cfg.Monitor.Symbols)
	cfg.Monitor.Timeframes = splitList(cfg.Monitor.Timeframes)

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, describe(err))
	}
	return cfg, nil
}

// 环境变量只有在 key 已知时才会参与 Unmarshal
var envKeys = []string{
	"log.level", "log.format",
	"cex.binance.api_key", "cex.binance.api_secret", "cex.binance.base_url", "cex.binance.timeout",
	"monitor.symbols", "monitor.timeframes", "monitor.cron_expression", "monitor.check_interval_minutes",
	"monitor.kline_limit", "monitor.fetch_timeout", "monitor.retry_backoff", "monitor.timezone",
	"notification.send_timeout",
	"notification.email.enabled", "notification.email.smtp_server", "notification.email.smtp_port",
	"notification.email.username", "notification.email.password", "notification.email.sender_email",
	"notification.email.receiver_email", "notification.email.use_tls",
	"notification.webhook.enabled", "notification.webhook.url",
	"metrics.addr",
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
}

// splitList 兼容环境变量里的 "BTCUSDT,ETHUSDT" 写法
func splitList(items []string) []string {
	return lo.FilterMap(lo.FlatMap(items, func(s string, _ int) []string {
		return strings.Split(s, ",")
	}), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	return strings.Join(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", fe.StructNamespace(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", fe.StructNamespace(), fe.Tag())
	}), "; ")
}

// TradingPairs 校验通过后解析不会失败
func (m MonitorConfig) TradingPairs() []exchange.TradingPair {
	return lo.Map(m.Symbols, func(s string, _ int) exchange.TradingPair {
		return lo.Must(exchange.ParseTradingPair(s))
	})
}

func (m MonitorConfig) Intervals() []exchange.Interval {
	return lo.Map(m.Timeframes, func(s string, _ int) exchange.Interval {
		return exchange.Interval(s)
	})
}

// Schedule cron 优先, 未配置时按分钟间隔
func (m MonitorConfig) Schedule() schedule.Spec {
	return schedule.Spec{
		Cron:     m.CronExpression,
		Interval: time.Duration(m.CheckIntervalMinutes) * time.Minute,
	}
}

func (m MonitorConfig) Location() *time.Location {
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
