package ioc

import (
	"log/slog"

	"github.com/KNICEX/pinbar-monitor/internal/config"
	"github.com/KNICEX/pinbar-monitor/internal/service/notification"
)

// InitNotificationManager 按配置注册已启用的渠道, 一个都没有时只打印警告
func InitNotificationManager(cfg config.NotificationConfig, recorder notification.Recorder) *notification.Manager {
	mgr := notification.NewManager(
		notification.WithSendTimeout(cfg.SendTimeout),
		notification.WithRecorder(recorder),
	)

	if cfg.Email.Enabled {
		smtpSvc := notification.NewSMTPService(notification.SMTPConfig{
			Server:   cfg.Email.SMTPServer,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			Sender:   cfg.Email.SenderEmail,
			UseTLS:   cfg.Email.UseTLS,
		})
		mgr.AddChannel(notification.NewEmailChannel(smtpSvc, cfg.Email.ReceiverEmail))
	}
	if cfg.Webhook.Enabled {
		mgr.AddChannel(notification.NewWebhookChannel(notification.NewHTTPWebhookService(nil), cfg.Webhook.URL))
	}

	if len(mgr.Channels()) == 0 {
		slog.Warn("no notification channel enabled, reports will only be logged")
	}
	return mgr
}
