package notification

import (
	"context"
	"time"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
	LevelSuccess Level = "SUCCESS"
)

// Message 一次扫描汇总后的通知, Content 使用 \n 作为换行
type Message struct {
	Title     string
	Content   string
	Level     Level
	Timestamp time.Time
}

// Channel 通知渠道
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

type EmailService interface {
	SendText(ctx context.Context, to, subject, body string) error
	SendHTML(ctx context.Context, to, subject, body string) error
}

type WebhookService interface {
	Send(ctx context.Context, url string, data map[string]any) error
}
