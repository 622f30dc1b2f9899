package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Recorder 记录每个渠道的发送结果
type Recorder interface {
	RecordNotification(channel string, ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordNotification(string, bool) {}

type Manager struct {
	channels    []Channel
	sendTimeout time.Duration
	recorder    Recorder
}

type Option func(m *Manager)

func WithSendTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.sendTimeout = d
	}
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sendTimeout: 30 * time.Second,
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddChannel 只在启动阶段调用
func (m *Manager) AddChannel(ch Channel) {
	m.channels = append(m.channels, ch)
	slog.Info("notification channel added", "channel", ch.Name())
}

func (m *Manager) Channels() []Channel {
	return m.channels
}

// Dispatch 按注册顺序发送到所有渠道, 单个渠道失败不影响其他渠道, 返回成功的数量
func (m *Manager) Dispatch(ctx context.Context, msg Message) int {
	if len(m.channels) == 0 {
		slog.Warn("no notification channels registered, skip notification", "title", msg.Title)
		return 0
	}

	slog.Info("sending notification", "title", msg.Title, "channels", len(m.channels))
	delivered := 0
	for _, ch := range m.channels {
		err := m.send(ctx, ch, msg)
		m.recorder.RecordNotification(ch.Name(), err == nil)
		if err != nil {
			slog.Error("failed to send notification", "channel", ch.Name(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

func (m *Manager) send(ctx context.Context, ch Channel, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", ch.Name(), r)
		}
	}()

	if m.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.sendTimeout)
		defer cancel()
	}
	return ch.Send(ctx, msg)
}
