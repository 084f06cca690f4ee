package bots_monitor

// Telegram delivery of token alerts.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"crypto-tracker/internal/domain"
	"crypto-tracker/internal/features/alert"
	"crypto-tracker/internal/infra/log"
	"crypto-tracker/internal/infra/pacing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI the dispatcher needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Committer promotes a ledger reservation once the alert went out.
type Committer interface {
	Commit(key string, now time.Time) error
}

type DispatcherConfig struct {
	Sender Sender
	// ChatID is a numeric chat id or an @channel username.
	ChatID string
	Ledger Committer
	// Spacer enforces the gap between consecutive messages.
	Spacer pacing.Spacer
	Now    func() time.Time
}

type Dispatcher struct {
	sender  Sender
	chatID  int64
	channel string
	ledger  Committer
	spacer  pacing.Spacer
	now     func() time.Time
}

func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Sender == nil {
		return nil, errors.New("dispatcher needs a sender")
	}
	if cfg.Spacer == nil {
		cfg.Spacer = pacing.Noop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	d := &Dispatcher{sender: cfg.Sender, ledger: cfg.Ledger, spacer: cfg.Spacer, now: cfg.Now}

	chat := strings.TrimSpace(cfg.ChatID)
	switch {
	case strings.HasPrefix(chat, "@") && len(chat) > 1:
		d.channel = chat
	default:
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q: %w", cfg.ChatID, err)
		}
		d.chatID = id
	}
	return d, nil
}

// Notify sends one alert. On success the ledger reservation for rec is committed;
// on failure it is left as reserved and the error is returned. There is no retry.
func (d *Dispatcher) Notify(ctx context.Context, rec domain.TokenRecord, text string) error {
	if err := d.send(ctx, text); err != nil {
		log.LogError("Failed to send token alert",
			zap.String("token", rec.Key()),
			zap.String("symbol", rec.Symbol),
			zap.Error(err))
		return err
	}

	if d.ledger != nil {
		if err := d.ledger.Commit(rec.Key(), d.now()); err != nil {
			log.LogWarn("Alert sent but ledger commit failed", zap.String("token", rec.Key()), zap.Error(err))
		}
	}

	log.LogSuccess("Token alert sent",
		zap.String("token", rec.Key()),
		zap.String("symbol", rec.Symbol),
		zap.String("source", string(rec.Source)))
	return nil
}

// SendStatus posts an operator status message.
func (d *Dispatcher) SendStatus(ctx context.Context, text string) error {
	return d.send(ctx, alert.FormatStatus(text))
}

func (d *Dispatcher) send(ctx context.Context, text string) error {
	if err := d.spacer.Wait(ctx); err != nil {
		return err
	}

	msg := d.message(text)
	if _, err := d.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

func (d *Dispatcher) message(text string) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if d.channel != "" {
		msg = tgbotapi.NewMessageToChannel(d.channel, text)
	} else {
		msg = tgbotapi.NewMessage(d.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	return msg
}

// NewBot authorizes token against endpoint (tgbotapi.APIEndpoint when empty).
// The getMe call doubles as a credentials check.
func NewBot(token, endpoint string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	log.LogSuccess("Telegram bot authorized", zap.String("username", bot.Self.UserName))
	return bot, nil
}

// WriterSender prints messages instead of sending them (dry runs).
type WriterSender struct {
	W io.Writer
}

func (s WriterSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, fmt.Errorf("unsupported chattable %T", c)
	}
	if _, err := fmt.Fprintf(s.W, "%s\n\n----\n\n", msg.Text); err != nil {
		return tgbotapi.Message{}, err
	}
	return tgbotapi.Message{Text: msg.Text}, nil
}
