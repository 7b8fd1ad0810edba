package messages

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"medication-refill-tracker/internal/awsclient"
	"medication-refill-tracker/internal/config"
)

// ---------- telegram --------------------------------------------------------

// BotHTTPTimeout bounds every Bot API request. It is above the 30s long poll
// used for updates.
const BotHTTPTimeout = 45 * time.Second

// NewBotAPI connects to Telegram with a bounded HTTP client.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	return newBotAPI(token, tgbotapi.APIEndpoint)
}

func newBotAPI(token, endpoint string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: BotHTTPTimeout})
}

// Sender is the part of *tgbotapi.BotAPI used to push messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink delivers alerts to a single chat. It is unauthorized until a
// chat id is configured or the bot receives /start.
type TelegramSink struct {
	bot    Sender
	chatID atomic.Int64
}

func NewTelegramSink(bot Sender, chatID int64) *TelegramSink {
	s := &TelegramSink{bot: bot}
	s.chatID.Store(chatID)
	return s
}

func (s *TelegramSink) Available() bool  { return s != nil && s.bot != nil }
func (s *TelegramSink) Authorized() bool { return s.ChatID() != 0 }

func (s *TelegramSink) ChatID() int64 {
	if s == nil {
		return 0
	}
	return s.chatID.Load()
}

// Bind makes chatID the alert destination if no other chat holds it.
func (s *TelegramSink) Bind(chatID int64) bool {
	return s.chatID.CompareAndSwap(0, chatID) || s.chatID.Load() == chatID
}

// Emit gives up when ctx is done. The bot API has no context support, so a
// send still in flight is left to the HTTP client's timeout.
func (s *TelegramSink) Emit(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	msg := tgbotapi.NewMessage(s.ChatID(), AlertText(title, body))

	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(msg)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram send: %w", ctx.Err())
	}
}

// ---------- sns -------------------------------------------------------------

// Publisher is the part of *sns.Client used to send SMS.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink sends alerts as SMS through AWS SNS.
type SNSSink struct {
	client Publisher
	phone  string
}

func NewSNSSink(client Publisher, phone string) *SNSSink {
	return &SNSSink{client: client, phone: phone}
}

// NewSNSClient builds an SNS client with the same region, credentials and
// endpoint override as the DynamoDB store.
func NewSNSClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	awsCfg, err := awsclient.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(awsCfg, snsEndpoint(cfg)), nil
}

func snsEndpoint(cfg *config.Config) func(*sns.Options) {
	return func(o *sns.Options) {
		if ep := awsclient.BaseEndpoint(cfg); ep != nil {
			o.BaseEndpoint = ep
		}
	}
}

func (s *SNSSink) Available() bool  { return s != nil && s.client != nil }
func (s *SNSSink) Authorized() bool { return s.phone != "" }

func (s *SNSSink) Emit(ctx context.Context, title, body string) error {
	text := AlertText(title, body)
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &s.phone,
		Message:     &text,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// ---------- log -------------------------------------------------------------

// LogSink writes alerts to the log. It is always available.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Available() bool  { return true }
func (s *LogSink) Authorized() bool { return true }

func (s *LogSink) Emit(_ context.Context, title, body string) error {
	s.logger.Info("alert", zap.String("title", title), zap.String("body", body))
	return nil
}
