package service

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"pattern_bot/internal/modules/config"
	strategy "pattern_bot/internal/modules/strategy/service"
)

// Bot - часть tgbot.BotAPI, которой пользуется сервис.
type Bot interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	Request(c tgbot.Chattable) (*tgbot.APIResponse, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// StatusSource отдаёт состояние движков для /status и /top.
type StatusSource interface {
	Instruments() []string
	Patterns(instID string) (strategy.PatternsView, bool)
}

// ScoreResetter сбрасывает выученный счёт инструмента (/reset).
type ScoreResetter interface {
	Reset(ctx context.Context, instID string) error
}

// Telegram - сервисный канал бота: уведомления в один чат и пара команд
// для просмотра лидербордов. Без токена работает только лог.
type Telegram struct {
	bot    Bot
	chatID int64
	log    *zap.Logger

	mu       sync.RWMutex
	status   StatusSource
	resetter ScoreResetter
}

func NewTelegram(cfg *config.Config, log *zap.Logger) (*Telegram, error) {
	t := &Telegram{
		chatID: cfg.Telegram.ChatID,
		log:    log.Named("telegram"),
	}
	if cfg.Telegram.Token == "" {
		t.log.Warn("telegram token is empty, notifications go to log only")
		return t, nil
	}

	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	t.bot = b
	return t, nil
}

func newWithBot(bot Bot, chatID int64, log *zap.Logger) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, log: log}
}

// SetStatus подключает источник состояния после сборки графа.
func (t *Telegram) SetStatus(s StatusSource) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

func (t *Telegram) SetResetter(r ScoreResetter) {
	t.mu.Lock()
	t.resetter = r
	t.mu.Unlock()
}

func (t *Telegram) scoreResetter() ScoreResetter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resetter
}

func (t *Telegram) statusSource() StatusSource {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Telegram) Send(_ context.Context, chatID int64, msg string) (tgbot.Message, error) {
	if t.bot == nil {
		return tgbot.Message{}, nil
	}
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

func (t *Telegram) SendMessage(_ context.Context, message tgbot.MessageConfig) (tgbot.Message, error) {
	if t.bot == nil {
		return tgbot.Message{}, nil
	}
	return t.bot.Send(message)
}

// SendService пишет служебное сообщение в лог и в сервисный чат.
// Ошибки отправки только логируются.
func (t *Telegram) SendService(ctx context.Context, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	t.log.Info("service message", zap.String("text", text))

	if t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.Send(ctx, t.chatID, text); err != nil {
		t.log.Warn("telegram send failed", zap.Error(err))
	}
}

func (t *Telegram) editText(chatID int64, msgID int, text string) error {
	edit := tgbot.NewEditMessageText(chatID, msgID, text)
	_, err := t.bot.Request(edit)
	return err
}

// Start читает апдейты до отмены ctx.
func (t *Telegram) Start(ctx context.Context) {
	if t.bot == nil {
		return
	}
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
}
