package service

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	strategy "pattern_bot/internal/modules/strategy/service"
)

const topCallbackPrefix = "TOP::"

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// 1) Команды
	if msg := update.Message; msg != nil {
		if msg.Chat == nil || !t.allowed(msg.Chat.ID) {
			return
		}
		if !msg.IsCommand() {
			return
		}
		chatID := msg.Chat.ID

		var err error
		switch msg.Command() {
		case "start", "help":
			_, err = t.Send(ctx, chatID, helpText)
		case "status":
			err = t.handleStatus(ctx, chatID)
		case "top":
			err = t.handleTop(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
		case "reset":
			err = t.handleReset(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
		default:
			_, err = t.Send(ctx, chatID, "Неизвестная команда. /help")
		}
		if err != nil {
			t.log.Warn("command failed", zap.String("command", msg.Command()), zap.Error(err))
		}
		return
	}

	// 2) Inline-кнопки выбора инструмента
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil || !t.allowed(cb.Message.Chat.ID) {
			return
		}
		t.handleCallback(ctx, cb)
	}
}

// allowed: команды принимаем только из сервисного чата, если он задан.
func (t *Telegram) allowed(chatID int64) bool {
	return t.chatID == 0 || t.chatID == chatID
}

func (t *Telegram) handleStatus(ctx context.Context, chatID int64) error {
	src := t.statusSource()
	if src == nil {
		_, err := t.Send(ctx, chatID, "Движки ещё не запущены")
		return err
	}

	ids := src.Instruments()
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		if v, ok := src.Patterns(id); ok {
			lines = append(lines, formatStatusLine(v))
		}
	}
	_, err := t.Send(ctx, chatID, formatStatus(lines))
	return err
}

func (t *Telegram) handleTop(ctx context.Context, chatID int64, instID string) error {
	src := t.statusSource()
	if src == nil {
		_, err := t.Send(ctx, chatID, "Движки ещё не запущены")
		return err
	}

	// без аргумента предлагаем выбрать инструмент кнопкой
	if instID == "" {
		msg := tgbotapi.NewMessage(chatID, "Выбери инструмент:")
		msg.ReplyMarkup = instrumentsKeyboard(src.Instruments())
		_, err := t.SendMessage(ctx, msg)
		return err
	}

	v, ok := src.Patterns(strings.ToUpper(instID))
	if !ok {
		_, err := t.SendF(ctx, chatID, "Инструмент %s не отслеживается", instID)
		return err
	}
	_, err := t.Send(ctx, chatID, formatTop(v))
	return err
}

func (t *Telegram) handleReset(ctx context.Context, chatID int64, instID string) error {
	if instID == "" {
		_, err := t.Send(ctx, chatID, "Укажи инструмент: /reset INST")
		return err
	}
	r := t.scoreResetter()
	if r == nil {
		_, err := t.Send(ctx, chatID, "Движки ещё не запущены")
		return err
	}

	instID = strings.ToUpper(instID)
	if err := r.Reset(ctx, instID); err != nil {
		if errors.Is(err, strategy.ErrUnknownInstrument) {
			_, err = t.SendF(ctx, chatID, "Инструмент %s не отслеживается", instID)
			return err
		}
		t.log.Error("score reset failed", zap.String("inst", instID), zap.Error(err))
		_, err = t.SendF(ctx, chatID, "❗️ Сброс %s не удался: %v", instID, err)
		return err
	}
	_, err := t.SendF(ctx, chatID, "♻️ Счёт паттернов %s сброшен, обучение с нуля", instID)
	return err
}

func (t *Telegram) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	// гасим "часики" на кнопке
	if _, err := t.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		t.log.Debug("callback ack failed", zap.Error(err))
	}

	instID, ok := strings.CutPrefix(cb.Data, topCallbackPrefix)
	if !ok {
		return
	}
	src := t.statusSource()
	if src == nil {
		return
	}
	v, found := src.Patterns(instID)
	if !found {
		return
	}
	if err := t.editText(chatID, cb.Message.MessageID, formatTop(v)); err != nil {
		t.log.Warn("edit message failed", zap.Error(err))
	}
}

func instrumentsKeyboard(ids []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, (len(ids)+1)/2)
	var row []tgbotapi.InlineKeyboardButton
	for _, id := range ids {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(id, topCallbackPrefix+id))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
