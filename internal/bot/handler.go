package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/bunyodbekab/finans-assistent-bot/internal/engine"
)

func (b *Bot) dispatch(update tgbotapi.Update) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if update.CallbackQuery != nil {
		return b.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message != nil {
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	b.log.WithFields(logrus.Fields{
		"user_id": msg.From.ID,
		"id":      msg.MessageID,
	}).Debug("handle message")

	if msg.IsCommand() {
		if msg.Command() == "start" {
			return b.engine.HandleStart(ctx, msg.From.ID, msg.Chat.ID)
		}
		return nil
	}
	return b.engine.HandleText(ctx, msg.From.ID, msg.Chat.ID, engine.MessageRef(msg.MessageID), msg.Text)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	// Close the client-side spinner before doing anything else.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Warn("failed to answer callback query")
	}
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	b.log.WithFields(logrus.Fields{
		"user_id": cb.From.ID,
		"data":    cb.Data,
	}).Debug("handle callback")

	return b.engine.HandleCallback(ctx, cb.From.ID, cb.Message.Chat.ID, cb.Data)
}

// Send implements engine.Transport.
func (b *Bot) Send(chatID int64, text string, kb *engine.Keyboard) (engine.MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup := replyMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return engine.MessageRef(sent.MessageID), nil
}

// Delete implements engine.Transport.
func (b *Bot) Delete(chatID int64, ref engine.MessageRef) error {
	_, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, int(ref)))
	return err
}

// SendDocument implements engine.Transport.
func (b *Bot) SendDocument(chatID int64, name string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	_, err := b.api.Send(doc)
	return err
}

// ScheduleDelete implements engine.Transport. A failure only leaves a
// stale acknowledgment in the chat, so it is logged and dropped.
func (b *Bot) ScheduleDelete(chatID int64, ref engine.MessageRef, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if err := b.Delete(chatID, ref); err != nil {
			b.log.WithError(err).WithField("chat_id", chatID).Warn("failed to delete acknowledgment")
		}
	})
}
