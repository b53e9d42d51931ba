// Package engine implements the conversation state machine. It is
// transport-free: inbound events arrive through the Handle* methods and
// outbound effects go through the Transport interface, so the same engine
// runs against Telegram in production and against a fake in tests.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bunyodbekab/finans-assistent-bot/internal/i18n"
	"github.com/bunyodbekab/finans-assistent-bot/internal/model"
	"github.com/bunyodbekab/finans-assistent-bot/internal/report"
	"github.com/bunyodbekab/finans-assistent-bot/internal/storage"
)

// MessageRef identifies a sent message so it can be deleted later.
// Zero means "no message".
type MessageRef int

// Transport delivers the engine's effects to the chat surface.
type Transport interface {
	Send(chatID int64, text string, kb *Keyboard) (MessageRef, error)
	Delete(chatID int64, ref MessageRef) error
	SendDocument(chatID int64, name string, data []byte) error
	// ScheduleDelete removes a message after delay, best effort.
	ScheduleDelete(chatID int64, ref MessageRef, delay time.Duration)
}

// Step is the current position inside a dialog.
type Step int

const (
	StepIdle Step = iota // main menu, no dialog active
	StepLanguage
	StepIncomeAmount
	StepIncomeCurrency
	StepIncomeComment
	StepExpenseAmount
	StepExpenseCurrency
	StepExpenseComment
	StepReport
)

// Callback payloads understood outside of dialog-specific selections.
const (
	CallbackChangeLanguage = "change_language"
	CallbackCancel         = "cancel"

	langCallbackPrefix = "lang_"
)

// ackTTL is how long transient acknowledgments stay visible.
const ackTTL = 3 * time.Second

// session is the per-user dialog state. It is created on first contact and
// reset at every terminal transition; only the last-message reference
// survives a reset so the next dialog can clean up after the previous one.
type session struct {
	step     Step
	kind     model.EntryKind
	amount   decimal.Decimal
	currency model.Currency
	lastMsg  MessageRef
}

func (s *session) reset() {
	*s = session{lastMsg: s.lastMsg}
}

type Engine struct {
	store     storage.Storage
	reports   *report.Generator
	transport Transport
	log       logrus.FieldLogger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
}

func New(store storage.Storage, reports *report.Generator, transport Transport, log logrus.FieldLogger) *Engine {
	return &Engine{
		store:     store,
		reports:   reports,
		transport: transport,
		log:       log,
		now:       time.Now,
		sessions:  make(map[int64]*session),
	}
}

func (e *Engine) session(userID int64) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[userID]
	if !ok {
		s = &session{}
		e.sessions[userID] = s
	}
	return s
}

// HandleStart processes the start command. A user without a stored locale
// is asked to pick one before anything else.
func (e *Engine) HandleStart(ctx context.Context, userID, chatID int64) error {
	s := e.session(userID)
	loc, err := e.store.GetLocale(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		e.promptFirstLanguage(chatID, s)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get locale: %w", err)
	}
	s.reset()
	return e.showMainMenu(ctx, userID, chatID, s, loc)
}

// HandleText processes a free-text message. msgRef is the user's own
// message, deleted whenever the input is consumed by a dialog.
func (e *Engine) HandleText(ctx context.Context, userID, chatID int64, msgRef MessageRef, text string) error {
	s := e.session(userID)
	loc, err := e.store.GetLocale(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		// Locale selection is the unconditional first interaction.
		e.promptFirstLanguage(chatID, s)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get locale: %w", err)
	}

	if i18n.IsCancel(text) && s.step != StepIdle && s.step != StepLanguage {
		return e.cancelDialog(ctx, userID, chatID, s, loc, msgRef)
	}

	switch s.step {
	case StepIdle:
		return e.handleMenu(ctx, userID, chatID, s, loc, msgRef, text)
	case StepIncomeAmount, StepExpenseAmount:
		e.handleAmount(chatID, s, loc, msgRef, text)
		return nil
	case StepIncomeComment, StepExpenseComment:
		return e.handleComment(ctx, userID, chatID, s, loc, msgRef, text)
	default:
		// Waiting on a button selection; stray text is ignored.
		return nil
	}
}

// HandleCallback processes a button selection.
func (e *Engine) HandleCallback(ctx context.Context, userID, chatID int64, data string) error {
	s := e.session(userID)

	if s.step == StepLanguage && strings.HasPrefix(data, langCallbackPrefix) {
		loc, ok := model.ParseLocale(strings.TrimPrefix(data, langCallbackPrefix))
		if !ok {
			return nil
		}
		if err := e.store.SetLocale(ctx, userID, loc); err != nil {
			return fmt.Errorf("set locale: %w", err)
		}
		e.deleteLast(chatID, s)
		s.reset()
		return e.showMainMenu(ctx, userID, chatID, s, loc)
	}

	loc, err := e.store.GetLocale(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		e.promptFirstLanguage(chatID, s)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get locale: %w", err)
	}

	switch s.step {
	case StepIncomeCurrency, StepExpenseCurrency:
		currency, err := model.ParseCurrency(data)
		if err != nil {
			e.log.WithField("data", data).Debug("ignoring unexpected currency payload")
			return nil
		}
		s.currency = currency
		e.deleteLast(chatID, s)
		e.send(chatID, s, i18n.T(loc, i18n.KeyEnterComment), cancelKeyboard(loc))
		if s.step == StepIncomeCurrency {
			s.step = StepIncomeComment
		} else {
			s.step = StepExpenseComment
		}
		return nil
	case StepReport:
		period, ok := model.ParsePeriod(data)
		if !ok {
			return nil
		}
		return e.runReport(ctx, userID, chatID, s, loc, period)
	case StepIdle:
		switch data {
		case CallbackChangeLanguage:
			e.deleteLast(chatID, s)
			e.send(chatID, s, i18n.T(loc, i18n.KeyChooseLanguage), languageKeyboard())
			s.step = StepLanguage
		case CallbackCancel:
			e.deleteLast(chatID, s)
			return e.showMainMenu(ctx, userID, chatID, s, loc)
		}
		return nil
	default:
		return nil
	}
}

func (e *Engine) handleMenu(ctx context.Context, userID, chatID int64, s *session, loc model.Locale, msgRef MessageRef, text string) error {
	e.deleteUser(chatID, msgRef)
	e.deleteLast(chatID, s)

	action, ok := i18n.ResolveAction(loc, text)
	if !ok {
		e.send(chatID, s, i18n.T(loc, i18n.KeyIncorrectChoice), nil)
		return nil
	}

	s.reset()
	switch action {
	case i18n.ActionIncome:
		s.kind = model.KindIncome
		s.step = StepIncomeAmount
		e.send(chatID, s, i18n.T(loc, i18n.KeyEnterIncomeAmount), cancelKeyboard(loc))
	case i18n.ActionExpense:
		s.kind = model.KindExpense
		s.step = StepExpenseAmount
		e.send(chatID, s, i18n.T(loc, i18n.KeyEnterExpenseAmount), cancelKeyboard(loc))
	case i18n.ActionReport:
		s.step = StepReport
		e.send(chatID, s, i18n.T(loc, i18n.KeyChooseReport), reportKeyboard(loc))
	case i18n.ActionSettings:
		e.send(chatID, s, i18n.T(loc, i18n.KeySelectOption), settingsKeyboard(loc))
	}
	return nil
}

func (e *Engine) handleAmount(chatID int64, s *session, loc model.Locale, msgRef MessageRef, text string) {
	amount, err := model.ParseAmount(text)
	if err != nil {
		// Re-prompt, state unchanged.
		e.deleteUser(chatID, msgRef)
		e.send(chatID, s, i18n.T(loc, i18n.KeyInvalidAmount), cancelKeyboard(loc))
		return
	}

	e.deleteUser(chatID, msgRef)
	e.deleteLast(chatID, s)
	s.amount = amount
	e.send(chatID, s, i18n.T(loc, i18n.KeyChooseCurrency), currencyKeyboard())
	if s.step == StepIncomeAmount {
		s.step = StepIncomeCurrency
	} else {
		s.step = StepExpenseCurrency
	}
}

func (e *Engine) handleComment(ctx context.Context, userID, chatID int64, s *session, loc model.Locale, msgRef MessageRef, text string) error {
	e.deleteUser(chatID, msgRef)
	e.deleteLast(chatID, s)

	entry := &model.Entry{
		UserID:   userID,
		Kind:     s.kind,
		Date:     e.now(),
		Amount:   s.amount,
		Currency: s.currency,
		Comment:  model.SanitizeComment(text),
	}
	entry.GenerateID()
	if err := e.store.AppendEntry(ctx, entry); err != nil {
		s.reset()
		if menuErr := e.showMainMenu(ctx, userID, chatID, s, loc); menuErr != nil {
			e.log.WithError(menuErr).Warn("failed to show main menu")
		}
		return fmt.Errorf("append %s entry: %w", entry.Kind, err)
	}

	e.sendTransient(chatID, i18n.T(loc, i18n.KeyDataSaved), nil)
	s.reset()
	return e.showMainMenu(ctx, userID, chatID, s, loc)
}

func (e *Engine) cancelDialog(ctx context.Context, userID, chatID int64, s *session, loc model.Locale, msgRef MessageRef) error {
	e.deleteLast(chatID, s)
	e.deleteUser(chatID, msgRef)
	e.sendTransient(chatID, i18n.T(loc, i18n.KeyCancelled), &Keyboard{RemoveReply: true})
	s.reset()
	return e.showMainMenu(ctx, userID, chatID, s, loc)
}

// runReport ends the dialog at the main menu whatever the outcome.
func (e *Engine) runReport(ctx context.Context, userID, chatID int64, s *session, loc model.Locale, period model.Period) error {
	e.deleteLast(chatID, s)
	s.reset()

	artifact, err := e.reports.Generate(ctx, userID, period, loc)
	switch {
	case errors.Is(err, report.ErrNoData):
		e.send(chatID, s, i18n.T(loc, i18n.KeyNoData), nil)
		return e.showMainMenu(ctx, userID, chatID, s, loc)
	case err != nil:
		e.log.WithError(err).WithField("user_id", userID).Error("failed to generate report")
		e.send(chatID, s, i18n.T(loc, i18n.KeyReportError), nil)
		return e.showMainMenu(ctx, userID, chatID, s, loc)
	}

	if err := e.transport.SendDocument(chatID, artifact.Name, artifact.Data); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Error("failed to deliver report")
		e.send(chatID, s, i18n.T(loc, i18n.KeyReportError), nil)
		return e.showMainMenu(ctx, userID, chatID, s, loc)
	}
	e.sendTransient(chatID, i18n.T(loc, i18n.KeyReportSent), nil)
	return e.showMainMenu(ctx, userID, chatID, s, loc)
}

func (e *Engine) showMainMenu(ctx context.Context, userID, chatID int64, s *session, loc model.Locale) error {
	first, err := e.store.IsFirstTime(ctx, userID)
	if err != nil {
		return fmt.Errorf("get first_time: %w", err)
	}
	key := i18n.KeyStartReturning
	if first {
		key = i18n.KeyStartNew
		if err := e.store.ClearFirstTime(ctx, userID); err != nil {
			return fmt.Errorf("clear first_time: %w", err)
		}
	}
	e.send(chatID, s, i18n.T(loc, key), mainMenuKeyboard(loc))
	return nil
}

// promptFirstLanguage asks for a language in both locales at once; there is
// no stored locale to render it in yet.
func (e *Engine) promptFirstLanguage(chatID int64, s *session) {
	text := i18n.T(model.LocaleUz, i18n.KeyChooseLanguage) + "\n" +
		i18n.T(model.LocaleRu, i18n.KeyChooseLanguage)
	e.send(chatID, s, text, languageKeyboard())
	s.step = StepLanguage
}

func (e *Engine) send(chatID int64, s *session, text string, kb *Keyboard) {
	ref, err := e.transport.Send(chatID, text, kb)
	if err != nil {
		e.log.WithError(err).WithField("chat_id", chatID).Warn("failed to send message")
		return
	}
	s.lastMsg = ref
}

// sendTransient sends an acknowledgment that cleans itself up after ackTTL.
func (e *Engine) sendTransient(chatID int64, text string, kb *Keyboard) {
	ref, err := e.transport.Send(chatID, text, kb)
	if err != nil {
		e.log.WithError(err).WithField("chat_id", chatID).Warn("failed to send acknowledgment")
		return
	}
	e.transport.ScheduleDelete(chatID, ref, ackTTL)
}

func (e *Engine) deleteLast(chatID int64, s *session) {
	if s.lastMsg == 0 {
		return
	}
	if err := e.transport.Delete(chatID, s.lastMsg); err != nil {
		e.log.WithError(err).Warn("failed to delete previous bot message")
	}
	s.lastMsg = 0
}

func (e *Engine) deleteUser(chatID int64, ref MessageRef) {
	if ref == 0 {
		return
	}
	if err := e.transport.Delete(chatID, ref); err != nil {
		e.log.WithError(err).Warn("failed to delete user message")
	}
}
