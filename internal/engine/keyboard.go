package engine

import (
	"github.com/bunyodbekab/finans-assistent-bot/internal/i18n"
	"github.com/bunyodbekab/finans-assistent-bot/internal/model"
)

// Button is one inline keyboard button: a visible label and the callback
// payload the transport reports back.
type Button struct {
	Label string
	Data  string
}

// Keyboard describes the reply markup attached to an outbound message.
// At most one of Reply/Inline/RemoveReply is set.
type Keyboard struct {
	Reply       [][]string
	Inline      [][]Button
	RemoveReply bool
}

func mainMenuKeyboard(loc model.Locale) *Keyboard {
	return &Keyboard{Reply: [][]string{
		{i18n.T(loc, i18n.KeyIncome), i18n.T(loc, i18n.KeyExpense)},
		{i18n.T(loc, i18n.KeyReport), i18n.T(loc, i18n.KeySettings)},
	}}
}

func cancelKeyboard(loc model.Locale) *Keyboard {
	return &Keyboard{Reply: [][]string{{i18n.T(loc, i18n.KeyCancel)}}}
}

func languageKeyboard() *Keyboard {
	var rows [][]Button
	for _, opt := range i18n.LanguageOptions() {
		rows = append(rows, []Button{{
			Label: opt.Label,
			Data:  langCallbackPrefix + string(opt.Locale),
		}})
	}
	return &Keyboard{Inline: rows}
}

func currencyKeyboard() *Keyboard {
	var rows [][]Button
	for _, currency := range model.Currencies() {
		rows = append(rows, []Button{{
			Label: string(currency),
			Data:  string(currency),
		}})
	}
	return &Keyboard{Inline: rows}
}

func reportKeyboard(loc model.Locale) *Keyboard {
	return &Keyboard{Inline: [][]Button{
		{{Label: i18n.T(loc, i18n.KeyWeekly), Data: string(model.PeriodWeekly)}},
		{{Label: i18n.T(loc, i18n.KeyMonthly), Data: string(model.PeriodMonthly)}},
	}}
}

func settingsKeyboard(loc model.Locale) *Keyboard {
	return &Keyboard{Inline: [][]Button{
		{{Label: i18n.T(loc, i18n.KeyChangeLanguage), Data: CallbackChangeLanguage}},
		{{Label: i18n.T(loc, i18n.KeyCancel), Data: CallbackCancel}},
	}}
}
