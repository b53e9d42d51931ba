// Package i18n holds the static uz/ru translation table and the mapping
// from localized menu labels to canonical actions.
package i18n

import "github.com/bunyodbekab/finans-assistent-bot/internal/model"

// Key identifies a translatable string.
type Key string

const (
	KeyStartNew           Key = "start_message_new"
	KeyStartReturning     Key = "start_message_returning"
	KeyChooseLanguage     Key = "choose_language"
	KeyIncome             Key = "income"
	KeyExpense            Key = "expense"
	KeyReport             Key = "report"
	KeySettings           Key = "settings"
	KeyEnterIncomeAmount  Key = "enter_income_amount"
	KeyEnterExpenseAmount Key = "enter_expense_amount"
	KeyChooseCurrency     Key = "choose_currency"
	KeyEnterComment       Key = "enter_comment"
	KeyDataSaved          Key = "data_saved"
	KeyChooseReport       Key = "choose_report"
	KeyWeekly             Key = "weekly"
	KeyMonthly            Key = "monthly"
	KeyReportSent         Key = "report_sent"
	KeyCancelled          Key = "operation_cancelled"
	KeyIncorrectChoice    Key = "incorrect_selection"
	KeyReportError        Key = "error_generating_report"
	KeyCancel             Key = "cancel"
	KeyChangeLanguage     Key = "change_language"
	KeySelectOption       Key = "select_language"
	KeyInvalidAmount      Key = "invalid_amount"
	KeyNoData             Key = "no_data"

	// Report vocabulary.
	KeyColDate         Key = "col_date"
	KeyColAmount       Key = "col_amount"
	KeyColCurrency     Key = "col_currency"
	KeyColComment      Key = "col_comment"
	KeyColTotalIncome  Key = "col_total_income"
	KeyColTotalExpense Key = "col_total_expense"
	KeyColBalance      Key = "col_balance"
	KeySheetTotals     Key = "sheet_totals"
	KeySheetIncomes    Key = "sheet_incomes"
	KeySheetExpenses   Key = "sheet_expenses"
	KeyFileWeekly      Key = "file_weekly"
	KeyFileMonthly     Key = "file_monthly"
)

var table = map[model.Locale]map[Key]string{
	model.LocaleUz: {
		KeyStartNew:          "Salom! Kerakli bo'limni tanlang:",
		KeyStartReturning:    "Kerakli bo'limni tanlang:",
		KeyChooseLanguage:    "Iltimos, tilni tanlang:",
		KeyIncome:            "⬇️Kirim",
		KeyExpense:           "⬆️Chiqim",
		KeyReport:            "🔄Hisobot",
		KeySettings:          "⚙️Parametr",
		KeyEnterIncomeAmount:  "Kirim summasini kiriting:",
		KeyEnterExpenseAmount: "Chiqim summasini kiriting:",
		KeyChooseCurrency:    "Pul birligini tanlang:",
		KeyEnterComment:      "Kommentariya kiriting:",
		KeyDataSaved:         "✅Ma'lumot saqlandi",
		KeyChooseReport:      "Qaysi hisobotni ko'rmoqchisiz?",
		KeyWeekly:            "Haftalik",
		KeyMonthly:           "Oylik",
		KeyReportSent:        "✅Hisobot yuborildi",
		KeyCancelled:         "❌Amal bekor qilindi.",
		KeyIncorrectChoice:   "Noto'g'ri tanlov.",
		KeyReportError:       "Hisobot yaratishda xatolik yuz berdi.",
		KeyCancel:            "❌Bekor qilish",
		KeyChangeLanguage:    "Tilni o'zgartirish",
		KeySelectOption:      "Tanlovni bajaring:",
		KeyInvalidAmount:     "Iltimos, to'g'ri summa kiriting:",
		KeyNoData:            "Hisobot uchun ma'lumot topilmadi.",

		KeyColDate:         "Sana",
		KeyColAmount:       "Summa",
		KeyColCurrency:     "Valyuta",
		KeyColComment:      "Kommentariya",
		KeyColTotalIncome:  "Umumiy Kirim",
		KeyColTotalExpense: "Umumiy Chiqim",
		KeyColBalance:      "Balans",
		KeySheetTotals:     "Umumiy Hisobot",
		KeySheetIncomes:    "Kirimlar",
		KeySheetExpenses:   "Chiqimlar",
		KeyFileWeekly:      "Haftalik-hisobot.xlsx",
		KeyFileMonthly:     "Oylik-hisobot.xlsx",
	},
	model.LocaleRu: {
		KeyStartNew:          "Здравствуйте! Выберите нужный раздел:",
		KeyStartReturning:    "Выберите нужный раздел:",
		KeyChooseLanguage:    "Пожалуйста, выберите язык:",
		KeyIncome:            "⬇️Доход",
		KeyExpense:           "⬆️Расход",
		KeyReport:            "🔄Отчет",
		KeySettings:          "⚙️Параметр",
		KeyEnterIncomeAmount:  "Введите сумму дохода:",
		KeyEnterExpenseAmount: "Введите сумму расхода:",
		KeyChooseCurrency:    "Выберите валюту:",
		KeyEnterComment:      "Введите комментарий:",
		KeyDataSaved:         "✅Данные сохранены",
		KeyChooseReport:      "Какой отчет вы хотите посмотреть?",
		KeyWeekly:            "Еженедельный",
		KeyMonthly:           "Ежемесячный",
		KeyReportSent:        "✅Отчет отправлен",
		KeyCancelled:         "❌Операция отменена.",
		KeyIncorrectChoice:   "Неправильный выбор.",
		KeyReportError:       "Произошла ошибка при создании отчета.",
		KeyCancel:            "❌Отмена",
		KeyChangeLanguage:    "Изменить язык",
		KeySelectOption:      "Сделайте выбор:",
		KeyInvalidAmount:     "Пожалуйста, введите корректную сумму:",
		KeyNoData:            "Данные для отчета не найдены.",

		KeyColDate:         "Дата",
		KeyColAmount:       "Сумма",
		KeyColCurrency:     "Валюта",
		KeyColComment:      "Комментарий",
		KeyColTotalIncome:  "Общий Доход",
		KeyColTotalExpense: "Общий Расход",
		KeyColBalance:      "Баланс",
		KeySheetTotals:     "Общий Отчет",
		KeySheetIncomes:    "Доходы",
		KeySheetExpenses:   "Расходы",
		KeyFileWeekly:      "Еженедельный-отчет.xlsx",
		KeyFileMonthly:     "Ежемесячный-отчет.xlsx",
	},
}

// T returns the translation of key for the given locale. Unknown locales
// fall back to uz.
func T(loc model.Locale, key Key) string {
	strings, ok := table[loc]
	if !ok {
		strings = table[model.LocaleUz]
	}
	return strings[key]
}

// Action is a canonical main-menu action, independent of display language.
type Action int

const (
	ActionIncome Action = iota
	ActionExpense
	ActionReport
	ActionSettings
)

var menuKeys = map[Key]Action{
	KeyIncome:   ActionIncome,
	KeyExpense:  ActionExpense,
	KeyReport:   ActionReport,
	KeySettings: ActionSettings,
}

// ResolveAction maps a main-menu label in the given locale to its action.
func ResolveAction(loc model.Locale, text string) (Action, bool) {
	for key, action := range menuKeys {
		if T(loc, key) == text {
			return action, true
		}
	}
	return 0, false
}

// IsCancel reports whether text is the cancel label in any supported locale.
func IsCancel(text string) bool {
	for loc := range table {
		if text == T(loc, KeyCancel) {
			return true
		}
	}
	return false
}

// LanguageOption is one button on the language-selection keyboard.
type LanguageOption struct {
	Label  string
	Locale model.Locale
}

// LanguageOptions lists the selectable languages with their native labels.
func LanguageOptions() []LanguageOption {
	return []LanguageOption{
		{Label: "O'zbekcha", Locale: model.LocaleUz},
		{Label: "Русский", Locale: model.LocaleRu},
	}
}

// Locales lists the supported locales.
func Locales() []model.Locale {
	return []model.Locale{model.LocaleUz, model.LocaleRu}
}
