package engine

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bunyodbekab/finans-assistent-bot/internal/i18n"
	"github.com/bunyodbekab/finans-assistent-bot/internal/model"
	"github.com/bunyodbekab/finans-assistent-bot/internal/report"
	"github.com/bunyodbekab/finans-assistent-bot/internal/storage/memory"
)

const (
	testUser = int64(7)
	testChat = int64(7)
)

type sentMessage struct {
	chatID int64
	text   string
	kb     *Keyboard
}

type sentDocument struct {
	chatID int64
	name   string
	data   []byte
}

type scheduledDelete struct {
	chatID int64
	ref    MessageRef
	delay  time.Duration
}

// fakeTransport records every effect the engine emits. docErr makes
// document delivery fail.
type fakeTransport struct {
	nextRef   MessageRef
	sent      []sentMessage
	deleted   []MessageRef
	documents []sentDocument
	scheduled []scheduledDelete
	docErr    error
}

func (t *fakeTransport) Send(chatID int64, text string, kb *Keyboard) (MessageRef, error) {
	t.nextRef++
	t.sent = append(t.sent, sentMessage{chatID: chatID, text: text, kb: kb})
	return t.nextRef, nil
}

func (t *fakeTransport) Delete(chatID int64, ref MessageRef) error {
	t.deleted = append(t.deleted, ref)
	return nil
}

func (t *fakeTransport) SendDocument(chatID int64, name string, data []byte) error {
	if t.docErr != nil {
		return t.docErr
	}
	t.documents = append(t.documents, sentDocument{chatID: chatID, name: name, data: data})
	return nil
}

func (t *fakeTransport) ScheduleDelete(chatID int64, ref MessageRef, delay time.Duration) {
	t.scheduled = append(t.scheduled, scheduledDelete{chatID: chatID, ref: ref, delay: delay})
}

func (t *fakeTransport) lastText(test *testing.T) string {
	test.Helper()
	if len(t.sent) == 0 {
		test.Fatal("no messages sent")
	}
	return t.sent[len(t.sent)-1].text
}

// failingStore serves locales but cannot read entries back.
type failingStore struct {
	*memory.Store
}

func (s *failingStore) Entries(ctx context.Context, kind model.EntryKind, userID int64) ([]model.Entry, error) {
	return nil, errors.New("database gone")
}

func newTestEngine(t *testing.T) (*Engine, *fakeTransport, *memory.Store) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := memory.New()
	transport := &fakeTransport{}
	eng := New(store, report.NewGenerator(store, log), transport, log)
	return eng, transport, store
}

// selectLocale stores a locale and consumes the first greeting so tests
// start from a quiet main menu.
func selectLocale(t *testing.T, eng *Engine, store *memory.Store, loc model.Locale) {
	t.Helper()
	ctx := context.Background()
	if err := store.SetLocale(ctx, testUser, loc); err != nil {
		t.Fatal(err)
	}
	if err := store.ClearFirstTime(ctx, testUser); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleStart(ctx, testUser, testChat); err != nil {
		t.Fatal(err)
	}
}

func TestFirstContactAsksForLanguage(t *testing.T) {
	eng, transport, store := newTestEngine(t)
	ctx := context.Background()

	if err := eng.HandleStart(ctx, testUser, testChat); err != nil {
		t.Fatal(err)
	}
	prompt := transport.sent[len(transport.sent)-1]
	if !strings.Contains(prompt.text, i18n.T(model.LocaleUz, i18n.KeyChooseLanguage)) ||
		!strings.Contains(prompt.text, i18n.T(model.LocaleRu, i18n.KeyChooseLanguage)) {
		t.Fatalf("language prompt should be bilingual, got %q", prompt.text)
	}
	if prompt.kb == nil || len(prompt.kb.Inline) != 2 {
		t.Fatalf("language prompt keyboard = %+v", prompt.kb)
	}

	if err := eng.HandleCallback(ctx, testUser, testChat, "lang_uz"); err != nil {
		t.Fatal(err)
	}
	loc, err := store.GetLocale(ctx, testUser)
	if err != nil || loc != model.LocaleUz {
		t.Fatalf("locale after selection = %q, %v", loc, err)
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyStartNew) {
		t.Fatalf("first menu should greet new user, got %q", got)
	}

	// The greeting is consumed exactly once.
	if err := eng.HandleStart(ctx, testUser, testChat); err != nil {
		t.Fatal(err)
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyStartReturning) {
		t.Fatalf("second menu should use returning greeting, got %q", got)
	}
}

func TestMenuRouting(t *testing.T) {
	for _, loc := range i18n.Locales() {
		cases := []struct {
			label  i18n.Key
			prompt i18n.Key
		}{
			{i18n.KeyIncome, i18n.KeyEnterIncomeAmount},
			{i18n.KeyExpense, i18n.KeyEnterExpenseAmount},
			{i18n.KeyReport, i18n.KeyChooseReport},
			{i18n.KeySettings, i18n.KeySelectOption},
		}
		for _, tc := range cases {
			eng, transport, store := newTestEngine(t)
			selectLocale(t, eng, store, loc)

			err := eng.HandleText(context.Background(), testUser, testChat, 100, i18n.T(loc, tc.label))
			if err != nil {
				t.Fatal(err)
			}
			if got := transport.lastText(t); got != i18n.T(loc, tc.prompt) {
				t.Fatalf("%s/%s routed to %q, want %q", loc, tc.label, got, i18n.T(loc, tc.prompt))
			}
		}
	}
}

func TestUnrecognizedMenuText(t *testing.T) {
	eng, transport, store := newTestEngine(t)
	selectLocale(t, eng, store, model.LocaleUz)

	if err := eng.HandleText(context.Background(), testUser, testChat, 100, "blah"); err != nil {
		t.Fatal(err)
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyIncorrectChoice) {
		t.Fatalf("got %q, want incorrect-selection message", got)
	}
	if eng.session(testUser).step != StepIdle {
		t.Fatal("unrecognized text must not change state")
	}
}

func TestIncomeDialogSavesEntry(t *testing.T) {
	eng, transport, store := newTestEngine(t)
	selectLocale(t, eng, store, model.LocaleUz)
	ctx := context.Background()
	start := time.Now()

	if err := eng.HandleText(ctx, testUser, testChat, 100, i18n.T(model.LocaleUz, i18n.KeyIncome)); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, testUser, testChat, 101, "1200.50"); err != nil {
		t.Fatal(err)
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyChooseCurrency) {
		t.Fatalf("after amount got %q, want currency prompt", got)
	}
	if err := eng.HandleCallback(ctx, testUser, testChat, "USD"); err != nil {
		t.Fatal(err)
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyEnterComment) {
		t.Fatalf("after currency got %q, want comment prompt", got)
	}
	if err := eng.HandleText(ctx, testUser, testChat, 102, "maosh\x00 uchun"); err != nil {
		t.Fatal(err)
	}

	incomes, err := store.Entries(ctx, model.KindIncome, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(incomes) != 1 {
		t.Fatalf("got %d income entries, want exactly 1", len(incomes))
	}
	entry := incomes[0]
	if entry.Amount.String() != "1200.5" || entry.Currency != model.CurrencyUSD {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Comment != "maosh uchun" {
		t.Fatalf("comment not sanitized: %q", entry.Comment)
	}
	if entry.Date.Before(start) {
		t.Fatal("entry timestamp before dialog start")
	}
	if expenses, _ := store.Entries(ctx, model.KindExpense, testUser); len(expenses) != 0 {
		t.Fatalf("income dialog produced %d expense entries", len(expenses))
	}

	// Saved acknowledgment is transient.
	if len(transport.scheduled) != 1 || transport.scheduled[0].delay != 3*time.Second {
		t.Fatalf("scheduled deletions = %+v", transport.scheduled)
	}
	if eng.session(testUser).step != StepIdle {
		t.Fatal("dialog should end at main menu")
	}

	// Each consumed user message (100, 101, 102) and each superseded bot
	// prompt (menu 1, amount 2, currency 3, comment 4) is deleted as the
	// dialog advances.
	wantDeleted := []MessageRef{100, 1, 101, 2, 3, 102, 4}
	if !reflect.DeepEqual(transport.deleted, wantDeleted) {
		t.Fatalf("deleted messages = %v, want %v", transport.deleted, wantDeleted)
	}
}

func TestExpenseDialogSavesEntry(t *testing.T) {
	eng, _, store := newTestEngine(t)
	selectLocale(t, eng, store, model.LocaleRu)
	ctx := context.Background()

	for _, step := range []struct {
		text string
		data string
	}{
		{text: i18n.T(model.LocaleRu, i18n.KeyExpense)},
		{text: "300,25"},
		{data: "UZS"},
		{text: "обед"},
	} {
		var err error
		if step.data != "" {
			err = eng.HandleCallback(ctx, testUser, testChat, step.data)
		} else {
			err = eng.HandleText(ctx, testUser, testChat, 100, step.text)
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	expenses, err := store.Entries(ctx, model.KindExpense, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(expenses) != 1 {
		t.Fatalf("got %d expense entries, want 1", len(expenses))
	}
	if expenses[0].Amount.String() != "300.25" || expenses[0].Currency != model.CurrencyUZS ||
		expenses[0].Comment != "обед" {
		t.Fatalf("entry = %+v", expenses[0])
	}
}

func TestInvalidAmountRePrompts(t *testing.T) {
	eng, transport, store := newTestEngine(t)
	selectLocale(t, eng, store, model.LocaleUz)
	ctx := context.Background()

	if err := eng.HandleText(ctx, testUser, testChat, 100, i18n.T(model.LocaleUz, i18n.KeyIncome)); err != nil {
		t.Fatal(err)
	}
	for _, bad := range []string{"abc", "12a", "1.2.3"} {
		if err := eng.HandleText(ctx, testUser, testChat, 101, bad); err != nil {
			t.Fatal(err)
		}
		if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyInvalidAmount) {
			t.Fatalf("input %q: got %q, want invalid-amount re-prompt", bad, got)
		}
		if eng.session(testUser).step != StepIncomeAmount {
			t.Fatalf("input %q advanced the dialog", bad)
		}
		if got := transport.deleted[len(transport.deleted)-1]; got != 101 {
			t.Fatalf("rejected input not deleted, last deletion = %v", got)
		}
	}

	// A valid amount still advances after failures.
	if err := eng.HandleText(ctx, testUser, testChat, 102, "-35.5"); err != nil {
		t.Fatal(err)
	}
	if eng.session(testUser).step != StepIncomeCurrency {
		t.Fatal("valid amount did not advance the dialog")
	}
}

func TestCancelAtAnyStepSavesNothing(t *testing.T) {
	steps := [][]string{
		{i18n.T(model.LocaleUz, i18n.KeyIncome)},
		{i18n.T(model.LocaleUz, i18n.KeyExpense), "100"},
	}
	for _, prefix := range steps {
		eng, transport, store := newTestEngine(t)
		selectLocale(t, eng, store, model.LocaleUz)
		ctx := context.Background()

		for _, text := range prefix {
			if err := eng.HandleText(ctx, testUser, testChat, 100, text); err != nil {
				t.Fatal(err)
			}
		}
		// The ru cancel label must work in a uz dialog too.
		if err := eng.HandleText(ctx, testUser, testChat, 101, i18n.T(model.LocaleRu, i18n.KeyCancel)); err != nil {
			t.Fatal(err)
		}

		incomes, _ := store.Entries(ctx, model.KindIncome, testUser)
		expenses, _ := store.Entries(ctx, model.KindExpense, testUser)
		if len(incomes)+len(expenses) != 0 {
			t.Fatalf("cancelled dialog persisted %d entries", len(incomes)+len(expenses))
		}
		if eng.session(testUser).step != StepIdle {
			t.Fatal("cancel should return to main menu")
		}
		if len(transport.scheduled) != 1 {
			t.Fatalf("cancelled ack should be transient, scheduled = %+v", transport.scheduled)
		}
		if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyStartReturning) {
			t.Fatalf("after cancel got %q, want main menu", got)
		}
	}
}

func TestReportNoData(t *testing.T) {
	eng, transport, store := newTestEngine(t)
	selectLocale(t, eng, store, model.LocaleUz)
	ctx := context.Background()

	if err := eng.HandleText(ctx, testUser, testChat, 100, i18n.T(model.LocaleUz, i18n.KeyReport)); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleCallback(ctx, testUser, testChat, "weekly"); err != nil {
		t.Fatal(err)
	}
	if len(transport.documents) != 0 {
		t.Fatal("no-data report produced a document")
	}
	texts := make([]string, 0, len(transport.sent))
	for _, m := range transport.sent {
		texts = append(texts, m.text)
	}
	if !contains(texts, i18n.T(model.LocaleUz, i18n.KeyNoData)) {
		t.Fatalf("no-data message missing from %q", texts)
	}
	if eng.session(testUser).step != StepIdle {
		t.Fatal("report dialog should end at main menu")
	}
}

func TestReportDelivery(t *testing.T) {
	eng, transport, store := newTestEngine(t)
	selectLocale(t, eng, store, model.LocaleRu)
	ctx := context.Background()

	// Record an income through the dialog itself, then ask for a report.
	for _, text := range []string{i18n.T(model.LocaleRu, i18n.KeyIncome), "100"} {
		if err := eng.HandleText(ctx, testUser, testChat, 100, text); err != nil {
			t.Fatal(err)
		}
	}
	if err := eng.HandleCallback(ctx, testUser, testChat, "USD"); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, testUser, testChat, 101, "зарплата"); err != nil {
		t.Fatal(err)
	}

	if err := eng.HandleText(ctx, testUser, testChat, 102, i18n.T(model.LocaleRu, i18n.KeyReport)); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleCallback(ctx, testUser, testChat, "monthly"); err != nil {
		t.Fatal(err)
	}

	if len(transport.documents) != 1 {
		t.Fatalf("got %d documents, want 1", len(transport.documents))
	}
	doc := transport.documents[0]
	if doc.name != i18n.T(model.LocaleRu, i18n.KeyFileMonthly) {
		t.Fatalf("document name = %q", doc.name)
	}
	if len(doc.data) == 0 {
		t.Fatal("document is empty")
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleRu, i18n.KeyStartReturning) {
		t.Fatalf("after report got %q, want main menu", got)
	}
}

func TestReportGenerationFailure(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := &failingStore{Store: memory.New()}
	transport := &fakeTransport{}
	eng := New(store, report.NewGenerator(store, log), transport, log)
	ctx := context.Background()

	if err := store.SetLocale(ctx, testUser, model.LocaleUz); err != nil {
		t.Fatal(err)
	}
	if err := store.ClearFirstTime(ctx, testUser); err != nil {
		t.Fatal(err)
	}

	if err := eng.HandleText(ctx, testUser, testChat, 100, i18n.T(model.LocaleUz, i18n.KeyReport)); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleCallback(ctx, testUser, testChat, "weekly"); err != nil {
		t.Fatal(err)
	}

	if len(transport.documents) != 0 {
		t.Fatal("failed generation still produced a document")
	}
	texts := make([]string, 0, len(transport.sent))
	for _, m := range transport.sent {
		texts = append(texts, m.text)
	}
	if !contains(texts, i18n.T(model.LocaleUz, i18n.KeyReportError)) {
		t.Fatalf("error message missing from %q", texts)
	}
	if eng.session(testUser).step != StepIdle {
		t.Fatal("failed report should end at main menu")
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyStartReturning) {
		t.Fatalf("after failure got %q, want main menu", got)
	}
}

func TestReportDeliveryFailure(t *testing.T) {
	eng, transport, store := newTestEngine(t)
	selectLocale(t, eng, store, model.LocaleRu)
	ctx := context.Background()

	if err := store.AppendEntry(ctx, &model.Entry{
		UserID: testUser, Kind: model.KindIncome, Date: time.Now(),
		Amount: decimal.RequireFromString("100"), Currency: model.CurrencyUSD,
	}); err != nil {
		t.Fatal(err)
	}
	transport.docErr = errors.New("network down")

	if err := eng.HandleText(ctx, testUser, testChat, 100, i18n.T(model.LocaleRu, i18n.KeyReport)); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleCallback(ctx, testUser, testChat, "weekly"); err != nil {
		t.Fatal(err)
	}

	if len(transport.documents) != 0 {
		t.Fatal("failed delivery recorded a document")
	}
	texts := make([]string, 0, len(transport.sent))
	for _, m := range transport.sent {
		texts = append(texts, m.text)
	}
	if !contains(texts, i18n.T(model.LocaleRu, i18n.KeyReportError)) {
		t.Fatalf("error message missing from %q", texts)
	}
	if contains(texts, i18n.T(model.LocaleRu, i18n.KeyReportSent)) {
		t.Fatal("sent acknowledgment despite failed delivery")
	}
	if eng.session(testUser).step != StepIdle {
		t.Fatal("failed delivery should end at main menu")
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleRu, i18n.KeyStartReturning) {
		t.Fatalf("after failure got %q, want main menu", got)
	}
}

func TestSettingsChangeLanguage(t *testing.T) {
	eng, transport, store := newTestEngine(t)
	selectLocale(t, eng, store, model.LocaleUz)
	ctx := context.Background()

	if err := eng.HandleText(ctx, testUser, testChat, 100, i18n.T(model.LocaleUz, i18n.KeySettings)); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleCallback(ctx, testUser, testChat, CallbackChangeLanguage); err != nil {
		t.Fatal(err)
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyChooseLanguage) {
		t.Fatalf("got %q, want language prompt", got)
	}
	if err := eng.HandleCallback(ctx, testUser, testChat, "lang_ru"); err != nil {
		t.Fatal(err)
	}
	if loc, _ := store.GetLocale(ctx, testUser); loc != model.LocaleRu {
		t.Fatalf("locale after change = %q", loc)
	}
	menu := transport.sent[len(transport.sent)-1]
	if menu.kb == nil || len(menu.kb.Reply) == 0 ||
		menu.kb.Reply[0][0] != i18n.T(model.LocaleRu, i18n.KeyIncome) {
		t.Fatalf("menu keyboard not re-rendered in ru: %+v", menu.kb)
	}
}

func TestSettingsCancelKeepsLocale(t *testing.T) {
	eng, transport, store := newTestEngine(t)
	selectLocale(t, eng, store, model.LocaleUz)
	ctx := context.Background()

	if err := eng.HandleText(ctx, testUser, testChat, 100, i18n.T(model.LocaleUz, i18n.KeySettings)); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleCallback(ctx, testUser, testChat, CallbackCancel); err != nil {
		t.Fatal(err)
	}
	if loc, _ := store.GetLocale(ctx, testUser); loc != model.LocaleUz {
		t.Fatalf("locale changed by settings cancel: %q", loc)
	}
	if got := transport.lastText(t); got != i18n.T(model.LocaleUz, i18n.KeyStartReturning) {
		t.Fatalf("got %q, want main menu", got)
	}
}

func TestSessionsDoNotLeakAcrossUsers(t *testing.T) {
	eng, _, store := newTestEngine(t)
	ctx := context.Background()
	otherUser := int64(99)

	selectLocale(t, eng, store, model.LocaleUz)
	if err := store.SetLocale(ctx, otherUser, model.LocaleUz); err != nil {
		t.Fatal(err)
	}

	if err := eng.HandleText(ctx, testUser, testChat, 100, i18n.T(model.LocaleUz, i18n.KeyIncome)); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleText(ctx, otherUser, otherUser, 100, "999"); err != nil {
		t.Fatal(err)
	}

	if eng.session(testUser).step != StepIncomeAmount {
		t.Fatal("other user's message changed this user's dialog")
	}
	if eng.session(otherUser).step != StepIdle {
		t.Fatal("numeric text outside a dialog should not start one")
	}
	if entries, _ := store.Entries(ctx, model.KindIncome, otherUser); len(entries) != 0 {
		t.Fatal("stray numeric text persisted an entry")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
