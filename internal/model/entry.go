package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind separates the two ledger collections.
type EntryKind string

const (
	KindIncome  EntryKind = "income"
	KindExpense EntryKind = "expense"
)

// Entry is a single ledger record. Entries are append-only: the bot never
// updates or deletes them once saved.
type Entry struct {
	ID       string
	UserID   int64
	Kind     EntryKind
	Date     time.Time
	Amount   decimal.Decimal
	Currency Currency
	Comment  string
}

// GenerateID assigns a new UUID if the entry does not have one yet.
func (e *Entry) GenerateID() {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
}

// maxCommentLen caps user comments before they reach storage.
const maxCommentLen = 200

// SanitizeComment truncates a comment to maxCommentLen runes and strips
// non-printable runes from the result.
func SanitizeComment(s string) string {
	runes := []rune(s)
	if len(runes) > maxCommentLen {
		runes = runes[:maxCommentLen]
	}
	var b strings.Builder
	b.Grow(len(runes))
	for _, r := range runes {
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseAmount parses a user-supplied amount. A single comma is read as the
// decimal separator, so "1200,50" means 1200.50 and "1,200" means 1.2;
// there is no thousands grouping. Input mixing comma and dot is rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		return decimal.Decimal{}, fmt.Errorf("amount %q mixes decimal separators", s)
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}
