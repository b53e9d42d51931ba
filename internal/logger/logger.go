package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NamespaceHook prefixes every message with the component name so that
// lines from the bot, the store and the report generator are easy to
// tell apart in a combined stream.
type NamespaceHook struct {
	ns string
}

func NewNamespaceHook(ns string) *NamespaceHook {
	return &NamespaceHook{ns: ns}
}

func (h *NamespaceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *NamespaceHook) Fire(e *logrus.Entry) error {
	b := strings.Builder{}
	b.Grow(len(e.Message) + len(h.ns) + 3)
	b.WriteString("(")
	b.WriteString(h.ns)
	b.WriteString(") ")
	b.WriteString(e.Message)
	e.Message = b.String()
	return nil
}

func New(level logrus.Level, namespace string) *logrus.Logger {
	log := &logrus.Logger{
		Out:       os.Stdout,
		Formatter: &logrus.TextFormatter{DisableSorting: false},
		Hooks:     make(logrus.LevelHooks),
		Level:     level,
		ExitFunc:  os.Exit,
	}
	if len(namespace) > 0 {
		log.AddHook(NewNamespaceHook(namespace))
	}
	return log
}
