package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/bunyodbekab/finans-assistent-bot/internal/engine"
)

const handleTimeout = 5 * time.Second

// Bot runs the Telegram long-polling loop and carries the engine's
// messages over the Bot API. It is the engine.Transport implementation.
type Bot struct {
	api    *tgbotapi.BotAPI
	engine *engine.Engine
	log    *logrus.Logger
	stopC  chan struct{}
	doneC  chan struct{}
}

func New(token string, log *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:   api,
		log:   log,
		stopC: make(chan struct{}),
		doneC: make(chan struct{}),
	}, nil
}

// SetEngine wires the conversation engine. The engine needs the bot as
// its transport, so it is constructed after the bot and attached here.
func (b *Bot) SetEngine(e *engine.Engine) {
	b.engine = e
}

// Start blocks until Stop is called, handling updates one by one.
func (b *Bot) Start() error {
	defer func() {
		b.doneC <- struct{}{}
	}()

	b.log.WithField("name", b.api.Self.UserName).Info("started")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if err := b.dispatch(update); err != nil {
				b.log.WithError(err).Error("failed to handle update")
			}
		case <-b.stopC:
			return nil
		}
	}
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.stopC <- struct{}{}
	<-b.doneC
	b.log.Info("stopped")
}
