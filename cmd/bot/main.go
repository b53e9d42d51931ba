package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/bunyodbekab/finans-assistent-bot/internal/bot"
	"github.com/bunyodbekab/finans-assistent-bot/internal/config"
	"github.com/bunyodbekab/finans-assistent-bot/internal/engine"
	"github.com/bunyodbekab/finans-assistent-bot/internal/logger"
	"github.com/bunyodbekab/finans-assistent-bot/internal/report"
	"github.com/bunyodbekab/finans-assistent-bot/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logrus.ErrorLevel, "bot").Fatal(err)
	}
	log := logger.New(cfg.Level(), "bot")

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close database")
		}
	}()

	tg, err := bot.New(cfg.TelegramToken, log)
	if err != nil {
		log.Fatal(err)
	}
	reports := report.NewGenerator(store, logger.New(cfg.Level(), "report"))
	tg.SetEngine(engine.New(store, reports, tg, logger.New(cfg.Level(), "engine")))

	errC := make(chan error, 1)
	go func() {
		if err := tg.Start(); err != nil {
			errC <- err
		}
	}()

	sigC := make(chan error, 1)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sigC <- fmt.Errorf("received signal %s", <-c)
	}()

	select {
	case sig := <-sigC:
		tg.Stop()
		log.Info(sig)
	case err := <-errC:
		log.Fatal("error ", err)
	}
}
