package main

import (
	"errors"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/app"
	"github.com/Spok95/class-points-bot/internal/bot/handlers"
	"github.com/Spok95/class-points-bot/internal/jobs"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("debug-bot", false, "Log raw Telegram API traffic")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reviewer bot, HTTP side-port and background jobs",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log.Base

	if rt.cfg.BotToken == "" {
		return errors.New("BOT_TOKEN is required for serve")
	}
	if len(rt.cfg.AdminIDs) == 0 {
		log.Warn("ADMIN_IDS is empty: bot will refuse every chat")
	}

	bot, err := tgbotapi.NewBotAPI(rt.cfg.BotToken)
	if err != nil {
		return err
	}
	bot.Debug, _ = cmd.Flags().GetBool("debug-bot")
	log.Info("bot started", zap.String("username", bot.Self.UserName))

	app.StartHTTP(ctx, rt.cfg.HTTPAddr, rt.db, rt.log.Component("http"))
	log.Info("http side-port listening", zap.String("addr", rt.cfg.HTTPAddr))

	runner := jobs.New(ctx, rt.log.Component("jobs"))
	runner.Every(rt.cfg.BalanceCheckInterval, "balance_check", jobs.BalanceCheck(rt.svc))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	h := handlers.New(rt.svc, bot, rt.log.Component("bot"))
	app.NewDispatcher(h, bot, rt.cfg.IsAdmin, rt.log.Component("dispatcher")).Run(ctx, updates)

	log.Info("shutting down")
	return nil
}

