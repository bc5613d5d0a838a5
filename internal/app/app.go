// Package app assembles the catalog bot: configuration, logging, storage,
// services, chat workflows, and the HTTP delivery gate, then runs the
// Telegram transport until the context is cancelled.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/scriptsbot/core/database"
	"github.com/m3rciful/scriptsbot/core/logger"
	tg "github.com/m3rciful/scriptsbot/core/telegram"
	"github.com/m3rciful/scriptsbot/core/telegram/router"
	"github.com/m3rciful/scriptsbot/internal/bot"
	"github.com/m3rciful/scriptsbot/internal/config"
	"github.com/m3rciful/scriptsbot/internal/conversation"
	"github.com/m3rciful/scriptsbot/internal/httpserver"
	"github.com/m3rciful/scriptsbot/internal/service"
	"github.com/m3rciful/scriptsbot/internal/session"
	"github.com/m3rciful/scriptsbot/internal/storage"
)

// Run boots the whole application and blocks until ctx is done.
func Run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitLogger(&cfg.Core); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Shutdown() }()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	catalog := service.NewCatalog(
		storage.NewScriptRepo(db),
		storage.NewDownloadRepo(db),
		cfg.Catalog.FetchLimit,
	)

	sessions := session.NewStore()
	sweeper := session.NewSweeper(sessions,
		time.Duration(cfg.Session.SweepIntervalMinutes)*time.Minute,
		time.Duration(cfg.Session.MaxIdleMinutes)*time.Minute,
	)

	ctrl := conversation.NewController(catalog, sessions, conversation.Options{
		PageSize:         cfg.Catalog.PageSize,
		MinNameLen:       cfg.Catalog.MinNameLen,
		MinDescLen:       cfg.Catalog.MinDescLen,
		SkipConfirmation: cfg.Catalog.SkipConfirmation,
		WebURL:           cfg.Web.BaseURL,
		AdminCount:       len(cfg.Core.Telegram.Admins),
	})

	handlers := bot.NewHandlers(ctrl, cfg.Core.Telegram)
	reg := bot.BuildRegistry(handlers)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs:      handlers.AdminIDs(),
		OnAdminReject: handlers.OnAdminReject(),
	})
	routes = append(routes,
		router.TextRoute(bot.NewFSM(ctrl), reg, router.TextOptions{}),
		router.CallbackRoute(reg, router.CallbackOptions{}),
	)

	var httpSrv *httpserver.Server

	return tg.RunTelegram(ctx, tg.RunOptions{
		Config:      &cfg.Core,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(&cfg.Core, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			httpSrv = httpserver.New(cfg.HTTP.Port, httpserver.Deps{
				Scripts:   catalog,
				Downloads: catalog,
				Sender:    bot.NewNotifier(rt.Bot),
			})
			httpSrv.Start()
			sweeper.Start(ctx)
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			sweeper.Stop()
			if httpSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Stop(shutdownCtx)
			}
			return nil
		},
	})
}
