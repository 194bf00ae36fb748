package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/cache"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/config"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/gateway"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/notify"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/alternative"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/bybit"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/coingecko"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/cryptopanic"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/reddit"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/snapshot"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/updater"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	market := bybit.NewClient(bybit.ClientOptions{
		RequestTimeout: cfg.RequestTimeout,
		RequestsPerSec: cfg.BybitRPS,
		MaxRetries:     cfg.MaxRetries,
		Depth:          cfg.OrderBookDepthLevels,
	})
	cg := coingecko.NewClient(coingecko.ClientOptions{
		RequestTimeout: cfg.RequestTimeout,
		MinInterval:    cfg.CoinGeckoInterval,
		MaxRetries:     cfg.MaxRetries,
		SlugTTL:        cfg.SlugTTL,
	})
	news := cryptopanic.NewClient(cryptopanic.ClientOptions{
		APIKey:         cfg.CryptoPanicKey,
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
	})
	fearGreed := alternative.NewClient(alternative.ClientOptions{
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
	})
	social := reddit.NewClient(reddit.ClientOptions{
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
	})

	gw := gateway.New(market, cg, news, fearGreed, social, cfg.CandleLimit)
	metricsCache := cache.New(gw, cfg.MetricsTTL)
	store := snapshot.New()

	var notifier updater.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, cfg.NotifyCooldown)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram notifier disabled")
		} else {
			notifier = tg
		}
	}

	upd := updater.New(gw, metricsCache, store, cfg, notifier)
	go upd.Run(ctx)

	server := web.NewServer(cfg.HTTPPort, store, cfg)
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
