// Package updater runs the fetch-compute-publish cycles that produce the
// published snapshot. A full cycle walks FetchUniverse -> FetchContext ->
// PerSymbolAnalysis -> Filter -> Publish; a cheaper basic cycle refreshes
// quote data only.
package updater

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/cache"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/config"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/indicators"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/scoring"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/snapshot"
)

// Skip reasons reported in the update summary.
const (
	SkipNonPositivePrice = "non_positive_price"
	SkipZoneFiltered     = "zone_filtered"
	SkipMissingSpread    = "missing_spread"
	SkipWideSpread       = "spread_too_wide"
	SkipPanic            = "analysis_panic"
)

// quoteSuffix is appended to a coin symbol to form the traded market symbol.
const quoteSuffix = "USDT"

var timeframes = []string{"15m", "1h", "4h"}

// rsiTimeframe is the series RSI and volume signals are computed from.
const rsiTimeframe = "1h"

// Notifier receives freshly published BUY analyses. Implementations must not
// block the cycle.
type Notifier interface {
	NotifyBuys(ctx context.Context, analyses []models.CoinAnalysis)
}

// Updater orchestrates update cycles against the provider gateway and
// publishes results to the snapshot store.
type Updater struct {
	gw       models.Gateway
	metrics  *cache.MetricsCache
	store    *snapshot.Store
	cfg      *config.Config
	notifier Notifier
	logger   zerolog.Logger
}

// New creates an Updater. notifier may be nil.
func New(gw models.Gateway, metrics *cache.MetricsCache, store *snapshot.Store,
	cfg *config.Config, notifier Notifier) *Updater {
	return &Updater{
		gw:       gw,
		metrics:  metrics,
		store:    store,
		cfg:      cfg,
		notifier: notifier,
		logger:   log.With().Str("component", "updater").Logger(),
	}
}

// Run executes one full cycle immediately, then triggers full and basic
// cycles on their configured intervals until ctx is cancelled.
func (u *Updater) Run(ctx context.Context) {
	if err := u.RunFullCycle(ctx); err != nil {
		u.logger.Error().Err(err).Msg("Initial full update cycle failed")
	}

	fullTicker := time.NewTicker(u.cfg.FullInterval)
	defer fullTicker.Stop()
	basicTicker := time.NewTicker(u.cfg.BasicInterval)
	defer basicTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			u.logger.Info().Msg("Updater stopping")
			return
		case <-fullTicker.C:
			if err := u.RunFullCycle(ctx); err != nil {
				u.logger.Error().Err(err).Msg("Full update cycle failed, previous snapshot kept")
			}
		case <-basicTicker.C:
			if err := u.RunBasicCycle(ctx); err != nil {
				u.logger.Warn().Err(err).Msg("Basic update cycle failed")
			}
		}
	}
}

// cycleContext is the shared, immutable context every symbol in one cycle is
// scored against. It is assembled once per cycle so no symbol ever sees a
// mixed-context view.
type cycleContext struct {
	fearGreed models.SentimentIndex
	news      []models.NewsItem
	sectors   map[string]string
	mentions  map[string]int
}

// RunFullCycle performs one fetch-compute-publish cycle. A universe fetch
// failure aborts the cycle and keeps the previous snapshot; any per-symbol
// failure only increments a skip counter.
func (u *Updater) RunFullCycle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, u.cfg.CycleTimeout)
	defer cancel()

	started := time.Now()

	// FetchUniverse. Never publish a partial or empty universe over a good
	// snapshot.
	tickers, err := u.gw.FetchTickers(ctx)
	if err != nil {
		return fmt.Errorf("fetch universe: %w", err)
	}
	if len(tickers) == 0 {
		return fmt.Errorf("fetch universe: empty ticker map")
	}
	u.store.PublishTickers(&models.TickerBook{FetchedAt: time.Now(), Tickers: tickers})

	candidates := u.selectCandidates(ctx, tickers)

	cctx := u.fetchContext(ctx, candidates)

	// PerSymbolAnalysis with a bounded worker pool. Each slot in results
	// matches the candidate at the same index so output order is stable.
	results := make([]*models.CoinAnalysis, len(candidates))
	var skipMu sync.Mutex
	skipped := make(map[string]int)
	countSkip := func(reason string) {
		skipMu.Lock()
		skipped[reason]++
		skipMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.AnalysisWorkers)
	for i, coin := range candidates {
		g.Go(func() error {
			ticker, ok := tickers[coin+quoteSuffix]
			if !ok {
				return nil
			}
			analysis, reason := u.analyzeSymbol(gctx, coin, ticker, cctx)
			if reason != "" {
				countSkip(reason)
				return nil
			}
			results[i] = analysis
			return nil
		})
	}
	// Workers never return errors; Wait only surfaces context cancellation.
	if err := g.Wait(); err != nil {
		return fmt.Errorf("per-symbol analysis: %w", err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("cycle deadline: %w", ctx.Err())
	}

	analyses := make([]models.CoinAnalysis, 0, len(results))
	for _, r := range results {
		if r != nil {
			analyses = append(analyses, *r)
		}
	}

	snap := &models.Snapshot{
		UpdatedAt: time.Now(),
		FearGreed: cctx.fearGreed,
		Analyses:  analyses,
		Summary: models.UpdateSummary{
			Analyzed: len(analyses),
			Skipped:  skipped,
			Duration: time.Since(started),
		},
	}
	u.store.Publish(snap)

	u.logger.Info().
		Int("analyzed", snap.Summary.Analyzed).
		Interface("skipped", skipped).
		Dur("took", snap.Summary.Duration).
		Msg("Published full snapshot")

	if u.notifier != nil {
		var buys []models.CoinAnalysis
		for _, a := range analyses {
			if a.Signal == scoring.SignalBuy {
				buys = append(buys, a)
			}
		}
		if len(buys) > 0 {
			u.notifier.NotifyBuys(ctx, buys)
		}
	}

	return nil
}

// selectCandidates picks the coins to analyze this cycle: trending coins
// that trade against the quote currency. When the trending source is down,
// it degrades to the highest-volume markets so a cycle still produces data.
func (u *Updater) selectCandidates(ctx context.Context, tickers map[string]models.MarketTicker) []string {
	trending, err := u.gw.FetchTrending(ctx)
	if err != nil {
		u.logger.Warn().Err(err).Msg("Trending unavailable, falling back to top-volume markets")
		trending = topVolumeCoins(tickers, u.cfg.MaxSymbols)
	}

	candidates := make([]string, 0, len(trending))
	seen := make(map[string]bool, len(trending))
	for _, coin := range trending {
		coin = strings.ToUpper(coin)
		if seen[coin] {
			continue
		}
		seen[coin] = true
		if _, ok := tickers[coin+quoteSuffix]; ok {
			candidates = append(candidates, coin)
		}
		if len(candidates) >= u.cfg.MaxSymbols {
			break
		}
	}
	return candidates
}

func topVolumeCoins(tickers map[string]models.MarketTicker, limit int) []string {
	coins := make([]string, 0, len(tickers))
	volumes := make(map[string]float64, len(tickers))
	for symbol, t := range tickers {
		base, ok := strings.CutSuffix(symbol, quoteSuffix)
		if !ok || base == "" {
			continue
		}
		coins = append(coins, base)
		volumes[base] = t.Volume24 * t.LastPrice
	}
	sort.Slice(coins, func(i, j int) bool {
		if volumes[coins[i]] != volumes[coins[j]] {
			return volumes[coins[i]] > volumes[coins[j]]
		}
		return coins[i] < coins[j]
	})
	if len(coins) > limit {
		coins = coins[:limit]
	}
	return coins
}

// fetchContext gathers the once-per-cycle shared context. Every part
// degrades independently: a missing feed becomes a neutral default, never a
// cycle failure.
func (u *Updater) fetchContext(ctx context.Context, candidates []string) *cycleContext {
	cctx := &cycleContext{
		fearGreed: models.SentimentIndex{Score: 50, Label: "Neutral"},
		sectors:   map[string]string{},
		mentions:  map[string]int{},
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		if idx, err := u.gw.FetchSentimentIndex(ctx); err == nil {
			cctx.fearGreed = idx
		} else {
			u.logger.Warn().Err(err).Msg("Fear/greed unavailable, using neutral default")
		}
	}()
	go func() {
		defer wg.Done()
		if news, err := u.gw.FetchNews(ctx); err == nil {
			cctx.news = news
		}
	}()
	go func() {
		defer wg.Done()
		if sectors, err := u.gw.FetchSectorLookup(ctx); err == nil {
			cctx.sectors = sectors
		}
	}()
	go func() {
		defer wg.Done()
		if mentions, err := u.gw.FetchMentions(ctx, candidates); err == nil {
			cctx.mentions = mentions
		}
	}()

	wg.Wait()
	return cctx
}

// analyzeSymbol produces one CoinAnalysis. A non-empty reason means the
// symbol was skipped. Filters run strictly before the candle and cache work
// to bound external calls per cycle.
func (u *Updater) analyzeSymbol(ctx context.Context, coin string, ticker models.MarketTicker,
	cctx *cycleContext) (analysis *models.CoinAnalysis, reason string) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error().Str("symbol", coin).Interface("panic", r).Msg("Analysis panicked")
			analysis, reason = nil, SkipPanic
		}
	}()

	if ticker.LastPrice <= 0 {
		return nil, SkipNonPositivePrice
	}

	volatility := (ticker.HighPrice24 - ticker.LowPrice24) / ticker.LastPrice * 100
	zone, strategy := indicators.VolatilityZone(&volatility)
	if !u.cfg.ZoneAllowed(zone) {
		return nil, SkipZoneFiltered
	}

	marketSymbol := coin + quoteSuffix
	orderBook, err := u.gw.FetchOrderBook(ctx, marketSymbol)
	if err != nil {
		return nil, SkipMissingSpread
	}
	spread := orderBook.SpreadPercent(ticker.LastPrice)
	if spread == nil {
		return nil, SkipMissingSpread
	}
	if *spread > u.cfg.SpreadCeiling {
		return nil, SkipWideSpread
	}

	// One candle fetch per (symbol, interval) per cycle; every indicator
	// reads from this map.
	candles := make(map[string]*models.CandleSeries, len(timeframes))
	for _, tf := range timeframes {
		series, err := u.gw.FetchCandles(ctx, marketSymbol, tf)
		if err != nil {
			continue
		}
		candles[tf] = series
	}

	mtfConfirmed, tfStatus := u.analyzeTimeframes(ticker.LastPrice, candles)

	var rsi *float64
	var divergence, volumeRising bool
	if series, ok := candles[rsiTimeframe]; ok {
		closes := series.Closes()
		volumes := series.Volumes()
		rsi = indicators.RSI(closes, u.cfg.RSIPeriod)
		divergence = indicators.VolumeDivergence(volumes, u.cfg.VolumeLookback)
		if n := len(volumes); n >= 2 {
			volumeRising = volumes[n-1] > volumes[n-2]
		}
	}
	health := indicators.MomentumHealth(rsi, divergence)

	// Slow-moving community metrics come through the cache; unavailable is
	// fine and contributes nothing to the score.
	var metrics *models.SymbolMetrics
	var metricsAt *time.Time
	if m, err := u.metrics.Get(ctx, coin); err == nil {
		metrics = m
		metricsAt = &m.FetchedAt
	}

	newsSentiment := newsSentimentFor(coin, cctx.news)

	thin := len(orderBook.Bids) < u.cfg.OrderBookDepthLevels ||
		len(orderBook.Asks) < u.cfg.OrderBookDepthLevels

	score := scoring.Score(scoring.Inputs{
		MomentumHealth: health,
		RSI:            rsi,
		VolumeRising:   volumeRising,
		SpreadPercent:  spread,
		OrderBookThin:  thin,
		NewsSentiment:  newsSentiment,
		// No on-chain inflow source is wired; the signal stays false until
		// one exists and the -2 delta never fires.
		InflowSpike: false,
		Metrics:     metrics,
	}, scoring.Thresholds{
		CommunityScore:      u.cfg.CommunityScoreThreshold,
		DeveloperScore:      u.cfg.DeveloperScoreThreshold,
		PublicInterestScore: u.cfg.PublicInterestThreshold,
		SentimentPct:        u.cfg.SentimentPctThreshold,
		TightSpread:         u.cfg.TightSpreadThreshold,
	})

	signal := scoring.Signal(score, mtfConfirmed, cctx.fearGreed.Score, health, scoring.SignalRules{
		BuyScoreFloor:         u.cfg.BuyScoreFloor,
		AvoidScoreCeiling:     u.cfg.AvoidScoreCeiling,
		FearGreedBuyFloor:     u.cfg.FearGreedBuyFloor,
		FearGreedAvoidCeiling: u.cfg.FearGreedAvoidCeiling,
	})

	sector, ok := cctx.sectors[coin]
	if !ok {
		sector = "Unknown"
	}

	return &models.CoinAnalysis{
		Symbol:            coin,
		Price:             ticker.LastPrice,
		VolatilityPercent: volatility,
		VolatilityZone:    zone,
		Strategy:          strategy,
		SpreadPercent:     spread,
		TopBids:           orderBook.Bids,
		TopAsks:           orderBook.Asks,
		MTFConfirmed:      mtfConfirmed,
		Timeframes:        tfStatus,
		RSI:               rsi,
		VolumeDivergence:  divergence,
		MomentumHealth:    health,
		BreakoutScore:     score,
		Signal:            signal,
		TimeToTarget:      scoring.EstimateTimeToTarget(score, zone),
		Sector:            sector,
		NewsSentiment:     newsSentiment,
		RedditMentions:    cctx.mentions[coin],
		MetricsFetchedAt:  metricsAt,
		AnalyzedAt:        time.Now(),
	}, ""
}

// analyzeTimeframes computes the EMA trend per timeframe. Confirmation
// requires a bullish trend on every timeframe; a missing series or an
// unavailable EMA breaks confirmation.
func (u *Updater) analyzeTimeframes(lastPrice float64,
	candles map[string]*models.CandleSeries) (bool, map[string]models.TimeframeStatus) {
	confirmed := true
	status := make(map[string]models.TimeframeStatus, len(timeframes))

	for _, tf := range timeframes {
		series, ok := candles[tf]
		if !ok {
			status[tf] = models.TimeframeStatus{Price: lastPrice, Trend: "unknown"}
			confirmed = false
			continue
		}

		ema := indicators.EMA(series.Closes(), u.cfg.EMAPeriod)
		if ema == nil {
			status[tf] = models.TimeframeStatus{Price: lastPrice, Trend: "unknown"}
			confirmed = false
			continue
		}

		trend := "bearish"
		if lastPrice > *ema {
			trend = "bullish"
		} else {
			confirmed = false
		}
		status[tf] = models.TimeframeStatus{Price: lastPrice, EMA20: ema, Trend: trend}
	}

	return confirmed, status
}

// newsSentimentFor scans the shared news list for the first post naming the
// coin and reads its vote balance. First match wins, as cheap tie-break.
func newsSentimentFor(coin string, news []models.NewsItem) string {
	needle := strings.ToLower(coin)
	for _, item := range news {
		title := strings.ToLower(item.Title)
		if !strings.Contains(title, needle) {
			continue
		}
		if item.PositiveVotes > item.NegativeVotes {
			return scoring.NewsPositive
		}
		if item.NegativeVotes > item.PositiveVotes {
			return scoring.NewsNegative
		}
	}
	return scoring.NewsNeutral
}

// RunBasicCycle refreshes quote data only: the ticker book, plus price and
// volatility on the current snapshot's analyses. Context-derived fields
// (score, signal, sentiment) are left untouched so readers never see a
// mixed-context analysis; the snapshot keeps its full-cycle timestamp.
func (u *Updater) RunBasicCycle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, u.cfg.CycleTimeout)
	defer cancel()

	tickers, err := u.gw.FetchTickers(ctx)
	if err != nil {
		return fmt.Errorf("fetch tickers: %w", err)
	}
	if len(tickers) == 0 {
		return fmt.Errorf("empty ticker map")
	}
	u.store.PublishTickers(&models.TickerBook{FetchedAt: time.Now(), Tickers: tickers})

	current := u.store.Current()
	if current == nil {
		return nil
	}

	refreshed := *current
	refreshed.Analyses = make([]models.CoinAnalysis, len(current.Analyses))
	copy(refreshed.Analyses, current.Analyses)

	for i := range refreshed.Analyses {
		a := &refreshed.Analyses[i]
		ticker, ok := tickers[a.Symbol+quoteSuffix]
		if !ok || ticker.LastPrice <= 0 {
			continue
		}
		volatility := (ticker.HighPrice24 - ticker.LowPrice24) / ticker.LastPrice * 100
		zone, strategy := indicators.VolatilityZone(&volatility)
		a.Price = ticker.LastPrice
		a.VolatilityPercent = volatility
		a.VolatilityZone = zone
		a.Strategy = strategy
	}

	u.store.Publish(&refreshed)
	u.logger.Debug().Int("refreshed", len(refreshed.Analyses)).Msg("Published basic refresh")
	return nil
}
