// Package web exposes the bot over HTTP: inspection of trades and
// performance, on-demand backtests, and manual triggers for the evaluation
// and monitoring loops. Handlers are thin; all decisions live in the core
// packages.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crossbot/backtest"
	"crossbot/bot"
	"crossbot/config"
	"crossbot/feed"
	"crossbot/ledger"
	"crossbot/risk"
	"crossbot/store"
	"crossbot/strategy"
)

// Store is the slice of persistence the HTTP surface reads and writes.
type Store interface {
	ListPositions(ctx context.Context, symbol string) ([]ledger.Position, error)
	ListOpenPositions(ctx context.Context) ([]ledger.Position, error)
	SaveRun(ctx context.Context, run backtest.Run) (backtest.Run, error)
	ListRuns(ctx context.Context) ([]backtest.Run, error)
	GetRun(ctx context.Context, runID string) (backtest.Run, error)
}

// Server wires gin routes to the bot, feed and store.
type Server struct {
	bot   *bot.Bot
	store Store
	feed  feed.PriceFeed
	cfg   *config.Config
	log   *zap.Logger

	engine  *gin.Engine
	started time.Time
}

func NewServer(b *bot.Bot, st Store, f feed.PriceFeed, cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		bot:     b,
		store:   st,
		feed:    f,
		cfg:     cfg,
		log:     log,
		started: time.Now(),
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())

	s.engine.GET("/status", s.handleStatus)
	s.engine.GET("/trades", s.handleTrades)
	s.engine.GET("/performance", s.handlePerformance)
	s.engine.GET("/backtest", s.handleBacktest)
	s.engine.GET("/backtest-results", s.handleBacktestResults)
	s.engine.POST("/monitor", s.handleMonitor)
	s.engine.POST("/simulate", s.handleSimulate)

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails or the process dies.
func (s *Server) Run(addr string) error {
	s.log.Info("http server listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}

func (s *Server) handleStatus(c *gin.Context) {
	open, err := s.store.ListOpenPositions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"symbols":        s.cfg.Symbols,
		"open_positions": len(open),
		"uptime":         time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleTrades(c *gin.Context) {
	positions, err := s.store.ListPositions(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if positions == nil {
		positions = []ledger.Position{}
	}
	c.JSON(http.StatusOK, gin.H{"trades": positions})
}

func (s *Server) handlePerformance(c *gin.Context) {
	positions, err := s.store.ListPositions(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}

	var (
		totalPnL      float64
		closed, wins  int
		openPositions int
	)
	for _, p := range positions {
		if p.Open() {
			openPositions++
			continue
		}
		closed++
		totalPnL += *p.RealizedPnL
		if *p.RealizedPnL > 0 {
			wins++
		}
	}

	winRate := 0.0
	if closed > 0 {
		winRate = float64(wins) / float64(closed)
	}

	c.JSON(http.StatusOK, gin.H{
		"total_realized_pnl": totalPnL,
		"closed_trades":      closed,
		"winning_trades":     wins,
		"losing_trades":      closed - wins,
		"win_rate":           winRate,
		"open_positions":     openPositions,
	})
}

// handleBacktest runs a backtest over recent history and persists the result.
// Strategy parameters default to the configured values and can be overridden
// per request via query parameters.
func (s *Server) handleBacktest(c *gin.Context) {
	symbol := c.DefaultQuery("symbol", s.cfg.Symbols[0])
	short := s.intQuery(c, "short_window", s.cfg.Strategy.ShortWindow)
	long := s.intQuery(c, "long_window", s.cfg.Strategy.LongWindow)
	limit := s.intQuery(c, "limit", 500)
	balance := s.floatQuery(c, "initial_balance", s.cfg.Account.Balance)
	stopLoss := s.floatQuery(c, "stop_loss_percent", s.cfg.Strategy.StopLossPct)
	takeProfit := s.floatQuery(c, "take_profit_percent", s.cfg.Strategy.TakeProfitPct)
	if c.IsAborted() {
		return
	}

	candles, err := s.feed.GetOHLCV(c.Request.Context(), symbol, s.cfg.Strategy.Interval, limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	engine := backtest.New(backtest.Params{
		Symbol:         symbol,
		ShortWindow:    short,
		LongWindow:     long,
		InitialBalance: balance,
		StopLossPct:    stopLoss,
		TakeProfitPct:  takeProfit,
	})
	run, err := engine.Run(candles)
	if err != nil {
		s.fail(c, err)
		return
	}

	saved, err := s.store.SaveRun(c.Request.Context(), run)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleBacktestResults(c *gin.Context) {
	if id := c.Query("id"); id != "" {
		run, err := s.store.GetRun(c.Request.Context(), id)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
		return
	}

	runs, err := s.store.ListRuns(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if runs == nil {
		runs = []backtest.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// handleMonitor runs one stop-loss/take-profit sweep and reports the closes.
func (s *Server) handleMonitor(c *gin.Context) {
	results, err := s.bot.MonitorOpenPositions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if results == nil {
		results = []bot.ActionResult{}
	}
	c.JSON(http.StatusOK, gin.H{"closed": results})
}

// handleSimulate forces one evaluation tick for a symbol, outside the
// scheduled loop.
func (s *Server) handleSimulate(c *gin.Context) {
	var req struct {
		Symbol string `json:"symbol" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errBody("invalid_parameter", "symbol is required"))
		return
	}

	res, err := s.bot.EvaluateAndAct(c.Request.Context(), req.Symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errBody("invalid_parameter", name+" must be an integer"))
		return 0
	}
	return n
}

func (s *Server) floatQuery(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errBody("invalid_parameter", name+" must be a number"))
		return 0
	}
	return f
}

// fail translates core error kinds to HTTP statuses. Unrecognized errors are
// internal.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, strategy.ErrInsufficientData):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errBody("insufficient_data", err.Error()))
	case errors.Is(err, strategy.ErrInvalidWindows), errors.Is(err, risk.ErrInvalidParameter):
		c.AbortWithStatusJSON(http.StatusBadRequest, errBody("invalid_parameter", err.Error()))
	case errors.Is(err, ledger.ErrNoOpenPosition):
		c.AbortWithStatusJSON(http.StatusNotFound, errBody("no_open_position", err.Error()))
	case errors.Is(err, store.ErrRunNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errBody("not_found", err.Error()))
	default:
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errBody("internal", err.Error()))
	}
}

func errBody(kind, message string) gin.H {
	return gin.H{"error": gin.H{"kind": kind, "message": message}}
}
