// Package dashboard exposes the bot's runtime state over HTTP: balance,
// open positions, recent signals and trades, maker and copy stats.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cypher/internal/copytrade"
	"cypher/internal/gateway/exchange"
	"cypher/internal/logger"
	"cypher/internal/mm"
	"cypher/internal/store/journal"
	"cypher/internal/trader"
)

// TraderState 是交易循环暴露给面板的只读视图。
type TraderState interface {
	Stats() trader.Stats
	OpenPositions() []exchange.Position
}

// MakerState 做市状态视图。
type MakerState interface {
	Stats() mm.Stats
}

// CopyState 跟单状态视图。
type CopyState interface {
	Stats() copytrade.Stats
}

// JournalReader 日志库的查询端口。
type JournalReader interface {
	RecentSignals(ctx context.Context, limit int) ([]journal.SignalRecord, error)
	RecentTrades(ctx context.Context, limit int) ([]journal.TradeRecord, error)
	TotalFees(ctx context.Context, follower string) (float64, error)
	Summary(ctx context.Context) string
}

// ServerConfig 描述面板依赖，除地址外均可为空。
type ServerConfig struct {
	Addr    string
	Trader  TraderState
	Maker   MakerState
	Copy    CopyState
	Journal JournalReader
}

// Server 提供只读的运行面板。
type Server struct {
	addr      string
	router    *gin.Engine
	startedAt time.Time
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":10000"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{addr: cfg.Addr, router: router, startedAt: time.Now()}

	router.GET("/", func(c *gin.Context) {
		running := cfg.Trader != nil
		c.String(http.StatusOK, "Cypher OK | running: %t | uptime: %ds\n",
			running, int(time.Since(s.startedAt).Seconds()))
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/status", s.handleStatus(cfg))
	api.GET("/positions", s.handlePositions(cfg.Trader))
	api.GET("/signals", s.handleSignals(cfg.Journal))
	api.GET("/trades", s.handleTrades(cfg.Journal))
	api.GET("/fees", s.handleFees(cfg.Journal))

	return s
}

func (s *Server) handleStatus(cfg ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		}
		if cfg.Trader != nil {
			resp["trader"] = cfg.Trader.Stats()
		}
		if cfg.Maker != nil {
			resp["mm"] = cfg.Maker.Stats()
		}
		if cfg.Copy != nil {
			resp["copytrade"] = cfg.Copy.Stats()
		}
		if cfg.Journal != nil {
			resp["summary"] = cfg.Journal.Summary(c.Request.Context())
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) handlePositions(t TraderState) gin.HandlerFunc {
	return func(c *gin.Context) {
		if t == nil {
			c.JSON(http.StatusOK, gin.H{"positions": []exchange.Position{}})
			return
		}
		positions := t.OpenPositions()
		out := make([]gin.H, 0, len(positions))
		for _, p := range positions {
			out = append(out, gin.H{
				"symbol":      p.Symbol,
				"side":        p.Side,
				"quantity":    p.Quantity,
				"entry_price": p.EntryPrice,
				"stop_loss":   p.StopLoss,
				"take_profit": p.TakeProfit,
				"leverage":    p.Leverage,
				"opened_at":   p.UpdatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"positions": out})
	}
}

func (s *Server) handleSignals(j JournalReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if j == nil {
			c.JSON(http.StatusOK, gin.H{"signals": []journal.SignalRecord{}})
			return
		}
		signals, err := j.RecentSignals(c.Request.Context(), queryLimit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"signals": signals})
	}
}

func (s *Server) handleTrades(j JournalReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if j == nil {
			c.JSON(http.StatusOK, gin.H{"trades": []journal.TradeRecord{}})
			return
		}
		trades, err := j.RecentTrades(c.Request.Context(), queryLimit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"trades": trades})
	}
}

func (s *Server) handleFees(j JournalReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if j == nil {
			c.JSON(http.StatusOK, gin.H{"total_fees_usd": 0})
			return
		}
		follower := c.Query("follower")
		total, err := j.TotalFees(c.Request.Context(), follower)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp := gin.H{"total_fees_usd": total}
		if follower != "" {
			resp["follower"] = follower
		}
		c.JSON(http.StatusOK, resp)
	}
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		return 50
	}
	return limit
}

// requestLogger 记录面板访问，便于追踪刷新与调用。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// Handler 返回底层路由，测试用。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("dashboard: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
