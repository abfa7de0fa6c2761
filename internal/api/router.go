package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/1ilseok/briefit/internal/briefing"
	"github.com/1ilseok/briefit/internal/collector"
	"github.com/1ilseok/briefit/internal/logger"
	"github.com/1ilseok/briefit/internal/storage"
	"github.com/gin-gonic/gin"
)

// Runner 由 briefing.Runner 实现
type Runner interface {
	Run(ctx context.Context, trigger string) (*briefing.Report, error)
	Preview(ctx context.Context) (*briefing.Report, string, error)
	Sources() []collector.SourceConfig
}

// RunLister 由 storage.Store 实现
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]storage.RunRecord, error)
}

type Server struct {
	runner Runner
	runs   RunLister
}

func NewServer(runner Runner, runs RunLister) *Server {
	return &Server{runner: runner, runs: runs}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/sources", s.listSources)
		v1.GET("/runs", s.listRuns)
		v1.POST("/runs", s.triggerRun)
		v1.GET("/preview", s.preview)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type sourceView struct {
	Source       collector.Source   `json:"source"`
	Label        string             `json:"label"`
	WindowDays   int                `json:"windowDays"`
	MaxItems     int                `json:"maxItems"`
	Rank         collector.RankRule `json:"rank"`
	DailyQuota   int                `json:"dailyQuota,omitempty"`
	WeekdaysOnly bool               `json:"weekdaysOnly,omitempty"`
	Timeout      string             `json:"timeout"`
	Enabled      bool               `json:"enabled"`
}

func (s *Server) listSources(c *gin.Context) {
	cfgs := s.runner.Sources()
	out := make([]sourceView, 0, len(cfgs))
	for _, cfg := range cfgs {
		out = append(out, sourceView{
			Source:       cfg.Source,
			Label:        cfg.Source.Label(),
			WindowDays:   cfg.WindowDays,
			MaxItems:     cfg.MaxItems,
			Rank:         cfg.Rank,
			DailyQuota:   cfg.DailyQuota,
			WeekdaysOnly: cfg.WeekdaysOnly,
			Timeout:      cfg.Timeout.String(),
			Enabled:      !cfg.RequiresCredential || cfg.Credential != "",
		})
	}
	ok(c, out)
}

func (s *Server) listRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	runs, err := s.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		logger.Error().Err(err).Msg("list runs")
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, runs)
}

// triggerRun 同步执行一次完整运行并返回报告。客户端断开不会中断发送
func (s *Server) triggerRun(c *gin.Context) {
	rep, err := s.runner.Run(context.WithoutCancel(c.Request.Context()), "api")
	switch {
	case errors.Is(err, briefing.ErrRunInProgress):
		fail(c, http.StatusConflict, "run_in_progress", err.Error())
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "delivery_failed",
			"message": err.Error(),
			"data":    rep,
		})
	default:
		ok(c, rep)
	}
}

func (s *Server) preview(c *gin.Context) {
	_, html, err := s.runner.Preview(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("preview")
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"code": code, "message": msg})
}

// BasicAuth 配置了 APP_BASIC_USER / APP_BASIC_PASS 时启用，/health 免认证
func BasicAuth(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, hasAuth := c.Request.BasicAuth()
		if !hasAuth ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
