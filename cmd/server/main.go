// NICE-APS 排产引擎服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zhangyoujia1995/NICE-APS/internal/config"
	"github.com/zhangyoujia1995/NICE-APS/internal/database"
	"github.com/zhangyoujia1995/NICE-APS/internal/handler"
	"github.com/zhangyoujia1995/NICE-APS/internal/metrics"
	"github.com/zhangyoujia1995/NICE-APS/internal/middleware"
	"github.com/zhangyoujia1995/NICE-APS/internal/repository"
	"github.com/zhangyoujia1995/NICE-APS/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logFormat := "json"
	if cfg.IsDevelopment() {
		logFormat = "console"
	}
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: logFormat,
	})

	fmt.Printf("NICE-APS 排产引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库不可用时降级为无持久化模式
	var planRepo repository.PlanRepositoryInterface
	var orderRepo *repository.OrderRepository
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库连接失败，历史求解记录与基础数据端点将不可用")
	} else {
		defer db.Close()
		planRepo = repository.NewPlanRepository(db)
		orderRepo = repository.NewOrderRepository(db)
	}

	planHandler := handler.NewPlanHandler(planRepo, cfg.Planner)
	dataHandler := handler.NewDataHandler(orderRepo)

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		dbStatus := "disabled"
		if db != nil {
			dbStatus = "ok"
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				dbStatus = "unavailable"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"%s","service":"nice-aps","database":"%s"}`, status, dbStatus)
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "NICE-APS 排产引擎 API v1",
			"endpoints": {
				"plan": {
					"solve": "POST /api/v1/plan/solve",
					"validate": "POST /api/v1/plan/validate",
					"kpi": "POST /api/v1/plan/kpi",
					"runs": "GET /api/v1/plan/runs",
					"run": "GET /api/v1/plan/run?id="
				},
				"constraints": {
					"library": "GET /api/v1/constraints/library"
				},
				"data": {
					"orders": "GET|POST /api/v1/data/orders",
					"factories": "GET|POST /api/v1/data/factories"
				}
			}
		}`))
	})

	// 排产求解 API
	mux.HandleFunc("/api/v1/plan/solve", planHandler.Solve)

	// 方案验证 API
	mux.HandleFunc("/api/v1/plan/validate", planHandler.Validate)

	// 指标分析 API
	mux.HandleFunc("/api/v1/plan/kpi", planHandler.KPI)

	// 历史求解 API
	mux.HandleFunc("/api/v1/plan/runs", planHandler.ListRuns)
	mux.HandleFunc("/api/v1/plan/run", planHandler.GetRun)

	// 约束库 API
	mux.HandleFunc("/api/v1/constraints/library", handler.Library)

	// 基础数据 API
	mux.HandleFunc("/api/v1/data/orders", dataHandler.Orders)
	mux.HandleFunc("/api/v1/data/factories", dataHandler.Factories)

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// 中间件执行顺序：requestID -> rateLimit -> cors -> logging -> recovery -> handler
	root := middleware.Chain(mux, cfg.API.RateLimit)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.API.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}
