package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DramaStudio-server/config"
	"DramaStudio-server/logger"
	"DramaStudio-server/models"
	"DramaStudio-server/routers"
	"DramaStudio-server/routers/api"
	"DramaStudio-server/service"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "加载配置失败:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.App.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "初始化日志失败:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, dialect, err := models.Open(cfg.Database, log)
	if err != nil {
		log.Fatalw("数据库初始化失败", "error", err)
	}
	defer models.Close(db)

	schema := models.NewSchema(db, dialect, log)
	if err := schema.Ensure(ctx); err != nil {
		// 请求进入时会再次尝试建表
		log.Errorw("初始化数据表失败", "error", err)
	}

	storage, err := service.NewStorage(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatalw("存储初始化失败", "type", cfg.Storage.Type, "error", err)
	}
	log.Infow("存储初始化完成", "type", cfg.Storage.Type)

	tasks := service.NewTaskService(db, schema)
	h := &api.Handler{
		DB:           db,
		Schema:       schema,
		Tasks:        tasks,
		Gen:          service.NewGenerationService(db, schema, tasks),
		Storage:      storage,
		Log:          log,
		App:          cfg.App,
		PollInterval: cfg.Task.PollInterval,
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      routers.InitRouter(h, cfg, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infow("Server starting", "addr", cfg.Server.Port, "app", cfg.App.Name, "version", cfg.App.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("服务启动失败", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown Server ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server Shutdown Failed", "error", err)
	}
	log.Info("Server exiting")
}
