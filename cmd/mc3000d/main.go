package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/taoyao-code/skyrc-ble/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/skyrc-ble/internal/config"
	"github.com/taoyao-code/skyrc-ble/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认 $MC3000_CONFIG 或 ./configs/mc3000d.yaml）")
	once := flag.Bool("once", false, "连接并刷新一次，将快照以 YAML 输出到 stdout 后退出")
	flag.Parse()

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(2)
	}

	// 2) 初始化日志（stderr，stdout 留给 -once 输出）
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	if *once {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = bootstrap.RunOnce(ctx, cfg, log, os.Stdout)
		stop()
		if err != nil {
			log.Error("refresh failed", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}
		return
	}

	if err := bootstrap.Run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
