package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/palemoky/mini-arcade/internal/config"
	"github.com/palemoky/mini-arcade/internal/games/pong"
	"github.com/palemoky/mini-arcade/internal/games/tictactoe"
	"github.com/palemoky/mini-arcade/internal/server"
)

func main() {
	cmd := &cli.Command{
		Name:  "mini-arcade",
		Usage: "多人小游戏服务器",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "配置文件路径",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "监听端口（覆盖配置文件）",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	// 加载配置
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Server.Port = int(port)
	}

	// 创建服务器
	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}

	// 启动时注册所有游戏，进程运行期间注册表不再变化
	registry := srv.Registry()
	sender := registry.Sender()
	recorder := srv.Recorder()
	registry.RegisterHandler("pong", pong.New("pong", sender, recorder))
	registry.RegisterHandler("tictactoe", tictactoe.New("tictactoe", sender, recorder))

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("正在关闭服务器...")
		srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
		os.Exit(0)
	}()

	// 启动服务器
	log.Println("🕹️ mini-arcade 服务器启动中...")
	return srv.Start()
}
