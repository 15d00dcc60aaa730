package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/mini-arcade/internal/config"
	"github.com/palemoky/mini-arcade/internal/game"
	"github.com/palemoky/mini-arcade/internal/protocol"
	"github.com/palemoky/mini-arcade/internal/protocol/codec"
	"github.com/palemoky/mini-arcade/internal/server/core"
	"github.com/palemoky/mini-arcade/internal/storage"
	"github.com/palemoky/mini-arcade/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 压缩只有在大消息场景才有收益，状态快照都是小消息
	EnableCompression: false,
}

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client
	leaderboard *storage.Leaderboard
	registry    *game.Registry
	scheduler   *game.Scheduler
	handler     *Handler

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter    *core.RateLimiter
	originChecker  *core.OriginChecker
	messageLimiter *core.MessageRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	httpServer *http.Server
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		config:   cfg,
		registry: game.NewRegistry(),
		clients:  make(map[string]*Client),
		// 初始化安全组件
		rateLimiter: core.NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  core.NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: core.NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		// 初始化连接控制
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	// 初始化积分榜（可选，Redis 不可用时禁用）
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("⚠️ Redis 连接失败，积分榜功能禁用: %v", err)
			_ = rdb.Close()
		} else {
			s.redis = rdb
			s.leaderboard = storage.NewLeaderboard(rdb)
		}
	}

	// 初始化帧调度器
	s.scheduler = game.NewScheduler(cfg.Game.TickRate)

	// 初始化消息处理器
	s.handler = NewHandler(s)

	log.Printf("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond, cfg.Server.MaxConnections)

	return s, nil
}

// Registry 返回房间路由器，启动时在这里注册各个游戏
func (s *Server) Registry() *game.Registry {
	return s.registry
}

// Recorder 返回战绩记录器，未启用积分榜时为 nil
func (s *Server) Recorder() types.ScoreRecorder {
	if s.leaderboard == nil {
		return nil
	}
	return s.leaderboard
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	// 启动帧调度：所有游戏共享一个调度器
	s.scheduler.Start(s.registry.TickAll)

	// 启动监控协程
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (帧率: %d Hz)", addr, s.config.Game.TickRate)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
	}
	return s.httpServer.ListenAndServe()
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := core.GetClientIP(r)

	// 连接数限制检查
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	// 来源验证
	if !s.originChecker.Check(r) {
		<-s.semaphore
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// 速率限制检查
	if !s.rateLimiter.Allow(clientIP) {
		<-s.semaphore
		log.Printf("🚫 IP %s 请求过于频繁", clientIP)
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	// 创建客户端
	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	// 发送连接成功消息
	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID:   client.ID,
		PlayerName: client.Name,
	}))

	log.Printf("✅ 玩家 %s (%s) 已连接", client.Name, client.ID)

	// 启动客户端读写协程，连接关闭时释放信号量
	go client.WritePump()
	go func() {
		client.ReadPump()
		<-s.semaphore
	}()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		log.Printf("❌ 玩家 %s (%s) 已断开", client.Name, client.ID)
	}
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			s.GetOnlineCount(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// GracefulShutdown 优雅关闭：等待进行中的游戏结束后再退出
func (s *Server) GracefulShutdown(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.registry.ActiveGames()
		if active == 0 {
			log.Println("✅ 所有对局已结束")
			break
		}
		log.Printf("⏳ 等待 %d 个对局结束...", active)
		<-ticker.C
	}

	if active := s.registry.ActiveGames(); active > 0 {
		log.Printf("⚠️ 超时，仍有 %d 个对局进行中，强制关闭", active)
	}

	s.Shutdown()
}

// Shutdown 关闭服务器
func (s *Server) Shutdown() {
	// 停止帧调度
	s.scheduler.Stop()

	// 关闭所有客户端连接
	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	// 关闭 HTTP 服务
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
	}

	// 关闭 Redis
	if s.redis != nil {
		_ = s.redis.Close()
	}

	log.Println("服务器已关闭")
}
