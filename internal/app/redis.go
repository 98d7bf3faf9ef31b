package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
	"github.com/taoyao-code/cec-server/internal/device"
	"github.com/taoyao-code/cec-server/internal/health"
	redisstorage "github.com/taoyao-code/cec-server/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端；未启用时返回 nil, nil
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, skipping initialization")
		return nil, nil
	}
	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize))
	return client, nil
}

// NewCommandSink 未处理命令队列：有 Redis 时落到 Redis List，否则用进程内环形缓冲
func NewCommandSink(client *redisstorage.Client, rcfg cfgpkg.RedisConfig, buffer int, logger *zap.Logger) device.CommandSink {
	if client == nil {
		logger.Info("unhandled commands kept in memory", zap.Int("buffer", buffer))
		return device.NewMemorySink(buffer)
	}
	logger.Info("unhandled commands forwarded to redis",
		zap.String("key", rcfg.QueueKey), zap.Int64("max_len", rcfg.QueueMaxLen))
	return redisstorage.NewCommandQueue(client, rcfg.QueueKey, rcfg.QueueMaxLen)
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
