package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arjunv/blockdex/internal/indexer/consumer"
	"github.com/arjunv/blockdex/internal/shard"
	"github.com/arjunv/blockdex/pkg/config"
	"github.com/arjunv/blockdex/pkg/kafka"
	"github.com/arjunv/blockdex/pkg/logger"
	"github.com/arjunv/blockdex/pkg/postgres"
	"github.com/arjunv/blockdex/pkg/rpc"
)

const numShards = 8

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting index worker", "num_shards", numShards)
	router, err := shard.NewRouter(cfg.Indexer, numShards)
	if err != nil {
		slog.Error("failed to create shard router", "error", err)
		os.Exit(1)
	}
	defer router.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, document status updates disabled", "error", err)
	} else {
		defer db.Close()
	}

	for shardID, engine := range router.GetAllEngines() {
		engine.StartFlushLoop(ctx)
		slog.Info("flush loop started", "shard_id", shardID)
	}

	rpcServer := newIndexServiceRPC(router)
	go func() {
		if err := rpcServer.Serve(cfg.RPC.Addr); err != nil {
			slog.Error("rpc server error", "error", err)
		}
	}()
	defer rpcServer.Stop()
	slog.Info("internal rpc server listening", "addr", cfg.RPC.Addr)

	var sqlDB *sql.DB
	if db != nil {
		sqlDB = db.DB
	}
	handler := consumer.HandleMessageSharded(router, sqlDB)
	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.DocumentIngest,
		handler,
	)

	indexConsumer := consumer.New(kafkaConsumer)

	slog.Info("index worker ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := indexConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("flushing all shards before shutdown")
	if err := router.FlushAll(); err != nil {
		slog.Error("final flush failed", "error", err)
	}

	slog.Info("index worker stopped")
}

// newIndexServiceRPC registers IndexService.Stats and IndexService.Flush
// against router on a fresh RPC server, letting the gateway inspect shard
// layout and trigger flushes without an HTTP round trip to this process's
// Kafka-driven main loop.
func newIndexServiceRPC(router *shard.Router) *rpc.Server {
	s := rpc.NewServer()
	s.Register("IndexService.Stats", func(ctx context.Context, req json.RawMessage) (any, error) {
		var statsReq rpc.StatsRequest
		if err := json.Unmarshal(req, &statsReq); err != nil {
			return nil, err
		}
		resp := &rpc.StatsResponse{}
		engines := router.GetAllEngines()
		for shardID, engine := range engines {
			if statsReq.ShardID != 0 && int32(shardID) != statsReq.ShardID {
				continue
			}
			stat := rpc.ShardStat{
				ShardID:             int32(shardID),
				DocCount:            int64(engine.DocCount()),
				DocFreqTerms:        int64(engine.TermCount()),
				PhysicalBlocksUsed:  int64(engine.BlocksUsed()),
				DirectoryLoadFactor: engine.DirectoryLoadFactor(),
			}
			resp.Shards = append(resp.Shards, stat)
			resp.TotalDocs += stat.DocCount
		}
		return resp, nil
	})
	s.Register("IndexService.Flush", func(ctx context.Context, req json.RawMessage) (any, error) {
		var flushReq rpc.FlushRequest
		if err := json.Unmarshal(req, &flushReq); err != nil {
			return nil, err
		}
		if flushReq.ShardID != 0 {
			engine, err := router.Route(int(flushReq.ShardID))
			if err != nil {
				return &rpc.FlushResponse{Success: false, Message: err.Error()}, nil
			}
			if err := engine.Flush(); err != nil {
				return &rpc.FlushResponse{Success: false, Message: err.Error()}, nil
			}
			return &rpc.FlushResponse{Success: true, Message: "shard flushed"}, nil
		}
		if err := router.FlushAll(); err != nil {
			return &rpc.FlushResponse{Success: false, Message: err.Error()}, nil
		}
		return &rpc.FlushResponse{Success: true, Message: "all shards flushed"}, nil
	})
	return s
}
