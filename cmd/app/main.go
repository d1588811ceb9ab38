package main

import (
	"JoyverseEmotion/internal/config"
	"JoyverseEmotion/pkg/log"
	"JoyverseEmotion/pkg/redis"
	"github.com/joho/godotenv"
	"golang.org/x/net/context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded, using process environment: %v", err)
	}

	modelConfig, err := config.LoadModelConfig()
	if err != nil {
		logger.Fatalf("Invalid model configuration: %v", err)
	}

	model, err := config.LoadModel(modelConfig, logger)
	if err != nil {
		logger.Fatalf("Failed to load model: %v", err)
	}

	options := []config.ServerOption{
		config.WithFiber(config.NewFiber(logger)),
		config.WithLogger(logger),
		config.WithValidator(config.NewValidator()),
		config.WithDatabase(),
		config.WithModel(model),
		config.WithMiddleware(config.MiddlewareConfigFromEnv()),
		config.WithUtils(),
	}
	if os.Getenv("REDIS_ADDRESS") != "" {
		options = append(options, config.WithRedisServer(redis.New(logger)))
	}

	server, err := config.NewServer(options...)
	if err != nil {
		model.Close()
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
