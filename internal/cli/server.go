package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizroom-service/internal/config"
	"quizroom-service/internal/domain"
	"quizroom-service/internal/infra/memory"
	pgloader "quizroom-service/internal/infra/postgres"
	redisinfra "quizroom-service/internal/infra/redis"
	"quizroom-service/internal/room"
	transport "quizroom-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3000"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var source room.QuestionSource
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		source = pgloader.NewQuestionLoader(pool)
	case cfg.Questions.Dir != "":
		mapping := cfg.Questions.Mapping
		if mapping == "" {
			mapping = "question-files.json"
		}
		source, err = memory.NewFileQuestionSource(cfg.Questions.Dir, mapping)
		if err != nil {
			return err
		}
	default:
		source = memory.NewStaticQuestionSource(sampleSubjects())
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	if redisClient != nil {
		source = redisinfra.NewQuestionCache(redisClient, source, questionTTL)
	} else {
		source = memory.NewQuestionCache(source, questionTTL)
	}

	var moderation room.ModerationGate
	if redisClient != nil {
		moderation = redisinfra.NewModerationGate(redisClient)
	} else {
		moderation = memory.NewModerationGate(cfg.Moderation.Dir)
	}

	var names room.NameValidator
	if cfg.Filter.Words != "" {
		names = memory.NewWordFilterFromFile(cfg.Filter.Words)
	} else {
		names = memory.NewWordFilter(nil)
	}

	registry := room.NewRegistry(source, moderation, names)
	wsHandler := transport.NewWSHandler(registry)
	api := transport.NewAPI(source, moderation)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	api.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz room service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleSubjects provides a minimal catalog so the service runs without any
// backing store configured.
func sampleSubjects() map[string][]domain.Question {
	return map[string][]domain.Question{
		"general": {
			{
				Kind:    domain.KindMultipleChoice,
				Prompt:  "What is 2 + 2?",
				Options: []string{"3", "4", "5"},
				Answer:  domain.SingleKey(1),
			},
			{
				Kind:    domain.KindTrueFalse,
				Prompt:  "The sky is green.",
				Options: []string{"True", "False"},
				Answer:  domain.SingleKey(1),
			},
			{
				Kind:   domain.KindOpenText,
				Prompt: "Describe your favourite book in one sentence.",
			},
		},
	}
}
