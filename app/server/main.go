package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jaysj0226/justspeak-backend/config"
	"github.com/jaysj0226/justspeak-backend/internal/api/handlers"
	"github.com/jaysj0226/justspeak-backend/internal/api/middleware"
	"github.com/jaysj0226/justspeak-backend/internal/api/routes"
	"github.com/jaysj0226/justspeak-backend/internal/cache"
	"github.com/jaysj0226/justspeak-backend/internal/logger"
	"github.com/jaysj0226/justspeak-backend/internal/models"
	"github.com/jaysj0226/justspeak-backend/internal/providers/genai"
	"github.com/jaysj0226/justspeak-backend/internal/providers/stt"
	"github.com/jaysj0226/justspeak-backend/internal/providers/tts"
	mongorepo "github.com/jaysj0226/justspeak-backend/internal/repositories/mongo"
	pgrepo "github.com/jaysj0226/justspeak-backend/internal/repositories/postgres"
	"github.com/jaysj0226/justspeak-backend/internal/services"
	"github.com/jaysj0226/justspeak-backend/internal/session"
	"github.com/jaysj0226/justspeak-backend/internal/storage"
	"github.com/jaysj0226/justspeak-backend/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	fmt.Println("MongoDB connected")
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	fmt.Println("PostgreSQL connected")
	if err := config.PostgresDB.AutoMigrate(&models.TranscriptLog{}, &models.LessonFeedback{}); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	fmt.Println("Redis connected")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "justspeak"
	}
	mdb := config.MongoClient.Database(dbName)

	// Providers. AI is optional: without it sessions run in offline mode.
	var backend genai.Backend
	if project := os.Getenv("GCP_PROJECT"); project != "" {
		location := os.Getenv("GCP_LOCATION")
		if location == "" {
			location = "us-central1"
		}
		b, err := genai.NewVertexGemini(rootCtx, project, location, os.Getenv("GENAI_MODEL"))
		if err != nil {
			l.WithError(err).Warn("generative backend unavailable, sessions will run offline")
		} else {
			backend = b
			defer b.Close()
		}
	} else {
		l.Warn("GCP_PROJECT not set, sessions will run offline")
	}

	var speech stt.Provider
	if s, err := stt.NewGoogleSpeech(rootCtx); err != nil {
		l.WithError(err).Warn("speech-to-text unavailable, audio turns disabled")
	} else {
		speech = s
		defer s.Close()
	}

	var synth tts.Provider
	if t, err := tts.NewGoogleTTS(rootCtx); err != nil {
		l.WithError(err).Warn("text-to-speech unavailable")
	} else {
		synth = t
	}

	var uploader storage.Uploader
	var signer storage.Signer
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSUploader(rootCtx, bucket)
		if err != nil {
			l.WithError(err).Warn("object storage unavailable, transcript dumps disabled")
		} else {
			uploader, signer = gcs, gcs
			defer gcs.Close()
		}
	}

	// Repositories and services
	redisCache := cache.NewRedisCache(config.RedisClient)
	userRepo := mongorepo.NewUserDataRepo(mdb)
	sessionRepo := mongorepo.NewSessionRepo(mdb)
	transcriptRepo := pgrepo.NewTranscriptRepo(config.PostgresDB)
	feedbackRepo := pgrepo.NewFeedbackRepo(config.PostgresDB)

	entry := logrus.NewEntry(l)
	userData := services.NewUserDataService(redisCache, userRepo, entry)
	feedback := services.NewFeedbackService(feedbackRepo)
	archive := services.NewArchiveService(transcriptRepo, uploader, signer, entry)

	executorFactory := func() session.TurnExecutor {
		return session.NewExecutor(backend, session.ExecutorConfig{}, entry)
	}
	sessions := services.NewSessionService(sessionRepo, userData, feedback, archive, executorFactory, entry)

	sharedExec := session.NewExecutor(backend, session.ExecutorConfig{}, entry)
	ai := services.NewAIService(sharedExec, userData, redisCache, entry)

	// Speech worker pool
	if speech != nil {
		pool := &workers.SpeechWorkerPool{
			Redis:    config.RedisClient,
			Sessions: sessions,
			STT:      speech,
			Logger:   l,
		}
		if err := pool.Start(rootCtx); err != nil {
			log.Fatalf("speech worker init error: %v", err)
		}
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Session: handlers.NewSessionHandler(sessions, archive),
		Account: handlers.NewAccountHandler(userData, feedback),
		AI:      handlers.NewAIHandler(ai, userData, synth),
		WS:      handlers.NewWSHandler(sessions, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()
	l.WithField("port", port).Info("server started")

	<-rootCtx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sessions.Shutdown(shutdownCtx)
	_ = srv.Shutdown(shutdownCtx)
}
