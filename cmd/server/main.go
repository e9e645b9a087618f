package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/dance-group-manager/internal/application"
	"github.com/example/dance-group-manager/internal/attendance"
	"github.com/example/dance-group-manager/internal/config"
	httptransport "github.com/example/dance-group-manager/internal/http"
	"github.com/example/dance-group-manager/internal/persistence/sqlite"
	"github.com/example/dance-group-manager/internal/recurrence"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := func() string { return uuid.NewString() }
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	pool := storage.Pool()
	users := sqlite.NewUserRepository(pool)
	userRepo := newUserRepositoryAdapter(users)
	credentialStore := newCredentialStoreAdapter(users)
	sessionRepo := newSessionRepositoryAdapter(sqlite.NewSessionRepository(pool))
	groupRepo := newGroupRepositoryAdapter(sqlite.NewGroupRepository(pool))
	scheduleRepo := newScheduleRepositoryAdapter(sqlite.NewScheduleRepository(pool))
	recurrenceRepo := newRecurrenceRepositoryAdapter(sqlite.NewRecurrenceRepository(pool))
	attendanceRepo := newAttendanceRepositoryAdapter(sqlite.NewAttendanceRepository(pool))

	engine := recurrence.NewEngine(nil)
	attendanceCfg := attendance.Config{
		PreOpen:              cfg.AttendancePreOpen,
		PostClose:            cfg.AttendancePostClose,
		RadiusMeters:         cfg.AttendanceRadiusMeters,
		DefaultEventDuration: cfg.DefaultEventDuration,
	}

	groupService := application.NewGroupService(groupRepo, idGenerator, now)
	scheduleService := application.NewScheduleService(scheduleRepo, recurrenceRepo, groupService, engine, idGenerator, now)
	attendanceService := application.NewAttendanceService(attendanceRepo, scheduleRepo, groupService, attendanceCfg, idGenerator, now)
	userService := application.NewUserService(userRepo, nil, idGenerator, now)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:        httptransport.NewAuthHandler(authService, logger),
		Users:       httptransport.NewUserHandler(userService, logger),
		Groups:      httptransport.NewGroupHandler(groupService, logger),
		Schedules:   httptransport.NewScheduleHandler(scheduleService, logger),
		Recurrences: httptransport.NewRecurrenceHandler(&recurrenceDefaultsAdapter{service: scheduleService, horizonDays: cfg.RecurrenceHorizonDays}, logger),
		Attendance:  httptransport.NewAttendanceHandler(attendanceService, logger),
	})

	// Session creation is the only route reachable without a session.
	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("dance group API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
