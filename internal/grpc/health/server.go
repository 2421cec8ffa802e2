// Package health публикует стандартный gRPC-сервис grpc.health.v1.Health,
// статус которого следует за доступностью базы данных.
package health

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/daily-diet/internal/lib/sl"
)

// ServiceName имя сервиса, под которым публикуется статус API.
const ServiceName = "daily-diet"

const pingTimeout = 2 * time.Second

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server обновляет статус health-сервиса по результатам пинга базы.
type Server struct {
	hs       *health.Server
	db       Pinger
	interval time.Duration
	log      *slog.Logger
}

// New создаёт Server. До первой проверки статус NOT_SERVING.
func New(db Pinger, interval time.Duration, log *slog.Logger) *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{
		hs:       hs,
		db:       db,
		interval: interval,
		log:      log,
	}
}

// Register регистрирует health-сервис на gRPC-сервере.
func (s *Server) Register(g *grpc.Server) {
	healthpb.RegisterHealthServer(g, s.hs)
}

// Check пингует базу и выставляет статус SERVING или NOT_SERVING.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("database ping failed", sl.Err(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.hs.SetServingStatus("", status)
	s.hs.SetServingStatus(ServiceName, status)
	return status
}

// Watch проверяет базу каждые interval до отмены ctx, после чего переводит
// все сервисы в NOT_SERVING.
func (s *Server) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			s.hs.Shutdown()
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
