// Package httpapi exposes the auth and ledger services over HTTP/JSON.
// It is thin wiring: request decoding, bearer-token verification, and
// mapping of service errors onto status codes. All business rules live in
// the services package.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/coinledger/internal/logging"
	"github.com/dmitrijs2005/coinledger/internal/server/services"
	"github.com/rs/cors"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address      string
	users        *services.UserService
	transactions *services.TransactionService
	logger       logging.Logger
	jwtSecret    []byte
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, ts *services.TransactionService, secretKey string) (*HTTPServer, error) {
	return &HTTPServer{
		address:      a,
		logger:       l.With("module", "http_server"),
		users:        us,
		transactions: ts,
		jwtSecret:    []byte(secretKey),
	}, nil
}

// Handler builds the route table. Ledger routes go through the bearer-token
// middleware; auth routes are public.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.Handle("POST /api/v1/users/{user_id}/transactions", s.withAuth(s.handleCreateTransaction))
	mux.Handle("GET /api/v1/users/{user_id}/transactions", s.withAuth(s.handleListTransactions))
	mux.Handle("GET /api/v1/users/{user_id}/balance", s.withAuth(s.handleGetBalance))

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return c.Handler(mux)
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
