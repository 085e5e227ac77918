package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/infra/logging"
	"sodai-platform/internal/infra/redis"
	"sodai-platform/internal/usecase"
)

type Server struct {
	auth       *AuthManager
	accountUC  usecase.AccountUseCase
	ledgerUC   usecase.LedgerUseCase
	paymentUC  usecase.PaymentUseCase
	genUC      usecase.GenerationUseCase
	limiter    *redis.RateLimiter
	genPerMin  int
	reqTimeout time.Duration
	log        *zerolog.Logger
}

func NewServer(
	auth *AuthManager,
	accountUC usecase.AccountUseCase,
	ledgerUC usecase.LedgerUseCase,
	paymentUC usecase.PaymentUseCase,
	genUC usecase.GenerationUseCase,
	limiter *redis.RateLimiter,
	genPerMin int,
	reqTimeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		auth:       auth,
		accountUC:  accountUC,
		ledgerUC:   ledgerUC,
		paymentUC:  paymentUC,
		genUC:      genUC,
		limiter:    limiter,
		genPerMin:  genPerMin,
		reqTimeout: reqTimeout,
		log:        logger,
	}
}

// Router assembles the public HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/packages", s.handlePackages)

		// The settlement callback authenticates by checkout token, not by
		// session: the gateway posts it without our cookie.
		r.Post("/payments/callback", s.handlePaymentCallback)

		// Logout clears the cookie and must work with an expired session.
		r.Delete("/auth/session", s.handleSessionDelete)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAccount)
			r.Post("/auth/session", s.handleSessionCreate)
			r.Get("/account", s.handleAccount)
			r.Get("/account/transactions", s.handleTransactions)
			r.Post("/payments/checkout", s.handleCheckout)

			r.Group(func(r chi.Router) {
				r.Use(s.rateLimit("generate"))
				r.Post("/generate/copy", s.handleGenerateCopy)
				r.Post("/generate/video", s.handleGenerateVideo)
			})
		})
	})

	mws := []Middleware{TraceID(), Recover(s.log), RequestLog(s.log)}
	if s.reqTimeout > 0 {
		mws = append(mws, Timeout(s.reqTimeout))
	}
	return Chain(r, mws...)
}

type ctxKey int

const (
	accountKey ctxKey = iota
	claimsKey
)

// requireAccount validates the session token and resolves (provisioning on
// first sight) the caller's account into the request context.
func (s *Server) requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, r, s.log, domain.ErrUnauthenticated)
			return
		}

		ctx := logging.WithAccountID(r.Context(), claims.Subject)
		acc, err := s.accountUC.ResolveAccount(ctx, claims.Subject, claims.FullName)
		if err != nil {
			writeError(w, r, s.log, err)
			return
		}

		ctx = context.WithValue(ctx, accountKey, acc)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountFrom(r *http.Request) *model.Account {
	acc, _ := r.Context().Value(accountKey).(*model.Account)
	return acc
}

func claimsFrom(r *http.Request) *SessionClaims {
	c, _ := r.Context().Value(claimsKey).(*SessionClaims)
	return c
}

// rateLimit applies the per-account fixed window to expensive endpoints.
// Redis being down fails open so a cache outage cannot stop generation.
func (s *Server) rateLimit(action string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter == nil || s.genPerMin <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			acc := accountFrom(r)
			ok, err := s.limiter.Allow(r.Context(), redis.AccountActionKey(acc.ID, action), s.genPerMin, time.Minute)
			if err != nil {
				logging.With(r.Context(), s.log).Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				writeError(w, r, s.log, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
