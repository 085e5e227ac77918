package web

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/infra/logging"
	"sodai-platform/internal/infra/metrics"
)

// handleHealth doubles as a storage check: the account count is a single
// cheap query against the primary, and its result keeps the accounts
// gauge current.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.accountUC.Count(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "degraded"})
		return
	}
	metrics.SetAccountsTotal(n)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// handleSessionCreate exchanges the bearer token for the session cookie,
// so the SPA can drop the Authorization header after sign-in.
func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)
	email := ""
	if claims := claimsFrom(r); claims != nil {
		email = claims.Email
	}
	if _, err := s.auth.Mint(w, acc.ID, acc.FullName, email); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	type pkg struct {
		ID           string   `json:"id"`
		Name         string   `json:"name"`
		Credits      int64    `json:"credits"`
		BonusCredits int64    `json:"bonusCredits,omitempty"`
		PriceUSD     int64    `json:"priceUsd"`
		PriceTL      string   `json:"priceTl"`
		Features     []string `json:"features"`
	}
	items := make([]pkg, 0, 3)
	for _, p := range model.Packages() {
		items = append(items, pkg{
			ID:           p.ID,
			Name:         p.Name,
			Credits:      p.Credits,
			BonusCredits: p.BonusCredits,
			PriceUSD:     p.PriceUSD,
			PriceTL:      p.PriceTL,
			Features:     p.Features,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"packages": items})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       acc.ID,
		"fullName": acc.FullName,
		"credits":  acc.Credits,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	entries, err := s.ledgerUC.History(r.Context(), acc.ID, limit)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	type entry struct {
		ID          string `json:"id"`
		Amount      int64  `json:"amount"`
		Type        string `json:"type"`
		Description string `json:"description"`
		CreatedAt   string `json:"createdAt"`
	}
	items := make([]entry, 0, len(entries))
	for _, t := range entries {
		items = append(items, entry{
			ID:          t.ID,
			Amount:      t.Amount,
			Type:        string(t.Type),
			Description: t.Description,
			CreatedAt:   t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": items})
}

type checkoutRequest struct {
	PackageID      string `json:"packageId"`
	ConversationID string `json:"conversationId"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, s.log, domain.ErrInvalidArgument)
		return
	}

	email := ""
	if claims := claimsFrom(r); claims != nil {
		email = claims.Email
	}

	session, formURL, err := s.paymentUC.Initiate(r.Context(), acc, email, clientIP(r), req.PackageID, req.ConversationID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"checkoutFormUrl": formURL,
		"token":           session.Token,
	})
}

type callbackRequest struct {
	Token string `json:"token"`
}

func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	token := callbackToken(r)
	if token == "" {
		writeError(w, r, s.log, domain.ErrInvalidArgument)
		return
	}

	result, err := s.paymentUC.VerifyAndSettle(r.Context(), token)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"paymentStatus": "SUCCESS",
		"credits":       result.Credits,
		"message":       result.Message,
	})
}

// callbackToken pulls the checkout token out of the gateway callback.
// iyzico posts it form-encoded; the SPA relays it as JSON. The body can
// only be read once, so both shapes are decoded from the same bytes.
func callbackToken(r *http.Request) string {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		return ""
	}
	var req callbackRequest
	if err := json.Unmarshal(body, &req); err == nil && req.Token != "" {
		return req.Token
	}
	if vals, err := url.ParseQuery(string(body)); err == nil {
		return vals.Get("token")
	}
	return ""
}

type copyRequest struct {
	Niche       string `json:"niche"`
	Platform    string `json:"platform"`
	Style       string `json:"contentStyle"`
	AgeGroup    string `json:"ageGroup"`
	Gender      string `json:"gender"`
	IncomeLevel string `json:"incomeLevel"`
}

func (s *Server) handleGenerateCopy(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)

	var req copyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, s.log, domain.ErrInvalidArgument)
		return
	}

	content, err := s.genUC.GenerateCopy(r.Context(), acc, model.CopyRequest{
		Niche:       req.Niche,
		Platform:    req.Platform,
		Style:       req.Style,
		AgeGroup:    req.AgeGroup,
		Gender:      req.Gender,
		IncomeLevel: req.IncomeLevel,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"content": content,
	})
}

type videoRequest struct {
	Prompt    string   `json:"prompt"`
	ImageURL  string   `json:"imageUrl"`
	ImageURLs []string `json:"imageUrls"`
}

func (s *Server) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)

	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, s.log, domain.ErrInvalidArgument)
		return
	}
	urls := req.ImageURLs
	if len(urls) == 0 && req.ImageURL != "" {
		urls = []string{req.ImageURL}
	}

	result, err := s.genUC.GenerateVideo(r.Context(), acc, model.VideoRequest{
		Prompt:    req.Prompt,
		ImageURLs: urls,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"videoUrl": result.VideoURL,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels to the HTTP surface. Anything unmapped
// is a 500 with the detail kept in the log, not the response.
func writeError(w http.ResponseWriter, r *http.Request, log *zerolog.Logger, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrAccountNotFound):
		status, msg = http.StatusNotFound, "account not found"
	case errors.Is(err, domain.ErrInsufficientCredits):
		status, msg = http.StatusPaymentRequired, "insufficient credits"
	case errors.Is(err, domain.ErrSessionNotFound):
		status, msg = http.StatusNotFound, "payment session not found"
	case errors.Is(err, domain.ErrGatewaySignature):
		status, msg = http.StatusBadGateway, "payment gateway rejected the request signature"
	case errors.Is(err, domain.ErrGatewayRejected):
		status, msg = http.StatusPaymentRequired, "payment was not approved"
	case errors.Is(err, domain.ErrLedgerUnavailable):
		status, msg = http.StatusServiceUnavailable, "ledger temporarily unavailable"
	case errors.Is(err, domain.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "rate limit exceeded"
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	}

	l := logging.With(r.Context(), log)
	if status >= 500 {
		l.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		l.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

func clientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		return v
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
