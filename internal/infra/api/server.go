package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/adapter"
	"membership-billing/internal/infra/logging"
	"membership-billing/internal/infra/metrics"
	red "membership-billing/internal/infra/redis"
	"membership-billing/internal/usecase"
)

const maxCallbackBody = 1 << 20

// Server exposes the payment orchestration surface over HTTP.
type Server struct {
	payUC     usecase.PaymentUseCase
	pricingUC usecase.PricingUseCase
	statsUC   usecase.StatsUseCase

	gateways map[model.Gateway]adapter.PaymentGateway
	limiter  *red.RateLimiter
	perMin   int
	auth     *AuthManager
	log      *zerolog.Logger
}

func NewServer(
	payUC usecase.PaymentUseCase,
	pricingUC usecase.PricingUseCase,
	statsUC usecase.StatsUseCase,
	gateways map[model.Gateway]adapter.PaymentGateway,
	limiter *red.RateLimiter,
	initiatePerMinute int,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		payUC:     payUC,
		pricingUC: pricingUC,
		statsUC:   statsUC,
		gateways:  gateways,
		limiter:   limiter,
		perMin:    initiatePerMinute,
		auth:      auth,
		log:       logger,
	}
}

// Router builds the chi mux with the shared middleware stack applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(Timeout(15 * time.Second))
	r.Use(routeMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/tiers", s.handleListTiers)

	r.Route("/payments/{gateway}", func(r chi.Router) {
		r.Post("/initiate", s.handleInitiate)
		r.Put("/callback", s.handleCallback)
		// Hosted-page gateways bring the customer's browser back with GET.
		r.Get("/return", s.handleReturn)
		r.Get("/cancel", s.handleReturn)
		r.Get("/declined", s.handleReturn)
	})

	r.Route("/admin/v1", func(r chi.Router) {
		r.Post("/token", s.handleMintToken)
		r.With(s.auth.Guard).Get("/revenue", s.handleRevenue)
	})

	return r
}

func routeMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := &respWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTPRequest(route, strconv.Itoa(ww.status))
	})
}

type initiateBody struct {
	Tier         string `json:"tier"`
	BillingCycle string `json:"billingCycle"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	PhoneNumber  string `json:"phoneNumber"`
	Country      string `json:"country"`
	City         string `json:"city"`
	Address      string `json:"address"`
	BusinessName string `json:"businessName"`
	UserID       string `json:"userId"`
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	gw := chi.URLParam(r, "gateway")
	ctx := logging.WithGateway(r.Context(), gw)

	var body initiateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("malformed JSON body"))
		return
	}

	if s.limiter != nil && body.Email != "" {
		ok, err := s.limiter.Allow(ctx, red.InitiateKey(body.Email), s.perMin, time.Minute)
		if err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		} else if !ok {
			writeJSON(w, http.StatusTooManyRequests, errBody("too many attempts, retry later"))
			return
		}
	}

	sub, directive, err := s.payUC.Initiate(ctx, usecase.InitiateRequest{
		Gateway:      gw,
		Tier:         body.Tier,
		BillingCycle: body.BillingCycle,
		Email:        body.Email,
		FullName:     body.FullName,
		PhoneNumber:  body.PhoneNumber,
		Country:      body.Country,
		City:         body.City,
		Address:      body.Address,
		BusinessName: body.BusinessName,
		UserID:       body.UserID,
	})
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	resp := map[string]any{
		"success":        true,
		"subscriptionId": sub.ID,
		"reference":      sub.PaymentReference,
		"amountMinor":    sub.AmountMinor,
		"currency":       sub.Currency,
	}
	if directive.ClientSecret != "" {
		resp["clientSecret"] = directive.ClientSecret
		resp["paymentIntentId"] = directive.IntentID
	}
	if directive.PaymentURL != "" {
		resp["telrPaymentUrl"] = directive.PaymentURL
		resp["paymentData"] = directive.FormFields
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	gw := chi.URLParam(r, "gateway")
	ctx := logging.WithGateway(r.Context(), gw)
	start := time.Now()

	gwTag, err := model.ParseGateway(gw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("unsupported gateway"))
		return
	}
	gateway, ok := s.gateways[gwTag]
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errBody("gateway not configured"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("unreadable body"))
		return
	}

	cb, err := gateway.ParseCallback(r.URL.Query(), body)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	ctx = logging.WithReference(ctx, cb.Reference)
	sub, err := s.payUC.Reconcile(ctx, cb.Reference, cb)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	metrics.ObserveCallbackLatency(gw, float64(time.Since(start).Milliseconds()))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"subscriptionId": sub.ID,
		"paymentStatus":  sub.PaymentStatus,
		"status":         sub.Status,
	})
}

// handleReturn serves the page the customer's browser lands on after a hosted
// payment page. It reconciles from the query string when the gateway included
// an outcome, then renders a human-readable result.
func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	gw := chi.URLParam(r, "gateway")
	ctx := logging.WithGateway(r.Context(), gw)

	gwTag, err := model.ParseGateway(gw)
	if err != nil {
		s.renderResult(w, http.StatusBadRequest, false, "unsupported gateway")
		return
	}
	gateway, ok := s.gateways[gwTag]
	if !ok {
		s.renderResult(w, http.StatusInternalServerError, false, "gateway not configured")
		return
	}

	cb, err := gateway.ParseCallback(r.URL.Query(), nil)
	if err != nil {
		// No outcome in the query string; the server-to-server callback will
		// settle it. Tell the customer to wait.
		s.renderResult(w, http.StatusOK, false, "payment is being processed, you will receive a confirmation email")
		return
	}

	sub, err := s.payUC.Reconcile(logging.WithReference(ctx, cb.Reference), cb.Reference, cb)
	if err != nil {
		s.renderResult(w, http.StatusBadRequest, false, "payment could not be verified")
		return
	}
	if sub.PaymentStatus == model.PaymentStatusCompleted {
		s.renderResult(w, http.StatusOK, true, "payment confirmed, your membership is active")
		return
	}
	s.renderResult(w, http.StatusOK, false, "payment was not completed")
}

func (s *Server) handleListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := s.pricingUC.ListTiers(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	type tierOut struct {
		Name            string `json:"name"`
		DisplayName     string `json:"displayName"`
		USDMonthlyMinor int64  `json:"usdMonthlyMinor"`
		USDAnnualMinor  int64  `json:"usdAnnualMinor"`
		AEDMonthlyMinor int64  `json:"aedMonthlyMinor"`
		AEDAnnualMinor  int64  `json:"aedAnnualMinor"`
	}
	out := make([]tierOut, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, tierOut{
			Name:            t.Name,
			DisplayName:     t.DisplayName,
			USDMonthlyMinor: t.USDMonthlyMinor,
			USDAnnualMinor:  t.USDAnnualMinor,
			AEDMonthlyMinor: t.AEDMonthlyMinor,
			AEDAnnualMinor:  t.AEDAnnualMinor,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": out})
}

type tokenBody struct {
	Secret string `json:"secret"`
}

// handleMintToken exchanges the configured admin secret for a short-lived JWT.
func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var body tokenBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Secret == "" {
		writeJSON(w, http.StatusBadRequest, errBody("malformed JSON body"))
		return
	}
	if !s.auth.SecretMatches(body.Secret) {
		writeJSON(w, http.StatusForbidden, errBody("forbidden"))
		return
	}
	tok, err := s.auth.Mint()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": tok})
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	week, month, year, err := s.statsUC.Revenue(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"currency":        "USD",
		"weekMinorUnits":  week,
		"monthMinorUnits": month,
		"yearMinorUnits":  year,
	})
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidBillingCycle):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicatePending):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrTierNotFound), errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstream):
		code = http.StatusBadGateway
	default:
		code = http.StatusInternalServerError
	}
	if code == http.StatusInternalServerError || code == http.StatusBadGateway {
		logging.With(ctx, s.log).Error().Err(err).Msg("request failed")
		writeJSON(w, code, errBody("internal error"))
		return
	}
	writeJSON(w, code, errBody(err.Error()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func errBody(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

var resultPage = template.Must(template.New("result").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Payment {{if .OK}}Success{{else}}Result{{end}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}Payment Successful{{else}}Payment Processed{{end}}</h2>
  <p>{{.Msg}}</p>
</div>
</body>
</html>`))

func (s *Server) renderResult(w http.ResponseWriter, code int, ok bool, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = resultPage.Execute(w, struct {
		OK  bool
		Msg string
	}{OK: ok, Msg: msg})
}
