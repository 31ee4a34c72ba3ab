//go:build !integration

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"membership-billing/internal/domain"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/adapter"
	"membership-billing/internal/infra/api"
	"membership-billing/internal/usecase"
)

//
// ---------------- stubs ----------------
//

type stubGateway struct{ name string }

func (g *stubGateway) Name() string { return g.name }

func (g *stubGateway) BuildDirective(ctx context.Context, req adapter.PaymentRequest) (*adapter.Directive, error) {
	return &adapter.Directive{
		Gateway:    g.name,
		Reference:  req.Reference,
		PaymentURL: "https://pay.example.com",
		FormFields: map[string]string{"ivp_cart": req.Reference},
	}, nil
}

func (g *stubGateway) ParseCallback(query url.Values, body []byte) (adapter.CallbackResult, error) {
	ref := query.Get("cartid")
	if ref == "" {
		return adapter.CallbackResult{}, fmt.Errorf("%w: missing cartid", domain.ErrValidation)
	}
	return adapter.CallbackResult{
		Reference:    ref,
		Succeeded:    query.Get("status") == "A",
		GatewayTxnID: query.Get("tranref"),
		Raw:          body,
	}, nil
}

type stubPaymentUC struct {
	initiateErr  error
	reconcileErr error

	lastReconcileRef string
	lastReconcileCB  adapter.CallbackResult
}

func (s *stubPaymentUC) Initiate(ctx context.Context, req usecase.InitiateRequest) (*model.Subscription, *adapter.Directive, error) {
	if s.initiateErr != nil {
		return nil, nil, s.initiateErr
	}
	sub := &model.Subscription{
		ID:               "sub-1",
		Tier:             req.Tier,
		PaymentReference: "ref-1",
		AmountMinor:      2500,
		Currency:         "USD",
		PaymentStatus:    model.PaymentStatusPending,
	}
	dir := &adapter.Directive{
		Gateway:    req.Gateway,
		Reference:  "ref-1",
		PaymentURL: "https://pay.example.com",
		FormFields: map[string]string{"ivp_cart": "ref-1"},
	}
	return sub, dir, nil
}

func (s *stubPaymentUC) Reconcile(ctx context.Context, reference string, cb adapter.CallbackResult) (*model.Subscription, error) {
	if s.reconcileErr != nil {
		return nil, s.reconcileErr
	}
	s.lastReconcileRef = reference
	s.lastReconcileCB = cb
	ps, ss := model.PaymentStatusFailed, model.SubscriptionStatusInactive
	if cb.Succeeded {
		ps, ss = model.PaymentStatusCompleted, model.SubscriptionStatusActive
	}
	return &model.Subscription{ID: "sub-1", PaymentReference: reference, PaymentStatus: ps, Status: ss}, nil
}

func (s *stubPaymentUC) ExpireStale(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	return 0, nil
}

type stubPricingUC struct{}

func (stubPricingUC) Resolve(ctx context.Context, tier string, cycle model.BillingCycle) (usecase.Price, error) {
	return usecase.Price{AmountMinor: 2500, AmountSecondaryMinor: 9200, Currency: "USD", SecondaryCurrency: "AED"}, nil
}

func (stubPricingUC) ListTiers(ctx context.Context) ([]*model.PricingTier, error) {
	return []*model.PricingTier{{Name: "founder-pass", DisplayName: "Founder Pass", USDMonthlyMinor: 2500}}, nil
}

type stubStatsUC struct{}

func (stubStatsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	return 100, 200, 300, nil
}

func newTestServer(payUC usecase.PaymentUseCase) (*api.Server, *api.AuthManager) {
	logger := zerolog.Nop()
	auth := api.NewAuthManager("test-admin-secret", 30*time.Minute)
	gateways := map[model.Gateway]adapter.PaymentGateway{
		model.GatewayTelr: &stubGateway{name: "telr"},
	}
	srv := api.NewServer(payUC, stubPricingUC{}, stubStatsUC{}, gateways, nil, 10, auth, &logger)
	return srv, auth
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

//
// ---------------- tests ----------------
//

func TestServer_Initiate(t *testing.T) {
	t.Run("success returns redirect directive", func(t *testing.T) {
		srv, _ := newTestServer(&stubPaymentUC{})
		rec := doJSON(t, srv.Router(), http.MethodPost, "/payments/telr/initiate", map[string]string{
			"tier": "founder-pass", "billingCycle": "monthly",
			"email": "a@b.com", "fullName": "A B",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var out map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out["reference"] != "ref-1" || out["telrPaymentUrl"] == nil || out["paymentData"] == nil {
			t.Errorf("unexpected response: %v", out)
		}
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		srv, _ := newTestServer(&stubPaymentUC{})
		req := httptest.NewRequest(http.MethodPost, "/payments/telr/initiate", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			want int
		}{
			{"validation", fmt.Errorf("%w: missing email", domain.ErrValidation), http.StatusBadRequest},
			{"bad cycle", domain.ErrInvalidBillingCycle, http.StatusBadRequest},
			{"duplicate pending", domain.ErrDuplicatePending, http.StatusConflict},
			{"unknown tier", fmt.Errorf("resolve: %w", domain.ErrTierNotFound), http.StatusNotFound},
			{"gateway down", fmt.Errorf("%w: intent create", domain.ErrUpstream), http.StatusBadGateway},
			{"gateway unconfigured", domain.ErrGatewayConfig, http.StatusInternalServerError},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				srv, _ := newTestServer(&stubPaymentUC{initiateErr: tc.err})
				rec := doJSON(t, srv.Router(), http.MethodPost, "/payments/telr/initiate", map[string]string{
					"tier": "founder-pass", "billingCycle": "monthly",
					"email": "a@b.com", "fullName": "A B",
				})
				if rec.Code != tc.want {
					t.Errorf("status = %d, want %d", rec.Code, tc.want)
				}
			})
		}
	})
}

func TestServer_Callback(t *testing.T) {
	t.Run("authorised callback reconciles", func(t *testing.T) {
		uc := &stubPaymentUC{}
		srv, _ := newTestServer(uc)
		req := httptest.NewRequest(http.MethodPut, "/payments/telr/callback?cartid=ref-9&status=A&tranref=tx-1", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if uc.lastReconcileRef != "ref-9" || !uc.lastReconcileCB.Succeeded {
			t.Errorf("reconcile saw ref=%q cb=%+v", uc.lastReconcileRef, uc.lastReconcileCB)
		}
	})

	t.Run("unknown reference is a 404", func(t *testing.T) {
		srv, _ := newTestServer(&stubPaymentUC{reconcileErr: domain.ErrNotFound})
		req := httptest.NewRequest(http.MethodPut, "/payments/telr/callback?cartid=ghost&status=A", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("malformed callback is a 400", func(t *testing.T) {
		srv, _ := newTestServer(&stubPaymentUC{})
		req := httptest.NewRequest(http.MethodPut, "/payments/telr/callback", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unsupported gateway is a 400", func(t *testing.T) {
		srv, _ := newTestServer(&stubPaymentUC{})
		req := httptest.NewRequest(http.MethodPut, "/payments/paypal/callback?cartid=x&status=A", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestServer_HostedReturn(t *testing.T) {
	uc := &stubPaymentUC{}
	srv, _ := newTestServer(uc)
	req := httptest.NewRequest(http.MethodGet, "/payments/telr/return?cartid=ref-5&status=A", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if uc.lastReconcileRef != "ref-5" {
		t.Errorf("return page did not reconcile, ref=%q", uc.lastReconcileRef)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestServer_Admin(t *testing.T) {
	srv, _ := newTestServer(&stubPaymentUC{})
	router := srv.Router()

	t.Run("revenue without token is a 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/v1/revenue", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("wrong secret cannot mint", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/admin/v1/token", map[string]string{"secret": "nope"})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("minted token reads revenue", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/admin/v1/token", map[string]string{"secret": "test-admin-secret"})
		if rec.Code != http.StatusOK {
			t.Fatalf("mint status = %d", rec.Code)
		}
		var out struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Token == "" {
			t.Fatalf("no token in response: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/admin/v1/revenue", nil)
		req.Header.Set("Authorization", "Bearer "+out.Token)
		rec2 := httptest.NewRecorder()
		router.ServeHTTP(rec2, req)
		if rec2.Code != http.StatusOK {
			t.Fatalf("revenue status = %d, body = %s", rec2.Code, rec2.Body.String())
		}
		var rev map[string]any
		if err := json.Unmarshal(rec2.Body.Bytes(), &rev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rev["monthMinorUnits"] != float64(200) {
			t.Errorf("unexpected revenue payload: %v", rev)
		}
	})
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(&stubPaymentUC{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestServer_ListTiers(t *testing.T) {
	srv, _ := newTestServer(&stubPaymentUC{})
	req := httptest.NewRequest(http.MethodGet, "/tiers", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Tiers []struct {
			Name string `json:"name"`
		} `json:"tiers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Tiers) != 1 || out.Tiers[0].Name != "founder-pass" {
		t.Errorf("unexpected tiers: %+v", out.Tiers)
	}
}
