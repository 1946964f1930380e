// Package server hosts the HTTP surface the hosted checkout redirects back
// to. Return links are HMAC-signed so a forged link cannot steer another
// viewer's chat.
package server

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"xports-bot/internal/config"
	"xports-bot/internal/util"
)

const (
	StatusSuccess   = "success"
	StatusCancelled = "cancelled"
)

// PaymentCallbacks is what the bot exposes to the return surface.
type PaymentCallbacks interface {
	HandlePaymentReturn(ctx context.Context, chatID int64, sessionID, status string) error
}

// ReturnURL builds the signed redirect target handed to the checkout
// processor. The processor substitutes {CHECKOUT_SESSION_ID} itself.
func ReturnURL(cfg config.Config, chatID int64, status string) string {
	base := cfg.BasePublicURL
	if base == "" {
		base = "http://localhost" + cfg.HTTPAddr
	}
	q := url.Values{}
	q.Set("chat", strconv.FormatInt(chatID, 10))
	q.Set("status", status)
	q.Set("sig", returnSig(cfg.LinkSecret, chatID, status))
	return base + "/payment/return?" + q.Encode() + "&session_id={CHECKOUT_SESSION_ID}"
}

// The signature binds chat and outcome together, so a cancelled link cannot
// be replayed as a success. session_id stays unsigned: the processor fills
// the placeholder in after the URL is built, and finalization is verified
// against the backend's session record anyway.
func returnSig(secret string, chatID int64, status string) string {
	return util.HMACSHA256Hex(secret, fmt.Sprintf("return:%d:%s", chatID, status))
}

func New(cfg config.Config, callbacks PaymentCallbacks, log *zap.SugaredLogger) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/payment/return", func(w http.ResponseWriter, r *http.Request) {
		chatID, err := strconv.ParseInt(r.URL.Query().Get("chat"), 10, 64)
		if err != nil {
			http.Error(w, "chat required", http.StatusBadRequest)
			return
		}
		sessionID := r.URL.Query().Get("session_id")
		status := r.URL.Query().Get("status")
		if status != StatusSuccess && status != StatusCancelled {
			http.Error(w, "bad status", http.StatusBadRequest)
			return
		}
		if !util.ConstantTimeEqualHex(r.URL.Query().Get("sig"), returnSig(cfg.LinkSecret, chatID, status)) {
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}

		if err := callbacks.HandlePaymentReturn(r.Context(), chatID, sessionID, status); err != nil {
			log.Errorw("payment return", "chat", chatID, "status", status, "err", err)
			http.Error(w, "payment could not be processed, please retry from the bot", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if status == StatusCancelled {
			_, _ = w.Write([]byte(`<!doctype html><html><body><h2>Payment cancelled</h2><p>No funds were withdrawn. You can retry from the bot chat.</p></body></html>`))
			return
		}
		_, _ = w.Write([]byte(`<!doctype html><html><body><h2>Payment complete</h2><p>Your registration is confirmed. Return to the Telegram chat.</p></body></html>`))
	})

	// Stub checkout page for local runs (PAYMENT_PROVIDER=stub).
	r.Get("/pay/stub", func(w http.ResponseWriter, r *http.Request) {
		success := r.URL.Query().Get("success")
		cancel := r.URL.Query().Get("cancel")
		if success == "" || cancel == "" {
			http.Error(w, "success and cancel required", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page := `<!doctype html><html><head><meta charset="utf-8"><title>Stub Pay</title></head><body>
<h2>Checkout (stub provider)</h2>
<p>Session: ` + html.EscapeString(r.URL.Query().Get("session_id")) + `</p>
<p><a href="` + html.EscapeString(success) + `">Pay</a> | <a href="` + html.EscapeString(cancel) + `">Cancel</a></p>
</body></html>`
		_, _ = w.Write([]byte(page))
	})

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
