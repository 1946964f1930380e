package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"xports-bot/internal/config"
)

type recordingCallbacks struct {
	chatID    int64
	sessionID string
	status    string
	calls     int
	err       error
}

func (r *recordingCallbacks) HandlePaymentReturn(_ context.Context, chatID int64, sessionID, status string) error {
	r.calls++
	r.chatID = chatID
	r.sessionID = sessionID
	r.status = status
	return r.err
}

func testConfig() config.Config {
	return config.Config{
		LinkSecret:    "test-secret",
		HTTPAddr:      ":8080",
		BasePublicURL: "https://bot.example.com",
	}
}

func TestReturnURLCarriesSignatureAndPlaceholder(t *testing.T) {
	raw := ReturnURL(testConfig(), 42, StatusSuccess)

	assert.True(t, strings.HasPrefix(raw, "https://bot.example.com/payment/return?"))
	assert.True(t, strings.HasSuffix(raw, "&session_id={CHECKOUT_SESSION_ID}"),
		"the processor substitutes the session id itself")

	u, err := url.Parse(strings.Replace(raw, "{CHECKOUT_SESSION_ID}", "cs_1", 1))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "42", q.Get("chat"))
	assert.Equal(t, StatusSuccess, q.Get("status"))
	assert.NotEmpty(t, q.Get("sig"))
}

func paymentReturn(t *testing.T, cb PaymentCallbacks, rawQuery string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(testConfig(), cb, zap.NewNop().Sugar())
	req := httptest.NewRequest(http.MethodGet, "/payment/return?"+rawQuery, nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func validQuery(chatID int64, status, sessionID string) string {
	q := url.Values{}
	q.Set("chat", "42")
	q.Set("status", status)
	q.Set("sig", returnSig("test-secret", chatID, status))
	q.Set("session_id", sessionID)
	return q.Encode()
}

func TestPaymentReturnSuccess(t *testing.T) {
	cb := &recordingCallbacks{}
	rec := paymentReturn(t, cb, validQuery(42, StatusSuccess, "cs_1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, cb.calls)
	assert.Equal(t, int64(42), cb.chatID)
	assert.Equal(t, "cs_1", cb.sessionID)
	assert.Equal(t, StatusSuccess, cb.status)
}

func TestPaymentReturnCancelled(t *testing.T) {
	cb := &recordingCallbacks{}
	rec := paymentReturn(t, cb, validQuery(42, StatusCancelled, "cs_1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusCancelled, cb.status)
	assert.Contains(t, rec.Body.String(), "No funds were withdrawn")
}

func TestPaymentReturnRejectsBadSignature(t *testing.T) {
	cb := &recordingCallbacks{}
	q := url.Values{}
	q.Set("chat", "42")
	q.Set("status", StatusSuccess)
	q.Set("sig", returnSig("wrong-secret", 42, StatusSuccess))
	rec := paymentReturn(t, cb, q.Encode())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, cb.calls, "forged links never reach the bot")
}

func TestPaymentReturnRejectsReplayedStatus(t *testing.T) {
	// A viewer holding a legitimate cancelled link must not be able to flip
	// it into a success with an arbitrary session id.
	cb := &recordingCallbacks{}
	q := url.Values{}
	q.Set("chat", "42")
	q.Set("status", StatusSuccess)
	q.Set("sig", returnSig("test-secret", 42, StatusCancelled))
	q.Set("session_id", "cs_forged")
	rec := paymentReturn(t, cb, q.Encode())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, cb.calls, "nothing may be finalized on a forged outcome")
}

func TestReturnSigBindsStatus(t *testing.T) {
	assert.NotEqual(t,
		returnSig("test-secret", 42, StatusSuccess),
		returnSig("test-secret", 42, StatusCancelled))
}

func TestPaymentReturnRejectsBadInput(t *testing.T) {
	cb := &recordingCallbacks{}

	rec := paymentReturn(t, cb, "status=success")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	q := url.Values{}
	q.Set("chat", "42")
	q.Set("status", "maybe")
	q.Set("sig", returnSig("test-secret", 42, "maybe"))
	rec = paymentReturn(t, cb, q.Encode())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, cb.calls)
}

func TestPaymentReturnCallbackFailure(t *testing.T) {
	cb := &recordingCallbacks{err: context.DeadlineExceeded}
	rec := paymentReturn(t, cb, validQuery(42, StatusSuccess, "cs_1"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStubPayPage(t *testing.T) {
	srv := New(testConfig(), &recordingCallbacks{}, zap.NewNop().Sugar())

	q := url.Values{}
	q.Set("session_id", "stub_1")
	q.Set("success", "https://bot.example.com/payment/return?status=success")
	q.Set("cancel", "https://bot.example.com/payment/return?status=cancelled")
	req := httptest.NewRequest(http.MethodGet, "/pay/stub?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stub_1")

	req = httptest.NewRequest(http.MethodGet, "/pay/stub", nil)
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
