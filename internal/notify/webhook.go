package notify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/popis/internal/metrics"
)

// SignatureHeader carries an HS256 JWT over the request body when a signing
// secret is configured.
const SignatureHeader = "X-Popis-Signature"

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 10 * time.Second

// SignatureClaims are the claims of the signature JWT.
type SignatureClaims struct {
	BodySHA256 string `json:"body_sha256"`
	jwt.RegisteredClaims
}

// Webhook posts mismatch payloads as JSON to a URL. Each delivery runs in
// its own goroutine; there is no retry.
type Webhook struct {
	URL    string
	Secret string
	Client *http.Client

	wg sync.WaitGroup
}

// NewWebhook returns a Webhook for url, or Nop when url is empty.
func NewWebhook(url, secret string, timeout time.Duration) Notifier {
	if url == "" {
		return Nop{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Webhook{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: timeout},
	}
}

// NotifyMismatch implements Notifier. It returns immediately.
func (w *Webhook) NotifyMismatch(m Mismatch) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.deliver(m); err != nil {
			metrics.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
			slog.Warn("mismatch webhook failed", "barcode", m.Barcode, "session", m.SessionName, "error", err)
			return
		}
		metrics.WebhookDeliveriesTotal.WithLabelValues("delivered").Inc()
	}()
}

// Wait blocks until all in-flight deliveries have finished.
func (w *Webhook) Wait() {
	w.wg.Wait()
}

func (w *Webhook) deliver(m Mismatch) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if w.Secret != "" {
		sig, err := Sign(w.Secret, body, time.Now())
		if err != nil {
			return err
		}
		req.Header.Set(SignatureHeader, sig)
	}

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}

// Sign returns an HS256 JWT binding body to the moment it was sent.
func Sign(secret string, body []byte, now time.Time) (string, error) {
	sum := sha256.Sum256(body)
	claims := SignatureClaims{
		BodySHA256: hex.EncodeToString(sum[:]),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "popis",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing payload: %w", err)
	}
	return signed, nil
}

// Verify checks a signature produced by Sign against body.
func Verify(secret, signature string, body []byte) error {
	token, err := jwt.ParseWithClaims(signature, &SignatureClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("parsing signature: %w", err)
	}

	claims, ok := token.Claims.(*SignatureClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid signature")
	}

	sum := sha256.Sum256(body)
	if claims.BodySHA256 != hex.EncodeToString(sum[:]) {
		return fmt.Errorf("signature does not match body")
	}
	return nil
}
