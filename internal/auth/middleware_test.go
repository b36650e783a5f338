package auth

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/0gfoundation/0g-sigverify/internal/verifier"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSetup creates a miniredis instance and a Gin engine with the auth
// middleware wired up.
func testSetup(t *testing.T) (*miniredis.Miniredis, *gin.Engine) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := gin.New()
	r.POST("/test", Middleware(verifier.New(), rdb, DefaultMaxFutureWindow), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"wallet": Wallet(c)})
	})
	return mr, r
}

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	k, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return k
}

// buildRequest creates a signed HTTP request for testing.
// expiresOffset is relative to now (e.g. +2*time.Minute for valid, -1s for expired).
func buildRequest(t *testing.T, key *ecdsa.PrivateKey, expiresOffset time.Duration, nonce string) *http.Request {
	t.Helper()
	walletAddr := crypto.PubkeyToAddress(key.PublicKey).Hex()

	sr := SignedRequest{
		Action:     "test",
		ExpiresAt:  time.Now().Add(expiresOffset).Unix(),
		Nonce:      nonce,
		Payload:    json.RawMessage(`{}`),
		ResourceID: "res-test",
	}
	msgBytes, _ := json.Marshal(sr)
	msgB64 := base64.StdEncoding.EncodeToString(msgBytes)

	sig, err := crypto.Sign(accounts.TextHash(msgBytes), key)
	if err != nil {
		t.Fatal(err)
	}
	sig[64] += 27
	sigHex := "0x" + hex.EncodeToString(sig)

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set("X-Wallet-Address", walletAddr)
	req.Header.Set("X-Signed-Message", msgB64)
	req.Header.Set("X-Wallet-Signature", sigHex)
	return req
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]string) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestMiddleware_ValidRequest(t *testing.T) {
	_, r := testSetup(t)
	key := newKey(t)

	w, resp := serve(r, buildRequest(t, key, 2*time.Minute, "nonce-valid-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	want := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	if resp["wallet"] != want {
		t.Errorf("wallet: got %q want %q", resp["wallet"], want)
	}
}

func TestMiddleware_LowercaseWalletHeader(t *testing.T) {
	_, r := testSetup(t)

	req := buildRequest(t, newKey(t), 2*time.Minute, "nonce-lower-1")
	req.Header.Set("X-Wallet-Address", strings.ToLower(req.Header.Get("X-Wallet-Address")))
	if w, _ := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMiddleware_MissingHeaders(t *testing.T) {
	_, r := testSetup(t)

	w, resp := serve(r, httptest.NewRequest(http.MethodPost, "/test", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp["error"] != "missing auth headers" {
		t.Errorf("unexpected error: %s", resp["error"])
	}
}

func TestMiddleware_Expired(t *testing.T) {
	_, r := testSetup(t)

	w, resp := serve(r, buildRequest(t, newKey(t), -1*time.Second, "nonce-expired-1"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if resp["error"] != "request expired" {
		t.Errorf("unexpected error: %s", resp["error"])
	}
}

func TestMiddleware_TooFarInFuture(t *testing.T) {
	_, r := testSetup(t)

	w, resp := serve(r, buildRequest(t, newKey(t), 10*time.Minute, "nonce-future-1"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if resp["error"] != "expires_at too far in future" {
		t.Errorf("unexpected error: %s", resp["error"])
	}
}

func TestMiddleware_InvalidSignature(t *testing.T) {
	_, r := testSetup(t)

	// Valid request, different wallet header
	req := buildRequest(t, newKey(t), 2*time.Minute, "nonce-badsig-1")
	req.Header.Set("X-Wallet-Address", "0x000000000000000000000000000000000000dEaD")

	w, resp := serve(r, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if resp["error"] != "invalid signature" {
		t.Errorf("unexpected error: %s", resp["error"])
	}
}

func TestMiddleware_BadSignatureHex(t *testing.T) {
	_, r := testSetup(t)

	req := buildRequest(t, newKey(t), 2*time.Minute, "nonce-badhex-1")
	req.Header.Set("X-Wallet-Signature", "0xzz")

	w, resp := serve(r, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp["error"] != "invalid signature hex" {
		t.Errorf("unexpected error: %s", resp["error"])
	}
}

func TestMiddleware_BadWalletHeader(t *testing.T) {
	_, r := testSetup(t)

	req := buildRequest(t, newKey(t), 2*time.Minute, "nonce-badwallet-1")
	req.Header.Set("X-Wallet-Address", "0x1234")

	if w, _ := serve(r, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMiddleware_NonceReplay(t *testing.T) {
	_, r := testSetup(t)

	req1 := buildRequest(t, newKey(t), 2*time.Minute, "nonce-replay-1")
	req2 := buildRequest(t, newKey(t), 2*time.Minute, "nonce-replay-1") // same nonce, different key

	if w1, _ := serve(r, req1); w1.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d: %s", w1.Code, w1.Body.String())
	}

	w2, resp := serve(r, req2)
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("replay: expected 401, got %d: %s", w2.Code, w2.Body.String())
	}
	if resp["error"] != "nonce already used" {
		t.Errorf("unexpected error: %s", resp["error"])
	}
}

func TestMiddleware_NonceTTLFollowsExpiry(t *testing.T) {
	mr, r := testSetup(t)
	key := newKey(t)

	if w, _ := serve(r, buildRequest(t, key, 2*time.Minute, "nonce-ttl-1")); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	ttl := mr.TTL("nonce:nonce-ttl-1")
	if ttl <= 0 || ttl > 2*time.Minute {
		t.Fatalf("nonce ttl: got %v", ttl)
	}

	mr.FastForward(3 * time.Minute)
	if mr.Exists("nonce:nonce-ttl-1") {
		t.Fatal("nonce key should have expired")
	}
	if w, _ := serve(r, buildRequest(t, key, 2*time.Minute, "nonce-ttl-1")); w.Code != http.StatusOK {
		t.Fatalf("reuse after expiry: expected 200, got %d", w.Code)
	}
}

func TestMiddleware_RedisDown(t *testing.T) {
	mr, r := testSetup(t)
	req := buildRequest(t, newKey(t), 2*time.Minute, "nonce-down-1")
	mr.Close()

	if w, _ := serve(r, req); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
