package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletgate/adapters/store"
	"github.com/layer-3/walletgate/adapters/tokenizer"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/metrics"
	"github.com/layer-3/walletgate/internal/wallet"
	"github.com/layer-3/walletgate/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var routerTestKey = []byte("router-test-secret-32-bytes!!!!!")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	router  *gin.Engine
	clock   *testClock
	reg     *prometheus.Registry
	limiter *RateLimiter
	deps    RouterDeps
}

func newTestServer(t *testing.T, limits *RateLimiterConfig) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &testClock{now: time.Now().Truncate(time.Second)}

	tok, err := tokenizer.NewJWTTokenizer(routerTestKey, tokenizer.WithTimeFunc(clock.Now))
	require.NoError(t, err)

	nonces := service.NewNonceDeriver(routerTestKey, logger)
	svc := service.NewAuthService(nonces, service.NewSignatureVerifier(nonces, logger), tok, nil,
		service.WithClock(clock.Now), service.WithLogger(logger))

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	deps := RouterDeps{
		AuthService: svc,
		Store:       store.NewMemoryStore(),
		Logger:      logger,
		Recorder:    collector,
		Gatherer:    reg,
		MetricsPath: "/metrics",

		CommentsEnabled: true,
	}

	ts := &testServer{clock: clock, reg: reg}
	if limits != nil {
		ts.limiter = NewRateLimiter(*limits, collector, logger)
		t.Cleanup(ts.limiter.Stop)
		deps.Limiter = ts.limiter
	}
	ts.deps = deps
	ts.router = SetupRouter(deps)
	return ts
}

func (ts *testServer) do(method, target, token string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Response
}

func stateQuery(t *testing.T, publicKey, signature string) string {
	t.Helper()
	state, err := json.Marshal(map[string]string{"public_key": publicKey, "signature": signature})
	require.NoError(t, err)
	return "/jwt/get?" + url.Values{"state": {string(state)}}.Encode()
}

// login runs challenge, sign and get for a fresh key and returns the credential
func (ts *testServer) login(t *testing.T, scheme core.Scheme) (*wallet.KeyPair, string) {
	t.Helper()
	kp, err := wallet.GenerateKey(scheme)
	require.NoError(t, err)

	rec := ts.do(http.MethodGet, "/jwt/challenge/"+kp.PublicKey, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	nonce := decodeResponse(t, rec)

	sig, err := wallet.Sign(scheme, kp.PrivateKey, []byte(nonce))
	require.NoError(t, err)

	rec = ts.do(http.MethodGet, stateQuery(t, kp.PublicKey, sig), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return kp, decodeResponse(t, rec)
}

func TestRouter_FullHandshake(t *testing.T) {
	for _, scheme := range []core.Scheme{core.SchemeSolana, core.SchemeEthereum} {
		t.Run(string(scheme), func(t *testing.T) {
			ts := newTestServer(t, nil)
			kp, token := ts.login(t, scheme)

			rec := ts.do(http.MethodGet, "/user/me", token, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var me struct {
				Wallet  string    `json:"wallet"`
				Profile core.User `json:"profile"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
			assert.Equal(t, kp.PublicKey, me.Wallet)
			assert.Equal(t, kp.PublicKey, me.Profile.Name)
			assert.Equal(t, core.DefaultBio, me.Profile.Bio)

			rec = ts.do(http.MethodGet, "/user/me", "Bearer "+token, nil)
			assert.Equal(t, http.StatusOK, rec.Code)

			rec = ts.do(http.MethodGet, "/user/me", flipFinalBit(token), nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Unauthorized", rec.Body.String())
		})
	}
}

func TestRouter_StrictGuardRejectsFinalCharEdits(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	ts := newTestServer(t, nil)
	_, token := ts.login(t, core.SchemeSolana)

	last := token[len(token)-1]
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == last {
			continue
		}
		rec := ts.do(http.MethodGet, "/user/me", token[:len(token)-1]+string(alphabet[i]), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "final char %q -> %q", last, alphabet[i])
	}
}

func TestRouter_ChallengeErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/jwt/challenge/not-a-key", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidPublicKey, rec.Body.String())

	rec = ts.do(http.MethodGet, "/jwt/challenge/%20", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgMissingPublicKey, rec.Body.String())
}

func TestRouter_ChallengeIsDeterministic(t *testing.T) {
	ts := newTestServer(t, nil)
	kp, err := wallet.GenerateKey(core.SchemeSolana)
	require.NoError(t, err)

	first := decodeResponse(t, ts.do(http.MethodGet, "/jwt/challenge/"+kp.PublicKey, "", nil))
	second := decodeResponse(t, ts.do(http.MethodGet, "/jwt/challenge/"+kp.PublicKey, "", nil))
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestRouter_GetErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	kp, err := wallet.GenerateKey(core.SchemeSolana)
	require.NoError(t, err)
	other, err := wallet.GenerateKey(core.SchemeSolana)
	require.NoError(t, err)

	nonce := decodeResponse(t, ts.do(http.MethodGet, "/jwt/challenge/"+kp.PublicKey, "", nil))
	otherSig, err := wallet.Sign(core.SchemeSolana, other.PrivateKey, []byte(nonce))
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"missing state", "/jwt/get", msgMissingState},
		{"not json", "/jwt/get?state=" + url.QueryEscape("{not json"), msgInvalidState},
		{"missing signature", "/jwt/get?state=" + url.QueryEscape(`{"public_key":"`+kp.PublicKey+`"}`), msgInvalidState},
		{"empty public key", stateQuery(t, "", "sig"), msgInvalidState},
		{"invalid public key", stateQuery(t, "0OIl", "sig"), msgInvalidPublicKey},
		{"wrong signer", stateQuery(t, kp.PublicKey, otherSig), msgInvalidSignature},
		{"garbage signature", stateQuery(t, kp.PublicKey, "!!!"), msgInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, tt.target, "", nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}

	assert.Equal(t, 2.0, metricsCounter(t, ts, "walletgate_logins_total", "bad_signature"))
}

func TestRouter_GetAcceptsDoubleEncodedState(t *testing.T) {
	ts := newTestServer(t, nil)
	kp, err := wallet.GenerateKey(core.SchemeSolana)
	require.NoError(t, err)

	nonce := decodeResponse(t, ts.do(http.MethodGet, "/jwt/challenge/"+kp.PublicKey, "", nil))
	sig, err := wallet.Sign(core.SchemeSolana, kp.PrivateKey, []byte(nonce))
	require.NoError(t, err)

	state, err := json.Marshal(map[string]string{"public_key": kp.PublicKey, "signature": sig})
	require.NoError(t, err)
	target := "/jwt/get?" + url.Values{"state": {url.PathEscape(string(state))}}.Encode()

	rec := ts.do(http.MethodGet, target, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRouter_ExpiredCredential(t *testing.T) {
	ts := newTestServer(t, nil)
	_, token := ts.login(t, core.SchemeSolana)

	ts.clock.Advance(core.CredentialLifetime - time.Second)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/user/me", token, nil).Code)

	ts.clock.Advance(time.Second)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/user/me", token, nil).Code)
}

func TestRouter_PermissiveGuard(t *testing.T) {
	ts := newTestServer(t, nil)
	kp, token := ts.login(t, core.SchemeSolana)

	tests := []struct {
		name   string
		token  string
		wallet any
		authed bool
	}{
		{"no credential", "", nil, false},
		{"garbage credential", "garbage", nil, false},
		{"signature bit flipped", flipFinalBit(token), nil, false},
		{"valid credential", token, kp.PublicKey, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/whoami", tt.token, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wallet, body["wallet"])
			assert.Equal(t, tt.authed, body["authenticated"])
		})
	}

	assert.Equal(t, 3.0, metricsGuard(t, ts, "permissive", "anonymous"))
}

func TestRouter_StrictGuardRejectsMissingCredential(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", rec.Body.String())

	rec = ts.do(http.MethodPost, "/user/assign", "", []byte(`{"name":"alice"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, 2.0, metricsGuard(t, ts, "strict", "rejected"))
}

func TestRouter_UserProfile(t *testing.T) {
	ts := newTestServer(t, nil)
	kp, token := ts.login(t, core.SchemeSolana)

	rec := ts.do(http.MethodGet, "/user/get/"+kp.PublicKey, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", rec.Body.String())

	rec = ts.do(http.MethodPost, "/user/assign", token, []byte(`{"name":"alice"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User profile created successfully", rec.Body.String())

	rec = ts.do(http.MethodGet, "/user/get/"+kp.PublicKey, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user core.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, core.DefaultBio, user.Bio)

	rec = ts.do(http.MethodPost, "/user/assign", token, []byte(`{"bio":"gm frens"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User profile updated successfully", rec.Body.String())

	rec = ts.do(http.MethodGet, "/user/get/"+kp.PublicKey, "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, kp.PublicKey, user.Name)
	assert.Equal(t, "gm frens", user.Bio)
}

func TestRouter_UserAssignValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	_, token := ts.login(t, core.SchemeSolana)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"short name", `{"name":"abc"}`, "name must be at least 4 characters"},
		{"long name", `{"name":"` + strings.Repeat("x", 65) + `"}`, "name must be at most 64 characters"},
		{"short bio", `{"bio":"hi"}`, "bio must be at least 4 characters"},
		{"empty name", `{"name":""}`, "name must be at least 4 characters"},
		{"empty bio", `{"bio":""}`, "bio must be at least 4 characters"},
		{"not json", `nope`, "request body must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/user/assign", token, []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "You have provided incorrect user profile data")
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestRouter_UserAssignEmptyNameStoresNothing(t *testing.T) {
	ts := newTestServer(t, nil)
	kp, token := ts.login(t, core.SchemeEthereum)

	rec := ts.do(http.MethodPost, "/user/assign", token, []byte(`{"name":"","bio":"gm frens"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/user/get/"+kp.PublicKey, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/user/assign", token, []byte(`{}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User profile created successfully", rec.Body.String())
}

func TestRouter_UserGetInvalidKey(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/user/get/0xnothex", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "incorrect public key data")
}

func newMint(t *testing.T) string {
	t.Helper()
	kp, err := wallet.GenerateKey(core.SchemeSolana)
	require.NoError(t, err)
	return kp.PublicKey
}

func commentBody(t *testing.T, comment, mint string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]string{"comment": comment, "tokenMint": mint})
	require.NoError(t, err)
	return body
}

func TestRouter_Comments(t *testing.T) {
	ts := newTestServer(t, nil)
	mint := newMint(t)
	alice, aliceToken := ts.login(t, core.SchemeSolana)
	bob, bobToken := ts.login(t, core.SchemeEthereum)

	rec := ts.do(http.MethodPost, "/comment/post", "", commentBody(t, "to the moon", mint))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/comment/post", aliceToken, commentBody(t, "to the moon", mint))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A user with this pubkey doesn't exist", rec.Body.String())

	for _, token := range []string{aliceToken, bobToken} {
		rec = ts.do(http.MethodPost, "/user/assign", token, []byte(`{}`))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = ts.do(http.MethodPost, "/comment/post", aliceToken, commentBody(t, "to the moon", mint))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Successfully created comment", rec.Body.String())

	ts.clock.Advance(time.Second)
	rec = ts.do(http.MethodPost, "/comment/post", bobToken, commentBody(t, "wen listing", mint))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ts.clock.Advance(time.Second)
	rec = ts.do(http.MethodPost, "/comment/post", aliceToken, commentBody(t, "other token here", newMint(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/comment/get/"+mint, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var byMint []core.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byMint))
	require.Len(t, byMint, 2)
	assert.Equal(t, "to the moon", byMint[0].Message)
	assert.Equal(t, alice.PublicKey, byMint[0].UserPubkey)
	require.NotNil(t, byMint[0].User)
	assert.Equal(t, alice.PublicKey, byMint[0].User.Name)
	assert.Equal(t, "wen listing", byMint[1].Message)
	require.NotNil(t, byMint[1].User)
	assert.Equal(t, bob.PublicKey, byMint[1].User.PublicKey)

	rec = ts.do(http.MethodGet, "/comment/user/"+alice.PublicKey, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var byUser struct {
		User     core.User      `json:"user"`
		Comments []core.Comment `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byUser))
	assert.Equal(t, alice.PublicKey, byUser.User.PublicKey)
	require.Len(t, byUser.Comments, 2)
	assert.Equal(t, "other token here", byUser.Comments[0].Message, "newest first")
	assert.Equal(t, "to the moon", byUser.Comments[1].Message)

	rec = ts.do(http.MethodGet, "/comment/get/"+newMint(t), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_CommentRejections(t *testing.T) {
	ts := newTestServer(t, nil)
	mint := newMint(t)
	_, token := ts.login(t, core.SchemeSolana)
	rec := ts.do(http.MethodPost, "/user/assign", token, []byte(`{}`))
	require.Equal(t, http.StatusOK, rec.Code)

	ethMint, err := wallet.GenerateKey(core.SchemeEthereum)
	require.NoError(t, err)

	tests := []struct {
		name string
		body []byte
		want string
	}{
		{"short comment", commentBody(t, "hey", mint), "comment must be at least 4 characters"},
		{"long comment", commentBody(t, strings.Repeat("x", 1025), mint), "comment must be at most 1024 characters"},
		{"missing mint", []byte(`{"comment":"hello there"}`), "tokenmint is required"},
		{"bad mint", commentBody(t, "hello there", "not-a-key"), "tokenmint must be a valid Solana public key"},
		{"ethereum mint", commentBody(t, "hello there", ethMint.PublicKey), "tokenmint must be a valid Solana public key"},
		{"not json", []byte(`nope`), "request body must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/comment/post", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "You have provided incorrect comment data")
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	rec = ts.do(http.MethodPost, "/comment/post", token, commentBody(t, "what the fuck is this", mint))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Your comment cannot contain profanity", rec.Body.String())

	rec = ts.do(http.MethodGet, "/comment/get/"+mint, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String(), "rejected comments are not stored")

	rec = ts.do(http.MethodGet, "/comment/get/0xnothex", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "incorrect public key data")

	rec = ts.do(http.MethodGet, "/comment/user/"+newMint(t), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", rec.Body.String())
}

func TestRouter_CommentsDisabled(t *testing.T) {
	ts := newTestServer(t, nil)
	deps := ts.deps
	deps.CommentsEnabled = false
	ts.router = SetupRouter(deps)

	mint := newMint(t)
	_, token := ts.login(t, core.SchemeSolana)
	rec := ts.do(http.MethodPost, "/user/assign", token, []byte(`{}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/comment/post", token, commentBody(t, "to the moon", mint))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Comment service unavailable", rec.Body.String())

	rec = ts.do(http.MethodGet, "/comment/get/"+mint, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	ts := newTestServer(t, &RateLimiterConfig{PerMinute: 60, Burst: 2})
	kp, err := wallet.GenerateKey(core.SchemeSolana)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/jwt/challenge/"+kp.PublicKey, "", nil).Code)
	}

	rec := ts.do(http.MethodGet, "/jwt/challenge/"+kp.PublicKey, "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Only the auth routes are limited
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, 1, ts.limiter.Len())
}

func TestRouter_AmbientRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Banner, rec.Body.String())

	rec = ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	ts.login(t, core.SchemeSolana)
	rec = ts.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "walletgate_credentials_issued_total 1")
}

func TestRouter_CORS(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/jwt/get", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

// flipFinalBit flips the lowest bit of the last signature character's value
func flipFinalBit(token string) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	last := strings.IndexByte(alphabet, token[len(token)-1])
	return token[:len(token)-1] + string(alphabet[last^1])
}

func metricsCounter(t *testing.T, ts *testServer, name, result string) float64 {
	t.Helper()
	return gatheredValue(t, ts, name, map[string]string{"result": result})
}

func metricsGuard(t *testing.T, ts *testServer, mode, outcome string) float64 {
	t.Helper()
	return gatheredValue(t, ts, "walletgate_guard_decisions_total", map[string]string{"mode": mode, "outcome": outcome})
}

// gatheredValue returns the counter sample of name carrying exactly labels
func gatheredValue(t *testing.T, ts *testServer, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := ts.reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}
