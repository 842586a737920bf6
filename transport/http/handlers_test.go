package http

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/human-tech/signatory/adapters/store"
	"github.com/human-tech/signatory/adapters/tokenizer"
	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/internal/eth"
	"github.com/human-tech/signatory/ports"
	"github.com/human-tech/signatory/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRegistry struct{ entry *core.WhitelistEntry }

func (r staticRegistry) Lookup(ctx context.Context, wallet string) (*core.WhitelistEntry, error) {
	return r.entry, nil
}

type staticPassport struct{ score decimal.Decimal }

func (p staticPassport) Score(ctx context.Context, wallet string) (decimal.Decimal, error) {
	return p.score, nil
}

type nopGuild struct{}

func (nopGuild) MemberName(ctx context.Context, userID string) (string, error) { return "tester", nil }
func (nopGuild) CreatePrivateChannel(ctx context.Context, userID, name string) (string, error) {
	return "chan-1", nil
}
func (nopGuild) SendMessage(ctx context.Context, channelID, content string) error { return nil }
func (nopGuild) DeleteChannel(ctx context.Context, channelID string) error        { return nil }
func (nopGuild) GrantRole(ctx context.Context, userID, roleName string) error     { return nil }

// brokenStore triggers the unexpected-failure path.
type brokenStore struct{ ports.Store }

func (brokenStore) GetSession(ctx context.Context, userID string) (*core.Session, error) {
	return nil, fmt.Errorf("store exploded")
}

type env struct {
	router *gin.Engine
	svc    *service.VerificationService
	key    *ecdsa.PrivateKey
	wallet string
	store  ports.Store
}

func newEnv(t *testing.T, st ports.Store) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	if st == nil {
		st = store.NewMemoryStore(300 * time.Second)
	}

	tiers, err := core.ParseRoleTiers("70:Chosen One,20:O.G. HUMN")
	require.NoError(t, err)

	svc := service.New(st,
		staticRegistry{entry: &core.WhitelistEntry{WalletAddress: wallet, CovenantStatus: "SIGNED", HumanityStatus: "VERIFIED"}},
		staticPassport{score: decimal.NewFromInt(75)},
		tokenizer.NewJWTTokenizer(signKey),
		nopGuild{}, nil,
		slog.New(slog.DiscardHandler),
		service.Config{ExternalURL: "https://verify.example.org", BaseRole: "base", Tiers: tiers},
	)

	return &env{
		router: SetupRouter(svc, slog.New(slog.DiscardHandler)),
		svc:    svc,
		key:    key,
		wallet: wallet,
		store:  st,
	}
}

func (e *env) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/signature", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestSignatureSuccess(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.svc.IssueChallenge(context.Background(), "user-1", e.wallet)
	require.NoError(t, err)

	session, err := e.store.GetSession(context.Background(), "user-1")
	require.NoError(t, err)
	sig, err := eth.SignMessage(session.Challenge, e.key)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"userId": "user-1", "signature": hexutil.Encode(sig)})
	require.NoError(t, err)

	w := e.post(t, string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool     `json:"success"`
		Score   string   `json:"score"`
		Roles   []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "75", resp.Score)
	assert.Equal(t, []string{"base", "Chosen One", "O.G. HUMN"}, resp.Roles)

	// Resubmission after success: the session is gone.
	w = e.post(t, string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No active verification")
}

func TestSignatureMissingFields(t *testing.T) {
	e := newEnv(t, nil)

	for _, body := range []string{
		`{}`,
		`{"userId":"user-1"}`,
		`{"signature":"0xabc"}`,
		`not json`,
	} {
		w := e.post(t, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "Missing userId or signature")
	}
}

func TestSignatureNoActiveSession(t *testing.T) {
	e := newEnv(t, nil)

	w := e.post(t, `{"userId":"ghost","signature":"0xabc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No active verification")
}

func TestSignatureMismatch(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.svc.IssueChallenge(context.Background(), "user-1", e.wallet)
	require.NoError(t, err)

	session, err := e.store.GetSession(context.Background(), "user-1")
	require.NoError(t, err)

	wrongKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := eth.SignMessage(session.Challenge, wrongKey)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"userId": "user-1", "signature": hexutil.Encode(sig)})
	require.NoError(t, err)

	w := e.post(t, string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Signature mismatch")
}

func TestSignatureUnexpectedFailure(t *testing.T) {
	e := newEnv(t, brokenStore{})

	w := e.post(t, `{"userId":"user-1","signature":"0xabc"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Verification failed")
	assert.NotContains(t, w.Body.String(), "store exploded")
}

func TestSignerPage(t *testing.T) {
	e := newEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/signer.html?userId=user-1&challenge=abc", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "personal_sign")
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
