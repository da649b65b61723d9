package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/gatewarden/gatewarden/core"
	"github.com/gatewarden/gatewarden/internal/testutil"
	"github.com/gatewarden/gatewarden/x/token/mock"
	"github.com/gatewarden/gatewarden/x/util"
)

const (
	testIssuer   = "https://issuer.example.com"
	testAudience = "gateway-client"
	testKid      = "key-1"
)

var testConfig = util.Config{
	Authorizer: util.Authorizer{
		Issuer:   testIssuer,
		Audience: testAudience,
	},
}

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func defaultClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":    testIssuer,
		"aud":    testAudience,
		"sub":    "user-123",
		"exp":    time.Now().Add(time.Hour).Unix(),
		"groups": []string{"Admins", "admins", "Auditors"},
	}
}

func TestVerifyValidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	key := generateKey(t)

	mockRepo := mock_token.NewMockRepository(ctrl)
	mockRepo.EXPECT().GetKey(gomock.Any(), testKid).Return(&key.PublicKey, nil).AnyTimes()

	service := NewService(mockRepo, testConfig)

	signed := signToken(t, key, testKid, defaultClaims())
	principal, err := service.Verify(context.Background(), signed)

	assert.NoError(t, err)
	assert.Equal(t, "user-123", principal.Subject)
	assert.Equal(t, []string{"admins", "auditors"}, principal.Groups)
}

func TestVerifyEmptyGroups(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	key := generateKey(t)

	mockRepo := mock_token.NewMockRepository(ctrl)
	mockRepo.EXPECT().GetKey(gomock.Any(), testKid).Return(&key.PublicKey, nil).AnyTimes()

	service := NewService(mockRepo, testConfig)

	claims := defaultClaims()
	claims["groups"] = []string{}
	signed := signToken(t, key, testKid, claims)

	principal, err := service.Verify(context.Background(), signed)
	assert.NoError(t, err)
	assert.Empty(t, principal.Groups)
}

func TestVerifyRejections(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	key := generateKey(t)
	stranger := generateKey(t)

	mockRepo := mock_token.NewMockRepository(ctrl)
	mockRepo.EXPECT().GetKey(gomock.Any(), testKid).Return(&key.PublicKey, nil).AnyTimes()

	service := NewService(mockRepo, testConfig)

	expired := defaultClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongAud := defaultClaims()
	wrongAud["aud"] = "someone-else"

	wrongIss := defaultClaims()
	wrongIss["iss"] = "https://rogue.example.com"

	noSub := defaultClaims()
	delete(noSub, "sub")

	noGroups := defaultClaims()
	delete(noGroups, "groups")

	noExp := defaultClaims()
	delete(noExp, "exp")

	cases := []struct {
		name      string
		token     string
		malformed bool
	}{
		{"garbage", "not-a-token", true},
		{"two segments", "aaaa.bbbb", true},
		{"bad signature", signToken(t, stranger, testKid, defaultClaims()), false},
		{"expired", signToken(t, key, testKid, expired), false},
		{"wrong audience", signToken(t, key, testKid, wrongAud), false},
		{"wrong issuer", signToken(t, key, testKid, wrongIss), false},
		{"missing subject", signToken(t, key, testKid, noSub), true},
		{"missing groups", signToken(t, key, testKid, noGroups), true},
		{"missing expiry", signToken(t, key, testKid, noExp), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Verify(context.Background(), tc.token)
			assert.Error(t, err)
			if tc.malformed {
				var target core.ErrorMalformedToken
				assert.True(t, errors.As(err, &target), "expected malformed token error, got %v", err)
			} else {
				var target core.ErrorInvalidToken
				assert.True(t, errors.As(err, &target), "expected invalid token error, got %v", err)
			}
		})
	}
}

func serveJwksDocument(w http.ResponseWriter, key *rsa.PrivateKey) {
	document := map[string]any{
		"keys": []map[string]string{
			{
				"kid": testKid,
				"kty": "RSA",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01}),
			},
		},
	}
	json.NewEncoder(w).Encode(document)
}

func TestRepositoryCachesKeyset(t *testing.T) {
	key := generateKey(t)

	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		serveJwksDocument(w, key)
	}))
	defer server.Close()

	config := testConfig
	config.Authorizer.JwksEndpoint = server.URL
	config.Authorizer.KeyCacheTTL = 60

	repo := NewRepository(nil, config)

	first, err := repo.GetKey(context.Background(), testKid)
	assert.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, first.N)

	second, err := repo.GetKey(context.Background(), testKid)
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, fetches)

	_, err = repo.GetKey(context.Background(), "unknown-kid")
	assert.Error(t, err)
}

func TestRepositorySingleFlightRefresh(t *testing.T) {
	key := generateKey(t)

	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		// slow response so every concurrent miss joins the same flight
		time.Sleep(100 * time.Millisecond)
		serveJwksDocument(w, key)
	}))
	defer server.Close()

	config := testConfig
	config.Authorizer.JwksEndpoint = server.URL
	config.Authorizer.KeyCacheTTL = 60

	repo := NewRepository(nil, config)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := repo.GetKey(context.Background(), testKid)
			assert.NoError(t, err)
			assert.Equal(t, key.PublicKey.N, got.N)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

func TestRepositorySharedDocumentCache(t *testing.T) {
	key := generateKey(t)

	mc, cleanup_mc := testutil.CreateMC()
	defer cleanup_mc()

	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		serveJwksDocument(w, key)
	}))
	defer server.Close()

	config := testConfig
	config.Authorizer.JwksEndpoint = server.URL
	config.Authorizer.KeyCacheTTL = 60

	first := NewRepository(mc, config)
	got, err := first.GetKey(context.Background(), testKid)
	assert.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, got.N)

	// a second instance with a cold in-process cache reads the shared layer
	second := NewRepository(mc, config)
	got, err = second.GetKey(context.Background(), testKid)
	assert.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, got.N)

	assert.Equal(t, 1, fetches)
}

func TestRepositoryUnknownKidAfterRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"keys":[]}`)
	}))
	defer server.Close()

	config := testConfig
	config.Authorizer.JwksEndpoint = server.URL

	repo := NewRepository(nil, config)

	_, err := repo.GetKey(context.Background(), testKid)
	assert.Error(t, err)
}
