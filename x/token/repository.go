//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package token

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/gatewarden/gatewarden/x/util"
)

var (
	client = new(http.Client)
)

// Repository resolves issuer public keys by key identifier
type Repository interface {
	GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

type repository struct {
	mc     *memcache.Client
	config util.Config

	mutex   sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time

	fetch singleflight.Group
}

// NewRepository creates a new keyset repository
func NewRepository(mc *memcache.Client, config util.Config) Repository {
	return &repository{
		mc:     mc,
		config: config,
		keys:   map[string]*rsa.PublicKey{},
	}
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (r *repository) GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	ctx, span := tracer.Start(ctx, "Token.Repository.GetKey")
	defer span.End()

	r.mutex.RLock()
	if time.Now().Before(r.expires) {
		key, ok := r.keys[kid]
		r.mutex.RUnlock()
		if !ok {
			return nil, fmt.Errorf("key not found for kid: %s", kid)
		}
		return key, nil
	}
	r.mutex.RUnlock()

	// concurrent cache misses share one refresh
	_, err, _ := r.fetch.Do("jwks", func() (any, error) {
		return nil, r.refresh(ctx)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	key, ok := r.keys[kid]
	if !ok {
		return nil, fmt.Errorf("key not found for kid: %s", kid)
	}
	return key, nil
}

func (r *repository) refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Token.Repository.Refresh")
	defer span.End()

	raw, err := r.loadDocument(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var document jwksDocument
	err = json.Unmarshal(raw, &document)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	keys := map[string]*rsa.PublicKey{}
	for _, entry := range document.Keys {
		if entry.Kty != "RSA" {
			continue
		}
		key, err := parseRSAPublicKey(entry.N, entry.E)
		if err != nil {
			span.RecordError(err)
			continue
		}
		keys[entry.Kid] = key
	}

	r.mutex.Lock()
	r.keys = keys
	r.expires = time.Now().Add(r.config.Authorizer.KeyCacheDuration())
	r.mutex.Unlock()

	return nil
}

func (r *repository) loadDocument(ctx context.Context) ([]byte, error) {
	cacheKey := "jwks:" + r.config.Authorizer.JwksEndpoint

	if r.mc != nil {
		item, err := r.mc.Get(cacheKey)
		if err == nil {
			return item.Value, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", r.config.Authorizer.JwksEndpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if r.mc != nil {
		r.mc.Set(&memcache.Item{
			Key:        cacheKey,
			Value:      raw,
			Expiration: int32(r.config.Authorizer.KeyCacheDuration().Seconds()),
		})
	}

	return raw, nil
}

func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(nBytes)
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}
