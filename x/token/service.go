package token

import (
	"context"
	"sort"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/gatewarden/gatewarden/core"
	"github.com/gatewarden/gatewarden/x/util"
)

var tracer = otel.Tracer("token")

type service struct {
	repository Repository
	config     util.Config
}

// NewService creates a new token verifier service
func NewService(repository Repository, config util.Config) core.TokenService {
	return &service{repository, config}
}

// Verify validates a bearer token and extracts the principal
func (s *service) Verify(ctx context.Context, token string) (core.Principal, error) {
	ctx, span := tracer.Start(ctx, "Token.Service.Verify")
	defer span.End()

	if strings.Count(token, ".") != 2 {
		return core.Principal{}, errors.Wrap(core.NewErrorMalformedToken(), "not a three-part signed structure")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid header not found")
		}
		return s.repository.GetKey(ctx, kid)
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return core.Principal{}, errors.Wrap(core.NewErrorMalformedToken(), err.Error())
		}
		return core.Principal{}, errors.Wrap(core.NewErrorInvalidToken(), err.Error())
	}
	if !parsed.Valid {
		return core.Principal{}, errors.Wrap(core.NewErrorInvalidToken(), "token not valid")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return core.Principal{}, errors.Wrap(core.NewErrorMalformedToken(), "unexpected claim type")
	}

	if !claims.VerifyIssuer(s.config.Authorizer.Issuer, true) {
		return core.Principal{}, errors.Wrap(core.NewErrorInvalidToken(), "issuer mismatch")
	}

	if !verifyAudience(claims, s.config.Authorizer.Audience) {
		return core.Principal{}, errors.Wrap(core.NewErrorInvalidToken(), "audience mismatch")
	}

	// a token without any expiry never expires; refuse it outright
	if _, ok := claims["exp"]; !ok {
		return core.Principal{}, errors.Wrap(core.NewErrorMalformedToken(), "expiry claim missing")
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return core.Principal{}, errors.Wrap(core.NewErrorMalformedToken(), "subject claim missing")
	}

	groupsClaim, ok := claims[s.config.Authorizer.GroupsClaimName()]
	if !ok {
		return core.Principal{}, errors.Wrap(core.NewErrorMalformedToken(), "groups claim missing")
	}

	groups, err := normalizeGroups(groupsClaim)
	if err != nil {
		return core.Principal{}, errors.Wrap(core.NewErrorMalformedToken(), err.Error())
	}

	return core.Principal{
		Subject: subject,
		Groups:  groups,
	}, nil
}

func verifyAudience(claims jwt.MapClaims, audience string) bool {
	switch aud := claims["aud"].(type) {
	case string:
		return aud == audience
	case []interface{}:
		for _, entry := range aud {
			if s, ok := entry.(string); ok && s == audience {
				return true
			}
		}
	}
	return false
}

// normalizeGroups lower-cases, deduplicates and sorts the group claim.
// An empty list is a valid principal with no groups.
func normalizeGroups(claim any) ([]string, error) {
	entries, ok := claim.([]interface{})
	if !ok {
		return nil, errors.New("groups claim has unexpected type")
	}

	seen := map[string]bool{}
	groups := []string{}
	for _, entry := range entries {
		s, ok := entry.(string)
		if !ok {
			return nil, errors.New("groups claim has non-string entry")
		}
		s = strings.ToLower(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		groups = append(groups, s)
	}
	sort.Strings(groups)

	return groups, nil
}
