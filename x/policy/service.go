package policy

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gatewarden/gatewarden/core"
	"github.com/gatewarden/gatewarden/x/util"
)

var tracer = otel.Tracer("policy")

type service struct {
	repository Repository
	token      core.TokenService
	config     util.Config
}

// NewService creates a new policy resolver service
func NewService(repository Repository, token core.TokenService, config util.Config) core.PolicyService {
	return &service{repository, token, config}
}

// Resolve turns a raw token into an access decision for the caller.
// It holds no state and performs no retries; a permission revocation
// takes effect on the very next call.
func (s *service) Resolve(ctx context.Context, token string) (core.AccessDecision, error) {
	ctx, span := tracer.Start(ctx, "Policy.Service.Resolve")
	defer span.End()

	principal, err := s.token.Verify(ctx, token)
	if err != nil {
		span.RecordError(err)
		return core.AccessDecision{}, err
	}

	span.SetAttributes(attribute.String("subject", principal.Subject))

	decision := core.AccessDecision{
		PrincipalID: principal.Subject,
		Effect:      core.EffectDeny,
		Statements:  []core.PermissionStatement{},
		Context: map[string]string{
			core.ContextUserIDKey: principal.Subject,
		},
	}

	if len(principal.Groups) == 0 {
		if s.config.Authorizer.AllowEmptyGroups {
			decision.Effect = core.EffectAllow
		}
		return decision, nil
	}

	records, err := s.repository.FetchStatements(ctx, principal.Groups)
	if err != nil {
		span.RecordError(err)
		return core.AccessDecision{}, err
	}

	decision.Statements = mergeStatements(records, principal.Groups)
	decision.Effect = evaluateEffect(decision.Statements, s.config.Authorizer.DenyPrefixOverride)

	span.SetAttributes(attribute.String("effect", string(decision.Effect)))

	return decision, nil
}
