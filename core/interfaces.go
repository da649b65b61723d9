//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=mock/services.go
package core

import (
	"context"
)

type TokenService interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

type PolicyService interface {
	Resolve(ctx context.Context, token string) (AccessDecision, error)
	Assemble(decision AccessDecision, hints ProtocolHints) PolicyResponse
}

type GroupService interface {
	Upsert(ctx context.Context, record GroupPolicyRecord) (GroupPolicyRecord, error)
	Get(ctx context.Context, groupID string) (GroupPolicyRecord, error)
	List(ctx context.Context) ([]GroupPolicyRecord, error)
	Delete(ctx context.Context, groupID string) error
}
