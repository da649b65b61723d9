package group

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/gatewarden/gatewarden/core"
)

var tracer = otel.Tracer("group")

type service struct {
	repository Repository
}

// NewService creates a new group policy service
func NewService(repository Repository) core.GroupService {
	return &service{repository}
}

// Upsert validates and stores a group policy record
func (s *service) Upsert(ctx context.Context, record core.GroupPolicyRecord) (core.GroupPolicyRecord, error) {
	ctx, span := tracer.Start(ctx, "Group.Service.Upsert")
	defer span.End()

	if record.GroupID == "" {
		return core.GroupPolicyRecord{}, errors.New("group id must not be empty")
	}

	for _, statement := range record.Statements {
		if statement.Sid == "" {
			return core.GroupPolicyRecord{}, errors.New("statement sid must not be empty")
		}
		if statement.Effect != core.EffectAllow && statement.Effect != core.EffectDeny {
			return core.GroupPolicyRecord{}, errors.Errorf("statement %s has invalid effect %q", statement.Sid, statement.Effect)
		}
	}

	created, err := s.repository.Upsert(ctx, record)
	if err != nil {
		span.RecordError(err)
		return core.GroupPolicyRecord{}, err
	}

	return created, nil
}

// Get returns a group policy record by ID
func (s *service) Get(ctx context.Context, groupID string) (core.GroupPolicyRecord, error) {
	ctx, span := tracer.Start(ctx, "Group.Service.Get")
	defer span.End()

	return s.repository.Get(ctx, groupID)
}

// List returns all group policy records
func (s *service) List(ctx context.Context) ([]core.GroupPolicyRecord, error) {
	ctx, span := tracer.Start(ctx, "Group.Service.List")
	defer span.End()

	return s.repository.List(ctx)
}

// Delete removes a group policy record
func (s *service) Delete(ctx context.Context, groupID string) error {
	ctx, span := tracer.Start(ctx, "Group.Service.Delete")
	defer span.End()

	err := s.repository.Delete(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}
