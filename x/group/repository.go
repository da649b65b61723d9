//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package group

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/gatewarden/gatewarden/core"
	"github.com/gatewarden/gatewarden/x/util"
)

// Repository is the interface for group policy persistence
type Repository interface {
	Upsert(ctx context.Context, record core.GroupPolicyRecord) (core.GroupPolicyRecord, error)
	Get(ctx context.Context, groupID string) (core.GroupPolicyRecord, error)
	List(ctx context.Context) ([]core.GroupPolicyRecord, error)
	Delete(ctx context.Context, groupID string) error
}

type repository struct {
	db     *gorm.DB
	rdb    *redis.Client
	config util.Config
}

// NewRepository creates a new group policy repository
func NewRepository(db *gorm.DB, rdb *redis.Client, config util.Config) Repository {
	return &repository{db, rdb, config}
}

// Upsert writes the row and projects the record into the statement
// store. The decision path only ever reads the projection.
func (r *repository) Upsert(ctx context.Context, record core.GroupPolicyRecord) (core.GroupPolicyRecord, error) {
	ctx, span := tracer.Start(ctx, "Group.Repository.Upsert")
	defer span.End()

	statements, err := json.Marshal(record.Statements)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return core.GroupPolicyRecord{}, err
	}

	row := core.GroupPolicy{
		ID:         record.GroupID,
		Statements: string(statements),
	}
	err = r.db.WithContext(ctx).Save(&row).Error
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return core.GroupPolicyRecord{}, err
	}

	projection, err := json.Marshal(record)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return core.GroupPolicyRecord{}, err
	}

	err = r.rdb.Set(ctx, r.config.Authorizer.KeyPrefix()+record.GroupID, string(projection), 0).Err()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return core.GroupPolicyRecord{}, err
	}

	return record, nil
}

// Get returns a group policy record by ID
func (r *repository) Get(ctx context.Context, groupID string) (core.GroupPolicyRecord, error) {
	ctx, span := tracer.Start(ctx, "Group.Repository.Get")
	defer span.End()

	var row core.GroupPolicy
	err := r.db.WithContext(ctx).First(&row, "id = ?", groupID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.GroupPolicyRecord{}, core.NewErrorNotFound()
		}
		span.RecordError(err)
		return core.GroupPolicyRecord{}, err
	}

	return inflate(row)
}

// List returns all group policy records
func (r *repository) List(ctx context.Context) ([]core.GroupPolicyRecord, error) {
	ctx, span := tracer.Start(ctx, "Group.Repository.List")
	defer span.End()

	var rows []core.GroupPolicy
	err := r.db.WithContext(ctx).Order("id").Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	records := make([]core.GroupPolicyRecord, 0, len(rows))
	for _, row := range rows {
		record, err := inflate(row)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// Delete removes the row and its projection
func (r *repository) Delete(ctx context.Context, groupID string) error {
	ctx, span := tracer.Start(ctx, "Group.Repository.Delete")
	defer span.End()

	err := r.db.WithContext(ctx).Delete(&core.GroupPolicy{}, "id = ?", groupID).Error
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = r.rdb.Del(ctx, r.config.Authorizer.KeyPrefix()+groupID).Err()
	if err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func inflate(row core.GroupPolicy) (core.GroupPolicyRecord, error) {
	record := core.GroupPolicyRecord{
		GroupID:    row.ID,
		Statements: []core.PermissionStatement{},
	}
	if row.Statements == "" {
		return record, nil
	}
	err := json.Unmarshal([]byte(row.Statements), &record.Statements)
	if err != nil {
		return core.GroupPolicyRecord{}, err
	}
	return record, nil
}
