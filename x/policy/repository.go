//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package policy

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"

	"github.com/gatewarden/gatewarden/core"
	"github.com/gatewarden/gatewarden/x/util"
)

// Repository is the batched read boundary over the policy key-value store
type Repository interface {
	FetchStatements(ctx context.Context, groupIDs []string) (map[string][]core.PermissionStatement, error)
}

type repository struct {
	rdb    *redis.Client
	config util.Config
}

// NewRepository creates a new statement store repository
func NewRepository(rdb *redis.Client, config util.Config) Repository {
	return &repository{rdb, config}
}

// FetchStatements resolves all group keys in batched reads.
// Groups without a record are absent from the result, not an error.
func (r *repository) FetchStatements(ctx context.Context, groupIDs []string) (map[string][]core.PermissionStatement, error) {
	ctx, span := tracer.Start(ctx, "Policy.Repository.FetchStatements")
	defer span.End()

	result := map[string][]core.PermissionStatement{}
	if len(groupIDs) == 0 {
		return result, nil
	}

	limit := r.config.Authorizer.BatchLimit()
	for offset := 0; offset < len(groupIDs); offset += limit {
		end := offset + limit
		if end > len(groupIDs) {
			end = len(groupIDs)
		}

		err := r.fetchBatch(ctx, groupIDs[offset:end], result)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	return result, nil
}

func (r *repository) fetchBatch(ctx context.Context, groupIDs []string, result map[string][]core.PermissionStatement) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Authorizer.StoreCallTimeout())
	defer cancel()

	keys := make([]string, len(groupIDs))
	for i, groupID := range groupIDs {
		keys[i] = r.config.Authorizer.KeyPrefix() + groupID
	}

	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return errors.Wrap(core.NewErrorStoreUnavailable(), err.Error())
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// absent key
			continue
		}

		var record core.GroupPolicyRecord
		err = json.Unmarshal([]byte(raw), &record)
		if err != nil {
			return errors.Wrap(err, "corrupt record for group "+groupIDs[i])
		}

		result[groupIDs[i]] = record.Statements
	}

	return nil
}
