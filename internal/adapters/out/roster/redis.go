package roster

import (
	"context"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	fieldName    = "name"
	fieldChannel = "channel"
)

// RedisRoster stores the shift as a sorted set scored by a check-in sequence
// number and one hash per florist.
//
// Keys:
//
//	<prefix>:seq               STRING  check-in counter
//	<prefix>:on_shift          ZSET    florist id -> check-in sequence
//	<prefix>:florist:<id>      HASH    name, channel
type RedisRoster struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisRoster creates a roster whose keys start with prefix.
func NewRedisRoster(rdb redis.UniversalClient, prefix string) *RedisRoster {
	if prefix == "" {
		prefix = "flowershop:roster"
	}
	return &RedisRoster{rdb: rdb, prefix: prefix}
}

// seqKey holds the counter that orders check-ins.
func (r *RedisRoster) seqKey() string {
	return r.prefix + ":seq"
}

// shiftKey is the sorted set of florists on shift scored by check-in sequence.
func (r *RedisRoster) shiftKey() string {
	return r.prefix + ":on_shift"
}

// floristKey is the hash with the profile of one florist.
func (r *RedisRoster) floristKey(id string) string {
	return r.prefix + ":florist:" + id
}

// CheckIn keeps the original position of a florist who checks in twice.
func (r *RedisRoster) CheckIn(ctx context.Context, florist ports.Florist) error {
	if err := florist.ID.Validate(); err != nil {
		return err
	}
	id := florist.ID.String()
	seq, err := r.rdb.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return errors.Wrapf(err, "roster check in %s", id)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddNX(ctx, r.shiftKey(), redis.Z{Score: float64(seq), Member: id})
		pipe.HSet(ctx, r.floristKey(id), fieldName, florist.Name, fieldChannel, florist.ChannelID)
		return nil
	})
	return errors.Wrapf(err, "roster check in %s", id)
}

// CheckOut removes the florist from the shift and deletes their hash.
func (r *RedisRoster) CheckOut(ctx context.Context, floristID kernel.UUID) error {
	id := floristID.String()
	var removed *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, r.shiftKey(), id)
		pipe.Del(ctx, r.floristKey(id))
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "roster check out %s", id)
	}
	if removed.Val() == 0 {
		return errs.NewObjectNotFoundError("florist", id)
	}
	return nil
}

// Get returns errs.ErrObjectNotFound for florists off shift.
func (r *RedisRoster) Get(ctx context.Context, floristID kernel.UUID) (ports.Florist, error) {
	fields, err := r.rdb.HGetAll(ctx, r.floristKey(floristID.String())).Result()
	if err != nil {
		return ports.Florist{}, errors.Wrapf(err, "roster get %s", floristID)
	}
	if len(fields) == 0 {
		return ports.Florist{}, errs.NewObjectNotFoundError("florist", floristID.String())
	}
	return ports.Florist{ID: floristID, Name: fields[fieldName], ChannelID: fields[fieldChannel]}, nil
}

// OnShift lists florists in check-in order.
func (r *RedisRoster) OnShift(ctx context.Context) ([]ports.Florist, error) {
	ids, err := r.rdb.ZRange(ctx, r.shiftKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "roster on shift")
	}
	if len(ids) == 0 {
		return []ports.Florist{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.floristKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "roster on shift details")
	}

	florists := make([]ports.Florist, 0, len(ids))
	for i, raw := range ids {
		id, parseErr := kernel.UUIDFromString(raw)
		if parseErr != nil {
			return nil, parseErr
		}
		fields := cmds[i].Val()
		florists = append(florists, ports.Florist{ID: id, Name: fields[fieldName], ChannelID: fields[fieldChannel]})
	}
	return florists, nil
}
