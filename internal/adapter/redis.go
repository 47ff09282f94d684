package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonno85/video-multipart-uploader/internal/apperr"
	"github.com/jonno85/video-multipart-uploader/internal/domain"
	redis "github.com/redis/go-redis/v9"
)

const (
	KeyVideoSeq    = "video:seq"
	QueuePending   = "queue:pending-upload"
	QueueCompleted = "queue:completed"
	QueueFailed    = "queue:failed"
	TTL_INFINITE   = 0
)

// RedisOperationalClient persists upload sessions keyed by video id.
type RedisOperationalClient interface {
	NextVideoID(ctx context.Context) (int, error)
	CreateVideo(ctx context.Context, video domain.Video) error
	GetVideo(ctx context.Context, id int) (*domain.Video, error)
	UpdateVideo(ctx context.Context, video domain.Video) error
	TransitionVideo(ctx context.Context, id int, from, to string, at time.Time) (*domain.Video, error)
	PendingVideoIDs(ctx context.Context) ([]int, error)
	Ping(ctx context.Context) error
	Close() error
}

type RedisClientImpl struct {
	redisClient *redis.Client
}

func NewRedisClientImpl(addr, password string, db int) *RedisClientImpl {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisClientImpl{
		redisClient: client,
	}
}

func videoKey(id int) string {
	return fmt.Sprintf("video:%d", id)
}

func (r *RedisClientImpl) Ping(ctx context.Context) error {
	return r.redisClient.Ping(ctx).Err()
}

func (r *RedisClientImpl) NextVideoID(ctx context.Context) (int, error) {
	id, err := r.redisClient.Incr(ctx, KeyVideoSeq).Result()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// CreateVideo stores the video and pushes its id onto the pending queue in one transaction.
func (r *RedisClientImpl) CreateVideo(ctx context.Context, video domain.Video) error {
	jsonBytes, err := json.Marshal(video)
	if err != nil {
		return err
	}
	_, err = r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := pipe.Set(ctx, videoKey(video.ID), jsonBytes, TTL_INFINITE).Err(); err != nil {
			return err
		}
		return pipe.LPush(ctx, QueuePending, video.ID).Err()
	})
	slog.Debug("CreateVideo", "videoID", video.ID, "err", err)
	return err
}

func (r *RedisClientImpl) GetVideo(ctx context.Context, id int) (*domain.Video, error) {
	jsonBytes, err := r.redisClient.Get(ctx, videoKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	var video domain.Video
	if err := json.Unmarshal(jsonBytes, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// UpdateVideo overwrites the video and moves it from the pending queue once it reaches a final status.
func (r *RedisClientImpl) UpdateVideo(ctx context.Context, video domain.Video) error {
	jsonBytes, err := json.Marshal(video)
	if err != nil {
		return err
	}
	_, err = r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := pipe.Set(ctx, videoKey(video.ID), jsonBytes, TTL_INFINITE).Err(); err != nil {
			return err
		}
		var target string
		switch video.Status {
		case domain.VideoStatusCompleted:
			target = QueueCompleted
		case domain.VideoStatusFailed:
			target = QueueFailed
		default:
			return nil
		}
		if err := pipe.LRem(ctx, QueuePending, 1, video.ID).Err(); err != nil {
			return err
		}
		return pipe.LPush(ctx, target, video.ID).Err()
	})
	slog.Debug("UpdateVideo", "videoID", video.ID, "status", video.Status, "err", err)
	return err
}

// TransitionVideo moves the video from one status to another only if it is still in `from`.
// The record is WATCHed, so a concurrent writer makes the transaction fail with ErrInvalidState.
func (r *RedisClientImpl) TransitionVideo(ctx context.Context, id int, from, to string, at time.Time) (*domain.Video, error) {
	key := videoKey(id)
	var video domain.Video
	txf := func(tx *redis.Tx) error {
		jsonBytes, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return apperr.ErrNotFound
			}
			return err
		}
		if err := json.Unmarshal(jsonBytes, &video); err != nil {
			return err
		}
		if video.Status != from {
			return fmt.Errorf("%w: video %d is not in %s status (current: %s)", apperr.ErrInvalidState, id, from, video.Status)
		}
		video.Status = to
		video.UpdatedAt = at
		updated, err := json.Marshal(video)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return pipe.Set(ctx, key, updated, TTL_INFINITE).Err()
		})
		return err
	}

	err := r.redisClient.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		err = fmt.Errorf("%w: video %d was modified concurrently", apperr.ErrInvalidState, id)
	}
	slog.Debug("TransitionVideo", "videoID", id, "from", from, "to", to, "err", err)
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *RedisClientImpl) PendingVideoIDs(ctx context.Context) ([]int, error) {
	values, err := r.redisClient.LRange(ctx, QueuePending, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(values))
	for _, v := range values {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid video id %q in %s: %w", v, QueuePending, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *RedisClientImpl) Close() error {
	return r.redisClient.Close()
}
