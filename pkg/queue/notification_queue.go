// Package queue carries submission notifications over a Redis stream so a
// separate worker can deliver them without slowing down the public endpoints.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ocakbasi/internal/util"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDelivered  = "delivered"
	StatusFailed     = "failed"
)

// Notification kinds.
const (
	KindReservation = "reservation"
	KindApplication = "application"
)

// Notification announces a new submission. Summary is a short human-readable line.
type Notification struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	SubjectID    string    `json:"subjectId"`
	Summary      string    `json:"summary"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Handler delivers one notification. A returned error schedules a retry until
// the attempt budget is spent.
type Handler func(context.Context, Notification) error

type NotificationQueue struct {
	client       *redis.Client
	stream       string
	group        string
	consumerBase string
	statusTTL    time.Duration
	maxAttempts  int
	block        time.Duration
	claimIdle    time.Duration
	retryDelay   time.Duration
	maxLen       int64
	readCount    int64
	claimCount   int64
	logger       *slog.Logger
	once         sync.Once
}

type Config struct {
	Addr        string
	Password    string
	Stream      string
	Group       string
	Consumer    string
	StatusTTL   time.Duration
	MaxAttempts int
	Block       time.Duration
	ClaimIdle   time.Duration
	RetryDelay  time.Duration
	MaxLen      int64
	ReadCount   int64
	ClaimCount  int64
	Logger      *slog.Logger
}

func NewNotificationQueue(cfg Config) (*NotificationQueue, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = "ocakbasi:notifications"
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "notify-workers"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = util.NewID()
	}
	q := &NotificationQueue{
		client:       redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		statusTTL:    orDuration(cfg.StatusTTL, 7*24*time.Hour),
		maxAttempts:  cfg.MaxAttempts,
		block:        orDuration(cfg.Block, 5*time.Second),
		claimIdle:    orDuration(cfg.ClaimIdle, 30*time.Second),
		retryDelay:   orDuration(cfg.RetryDelay, 2*time.Second),
		maxLen:       orInt64(cfg.MaxLen, 10000),
		readCount:    orInt64(cfg.ReadCount, 10),
		claimCount:   orInt64(cfg.ClaimCount, 10),
		logger:       cfg.Logger,
	}
	if q.maxAttempts <= 0 {
		q.maxAttempts = 5
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	return q, nil
}

func orDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func orInt64(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}

// Close releases the Redis client.
func (q *NotificationQueue) Close() error {
	return q.client.Close()
}

// Enqueue records a notification for subjectID and appends it to the stream.
func (q *NotificationQueue) Enqueue(ctx context.Context, kind, subjectID, summary string) (Notification, error) {
	kind = strings.TrimSpace(kind)
	subjectID = strings.TrimSpace(subjectID)
	if kind == "" || subjectID == "" {
		return Notification{}, errors.New("kind and subjectId required")
	}
	now := time.Now().UTC()
	n := Notification{
		ID:        util.NewID(),
		Kind:      kind,
		SubjectID: subjectID,
		Summary:   summary,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.writeStatus(ctx, n); err != nil {
		return Notification{}, err
	}
	if err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{"notification_id": n.ID},
	}).Err(); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// Get returns the stored status of a notification.
func (q *NotificationQueue) Get(ctx context.Context, id string) (Notification, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Notification{}, false, nil
	}
	data, err := q.client.HGetAll(ctx, q.statusKey(id)).Result()
	if err != nil {
		return Notification{}, false, err
	}
	if len(data) == 0 {
		return Notification{}, false, nil
	}
	return decodeNotification(id, data), true, nil
}

// Start launches concurrency consumers that run until ctx is cancelled.
func (q *NotificationQueue) Start(ctx context.Context, concurrency int, handler Handler) {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.ensureGroup(ctx)
	for i := 0; i < concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", q.consumerBase, i)
		go q.consumeLoop(ctx, consumer, handler)
	}
}

func (q *NotificationQueue) ensureGroup(ctx context.Context) {
	q.once.Do(func() {
		err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			q.logger.Warn("notification group create failed", "stream", q.stream, "err", err)
		}
	})
}

func (q *NotificationQueue) consumeLoop(ctx context.Context, consumer string, handler Handler) {
	for {
		if ctx.Err() != nil {
			return
		}

		if msgs, err := q.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				q.handleMessage(ctx, msg, handler)
			}
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    q.readCount,
			Block:    q.block,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				q.logger.Warn("notification read failed", "consumer", consumer, "err", err)
				sleepCtx(ctx, q.retryDelay)
			}
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handleMessage(ctx, msg, handler)
			}
		}
	}
}

func (q *NotificationQueue) claimPending(ctx context.Context, consumer string) ([]redis.XMessage, error) {
	res, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    q.claimCount,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ProcessOnce reads at most one batch without blocking and handles it. Used by
// the CLI drain mode and tests.
func (q *NotificationQueue) ProcessOnce(ctx context.Context, handler Handler) (int, error) {
	q.ensureGroup(ctx)
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumerBase,
		Streams:  []string{q.stream, ">"},
		Count:    q.readCount,
		Block:    -1,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	handled := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			q.handleMessage(ctx, msg, handler)
			handled++
		}
	}
	return handled, nil
}

func (q *NotificationQueue) handleMessage(ctx context.Context, msg redis.XMessage, handler Handler) {
	id, _ := msg.Values["notification_id"].(string)
	if id == "" {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	n, err := q.markProcessing(ctx, id)
	if err != nil {
		q.logger.Warn("notification status unavailable, dropping", "id", id, "err", err)
		q.ackAndDel(ctx, msg.ID)
		return
	}
	herr := handler(ctx, n)
	if herr == nil {
		_ = q.mark(ctx, id, StatusDelivered, "")
		q.ackAndDel(ctx, msg.ID)
		return
	}
	if n.Attempts >= q.maxAttempts {
		q.logger.Error("notification failed permanently", "id", id, "attempts", n.Attempts, "err", herr)
		_ = q.mark(ctx, id, StatusFailed, herr.Error())
		q.ackAndDel(ctx, msg.ID)
		return
	}
	_ = q.mark(ctx, id, StatusQueued, herr.Error())
	if !sleepCtx(ctx, q.retryDelay) {
		return
	}
	if err := q.requeueAndAck(ctx, msg.ID, id); err != nil {
		q.logger.Warn("notification requeue failed, left pending", "id", id, "err", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (q *NotificationQueue) ackAndDel(ctx context.Context, msgID string) {
	_, _ = q.client.XAck(ctx, q.stream, q.group, msgID).Result()
	_, _ = q.client.XDel(ctx, q.stream, msgID).Result()
}

// requeueAndAck appends a fresh copy and acks the original in one transaction,
// so a failure leaves the original pending for XAUTOCLAIM.
func (q *NotificationQueue) requeueAndAck(ctx context.Context, msgID, id string) error {
	pipe := q.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{"notification_id": id},
	})
	pipe.XAck(ctx, q.stream, q.group, msgID)
	pipe.XDel(ctx, q.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *NotificationQueue) markProcessing(ctx context.Context, id string) (Notification, error) {
	n, ok, err := q.Get(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if !ok {
		return Notification{}, fmt.Errorf("notification %s expired", id)
	}
	n.Attempts++
	n.Status = StatusProcessing
	n.UpdatedAt = time.Now().UTC()
	if err := q.writeStatus(ctx, n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (q *NotificationQueue) mark(ctx context.Context, id, status, errMsg string) error {
	n, _, err := q.Get(ctx, id)
	if err != nil {
		return err
	}
	n.Status = status
	n.ErrorMessage = errMsg
	n.UpdatedAt = time.Now().UTC()
	return q.writeStatus(ctx, n)
}

func (q *NotificationQueue) writeStatus(ctx context.Context, n Notification) error {
	key := q.statusKey(n.ID)
	payload := map[string]any{
		"kind":      n.Kind,
		"subjectId": n.SubjectID,
		"summary":   n.Summary,
		"status":    n.Status,
		"error":     n.ErrorMessage,
		"attempts":  strconv.Itoa(n.Attempts),
		"createdAt": n.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt": n.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := q.client.HSet(ctx, key, payload).Err(); err != nil {
		return err
	}
	_ = q.client.Expire(ctx, key, q.statusTTL).Err()
	return nil
}

func (q *NotificationQueue) statusKey(id string) string {
	return fmt.Sprintf("notification:%s:%s", q.stream, id)
}

func decodeNotification(id string, data map[string]string) Notification {
	n := Notification{
		ID:           id,
		Kind:         data["kind"],
		SubjectID:    data["subjectId"],
		Summary:      data["summary"],
		Status:       data["status"],
		ErrorMessage: data["error"],
	}
	if v := data["attempts"]; v != "" {
		if a, err := strconv.Atoi(v); err == nil {
			n.Attempts = a
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, data["createdAt"]); err == nil {
		n.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, data["updatedAt"]); err == nil {
		n.UpdatedAt = t
	}
	return n
}
