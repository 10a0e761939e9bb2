package repository

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

// Archiver periodically cold-archives TradeCandidates whose signal post
// time is older than maxAge to S3 as gzipped NDJSON, batched by day,
// then deletes the archived rows from
// the hot collection. Bucket lifecycle rules own long-term rotation; this
// archiver's job ends at successful upload (unlike the teacher's local-
// disk archiver, which also self-rotates by total size).
type Archiver struct {
	store    *Store
	s3       *s3.Client
	bucket   string
	prefix   string
	interval time.Duration
	maxAge   time.Duration
}

// NewArchiver builds an Archiver targeting an S3 bucket/prefix.
func NewArchiver(store *Store, s3Client *s3.Client, bucket, prefix string, interval, maxAge time.Duration) *Archiver {
	return &Archiver{store: store, s3: s3Client, bucket: bucket, prefix: prefix, interval: interval, maxAge: maxAge}
}

// Run starts the periodic archive loop. Blocks until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) {
	a.store.log.Info("trade candidate archiver starting", "bucket", a.bucket, "interval", a.interval, "age", a.maxAge)

	a.cycle(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.cycle(ctx)
		}
	}
}

func (a *Archiver) cycle(ctx context.Context) {
	cursor, err := a.loadCursor(ctx)
	if err != nil {
		a.store.log.Warn("archiver: load cursor", "error", err)
		return
	}

	cutoff := time.Now().Add(-a.maxAge)
	if !cursor.Before(cutoff) {
		return
	}

	candidates, err := a.store.TradeCandidatesByState(ctx, domain.TradeCandidateStatePendingQueue, cutoff, 10000)
	if err != nil {
		a.store.log.Warn("archiver: query trade candidates", "error", err)
		return
	}
	if len(candidates) == 0 {
		a.saveCursor(ctx, cutoff)
		return
	}

	batches := make(map[string][]*domain.TradeCandidate)
	for _, c := range candidates {
		day := c.SignalPostTime.UTC().Format("2006/01/02")
		batches[day] = append(batches[day], c)
	}

	for day, batch := range batches {
		if err := a.writeBatch(ctx, day, batch); err != nil {
			a.store.log.Warn("archiver: write batch", "day", day, "error", err)
			return
		}

		ids := make([]int64, len(batch))
		for i, c := range batch {
			ids[i] = c.ID
		}
		if err := a.store.DeleteTradeCandidates(ctx, ids); err != nil {
			a.store.log.Warn("archiver: delete archived batch", "day", day, "error", err)
			return
		}
		a.store.log.Info("archiver: archived trade candidates", "day", day, "count", len(batch))
	}

	a.saveCursor(ctx, cutoff)
}

type tradeCandidateArchiveDoc struct {
	ID             int64     `json:"id"`
	SignalID       int64     `json:"signal_id"`
	CopySetupID    int64     `json:"copy_setup_id"`
	Side           string    `json:"side"`
	Symbol         string    `json:"symbol"`
	EntryPrice     string    `json:"entry_price"`
	TPPrice        string    `json:"tp_price"`
	SLPrice        string    `json:"sl_price"`
	State          string    `json:"state"`
	SignalPostTime time.Time `json:"signal_post_time"`
}

func toArchiveDoc(c *domain.TradeCandidate) tradeCandidateArchiveDoc {
	return tradeCandidateArchiveDoc{
		ID:             c.ID,
		SignalID:       c.SignalID,
		CopySetupID:    c.CopySetupID,
		Side:           string(c.Side),
		Symbol:         c.Symbol,
		EntryPrice:     c.EntryPrice.String(),
		TPPrice:        c.TPPrice.String(),
		SLPrice:        c.SLPrice.String(),
		State:          string(c.State),
		SignalPostTime: c.SignalPostTime,
	}
}

func (a *Archiver) loadCursor(ctx context.Context) (time.Time, error) {
	var doc struct {
		ValueTime time.Time `bson:"value_time"`
	}
	err := a.store.db.Collection("archive_state").FindOne(ctx, bson.M{"key": "candidate_archive_cursor"}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return doc.ValueTime, nil
}

func (a *Archiver) saveCursor(ctx context.Context, t time.Time) {
	_, err := a.store.db.Collection("archive_state").UpdateOne(ctx,
		bson.M{"key": "candidate_archive_cursor"},
		bson.M{"$set": bson.M{"key": "candidate_archive_cursor", "value_time": t, "updated_at": time.Now()}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		a.store.log.Warn("archiver: save cursor", "error", err)
	}
}

func (a *Archiver) writeBatch(ctx context.Context, day string, batch []*domain.TradeCandidate) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, c := range batch {
		if err := enc.Encode(toArchiveDoc(c)); err != nil {
			gz.Close()
			return fmt.Errorf("encode: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	key := fmt.Sprintf("%s/trade_candidates/%s.jsonl.gz", a.prefix, day)
	_, err := a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("s3 put: %w", err)
	}
	return nil
}
