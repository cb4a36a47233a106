package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	db dbtx
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return newOutboxRepositoryWithDB(pool)
}

func newOutboxRepositoryWithDB(db dbtx) *OutboxRepository {
	return &OutboxRepository{db: db}
}

const (
	outboxColumns        = `id, aggregate_id, aggregate_type, event_type, payload, created_at, published_at, published`
	insertOutboxEventSQL = `INSERT INTO outbox_events (` + outboxColumns + `) VALUES ($1, $2, $3, $4, $5, $6, NULL, $7)`
	selectUnpublishedSQL = `SELECT ` + outboxColumns + ` FROM outbox_events WHERE NOT published ORDER BY created_at, id LIMIT $1`
	markPublishedSQL     = `UPDATE outbox_events SET published = TRUE, published_at = $2 WHERE id = $1`
	selectByAggregateSQL = `SELECT ` + outboxColumns + ` FROM outbox_events WHERE aggregate_type = $1 AND aggregate_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	deletePublishedSQL   = `DELETE FROM outbox_events WHERE published AND published_at < $1`
)

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	_, err = txConn(tx).Exec(ctx, insertOutboxEventSQL,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		payload,
		event.CreatedAt,
		event.Published,
	)

	return err
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.db.Query(ctx, selectUnpublishedSQL, limit)
	if err != nil {
		return nil, err
	}

	return collectOutboxEvents(rows)
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.db.Exec(ctx, markPublishedSQL, id, publishedAt)
	return err
}

// GetByAggregate retrieves events for a specific aggregate.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	rows, err := r.db.Query(ctx, selectByAggregateSQL, aggregateType, aggregateID, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectOutboxEvents(rows)
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	_, err := r.db.Exec(ctx, deletePublishedSQL, before)
	return err
}

func collectOutboxEvents(rows pgx.Rows) ([]*domain.OutboxEvent, error) {
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var (
			event       domain.OutboxEvent
			payload     []byte
			publishedAt *time.Time
		)

		err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.AggregateType,
			&event.EventType,
			&payload,
			&event.CreatedAt,
			&publishedAt,
			&event.Published,
		)
		if err != nil {
			return nil, err
		}

		if payload != nil {
			_ = json.Unmarshal(payload, &event.Payload)
		}
		event.PublishedAt = publishedAt

		events = append(events, &event)
	}

	return events, rows.Err()
}
