package livestatus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// notifyChannel is the Postgres channel the orders trigger notifies on.
const notifyChannel = "order_status_events"

// pgSource implements Source over Postgres LISTEN/NOTIFY. A trigger on the
// orders table publishes a JSON payload on every status update.
type pgSource struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPGSource creates a LISTEN/NOTIFY-backed status event source.
func NewPGSource(pool *pgxpool.Pool, logger zerolog.Logger) Source {
	return &pgSource{
		pool:   pool,
		logger: logger.With().Str("component", "livestatus-source").Logger(),
	}
}

// notifyPayload matches the trigger's JSON payload.
type notifyPayload struct {
	ID                 uuid.UUID         `json:"id"`
	Status             model.OrderStatus `json:"status"`
	CancellationReason *string           `json:"cancellation_reason"`
}

// Subscribe acquires a dedicated connection, listens on the orders channel
// and forwards updates for the given order IDs. The channel closes when ctx
// is cancelled.
func (s *pgSource) Subscribe(ctx context.Context, orderIDs []uuid.UUID) (<-chan StatusEvent, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listen connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on %s: %w", notifyChannel, err)
	}

	watched := make(map[uuid.UUID]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		watched[id] = struct{}{}
	}

	events := make(chan StatusEvent)

	go func() {
		defer close(events)
		// The connection carried a LISTEN; close it rather than hand it
		// back to the pool in an unknown state.
		defer func() {
			_ = conn.Conn().Close(context.Background())
			conn.Release()
		}()

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Error().Err(err).Msg("status notification wait failed")
				}
				return
			}

			var payload notifyPayload
			if err := json.Unmarshal([]byte(notification.Payload), &payload); err != nil {
				s.logger.Warn().
					Err(err).
					Str("payload", notification.Payload).
					Msg("discarding malformed status notification")
				continue
			}

			if _, ok := watched[payload.ID]; !ok {
				continue
			}

			select {
			case events <- StatusEvent{
				OrderID:            payload.ID,
				NewStatus:          payload.Status,
				CancellationReason: payload.CancellationReason,
			}:
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Debug().Int("order_count", len(orderIDs)).Msg("status subscription established")

	return events, nil
}
