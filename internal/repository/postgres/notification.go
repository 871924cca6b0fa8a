package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// NotificationRepository is a PostgreSQL implementation of repository.NotificationRepository.
type NotificationRepository struct {
	q Querier
}

// NewNotificationRepository creates a new PostgreSQL notification repository.
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{q: db}
}

// NewNotificationRepositoryWithTx creates a notification repository using a transaction.
func NewNotificationRepositoryWithTx(tx *sql.Tx) *NotificationRepository {
	return &NotificationRepository{q: tx}
}

// Create persists a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, type, recipient_id, join_id, trip_id, offer_id, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.ExecContext(ctx, query,
		n.ID,
		n.Type,
		n.RecipientID,
		nullString(n.JoinID),
		nullString(n.TripID),
		nullString(n.OfferID),
		n.Message,
		n.Read,
		n.CreatedAt,
	)
	return err
}

// ListByRecipient returns a user's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID string) ([]*domain.NotificationView, error) {
	query := `
		SELECT n.id, n.type, n.recipient_id, n.join_id, n.trip_id, n.offer_id, n.message, n.read, n.created_at, j.status
		FROM notifications n
		LEFT JOIN joins j ON j.id = n.join_id
		WHERE n.recipient_id = $1
		ORDER BY n.created_at DESC
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*domain.NotificationView
	for rows.Next() {
		var v domain.NotificationView
		var joinID, tripID, offerID, status sql.NullString
		if err := rows.Scan(
			&v.ID,
			&v.Type,
			&v.RecipientID,
			&joinID,
			&tripID,
			&offerID,
			&v.Message,
			&v.Read,
			&v.CreatedAt,
			&status,
		); err != nil {
			return nil, err
		}
		v.JoinID = joinID.String
		v.TripID = tripID.String
		v.OfferID = offerID.String
		v.JoinStatus = domain.JoinStatus(status.String)
		views = append(views, &v)
	}
	return views, rows.Err()
}

// MarkRead flags a notification as read if it belongs to userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// DeleteByJoinIDs removes notifications referencing the given joins.
func (r *NotificationRepository) DeleteByJoinIDs(ctx context.Context, joinIDs []string) error {
	if len(joinIDs) == 0 {
		return nil
	}
	_, err := r.q.ExecContext(ctx, `DELETE FROM notifications WHERE join_id = ANY($1::uuid[])`, pq.Array(joinIDs))
	return err
}

// Ensure NotificationRepository implements repository.NotificationRepository.
var _ repository.NotificationRepository = (*NotificationRepository)(nil)
