package tests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// 8. NOTIFICATIONS
// ──────────────────────────────────────────────

func TestNotifications_FollowJoinLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(service.JoinPolicy{})
	ctx := context.Background()

	offer := f.offer("driver", "Warsaw", "Krakow", 3)
	created, err := f.joins.CreateJoinOnOffer(ctx, "alice", offer.ID, "")
	require.NoError(t, err)

	inbox, err := f.notifier.List(ctx, "driver")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationJoinRequestedOffer, inbox[0].Type)
	assert.Equal(t, created.JoinID, inbox[0].JoinID)
	assert.Equal(t, domain.JoinStatusPending, inbox[0].JoinStatus)
	assert.False(t, inbox[0].Read)

	_, err = f.joins.AcceptJoin(ctx, "driver", created.JoinID)
	require.NoError(t, err)

	// The owner's view reflects the decision without a new record.
	inbox, err = f.notifier.List(ctx, "driver")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.JoinStatusAccepted, inbox[0].JoinStatus)

	mine, err := f.notifier.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.NotificationJoinAccepted, mine[0].Type)
	assert.Contains(t, mine[0].Message, "accepted")

	published := f.publisher.Published()
	require.Len(t, published, 2)
	assert.Equal(t, "driver", published[0].RecipientID)
	assert.Equal(t, "alice", published[1].RecipientID)
}

func TestNotifications_MarkRead(t *testing.T) {
	t.Parallel()
	f := newFixture(service.JoinPolicy{})
	ctx := context.Background()

	offer := f.offer("driver", "Warsaw", "Krakow", 3)
	_, err := f.joins.CreateJoinOnOffer(ctx, "alice", offer.ID, "")
	require.NoError(t, err)
	note := f.store.NotificationsFor("driver")[0]

	assert.ErrorIs(t, f.notifier.MarkRead(ctx, "alice", note.ID), repository.ErrNotFound)
	assert.ErrorIs(t, f.notifier.MarkRead(ctx, "driver", uuid.NewString()), repository.ErrNotFound)
	assert.ErrorIs(t, f.notifier.MarkRead(ctx, "driver", "not-a-uuid"), repository.ErrNotFound)
	assert.ErrorIs(t, f.notifier.MarkRead(ctx, "", note.ID), service.ErrInvalidUserID)

	require.NoError(t, f.notifier.MarkRead(ctx, "driver", note.ID))
	inbox, err := f.notifier.List(ctx, "driver")
	require.NoError(t, err)
	assert.True(t, inbox[0].Read)
}

func TestNotifications_DeliveryFailureDoesNotFailJoin(t *testing.T) {
	t.Parallel()
	f := newFixture(service.JoinPolicy{})
	f.publisher.PublishError = errBoom

	offer := f.offer("driver", "Warsaw", "Krakow", 3)
	result, err := f.joins.CreateJoinOnOffer(context.Background(), "alice", offer.ID, "")
	require.NoError(t, err)
	assert.True(t, result.Created)

	assert.Len(t, f.store.NotificationsFor("driver"), 1)
	assert.Empty(t, f.publisher.Published())
}

func TestNotifications_ListRequiresUser(t *testing.T) {
	t.Parallel()
	f := newFixture(service.JoinPolicy{})

	_, err := f.notifier.List(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrInvalidUserID)
}
