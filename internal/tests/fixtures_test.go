package tests

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"carpool/internal/domain"
	"carpool/internal/service"
)

var (
	travelDay = time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	errBoom   = errors.New("boom")
)

type fixture struct {
	store      *MockStore
	publisher  *MockPublisher
	notifier   *service.NotificationService
	reconciler *service.Reconciler
	joins      *service.JoinService
}

func newFixture(policy service.JoinPolicy) *fixture {
	store := NewMockStore()
	publisher := NewMockPublisher()
	repos := store.Repositories()
	logger := zerolog.Nop()

	notifier := service.NewNotificationService(repos.Notifications, publisher, logger)
	reconciler := service.NewReconciler(repos, logger)
	return &fixture{
		store:      store,
		publisher:  publisher,
		notifier:   notifier,
		reconciler: reconciler,
		joins:      service.NewJoinService(store, reconciler, notifier, policy, logger),
	}
}

func (f *fixture) offer(owner, origin, destination string, seats int) *domain.Offer {
	return f.store.AddOffer(&domain.Offer{
		UserID:         owner,
		Origin:         origin,
		Destination:    destination,
		Date:           travelDay,
		Price:          40,
		VehicleType:    "sedan",
		SeatsAvailable: seats,
	})
}

func (f *fixture) trip(owner, origin, destination string, people int) *domain.Trip {
	return f.store.AddTrip(&domain.Trip{
		UserID:      owner,
		Origin:      origin,
		Destination: destination,
		Date:        travelDay,
		People:      people,
	})
}

func notificationTypes(notes []*domain.Notification) []domain.NotificationType {
	types := make([]domain.NotificationType, 0, len(notes))
	for _, n := range notes {
		types = append(types, n.Type)
	}
	return types
}
