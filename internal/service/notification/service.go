package notification

import (
	"context"
	"fmt"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/messaging"
	"github.com/jwalitptl/hospital-ops/pkg/metrics"
	"github.com/jwalitptl/hospital-ops/pkg/worker"
)

// Service fans ambulance changes out to the live hospital topic. Delivery is
// at-most-once: failures and drops are logged and counted only.
type Service interface {
	AmbulanceUpdated(ambulance *model.Ambulance)
	Subscribe(ctx context.Context, hospital model.Hospital) (<-chan []byte, error)
}

type service struct {
	broker     messaging.Broker
	dispatcher *worker.Dispatcher
	log        *logger.Logger
	metrics    *metrics.Metrics
}

func NewService(broker messaging.Broker, dispatcher *worker.Dispatcher, log *logger.Logger, m *metrics.Metrics) Service {
	return &service{
		broker:     broker,
		dispatcher: dispatcher,
		log:        log,
		metrics:    m,
	}
}

// AmbulanceUpdated queues a snapshot of ambulance for publishing. Calls for
// the same ambulance are delivered in call order.
func (s *service) AmbulanceUpdated(ambulance *model.Ambulance) {
	if ambulance.HospitalID == nil {
		s.log.Debug("Ambulance has no hospital; skipping live update", "ambulance_id", ambulance.ID.String())
		return
	}

	snapshot := ambulance.Clone()
	topic := model.UpdatesTopic(*snapshot.HospitalID)

	s.dispatcher.Submit(worker.Task{
		Name: "notify.ambulance_update",
		Key:  snapshot.ID.String(),
		Run: func(ctx context.Context) error {
			if err := s.broker.Publish(ctx, topic, snapshot); err != nil {
				s.metrics.NotificationsFailed.Inc()
				return fmt.Errorf("failed to publish to %s: %w", topic, err)
			}
			s.metrics.NotificationsPublished.Inc()
			return nil
		},
	})
}

func (s *service) Subscribe(ctx context.Context, hospital model.Hospital) (<-chan []byte, error) {
	ch, err := s.broker.Subscribe(ctx, model.UpdatesTopic(hospital.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to ambulance updates: %w", err)
	}
	return ch, nil
}
