package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"onboarding-portal/internal/domain/entity"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// Timeout for a single publish or relay refresh
	broadcastTimeout = 5 * time.Second
)

// ScheduleBroadcastService keeps the streams of several API instances in step. Each instance
// publishes its committed schedule changes on a Redis channel and, for changes made elsewhere,
// re-reads the table and notifies its own subscribers.
//
// Events carry the publishing instance's id so an instance ignores its own messages.
type ScheduleBroadcastService struct {
	redisClient *redis.Client
	store       *SlotStore
	log         *logrus.Logger
	channel     string
	instanceID  string

	pubsub *redis.PubSub

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool
	stopped  atomic.Bool
}

func NewScheduleBroadcastService(redisClient *redis.Client, store *SlotStore, log *logrus.Logger, channel, instanceID string) *ScheduleBroadcastService {
	return &ScheduleBroadcastService{
		redisClient: redisClient,
		store:       store,
		log:         log,
		channel:     channel,
		instanceID:  instanceID,
		stopChan:    make(chan struct{}),
	}
}

// Start subscribes to the channel and relays foreign events until Stop is called.
func (s *ScheduleBroadcastService) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	pubsub := s.redisClient.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		s.started.Store(false)
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.pubsub = pubsub

	s.wg.Add(1)
	go s.listenLoop(pubsub.Channel())

	s.log.Infof("Schedule broadcast listening on %s as %s", s.channel, s.instanceID)
	return nil
}

// Stop closes the subscription and waits for the listener. Safe to call multiple times.
func (s *ScheduleBroadcastService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		if s.pubsub != nil {
			s.pubsub.Close()
		}
		s.wg.Wait()
		s.log.Info("ScheduleBroadcastService stopped")
	}
}

// PublishScheduleEvent implements ScheduleEventPublisher.
func (s *ScheduleBroadcastService) PublishScheduleEvent(ctx context.Context, event entity.ScheduleEvent) error {
	payload, err := s.encode(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, broadcastTimeout)
	defer cancel()

	if err := s.redisClient.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish schedule event: %w", err)
	}
	return nil
}

func (s *ScheduleBroadcastService) encode(event entity.ScheduleEvent) ([]byte, error) {
	event.Source = s.instanceID
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode schedule event: %w", err)
	}
	return payload, nil
}

func (s *ScheduleBroadcastService) listenLoop(messages <-chan *redis.Message) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Schedule broadcast listener stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			s.handleMessage(msg.Payload)
		}
	}
}

// handleMessage refreshes local subscribers for events published by other instances. It reports
// whether a refresh happened.
func (s *ScheduleBroadcastService) handleMessage(payload string) bool {
	var event entity.ScheduleEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		s.log.Warnf("Discarding malformed schedule event: %+v", err)
		return false
	}
	if event.Source == s.instanceID {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
	defer cancel()

	s.log.Debugf("Relaying %s from %s", event.Type, event.Source)
	s.store.Refresh(ctx)
	return true
}
