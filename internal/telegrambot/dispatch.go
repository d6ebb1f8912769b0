package telegrambot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Per-user queue capacity. A full queue drops the update instead of
// blocking the shared poll loop.
const userQueueSize = 16

// dispatcher fans updates out to one worker per user. A user's messages are
// handled in arrival order, the next not before the previous one finished;
// different users run concurrently.
type dispatcher struct {
	mu      sync.Mutex
	queues  map[int64]chan *tgbotapi.Message
	handler func(*tgbotapi.Message)
	logger  *zerolog.Logger
}

func newDispatcher(handler func(*tgbotapi.Message), logger *zerolog.Logger) *dispatcher {
	return &dispatcher{
		queues:  make(map[int64]chan *tgbotapi.Message),
		handler: handler,
		logger:  logger,
	}
}

// dispatch enqueues a message for its sender, starting the user's worker on
// first contact. When the user's queue is full the update is dropped.
func (d *dispatcher) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	d.mu.Lock()

	queue, ok := d.queues[userID]
	if !ok {
		queue = make(chan *tgbotapi.Message, userQueueSize)
		d.queues[userID] = queue

		go d.drain(ctx, queue)
	}

	d.mu.Unlock()

	select {
	case queue <- msg:
	default:
		d.logger.Warn().Int64(logKeyUserID, userID).Msg("user queue full, dropping update")
	}
}

func (d *dispatcher) drain(ctx context.Context, queue chan *tgbotapi.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-queue:
			d.handler(msg)
		}
	}
}
