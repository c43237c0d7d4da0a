package controller

import (
	"context"
	"strconv"
	"sync"

	"pokedex/catalog/internal/domain"
	"pokedex/catalog/internal/observable"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const unknownDetailError = "Failed to load details"

// DetailSource is what the detail controller needs from the catalog repository
type DetailSource interface {
	FetchDetail(ctx context.Context, id string) (*domain.DetailRecord, error)
}

// DetailState is a snapshot of the detail screen
type DetailState struct {
	IsLoading bool
	Record    *domain.DetailRecord
	Error     *string
}

// DetailController loads and holds the record of a single entity. A failed refetch keeps the
// previously loaded record.
type DetailController struct {
	source DetailSource
	id     int
	logger *log.Entry

	state    *observable.Store[DetailState]
	requests *observable.Mailbox[struct{}]

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewDetailController starts fetching id immediately
func NewDetailController(source DetailSource, id int) *DetailController {
	ctx, cancel := context.WithCancel(context.Background())
	c := &DetailController{
		source: source,
		id:     id,
		logger: log.WithFields(log.Fields{
			"component": "detail",
			"session":   uuid.NewString(),
			"id":        id,
		}),
		state:    observable.NewStore(DetailState{IsLoading: true}),
		requests: observable.NewMailbox[struct{}](),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.run()
	c.Refetch()

	return c
}

// Refetch queues another load of the same entity
func (c *DetailController) Refetch() {
	c.requests.Put(struct{}{})
}

func (c *DetailController) State() DetailState {
	return c.state.Value()
}

// Subscribe streams every state transition, starting with the current one
func (c *DetailController) Subscribe() (<-chan DetailState, func()) {
	return c.state.Subscribe()
}

func (c *DetailController) Close() {
	c.once.Do(func() {
		c.cancel()
		c.requests.Close()
		<-c.done
		c.state.Close()
	})
}

func (c *DetailController) run() {
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case _, ok := <-c.requests.Out():
			if !ok {
				return
			}
			c.fetch()
		}
	}
}

func (c *DetailController) fetch() {
	c.state.Update(func(s DetailState) DetailState {
		s.IsLoading = true
		s.Error = nil
		return s
	})

	record, err := c.source.FetchDetail(c.ctx, strconv.Itoa(c.id))
	if err != nil {
		message := err.Error()
		if message == "" {
			message = unknownDetailError
		}
		c.logger.WithError(err).Warn("❌ Failed to load details")

		c.state.Update(func(s DetailState) DetailState {
			s.IsLoading = false
			s.Error = &message
			return s
		})
		return
	}

	c.logger.Debugf("✅ Loaded details for %s", record.Name)
	c.state.Update(func(s DetailState) DetailState {
		s.IsLoading = false
		s.Record = record
		s.Error = nil
		return s
	})
}
