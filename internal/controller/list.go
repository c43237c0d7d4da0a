package controller

import (
	"context"
	"slices"
	"sync"
	"time"

	"pokedex/catalog/internal/domain"
	"pokedex/catalog/internal/observable"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultDebounce delays filtering while the user is typing
	DefaultDebounce = 300 * time.Millisecond

	unknownListError = "An unknown error occurred"
)

// ListSource is what the list controller needs from the catalog repository
type ListSource interface {
	FetchListPage(ctx context.Context, requestKey string) (*domain.ListPage, error)
}

// ListState is a snapshot of the list screen. Snapshots are shared with subscribers and must
// not be modified.
type ListState struct {
	Items            []domain.ListItem
	IsLoadingInitial bool
	IsLoadingMore    bool
	Error            *string
	NextCursor       *string
	CanLoadMore      bool
	SearchQuery      string
}

// ListOptions configures a ListController
type ListOptions struct {
	RootKey  string
	Debounce time.Duration
	Clock    clock.Clock

	// SkipInitialLoad stops the controller from submitting LoadInitial on construction
	SkipInitialLoad bool
}

// ListController owns the paginated, searchable catalog list. Intents are processed one at a
// time in submission order by a single goroutine, so fetches never overlap.
type ListController struct {
	source  ListSource
	rootKey string
	logger  *log.Entry

	state   *observable.Store[ListState]
	filter  *filterView
	intents *observable.Mailbox[Intent]

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewListController(source ListSource, opts ListOptions) *ListController {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	initial := ListState{
		Items:       []domain.ListItem{},
		NextCursor:  domain.Cursor(opts.RootKey),
		CanLoadMore: true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &ListController{
		source:  source,
		rootKey: opts.RootKey,
		logger:  log.WithFields(log.Fields{"component": "list", "session": uuid.NewString()}),
		state:   observable.NewStore(initial),
		filter:  newFilterView(opts.Clock, opts.Debounce),
		intents: observable.NewMailbox[Intent](),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	c.filter.observe(initial)

	go c.run()

	if !opts.SkipInitialLoad {
		c.Submit(LoadInitial{})
	}

	return c
}

// Submit queues an intent. It is safe to call from any goroutine and never blocks.
func (c *ListController) Submit(intent Intent) {
	c.intents.Put(intent)
}

// State returns the current snapshot
func (c *ListController) State() ListState {
	return c.state.Value()
}

// Subscribe streams every state transition, starting with the current one
func (c *ListController) Subscribe() (<-chan ListState, func()) {
	return c.state.Subscribe()
}

// Filtered returns the current filtered list
func (c *ListController) Filtered() []domain.ListItem {
	return c.filter.out.Value()
}

// SubscribeFiltered streams the filtered list, starting with the current one
func (c *ListController) SubscribeFiltered() (<-chan []domain.ListItem, func()) {
	return c.filter.out.Subscribe()
}

// Close stops intent processing and ends all subscriptions
func (c *ListController) Close() {
	c.once.Do(func() {
		c.cancel()
		c.intents.Close()
		<-c.done
		c.filter.close()
		c.state.Close()
	})
}

func (c *ListController) run() {
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case intent, ok := <-c.intents.Out():
			if !ok {
				return
			}
			c.handle(intent)
		}
	}
}

func (c *ListController) handle(intent Intent) {
	switch i := intent.(type) {
	case LoadInitial:
		c.loadData(true, false)
	case LoadMore:
		c.loadData(false, false)
	case RetryInitialLoad:
		c.loadData(true, true)
	case ClearError:
		c.update(func(s ListState) ListState {
			s.Error = nil
			return s
		})
	case UpdateSearchQuery:
		c.update(func(s ListState) ListState {
			s.SearchQuery = i.Query
			return s
		})
	default:
		c.logger.Warnf("Ignoring unknown intent %T", intent)
	}
}

func (c *ListController) loadData(isInitial, isRetry bool) {
	current := c.state.Value()

	if current.IsLoadingInitial || current.IsLoadingMore {
		return
	}
	if !isInitial && !current.CanLoadMore {
		return
	}
	// Items already present, only an explicit retry reloads
	if isInitial && !isRetry && len(current.Items) > 0 {
		return
	}

	var key string
	if isInitial {
		key = c.rootKey
		if current.NextCursor != nil {
			key = *current.NextCursor
		}
	} else {
		if current.NextCursor == nil {
			return
		}
		key = *current.NextCursor
	}

	c.update(func(s ListState) ListState {
		s.IsLoadingInitial = isInitial
		s.IsLoadingMore = !isInitial
		s.Error = nil
		return s
	})

	logger := c.logger.WithField("key", key)
	logger.Debugf("🔄 Loading page (initial=%t, retry=%t)", isInitial, isRetry)

	page, err := c.source.FetchListPage(c.ctx, key)
	if err != nil {
		message := err.Error()
		if message == "" {
			message = unknownListError
		}
		logger.WithError(err).Warn("❌ Failed to load page")

		c.update(func(s ListState) ListState {
			s.Error = &message
			s.IsLoadingInitial = false
			s.IsLoadingMore = false
			return s
		})
		return
	}

	c.update(func(s ListState) ListState {
		if isInitial {
			s.Items = slices.Clone(page.Results)
			if s.Items == nil {
				s.Items = []domain.ListItem{}
			}
		} else {
			s.Items = append(slices.Clip(s.Items), page.Results...)
		}
		s.NextCursor = page.Next
		s.CanLoadMore = page.HasNext()
		s.IsLoadingInitial = false
		s.IsLoadingMore = false
		return s
	})
	logger.Debugf("✅ Loaded %d items, %d total", len(page.Results), len(c.state.Value().Items))
}

// update is only called from the intent goroutine. The filter sees a snapshot before any
// subscriber does.
func (c *ListController) update(fn func(ListState) ListState) {
	next := fn(c.state.Value())
	c.filter.observe(next)
	c.state.Set(next)
}
