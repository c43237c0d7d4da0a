package container

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pokedex/catalog/internal/controller"
	"pokedex/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Run modes
const (
	ModeBrowse = "browse"
	ModeDetail = "detail"
	ModeWarm   = "warm"
	ModeClear  = "clear"
)

// RunOptions selects what a single CLI invocation does
type RunOptions struct {
	Mode  string
	Pages int    // browse: pages to load
	Query string // browse: search query applied after loading
	ID    int    // detail: entity to show
}

// SetOutput redirects what Run prints
func (c *Container) SetOutput(w io.Writer) {
	c.out = w
}

func (c *Container) Run(ctx context.Context, opts RunOptions) error {
	switch opts.Mode {
	case ModeBrowse, "":
		return c.browse(ctx, opts)
	case ModeDetail:
		return c.detail(ctx, opts.ID)
	case ModeWarm:
		result, err := c.Warmer.Warm(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "warmed %d pages, %d items, exhausted=%t\n", result.Pages, result.Items, result.Exhausted)
		return nil
	case ModeClear:
		return c.Repository.ClearCache(ctx)
	default:
		return fmt.Errorf("unknown mode %q", opts.Mode)
	}
}

// browse drives a list session: one goroutine submits intents and waits for each load, the
// other logs every state transition.
func (c *Container) browse(ctx context.Context, opts RunOptions) error {
	pages := max(opts.Pages, 1)

	list := controller.NewListController(c.Repository, controller.ListOptions{
		RootKey:         c.Config.API.RootKey(),
		Debounce:        c.Config.List.Debounce,
		Clock:           c.Clock,
		SkipInitialLoad: true,
	})
	defer list.Close()

	transitions, stopTransitions := list.Subscribe()
	states, stopStates := list.Subscribe()
	defer stopStates()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for s := range transitions {
			logState(s)
		}
		return nil
	})

	g.Go(func() error {
		defer stopTransitions()

		list.Submit(controller.LoadInitial{})
		s, err := awaitLoad(gctx, states)
		if err != nil {
			return err
		}

		for loaded := 1; loaded < pages && s.Error == nil && s.CanLoadMore; loaded++ {
			list.Submit(controller.LoadMore{})
			if s, err = awaitLoad(gctx, states); err != nil {
				return err
			}
		}
		if s.Error != nil {
			return fmt.Errorf("failed to load catalog: %s", *s.Error)
		}

		items := s.Items
		if opts.Query != "" {
			if items, err = c.search(gctx, list, opts.Query); err != nil {
				return err
			}
		}

		for _, item := range items {
			id, _ := item.ID()
			fmt.Fprintf(c.out, "%5d  %s\n", id, item.Name)
		}
		fmt.Fprintf(c.out, "%d of %d loaded, more available: %t\n", len(items), len(s.Items), s.CanLoadMore)
		return nil
	})

	return g.Wait()
}

// search applies query and waits for the debounced filtered list
func (c *Container) search(ctx context.Context, list *controller.ListController, query string) ([]domain.ListItem, error) {
	filtered, stop := list.SubscribeFiltered()
	defer stop()

	// Drop the replayed current value
	select {
	case <-filtered:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	list.Submit(controller.UpdateSearchQuery{Query: query})

	select {
	case items, ok := <-filtered:
		if !ok {
			return nil, errors.New("list controller closed")
		}
		return items, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Container) detail(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("detail mode needs a positive id, got %d", id)
	}

	dc := controller.NewDetailController(c.Repository, id)
	defer dc.Close()

	states, stop := dc.Subscribe()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-states:
			if !ok {
				return errors.New("detail controller closed")
			}
			if s.IsLoading {
				continue
			}
			if s.Error != nil {
				return fmt.Errorf("failed to load details for %d: %s", id, *s.Error)
			}
			printDetail(c.out, s.Record)
			return nil
		}
	}
}

// awaitLoad waits until a load started after the call has finished
func awaitLoad(ctx context.Context, states <-chan controller.ListState) (controller.ListState, error) {
	started := false
	for {
		select {
		case <-ctx.Done():
			return controller.ListState{}, ctx.Err()
		case s, ok := <-states:
			if !ok {
				return controller.ListState{}, errors.New("list controller closed")
			}
			loading := s.IsLoadingInitial || s.IsLoadingMore
			if loading {
				started = true
				continue
			}
			if started {
				return s, nil
			}
		}
	}
}

func logState(s controller.ListState) {
	entry := log.WithFields(log.Fields{
		"items":           len(s.Items),
		"loading_initial": s.IsLoadingInitial,
		"loading_more":    s.IsLoadingMore,
		"can_load_more":   s.CanLoadMore,
		"query":           s.SearchQuery,
	})
	if s.Error != nil {
		entry.WithField("error", *s.Error).Warn("List state")
		return
	}
	entry.Debug("List state")
}

func printDetail(w io.Writer, r *domain.DetailRecord) {
	fmt.Fprintf(w, "#%d %s\n", r.ID, r.Name)
	fmt.Fprintf(w, "height: %.1f m, weight: %.1f kg\n", float64(r.Height)/10, float64(r.Weight)/10)

	for _, t := range r.Types {
		fmt.Fprintf(w, "type: %s\n", t.Type.Name)
	}
	for _, s := range r.Stats {
		fmt.Fprintf(w, "%-16s %3d\n", s.Stat.Name, s.BaseStat)
	}
	for _, a := range r.Abilities {
		hidden := ""
		if a.IsHidden {
			hidden = " (hidden)"
		}
		fmt.Fprintf(w, "ability: %s%s\n", a.Ability.Name, hidden)
	}
	fmt.Fprintf(w, "moves: %d\n", len(r.Moves))
}
