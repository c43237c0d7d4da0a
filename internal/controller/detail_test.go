package controller

import (
	"errors"
	"testing"
	"time"

	"pokedex/catalog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func awaitDetail(t *testing.T, ch <-chan DetailState, pred func(DetailState) bool) DetailState {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			require.True(t, ok, "detail stream closed")
			if pred(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for detail state")
			return DetailState{}
		}
	}
}

func pikachu() *domain.DetailRecord {
	return &domain.DetailRecord{
		ID:     25,
		Name:   "pikachu",
		Height: 4,
		Weight: 60,
		Types:  []domain.TypeEntry{{Slot: 1, Type: domain.NamedResource{Name: "electric"}}},
	}
}

func TestDetailController_LoadsOnConstruction(t *testing.T) {
	source := &mockSource{}
	source.On("FetchDetail", mock.Anything, "25").Return(pikachu(), nil).Once()

	c := NewDetailController(source, 25)
	defer c.Close()

	assert.True(t, c.State().IsLoading || c.State().Record != nil)

	ch, cancel := c.Subscribe()
	defer cancel()
	s := awaitDetail(t, ch, func(s DetailState) bool { return !s.IsLoading })

	require.NotNil(t, s.Record)
	assert.Equal(t, "pikachu", s.Record.Name)
	assert.Nil(t, s.Error)
	source.AssertExpectations(t)
}

func TestDetailController_Failure(t *testing.T) {
	source := &mockSource{}
	source.On("FetchDetail", mock.Anything, "25").Return(nil, errors.New("network error")).Once()

	c := NewDetailController(source, 25)
	defer c.Close()

	ch, cancel := c.Subscribe()
	defer cancel()
	s := awaitDetail(t, ch, func(s DetailState) bool { return !s.IsLoading })

	assert.Nil(t, s.Record)
	require.NotNil(t, s.Error)
	assert.Equal(t, "network error", *s.Error)
}

func TestDetailController_FailureFallbackMessage(t *testing.T) {
	source := &mockSource{}
	source.On("FetchDetail", mock.Anything, "7").Return(nil, errors.New("")).Once()

	c := NewDetailController(source, 7)
	defer c.Close()

	ch, cancel := c.Subscribe()
	defer cancel()
	s := awaitDetail(t, ch, func(s DetailState) bool { return s.Error != nil })

	assert.Equal(t, "Failed to load details", *s.Error)
}

func TestDetailController_RefetchKeepsRecordOnFailure(t *testing.T) {
	release := make(chan time.Time)
	source := &mockSource{}
	source.On("FetchDetail", mock.Anything, "25").Return(pikachu(), nil).Once()
	source.On("FetchDetail", mock.Anything, "25").WaitUntil(release).Return(nil, errors.New("offline")).Once()

	c := NewDetailController(source, 25)
	defer c.Close()

	ch, cancel := c.Subscribe()
	defer cancel()
	loaded := awaitDetail(t, ch, func(s DetailState) bool { return s.Record != nil && !s.IsLoading })

	c.Refetch()
	refetching := awaitDetail(t, ch, func(s DetailState) bool { return s.IsLoading })
	assert.Same(t, loaded.Record, refetching.Record)
	assert.Nil(t, refetching.Error)

	close(release)
	failed := awaitDetail(t, ch, func(s DetailState) bool { return !s.IsLoading })
	require.NotNil(t, failed.Error)
	assert.Equal(t, "offline", *failed.Error)
	assert.Same(t, loaded.Record, failed.Record)

	source.AssertNumberOfCalls(t, "FetchDetail", 2)
}

func TestDetailController_RefetchAfterFailure(t *testing.T) {
	source := &mockSource{}
	source.On("FetchDetail", mock.Anything, "25").Return(nil, errors.New("offline")).Once()
	source.On("FetchDetail", mock.Anything, "25").Return(pikachu(), nil).Once()

	c := NewDetailController(source, 25)
	defer c.Close()

	ch, cancel := c.Subscribe()
	defer cancel()
	awaitDetail(t, ch, func(s DetailState) bool { return s.Error != nil })

	c.Refetch()
	s := awaitDetail(t, ch, func(s DetailState) bool { return s.Record != nil && !s.IsLoading })
	assert.Nil(t, s.Error)
	assert.Equal(t, 25, s.Record.ID)
}

func TestDetailController_CloseEndsSubscriptions(t *testing.T) {
	source := &mockSource{}
	source.On("FetchDetail", mock.Anything, "1").Return(&domain.DetailRecord{ID: 1, Name: "bulbasaur"}, nil).Maybe()

	c := NewDetailController(source, 1)
	ch, _ := c.Subscribe()
	c.Close()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
