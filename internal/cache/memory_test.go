package cache

import (
	"context"
	"testing"
	"time"

	"pokedex/catalog/internal/domain"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPage(next *string, names ...string) *domain.ListPage {
	page := &domain.ListPage{Next: next}
	for i, name := range names {
		page.Results = append(page.Results, domain.ListItem{
			Name: name,
			URL:  "https://pokeapi.co/api/v2/pokemon/" + string(rune('1'+i)) + "/",
		})
	}
	return page
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	clk.Set(time.UnixMilli(1_000))

	store, err := NewMemoryStore(100, time.Hour, clk)
	require.NoError(t, err)

	entry, err := store.Get(ctx, "root")
	require.NoError(t, err)
	assert.Nil(t, entry, "miss is not an error")

	require.NoError(t, store.Put(ctx, "root", testPage(domain.Cursor("page-2"), "bulbasaur", "ivysaur")))

	entry, err = store.Get(ctx, "root")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "root", entry.RequestKey)
	assert.Equal(t, int64(1_000), entry.FetchedAt)
	assert.Equal(t, "page-2", *entry.Next)
	assert.Len(t, entry.Items, 2)

	clk.Add(time.Minute)
	require.NoError(t, store.Put(ctx, "root", testPage(nil, "venusaur")))

	entry, err = store.Get(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, int64(61_000), entry.FetchedAt)
	assert.Nil(t, entry.Next)
	assert.Equal(t, "venusaur", entry.Items[0].Name)

	require.NoError(t, store.Put(ctx, "page-2", testPage(nil, "charmander")))
	require.NoError(t, store.Clear(ctx))

	for _, key := range []string{"root", "page-2"} {
		entry, err = store.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, entry)
	}
}

func TestNewMemoryStore_Validation(t *testing.T) {
	_, err := NewMemoryStore(0, time.Hour, clock.New())
	assert.Error(t, err)

	_, err = NewMemoryStore(10, 0, clock.New())
	assert.Error(t, err)
}
