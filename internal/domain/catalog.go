package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const officialArtworkURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/other/official-artwork/%d.png"

// ListItem is a single catalog entry as returned by the listing endpoint
type ListItem struct {
	Name string `json:"name"`
	URL  string `json:"url"` // e.g. https://pokeapi.co/api/v2/pokemon/25/
}

// ListPage is one page of the remote catalog
type ListPage struct {
	Next    *string    `json:"next"`    // Fetch key of the next page, nil when exhausted
	Results []ListItem `json:"results"` // Items on this page
}

// ID extracts the numeric identifier from the trailing path segment of the item URL.
// It is recomputed on every call so it can never drift from URL.
func (i ListItem) ID() (int, bool) {
	path := strings.TrimSuffix(i.URL, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return 0, false
	}

	id, err := strconv.Atoi(path[idx+1:])
	if err != nil {
		return 0, false
	}
	return id, true
}

// ImageURL builds the official artwork location for the item
func (i ListItem) ImageURL() (string, bool) {
	id, ok := i.ID()
	if !ok {
		return "", false
	}
	return fmt.Sprintf(officialArtworkURL, id), true
}

// HasNext reports whether another page can be fetched after this one
func (p *ListPage) HasNext() bool {
	return p.Next != nil
}

// Cursor returns a pointer to a copy of key, for use as a ListPage.Next value
func Cursor(key string) *string {
	return &key
}
