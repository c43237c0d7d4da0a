package domain

// CacheEntry is a cached listing page keyed by the request that produced it
type CacheEntry struct {
	RequestKey string     `json:"request_key"`
	Next       *string    `json:"next"`
	FetchedAt  int64      `json:"fetched_at"` // Epoch milliseconds
	Items      []ListItem `json:"items"`
}

// NewCacheEntry snapshots page as an entry fetched at fetchedAt (epoch millis)
func NewCacheEntry(requestKey string, page *ListPage, fetchedAt int64) *CacheEntry {
	items := make([]ListItem, len(page.Results))
	copy(items, page.Results)

	return &CacheEntry{
		RequestKey: requestKey,
		Next:       page.Next,
		FetchedAt:  fetchedAt,
		Items:      items,
	}
}

// Page converts the entry back into the listing response shape
func (e *CacheEntry) Page() *ListPage {
	results := make([]ListItem, len(e.Items))
	copy(results, e.Items)

	return &ListPage{
		Next:    e.Next,
		Results: results,
	}
}
