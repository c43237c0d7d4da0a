package controller

// Intent is a user or system action submitted to the list controller
type Intent interface {
	isIntent()
}

// LoadInitial loads the first page unless items are already present
type LoadInitial struct{}

// LoadMore appends the next page
type LoadMore struct{}

// RetryInitialLoad repeats the initial load from the current cursor, even when items are present
type RetryInitialLoad struct{}

// ClearError dismisses the current error
type ClearError struct{}

// UpdateSearchQuery changes the local filter, it never triggers a fetch
type UpdateSearchQuery struct {
	Query string
}

func (LoadInitial) isIntent()       {}
func (LoadMore) isIntent()          {}
func (RetryInitialLoad) isIntent()  {}
func (ClearError) isIntent()        {}
func (UpdateSearchQuery) isIntent() {}
