package sb

import "fmt"

// PageError reports a failed paginated fetch with enough context to resume:
// the endpoint and the page that failed. No partial progress is recorded for
// that page by any caller.
type PageError struct {
	Endpoint string
	Page     int
	Status   int
	Err      error
}

func (e *PageError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s page %d: status %d", e.Endpoint, e.Page, e.Status)
	}
	return fmt.Sprintf("%s page %d: %v", e.Endpoint, e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// pageErr wraps transport and status failures uniformly.
func pageErr(endpoint string, page, status int, err error) *PageError {
	return &PageError{Endpoint: endpoint, Page: page, Status: status, Err: err}
}
