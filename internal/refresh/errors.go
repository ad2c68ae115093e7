package refresh

import "fmt"

// NoDataError means a refresh produced nothing to serve: no symbol was
// fetched and none had a prior record.
type NoDataError struct {
	Symbols int
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no quote data available for %d requested symbols", e.Symbols)
}
