package repo

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

const duplicateKeyCode = 11000

// PersistenceError reports documents that individually failed to write while
// the rest of the batch succeeded.
type PersistenceError struct {
	Op            string
	FailedSymbols []string
	Err           error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %d failed [%s]: %v", e.Op, len(e.FailedSymbols), strings.Join(e.FailedSymbols, ","), e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsDuplicateKeyError reports whether err is a bulk write failure made only
// of duplicate key violations.
func IsDuplicateKeyError(err error) bool {
	var e mongo.BulkWriteException
	if !errors.As(err, &e) || e.WriteConcernError != nil || len(e.WriteErrors) == 0 {
		return false
	}
	for _, we := range e.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}

func writeErrors(err error) (mongo.BulkWriteException, bool) {
	var e mongo.BulkWriteException
	if errors.As(err, &e) && e.WriteConcernError == nil && len(e.WriteErrors) > 0 {
		return e, true
	}
	return e, false
}
