package validity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jensneuse/abstractlogger"
)

// ErrorWrapper replaces an unhandled resolver error before it propagates out
// of a wrapped resolver. It receives the original error and returns the
// replacement presented to the caller.
type ErrorWrapper func(err error) error

// newDefaultErrorWrapper logs the original error keyed by a freshly generated
// correlation id and returns a generic error embedding that id, so internals
// never reach the response while staying findable in the server logs.
func newDefaultErrorWrapper(log abstractlogger.Logger) ErrorWrapper {
	return func(err error) error {
		id := uuid.NewString()
		log.Error("unhandled resolver error",
			abstractlogger.String("correlationID", id),
			abstractlogger.Error(err),
		)
		return fmt.Errorf("unhandled error occurred, id: %s", id)
	}
}
