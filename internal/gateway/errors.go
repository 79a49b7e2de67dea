package gateway

import "fmt"

// echoLimit caps how much of a query is repeated back in error messages.
const echoLimit = 100

// Echo returns query truncated to its first 100 characters, with "..."
// appended when anything was cut.
func Echo(query string) string {
	n := 0
	for i := range query {
		if n == echoLimit {
			return query[:i] + "..."
		}
		n++
	}
	return query
}

// ValidationError reports that a query was refused before execution.
type ValidationError struct {
	Reason string
	Query  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s. Attempted query: %s", e.Reason, Echo(e.Query))
}

// RemoteExecutionError wraps a failure reported by the Executor. Query is
// the normalized SQL that was sent.
type RemoteExecutionError struct {
	Query string
	Err   error
}

func (e *RemoteExecutionError) Error() string {
	return fmt.Sprintf("query error: %v. Query: %s", e.Err, Echo(e.Query))
}

func (e *RemoteExecutionError) Unwrap() error {
	return e.Err
}
