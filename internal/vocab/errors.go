package vocab

import "fmt"

// ValidationError reports an invocation that cannot belong to this store:
// either it is empty, or its leading token does not name the store's root
// command. It is fatal to the training session.
type ValidationError struct {
	// Root is the command the store is bound to.
	Root string

	// Invocation is the full offending invocation, as given.
	Invocation []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Invocation) == 0 {
		return fmt.Sprintf("empty invocation for command %q", e.Root)
	}
	return fmt.Sprintf("invocation %v does not match command %q", e.Invocation, e.Root)
}
