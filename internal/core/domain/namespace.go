package domain

// IsolationMode controls whether a namespace is cleared before each new
// document (isolated) or retained across documents (cumulative).
type IsolationMode string

const (
	// IsolationIsolated clears the namespace before indexing begins, so a
	// session only ever retrieves chunks from its own document.
	IsolationIsolated IsolationMode = "isolated"

	// IsolationCumulative never clears the namespace; chunks from prior
	// documents remain queryable.
	IsolationCumulative IsolationMode = "cumulative"
)

// Valid reports whether the mode is a recognised isolation mode.
func (m IsolationMode) Valid() bool {
	return m == IsolationIsolated || m == IsolationCumulative
}

// Namespace is a handle to a retrieval scope bound to one processing
// session. All chunks indexed for the session carry its ID.
type Namespace struct {
	// ID scopes chunks in the vector store.
	ID string

	// Session identifies the acquiring pipeline run for logging. Isolated
	// sessions share one namespace ID, so ID alone does not name the run.
	Session string

	// Mode is the isolation mode the namespace was acquired with.
	Mode IsolationMode
}
