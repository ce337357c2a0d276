package basebackup

// state names the nodes of the Base-backup Pipeline's state machine,
// spec.md §4.E. Neither Run nor its logging nor the tests refer to
// these names; the sequence is imposed by the order of Run's method
// calls alone.
type state string

const (
	stateIdle                 state = "idle"
	stateIdentified           state = "identified"
	stateTablespacesRequested state = "tablespaces_requested"
	stateRegistering          state = "registering"
	stateStreamingTablespace  state = "streaming_tablespace"
	stateEnding               state = "ending"
	stateReady                state = "ready"
	stateAborted              state = "aborted"
)
