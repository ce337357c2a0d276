package descriptor

// Command is the typed descriptor the CLI surface builds and the
// command executor dispatches on, per spec.md §4.F. Tag identifies the
// command a descriptor was built for and never changes identity;
// wrapping a command for background-worker execution preserves the
// original tag in SubTag rather than mutating Tag (see
// AsBackgroundWorker).
//
// Nested descriptors (Archive, Connection, Profile, Retention, Pin)
// are shared, not deep-copied, by Copy: only Command's own scalar
// fields are duplicated. A caller needing an independent nested
// snapshot copies it explicitly through the nested type's own Copy.
type Command struct {
	Tag    CommandTag
	SubTag CommandTag

	ExistsOk bool
	Detach   bool

	Archive    *Archive
	Connection *Connection
	Profile    *BackupProfile
	Retention  *RetentionPolicy
	Pin        *Pin

	ArchiveName   string
	ProfileName   string
	BackupID      int
	PolicyName    string
	Label         string
	VariableName  string
	VariableValue string
	ExecArgv      []string
}

// Copy duplicates Command's own scalar fields; nested descriptor
// pointers are shared with the original.
func (c *Command) Copy() *Command {
	var out = *c
	out.ExecArgv = append([]string(nil), c.ExecArgv...)
	return &out
}

// AsBackgroundWorker wraps c for background-worker execution: the
// returned Command carries TagBackgroundWorkerCommand with c's
// original Tag preserved in SubTag, per spec.md §4.F's worker-process
// wrapper.
func (c *Command) AsBackgroundWorker(detach bool) *Command {
	var out = c.Copy()
	out.SubTag = c.Tag
	out.Tag = TagBackgroundWorkerCommand
	out.Detach = detach
	return out
}
