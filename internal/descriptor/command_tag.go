package descriptor

// CommandTag identifies the command a descriptor was built for. A
// descriptor's tag never changes identity across its lifetime;
// wrapping a command for background execution preserves the original
// tag in a separate SubTag field rather than mutating Tag.
type CommandTag int

const (
	TagUndefined CommandTag = iota
	TagCreateArchive
	TagDropArchive
	TagListArchive
	TagAlterArchive
	TagVerifyArchive
	TagCreateBackupProfile
	TagDropBackupProfile
	TagListBackupProfile
	TagCreateConnection
	TagDropConnection
	TagListConnection
	TagStartBasebackup
	TagStartStreaming
	TagStopStreaming
	TagPinBasebackup
	TagUnpinBasebackup
	TagDropBasebackup
	TagListBackupCatalog
	TagCreateRetentionPolicy
	TagDropRetentionPolicy
	TagListRetentionPolicy
	TagApplyRetentionPolicy
	TagShowVariable
	TagSetVariable
	TagResetVariable
	TagShowVariables
	TagStartLauncher
	TagShowWorkers
	TagExecCommand
	TagBackgroundWorkerCommand
)

// String renders the CommandTag's CLI-facing name.
func (t CommandTag) String() string {
	switch t {
	case TagCreateArchive:
		return "create archive"
	case TagDropArchive:
		return "drop archive"
	case TagListArchive:
		return "list archive"
	case TagAlterArchive:
		return "alter archive"
	case TagVerifyArchive:
		return "verify archive"
	case TagCreateBackupProfile:
		return "create backup profile"
	case TagDropBackupProfile:
		return "drop backup profile"
	case TagListBackupProfile:
		return "list backup profile"
	case TagCreateConnection:
		return "create connection"
	case TagDropConnection:
		return "drop connection"
	case TagListConnection:
		return "list connection"
	case TagStartBasebackup:
		return "start basebackup"
	case TagStartStreaming:
		return "start streaming"
	case TagStopStreaming:
		return "stop streaming"
	case TagPinBasebackup:
		return "pin basebackup"
	case TagUnpinBasebackup:
		return "unpin basebackup"
	case TagDropBasebackup:
		return "drop basebackup"
	case TagListBackupCatalog:
		return "list backup catalog"
	case TagCreateRetentionPolicy:
		return "create retention policy"
	case TagDropRetentionPolicy:
		return "drop retention policy"
	case TagListRetentionPolicy:
		return "list retention policy"
	case TagApplyRetentionPolicy:
		return "apply retention policy"
	case TagShowVariable:
		return "show variable"
	case TagSetVariable:
		return "set variable"
	case TagResetVariable:
		return "reset variable"
	case TagShowVariables:
		return "show variables"
	case TagStartLauncher:
		return "start launcher"
	case TagShowWorkers:
		return "show workers"
	case TagExecCommand:
		return "exec"
	case TagBackgroundWorkerCommand:
		return "background worker"
	default:
		return "undefined"
	}
}
