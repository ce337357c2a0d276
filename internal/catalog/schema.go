package catalog

// bootstrapSQL creates every table the catalog needs if it does not
// already exist, mirroring store-sqlite's Open(bootstrapSQL,
// statements...) convention of running schema DDL once up front
// rather than through a migrations framework.
const bootstrapSQL = `
CREATE TABLE IF NOT EXISTS archive (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	directory   TEXT NOT NULL UNIQUE,
	compression INTEGER NOT NULL DEFAULT 0,
	pghost      TEXT NOT NULL DEFAULT '',
	pgport      INTEGER NOT NULL DEFAULT 0,
	pguser      TEXT NOT NULL DEFAULT '',
	pgdatabase  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS connection (
	archive_id  INTEGER NOT NULL REFERENCES archive(id) ON DELETE CASCADE,
	type        TEXT NOT NULL,
	pghost      TEXT NOT NULL DEFAULT '',
	pgport      INTEGER NOT NULL DEFAULT 0,
	pguser      TEXT NOT NULL DEFAULT '',
	pgdatabase  TEXT NOT NULL DEFAULT '',
	dsn         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (archive_id, type)
);

CREATE TABLE IF NOT EXISTS backup_profile (
	name                TEXT PRIMARY KEY,
	compress_type       TEXT NOT NULL DEFAULT 'none',
	max_rate            TEXT NOT NULL DEFAULT '',
	label               TEXT NOT NULL DEFAULT '',
	fast_checkpoint     INTEGER NOT NULL DEFAULT 0,
	include_wal         INTEGER NOT NULL DEFAULT 0,
	wait_for_wal        INTEGER NOT NULL DEFAULT 0,
	noverify_checksums  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS basebackup (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	archive_id        INTEGER NOT NULL REFERENCES archive(id) ON DELETE CASCADE,
	history_filename  TEXT NOT NULL DEFAULT '',
	label             TEXT NOT NULL DEFAULT '',
	started           TEXT NOT NULL DEFAULT '',
	stopped           TEXT NOT NULL DEFAULT '',
	pinned            INTEGER NOT NULL DEFAULT 0,
	xlogpos           TEXT NOT NULL DEFAULT '',
	xlogposend        TEXT NOT NULL DEFAULT '',
	timeline          INTEGER NOT NULL DEFAULT 0,
	fsentry           TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'in progress',
	systemid          TEXT NOT NULL DEFAULT '',
	wal_segment_size  INTEGER NOT NULL DEFAULT 0,
	used_profile      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tablespace (
	backup_id    INTEGER NOT NULL REFERENCES basebackup(id) ON DELETE CASCADE,
	spcoid       INTEGER NOT NULL,
	spclocation  TEXT NOT NULL DEFAULT '',
	spcsize      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (backup_id, spcoid)
);

CREATE TABLE IF NOT EXISTS retention_policy (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS retention_rule (
	policy_name  TEXT NOT NULL REFERENCES retention_policy(name) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	type         TEXT NOT NULL,
	value        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (policy_name, position)
);

-- archive_id is deliberately not a foreign key: a launcher serves the
-- whole process group and registers with the -1 sentinel archive id.
CREATE TABLE IF NOT EXISTS worker_process (
	pid         INTEGER PRIMARY KEY,
	archive_id  INTEGER NOT NULL DEFAULT -1,
	type        TEXT NOT NULL,
	state       TEXT NOT NULL,
	started     TEXT NOT NULL DEFAULT '',
	shm_key     INTEGER NOT NULL DEFAULT 0,
	shm_id      INTEGER NOT NULL DEFAULT 0
);
`
