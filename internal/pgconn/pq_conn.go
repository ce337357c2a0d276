package pgconn

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// PQConn is the github.com/lib/pq-backed Conn. A replication-mode
// connection answers COPY BOTH responses (as BASE_BACKUP and
// START_REPLICATION both produce) by handing database/sql rows back
// one CopyData message per row, so no driver extension beyond lib/pq
// itself is required to drive the exchange.
type PQConn struct {
	db   *sql.DB
	conn *sql.Conn

	tablespaces []TablespaceInfo
	nextIndex   int
	rows        *sql.Rows
}

// NewPQConn opens a lib/pq replication connection to the host named by
// the connection descriptor. The returned Conn is not yet connected;
// call Connect before driving it further.
func NewPQConn(connDescr *descriptor.Connection) (*PQConn, error) {
	var dsn = connDescr.DSN
	if dsn == "" {
		dsn = buildDSN(connDescr)
	}
	if !strings.Contains(dsn, "replication=") {
		dsn += " replication=database"
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.WithMessage(err, "opening replication connection")
	}
	db.SetMaxOpenConns(1)
	return &PQConn{db: db}, nil
}

func buildDSN(c *descriptor.Connection) string {
	var parts []string
	if c.PgHost != "" {
		parts = append(parts, "host="+c.PgHost)
	}
	if c.PgPort != 0 {
		parts = append(parts, "port="+strconv.Itoa(c.PgPort))
	}
	if c.PgUser != "" {
		parts = append(parts, "user="+c.PgUser)
	}
	if c.PgDatabase != "" {
		parts = append(parts, "dbname="+c.PgDatabase)
	}
	return strings.Join(parts, " ")
}

// Connect acquires the underlying pooled connection and issues
// IDENTIFY_SYSTEM.
func (c *PQConn) Connect(ctx context.Context) (StreamIdentification, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return StreamIdentification{}, errors.WithMessage(err, "acquiring replication connection")
	}
	c.conn = conn

	// dbname is only present in the response when the connection named
	// a specific database; NullString absorbs its absence.
	var id StreamIdentification
	var dbname sql.NullString
	row := conn.QueryRowContext(ctx, "IDENTIFY_SYSTEM")
	if err := row.Scan(&id.SystemID, &id.Timeline, &id.XLogPos, &dbname); err != nil {
		return StreamIdentification{}, pgerror.Protocol("identify_system", err.Error())
	}
	id.DBName = dbname.String

	// IDENTIFY_SYSTEM does not carry the segment size; SHOW is a valid
	// replication-protocol command and fills it in.
	var segSize string
	if err := conn.QueryRowContext(ctx, "SHOW wal_segment_size").Scan(&segSize); err == nil {
		id.WalSegmentSize = parseSegmentSize(segSize)
	}
	return id, nil
}

// parseSegmentSize decodes SHOW wal_segment_size's human form ("16MB")
// into bytes. An unrecognized form yields zero, which callers treat as
// "use the default".
func parseSegmentSize(s string) uint64 {
	var multiplier uint64 = 1
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier, s = 1<<30, strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier, s = 1<<20, strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "kB"):
		multiplier, s = 1<<10, strings.TrimSuffix(s, "kB")
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n * multiplier
}

// BaseBackup issues BASE_BACKUP with the profile's requested options.
func (c *PQConn) BaseBackup(ctx context.Context, profile *descriptor.BackupProfile) error {
	if c.conn == nil {
		return pgerror.Protocol("base_backup", "not connected")
	}
	var cmd bytes.Buffer
	cmd.WriteString("BASE_BACKUP")
	if profile.Label != "" {
		fmt.Fprintf(&cmd, " LABEL %s", pq.QuoteLiteral(profile.Label))
	}
	if profile.FastCheckpoint {
		cmd.WriteString(" FAST")
	}
	if profile.IncludeWAL {
		cmd.WriteString(" WAL")
	}
	if !profile.WaitForWAL {
		cmd.WriteString(" NOWAIT")
	}
	if profile.MaxRate != "" {
		if rate, err := strconv.Atoi(profile.MaxRate); err == nil && rate > 0 {
			fmt.Fprintf(&cmd, " MAX_RATE %d", rate)
		}
	}
	if profile.NoverifyChecksums {
		cmd.WriteString(" NOVERIFY_CHECKSUMS")
	}
	cmd.WriteString(" TABLESPACE_MAP")

	rows, err := c.conn.QueryContext(ctx, cmd.String())
	if err != nil {
		return pgerror.Protocol("base_backup", err.Error())
	}
	c.rows = rows
	return nil
}

// ReadTablespaceInfo drains BASE_BACKUP's first result set, one row
// per tablespace. The rows handle stays open: StepTablespace and End
// continue reading later result sets off the same statement.
func (c *PQConn) ReadTablespaceInfo(ctx context.Context) ([]TablespaceInfo, error) {
	if c.rows == nil {
		return nil, pgerror.Protocol("base_backup", "base backup was not started")
	}

	var infos []TablespaceInfo
	for c.rows.Next() {
		var spcoid sql.NullInt64
		var spclocation sql.NullString
		var spcsize sql.NullInt64
		if err := c.rows.Scan(&spcoid, &spclocation, &spcsize); err != nil {
			return nil, pgerror.Protocol("base_backup", err.Error())
		}
		infos = append(infos, TablespaceInfo{
			Spcoid:      uint32(spcoid.Int64),
			Spclocation: spclocation.String,
			Spcsize:     spcsize.Int64,
		})
	}
	if err := c.rows.Err(); err != nil {
		return nil, pgerror.Protocol("base_backup", err.Error())
	}
	c.tablespaces = infos
	c.nextIndex = 0
	if !c.rows.NextResultSet() {
		return nil, pgerror.Protocol("base_backup", "server did not send a tablespace data result set")
	}
	return infos, nil
}

// StepTablespace advances to the next tablespace's CopyData stream.
func (c *PQConn) StepTablespace(ctx context.Context) (*TablespaceStream, error) {
	if c.nextIndex >= len(c.tablespaces) {
		return nil, nil
	}
	var info = c.tablespaces[c.nextIndex]
	c.nextIndex++

	var reader = &copyDataReader{rows: c.rows}
	if c.nextIndex < len(c.tablespaces) {
		reader.advance = func() error {
			if !c.rows.NextResultSet() {
				return errors.New("server ended tablespace stream early")
			}
			return nil
		}
	}
	return &TablespaceStream{Info: info, Data: reader}, nil
}

// End finishes the base backup and reads the ending WAL position off
// the server's final result set.
func (c *PQConn) End(ctx context.Context) (string, error) {
	if c.rows == nil {
		return "", pgerror.Protocol("base_backup", "base backup was not started")
	}
	if !c.rows.NextResultSet() {
		return "", c.rows.Close()
	}
	var xlogPosEnd string
	for c.rows.Next() {
		if err := c.rows.Scan(&xlogPosEnd); err != nil {
			_ = c.rows.Close()
			return "", pgerror.Protocol("base_backup", err.Error())
		}
	}
	return xlogPosEnd, c.rows.Close()
}

// Disconnect releases the pooled connection and closes the database
// handle. It is safe to call more than once.
func (c *PQConn) Disconnect(ctx context.Context) error {
	if c.rows != nil {
		_ = c.rows.Close()
		c.rows = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	return c.db.Close()
}

var _ Conn = (*PQConn)(nil)

// copyDataReader adapts a CopyData result set's row-at-a-time byte
// chunks to io.Reader, advancing to the next tablespace's result set
// (via advance, when set) once the current one is exhausted.
type copyDataReader struct {
	rows     *sql.Rows
	advance  func() error
	leftover []byte
}

func (r *copyDataReader) Read(p []byte) (int, error) {
	for len(r.leftover) == 0 {
		if !r.rows.Next() {
			if err := r.rows.Err(); err != nil {
				return 0, err
			}
			if r.advance == nil {
				return 0, io.EOF
			}
			if err := r.advance(); err != nil {
				return 0, err
			}
			r.advance = nil
			return 0, io.EOF
		}
		var chunk []byte
		if err := r.rows.Scan(&chunk); err != nil {
			return 0, err
		}
		r.leftover = chunk
	}
	var n = copy(p, r.leftover)
	r.leftover = r.leftover[n:]
	return n, nil
}
