package catalog

import (
	"database/sql"

	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// CreateConnection inserts a connection row for an archive. The
// (archive_id, type) pair must be unique per spec.md §3.
func (c *Catalog) CreateConnection(conn *descriptor.Connection, existsOk bool) error {
	if err := c.requireAvailable("create_connection"); err != nil {
		return err
	}
	if err := conn.Validate(); err != nil {
		return err
	}

	exists, err := c.connectionExists(conn.ArchiveID, conn.Type)
	if err != nil {
		return err
	}
	if exists {
		if existsOk {
			return nil
		}
		return pgerror.AlreadyExists("connection", conn.Type)
	}

	_, err = c.q().Exec(
		`INSERT INTO connection(archive_id, type, pghost, pgport, pguser, pgdatabase, dsn)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conn.ArchiveID, conn.Type, conn.PgHost, conn.PgPort, conn.PgUser, conn.PgDatabase, conn.DSN,
	)
	return errors.WithMessage(err, "inserting connection")
}

// DropConnection removes the connection of the given type for an archive.
func (c *Catalog) DropConnection(archiveID int, connType string, existsOk bool) error {
	if err := c.requireAvailable("drop_connection"); err != nil {
		return err
	}
	res, err := c.q().Exec(`DELETE FROM connection WHERE archive_id = ? AND type = ?`, archiveID, connType)
	if err != nil {
		return errors.WithMessage(err, "deleting connection")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 && !existsOk {
		return pgerror.NotFound("connection", connType)
	}
	return nil
}

func (c *Catalog) connectionExists(archiveID int, connType string) (bool, error) {
	var dummy int
	err := c.q().QueryRow(`SELECT 1 FROM connection WHERE archive_id = ? AND type = ?`, archiveID, connType).Scan(&dummy)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.WithMessage(err, "checking connection existence")
	}
	return true, nil
}

// GetConnection returns the connection of the given type for an
// archive, or a descriptor with ArchiveID set to NotFoundID if absent.
func (c *Catalog) GetConnection(archiveID int, connType string) (*descriptor.Connection, error) {
	if err := c.requireAvailable("get_connection"); err != nil {
		return nil, err
	}
	var conn = descriptor.NewConnection(connType)
	err := c.q().QueryRow(
		`SELECT archive_id, pghost, pgport, pguser, pgdatabase, dsn
		 FROM connection WHERE archive_id = ? AND type = ?`, archiveID, connType,
	).Scan(&conn.ArchiveID, &conn.PgHost, &conn.PgPort, &conn.PgUser, &conn.PgDatabase, &conn.DSN)
	if err == sql.ErrNoRows {
		return conn, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "querying connection")
	}
	return conn, nil
}

// ListConnections returns every connection belonging to an archive.
func (c *Catalog) ListConnections(archiveID int) ([]*descriptor.Connection, error) {
	if err := c.requireAvailable("list_connections"); err != nil {
		return nil, err
	}
	rows, err := c.q().Query(
		`SELECT archive_id, type, pghost, pgport, pguser, pgdatabase, dsn
		 FROM connection WHERE archive_id = ? ORDER BY type`, archiveID,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "listing connections")
	}
	defer rows.Close()

	var out []*descriptor.Connection
	for rows.Next() {
		var conn = descriptor.NewConnection("")
		if err := rows.Scan(&conn.ArchiveID, &conn.Type, &conn.PgHost, &conn.PgPort, &conn.PgUser, &conn.PgDatabase, &conn.DSN); err != nil {
			return nil, errors.WithMessage(err, "scanning connection row")
		}
		out = append(out, conn)
	}
	return out, errors.WithMessage(rows.Err(), "iterating connection rows")
}
