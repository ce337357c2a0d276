package catalog

import (
	"database/sql"

	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// CreateArchive inserts a new archive row together with its mandatory
// basebackup connection, satisfying spec.md §3's "creation of an
// archive atomically creates this connection" — both inserts happen
// against the same querier, so a caller running this inside
// StartTransaction/CommitTransaction gets atomicity for free.
func (c *Catalog) CreateArchive(a *descriptor.Archive, existsOk bool) (*descriptor.Archive, error) {
	if err := c.requireAvailable("create_archive"); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	exists, err := c.existsArchiveByName(a.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		if existsOk {
			return c.GetArchiveByName(a.Name)
		}
		return nil, pgerror.AlreadyExists("archive", a.Name)
	}

	res, err := c.q().Exec(
		`INSERT INTO archive(name, directory, compression, pghost, pgport, pguser, pgdatabase)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.Directory, a.Compression, a.PgHost, a.PgPort, a.PgUser, a.PgDatabase,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "inserting archive")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.WithMessage(err, "reading archive id")
	}

	var conn = descriptor.NewConnection(descriptor.ConnectionTypeBasebackup)
	conn.ArchiveID = int(id)
	conn.PgHost, conn.PgPort, conn.PgUser, conn.PgDatabase = a.PgHost, a.PgPort, a.PgUser, a.PgDatabase
	if _, err := c.q().Exec(
		`INSERT INTO connection(archive_id, type, pghost, pgport, pguser, pgdatabase, dsn)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conn.ArchiveID, conn.Type, conn.PgHost, conn.PgPort, conn.PgUser, conn.PgDatabase, conn.DSN,
	); err != nil {
		return nil, errors.WithMessage(err, "inserting default basebackup connection")
	}

	out := a.Copy()
	out.ID = int(id)
	return out, nil
}

// DropArchive removes an archive and (via ON DELETE CASCADE)
// everything that belongs to it.
func (c *Catalog) DropArchive(name string, existsOk bool) error {
	if err := c.requireAvailable("drop_archive"); err != nil {
		return err
	}
	res, err := c.q().Exec(`DELETE FROM archive WHERE name = ?`, name)
	if err != nil {
		return errors.WithMessage(err, "deleting archive")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 && !existsOk {
		return pgerror.NotFound("archive", name)
	}
	return nil
}

// ExistsByName reports whether an archive of the given name exists.
func (c *Catalog) ExistsByName(name string) (bool, error) {
	if err := c.requireAvailable("exists_by_name"); err != nil {
		return false, err
	}
	return c.existsArchiveByName(name)
}

func (c *Catalog) existsArchiveByName(name string) (bool, error) {
	var id int
	err := c.q().QueryRow(`SELECT id FROM archive WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.WithMessage(err, "checking archive existence by name")
	}
	return true, nil
}

// Exists reports whether an archive using the given on-disk directory
// exists, per spec.md §4.C's exists(directory).
func (c *Catalog) Exists(directory string) (bool, error) {
	if err := c.requireAvailable("exists"); err != nil {
		return false, err
	}
	var id int
	err := c.q().QueryRow(`SELECT id FROM archive WHERE directory = ?`, directory).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.WithMessage(err, "checking archive existence by directory")
	}
	return true, nil
}

// GetArchiveByName returns the archive of the given name, or a
// descriptor with NotFoundID set if absent.
func (c *Catalog) GetArchiveByName(name string) (*descriptor.Archive, error) {
	if err := c.requireAvailable("get_archive"); err != nil {
		return nil, err
	}
	var a = descriptor.NewArchive()
	err := c.q().QueryRow(
		`SELECT id, name, directory, compression, pghost, pgport, pguser, pgdatabase
		 FROM archive WHERE name = ?`, name,
	).Scan(&a.ID, &a.Name, &a.Directory, &a.Compression, &a.PgHost, &a.PgPort, &a.PgUser, &a.PgDatabase)
	if err == sql.ErrNoRows {
		return a, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "querying archive by name")
	}
	return a, nil
}

// GetArchiveList returns every archive, optionally filtered by name
// substring (empty filter returns all).
func (c *Catalog) GetArchiveList(filter string) ([]*descriptor.Archive, error) {
	if err := c.requireAvailable("get_archive_list"); err != nil {
		return nil, err
	}
	rows, err := c.q().Query(
		`SELECT id, name, directory, compression, pghost, pgport, pguser, pgdatabase
		 FROM archive WHERE (? = '' OR name LIKE '%' || ? || '%') ORDER BY id`,
		filter, filter,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "listing archives")
	}
	defer rows.Close()

	var out []*descriptor.Archive
	for rows.Next() {
		var a = descriptor.NewArchive()
		if err := rows.Scan(&a.ID, &a.Name, &a.Directory, &a.Compression, &a.PgHost, &a.PgPort, &a.PgUser, &a.PgDatabase); err != nil {
			return nil, errors.WithMessage(err, "scanning archive row")
		}
		out = append(out, a)
	}
	return out, errors.WithMessage(rows.Err(), "iterating archive rows")
}

var archiveColumnNames = map[int]string{
	descriptor.ArchiveName:        "name",
	descriptor.ArchiveDirectory:   "directory",
	descriptor.ArchiveCompression: "compression",
	descriptor.ArchivePgHost:      "pghost",
	descriptor.ArchivePgPort:      "pgport",
	descriptor.ArchivePgUser:      "pguser",
	descriptor.ArchivePgDatabase:  "pgdatabase",
}

func archiveColumnValue(a *descriptor.Archive, col int) interface{} {
	switch col {
	case descriptor.ArchiveName:
		return a.Name
	case descriptor.ArchiveDirectory:
		return a.Directory
	case descriptor.ArchiveCompression:
		return a.Compression
	case descriptor.ArchivePgHost:
		return a.PgHost
	case descriptor.ArchivePgPort:
		return a.PgPort
	case descriptor.ArchivePgUser:
		return a.PgUser
	case descriptor.ArchivePgDatabase:
		return a.PgDatabase
	default:
		return nil
	}
}

// UpdateArchiveAttributes writes exactly the columns named in attrs
// (descr.Affected, typically) and leaves every other column
// untouched, satisfying spec.md §4.C's affected-attributes contract
// and the minimality property of spec.md §8.3.
func (c *Catalog) UpdateArchiveAttributes(descr *descriptor.Archive, attrs descriptor.AttributeSet) error {
	if err := c.requireAvailable("update_archive_attributes"); err != nil {
		return err
	}
	var cols = attrs.Columns()
	if len(cols) == 0 {
		return nil
	}

	var setClauses []string
	var args []interface{}
	for _, col := range cols {
		name, ok := archiveColumnNames[col]
		if !ok {
			return pgerror.InvalidArgument("attrs", "unknown archive column tag")
		}
		setClauses = append(setClauses, name+" = ?")
		args = append(args, archiveColumnValue(descr, col))
	}
	args = append(args, descr.ID)

	query := "UPDATE archive SET " + joinClauses(setClauses) + " WHERE id = ?"
	res, err := c.q().Exec(query, args...)
	if err != nil {
		return errors.WithMessage(err, "updating archive attributes")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 {
		return pgerror.NotFound("archive", descr.Name)
	}
	return nil
}

func joinClauses(clauses []string) string {
	var out string
	for i, c := range clauses {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
