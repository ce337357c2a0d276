package catalog

import (
	"database/sql"

	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// CreateBackupProfile inserts a named backup profile.
func (c *Catalog) CreateBackupProfile(p *descriptor.BackupProfile, existsOk bool) error {
	if err := c.requireAvailable("create_backup_profile"); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	exists, err := c.profileExists(p.Name)
	if err != nil {
		return err
	}
	if exists {
		if existsOk {
			return nil
		}
		return pgerror.AlreadyExists("backup_profile", p.Name)
	}

	_, err = c.q().Exec(
		`INSERT INTO backup_profile(name, compress_type, max_rate, label, fast_checkpoint, include_wal, wait_for_wal, noverify_checksums)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.CompressType, p.MaxRate, p.Label, p.FastCheckpoint, p.IncludeWAL, p.WaitForWAL, p.NoverifyChecksums,
	)
	return errors.WithMessage(err, "inserting backup profile")
}

// DropBackupProfile removes a named backup profile. Dropping "default"
// is permitted at the catalog layer; the command executor is
// responsible for any policy decision about protecting it.
func (c *Catalog) DropBackupProfile(name string, existsOk bool) error {
	if err := c.requireAvailable("drop_backup_profile"); err != nil {
		return err
	}
	res, err := c.q().Exec(`DELETE FROM backup_profile WHERE name = ?`, name)
	if err != nil {
		return errors.WithMessage(err, "deleting backup profile")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 && !existsOk {
		return pgerror.NotFound("backup_profile", name)
	}
	return nil
}

func (c *Catalog) profileExists(name string) (bool, error) {
	var dummy string
	err := c.q().QueryRow(`SELECT name FROM backup_profile WHERE name = ?`, name).Scan(&dummy)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.WithMessage(err, "checking backup profile existence")
	}
	return true, nil
}

// GetBackupProfile returns the named profile, or a descriptor with an
// empty Name if absent.
func (c *Catalog) GetBackupProfile(name string) (*descriptor.BackupProfile, error) {
	if err := c.requireAvailable("get_backup_profile"); err != nil {
		return nil, err
	}
	var p = descriptor.NewBackupProfile(name)
	err := c.q().QueryRow(
		`SELECT compress_type, max_rate, label, fast_checkpoint, include_wal, wait_for_wal, noverify_checksums
		 FROM backup_profile WHERE name = ?`, name,
	).Scan(&p.CompressType, &p.MaxRate, &p.Label, &p.FastCheckpoint, &p.IncludeWAL, &p.WaitForWAL, &p.NoverifyChecksums)
	if err == sql.ErrNoRows {
		p.Name = ""
		return p, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "querying backup profile")
	}
	return p, nil
}

// ResolveProfile implements spec.md §4.E's profile selection: if name
// is non-empty it must resolve; otherwise fall back to
// descriptor.DefaultProfileName, which must exist.
func (c *Catalog) ResolveProfile(name string) (*descriptor.BackupProfile, error) {
	if name == "" {
		name = descriptor.DefaultProfileName
	}
	p, err := c.GetBackupProfile(name)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, pgerror.NotFound("profile", name)
	}
	return p, nil
}

// ListBackupProfiles returns every backup profile, ordered by name.
func (c *Catalog) ListBackupProfiles() ([]*descriptor.BackupProfile, error) {
	if err := c.requireAvailable("list_backup_profiles"); err != nil {
		return nil, err
	}
	rows, err := c.q().Query(
		`SELECT name, compress_type, max_rate, label, fast_checkpoint, include_wal, wait_for_wal, noverify_checksums
		 FROM backup_profile ORDER BY name`,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "listing backup profiles")
	}
	defer rows.Close()

	var out []*descriptor.BackupProfile
	for rows.Next() {
		var p = descriptor.NewBackupProfile("")
		if err := rows.Scan(&p.Name, &p.CompressType, &p.MaxRate, &p.Label, &p.FastCheckpoint, &p.IncludeWAL, &p.WaitForWAL, &p.NoverifyChecksums); err != nil {
			return nil, errors.WithMessage(err, "scanning backup profile row")
		}
		out = append(out, p)
	}
	return out, errors.WithMessage(rows.Err(), "iterating backup profile rows")
}
