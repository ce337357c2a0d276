package catalog

import (
	"database/sql"

	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// CreateRetentionPolicy inserts a named policy and its ordered rules.
func (c *Catalog) CreateRetentionPolicy(p *descriptor.RetentionPolicy, existsOk bool) error {
	if err := c.requireAvailable("create_retention_policy"); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	exists, err := c.retentionPolicyExists(p.Name)
	if err != nil {
		return err
	}
	if exists {
		if existsOk {
			return nil
		}
		return pgerror.AlreadyExists("retention_policy", p.Name)
	}

	if _, err := c.q().Exec(`INSERT INTO retention_policy(name) VALUES (?)`, p.Name); err != nil {
		return errors.WithMessage(err, "inserting retention policy")
	}
	for i, r := range p.Rules {
		if _, err := c.q().Exec(
			`INSERT INTO retention_rule(policy_name, position, type, value) VALUES (?, ?, ?, ?)`,
			p.Name, i, string(r.Type), r.Value,
		); err != nil {
			return errors.WithMessagef(err, "inserting retention rule %d", i)
		}
	}
	return nil
}

// DropRetentionPolicy removes a named policy and its rules.
func (c *Catalog) DropRetentionPolicy(name string, existsOk bool) error {
	if err := c.requireAvailable("drop_retention_policy"); err != nil {
		return err
	}
	res, err := c.q().Exec(`DELETE FROM retention_policy WHERE name = ?`, name)
	if err != nil {
		return errors.WithMessage(err, "deleting retention policy")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 && !existsOk {
		return pgerror.NotFound("retention_policy", name)
	}
	return nil
}

func (c *Catalog) retentionPolicyExists(name string) (bool, error) {
	var dummy string
	err := c.q().QueryRow(`SELECT name FROM retention_policy WHERE name = ?`, name).Scan(&dummy)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.WithMessage(err, "checking retention policy existence")
	}
	return true, nil
}

// GetRetentionPolicy returns the named policy with its rules in
// position order, or a descriptor with an empty Name if absent.
func (c *Catalog) GetRetentionPolicy(name string) (*descriptor.RetentionPolicy, error) {
	if err := c.requireAvailable("get_retention_policy"); err != nil {
		return nil, err
	}
	exists, err := c.retentionPolicyExists(name)
	if err != nil {
		return nil, err
	}
	var p = descriptor.NewRetentionPolicy(name)
	if !exists {
		p.Name = ""
		return p, nil
	}

	rows, err := c.q().Query(
		`SELECT type, value FROM retention_rule WHERE policy_name = ? ORDER BY position`, name,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "listing retention rules")
	}
	defer rows.Close()

	for rows.Next() {
		var r descriptor.RetentionRule
		var typ string
		if err := rows.Scan(&typ, &r.Value); err != nil {
			return nil, errors.WithMessage(err, "scanning retention rule row")
		}
		r.Type = descriptor.RetentionRuleType(typ)
		p.Rules = append(p.Rules, r)
	}
	return p, errors.WithMessage(rows.Err(), "iterating retention rule rows")
}

// ListRetentionPolicies returns every policy name known to the catalog.
func (c *Catalog) ListRetentionPolicies() ([]string, error) {
	if err := c.requireAvailable("list_retention_policies"); err != nil {
		return nil, err
	}
	rows, err := c.q().Query(`SELECT name FROM retention_policy ORDER BY name`)
	if err != nil {
		return nil, errors.WithMessage(err, "listing retention policies")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.WithMessage(err, "scanning retention policy row")
		}
		out = append(out, name)
	}
	return out, errors.WithMessage(rows.Err(), "iterating retention policy rows")
}
