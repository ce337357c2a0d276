package pgarchivecmd

import (
	"context"
	"fmt"
	"strings"

	"go.pgarchive.dev/core/internal/command"
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/interval"
	"go.pgarchive.dev/core/internal/pgerror"
)

type cmdRetentionCreate struct {
	Name     string   `long:"name" required:"true" description:"Name of the retention policy"`
	Rules    []string `long:"rule" required:"true" description:"Rule as \"<type> [value]\", e.g. --rule \"keep_num 2\" --rule \"drop_older_by_datetime 3 days\". Applied in order."`
	ExistsOk bool     `long:"if-not-exists" description:"Succeed without effect if the policy already exists"`
}

type cmdRetentionDrop struct {
	Name     string `long:"name" required:"true" description:"Name of the retention policy"`
	ExistsOk bool   `long:"if-exists" description:"Succeed without effect if the policy does not exist"`
}

type cmdRetentionList struct {
	Name string `long:"name" description:"Show a single policy's rules instead of all policy names"`
}

type cmdRetentionApply struct {
	Name    string `long:"name" required:"true" description:"Name of the retention policy"`
	Archive string `long:"archive" required:"true" description:"Archive to apply the policy to"`
}

func init() {
	CommandRegistry.AddCommand("retention", "create", "Create a retention policy", `
Create a named, ordered list of retention rules. Datetime rule values
are interval expressions such as "3 days" or "1 months + 12 hours";
they are parsed here and stored in canonical form.
`, &cmdRetentionCreate{})
	CommandRegistry.AddCommand("retention", "drop", "Drop a retention policy", "", &cmdRetentionDrop{})
	CommandRegistry.AddCommand("retention", "list", "List retention policies", "", &cmdRetentionList{})
	CommandRegistry.AddCommand("retention", "apply", "Apply a retention policy to an archive", `
Evaluate the policy against the archive's backup catalog and evict the
basebackups and WAL segment ranges the resulting plan selects. Pinned
basebackups are never evicted.
`, &cmdRetentionApply{})
}

// parseRule splits a "--rule" argument into its type and value, and
// canonicalizes interval values of datetime rules so the stored form
// round-trips through the interval compiler.
func parseRule(raw string) (descriptor.RetentionRule, error) {
	var fields = strings.Fields(raw)
	if len(fields) == 0 {
		return descriptor.RetentionRule{}, pgerror.InvalidArgument("rule", "empty retention rule")
	}
	var r = descriptor.RetentionRule{
		Type:  descriptor.RetentionRuleType(fields[0]),
		Value: strings.Join(fields[1:], " "),
	}
	if r.Type.IsDatetimeRule() {
		iv, err := interval.Parse(r.Value)
		if err != nil {
			return descriptor.RetentionRule{}, err
		}
		canonical, err := iv.Compile()
		if err != nil {
			return descriptor.RetentionRule{}, err
		}
		r.Value = canonical
	}
	return r, r.Validate()
}

func (cmd *cmdRetentionCreate) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		var policy = descriptor.NewRetentionPolicy(cmd.Name)
		for _, raw := range cmd.Rules {
			r, err := parseRule(raw)
			if err != nil {
				return err
			}
			policy.Rules = append(policy.Rules, r)
		}
		_, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:       descriptor.TagCreateRetentionPolicy,
			Retention: policy,
			ExistsOk:  cmd.ExistsOk,
		})
		return err
	})
}

func (cmd *cmdRetentionDrop) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		_, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:        descriptor.TagDropRetentionPolicy,
			PolicyName: cmd.Name,
			ExistsOk:   cmd.ExistsOk,
		})
		return err
	})
}

func (cmd *cmdRetentionList) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:        descriptor.TagListRetentionPolicy,
			PolicyName: cmd.Name,
		})
		if err != nil {
			return err
		}
		if res.Policy != nil {
			for i, r := range res.Policy.Rules {
				fmt.Printf("%d\t%s\t%s\n", i, r.Type, r.Value)
			}
			return nil
		}
		for _, name := range res.PolicyNames {
			fmt.Println(name)
		}
		return nil
	})
}

func (cmd *cmdRetentionApply) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		archive, err := resolveArchive(ctx, e, cmd.Archive)
		if err != nil {
			return err
		}
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:        descriptor.TagApplyRetentionPolicy,
			Archive:    archive,
			PolicyName: cmd.Name,
		})
		if err != nil {
			return err
		}
		for _, entry := range res.Plan.Entries {
			var verdict = "delete"
			if entry.Keep {
				verdict = "keep"
			}
			fmt.Printf("%s\t%d\t%s\t%s\n", verdict, entry.Backup.ID, entry.Backup.Label, entry.Backup.Status)
		}
		fmt.Printf("wal cleanup mode: %s\n", res.Plan.WALMode)
		return nil
	})
}
