package descriptor

import "github.com/pkg/errors"

// RetentionRuleType enumerates the kinds of rule a RetentionPolicy may
// contain, mirroring RetentionRuleId of the original catalog schema
// (RETENTION_KEEP_NUM, RETENTION_KEEP_WITH_LABEL, etc.), collapsed
// into a single string-backed type rather than a class hierarchy.
type RetentionRuleType string

const (
	RuleKeepWithLabel       RetentionRuleType = "keep_with_label"
	RuleDropWithLabel       RetentionRuleType = "drop_with_label"
	RuleKeepNum             RetentionRuleType = "keep_num"
	RuleDropNum             RetentionRuleType = "drop_num"
	RuleKeepNewerByDatetime RetentionRuleType = "keep_newer_by_datetime"
	RuleKeepOlderByDatetime RetentionRuleType = "keep_older_by_datetime"
	RuleDropNewerByDatetime RetentionRuleType = "drop_newer_by_datetime"
	RuleDropOlderByDatetime RetentionRuleType = "drop_older_by_datetime"
	RulePin                 RetentionRuleType = "pin"
	RuleUnpin               RetentionRuleType = "unpin"
	RuleCleanup             RetentionRuleType = "cleanup"
)

var datetimeRuleTypes = map[RetentionRuleType]struct{}{
	RuleKeepNewerByDatetime: {},
	RuleKeepOlderByDatetime: {},
	RuleDropNewerByDatetime: {},
	RuleDropOlderByDatetime: {},
}

// IsDatetimeRule reports whether a rule's Value must be a compiled
// interval expression (§4.D).
func (t RetentionRuleType) IsDatetimeRule() bool {
	_, ok := datetimeRuleTypes[t]
	return ok
}

// RetentionRule is one typed rule of a RetentionPolicy: a type and a
// value string, whose interpretation depends on Type. For datetime
// rules, Value holds an interval expression's canonical form (§6).
type RetentionRule struct {
	Type  RetentionRuleType
	Value string
}

// Validate checks the rule's Type is recognized and, for rules that
// require one, that Value is non-empty. Interval syntax itself is
// checked by internal/interval, not here.
func (r RetentionRule) Validate() error {
	switch r.Type {
	case RuleKeepWithLabel, RuleDropWithLabel, RuleKeepNum, RuleDropNum,
		RuleKeepNewerByDatetime, RuleKeepOlderByDatetime,
		RuleDropNewerByDatetime, RuleDropOlderByDatetime,
		RulePin, RuleUnpin, RuleCleanup:
	default:
		return errors.Errorf("unknown retention rule type %q", r.Type)
	}
	if r.Type != RulePin && r.Type != RuleUnpin && r.Type != RuleCleanup && r.Value == "" {
		return errors.Errorf("retention rule %q requires a value", r.Type)
	}
	return nil
}

// RetentionPolicy is a named, ordered list of RetentionRules.
type RetentionPolicy struct {
	Name  string
	Rules []RetentionRule

	Affected AttributeSet
}

// NewRetentionPolicy returns an empty RetentionPolicy descriptor.
func NewRetentionPolicy(name string) *RetentionPolicy {
	return &RetentionPolicy{Name: name, Affected: NewAttributeSet()}
}

// Copy duplicates the RetentionPolicy, including a fresh slice of rules.
func (p *RetentionPolicy) Copy() *RetentionPolicy {
	var out = *p
	out.Rules = append([]RetentionRule(nil), p.Rules...)
	out.Affected = NewAttributeSet(p.Affected.Columns()...)
	return &out
}

// Validate checks the policy's name and every rule it contains.
func (p *RetentionPolicy) Validate() error {
	if p.Name == "" {
		return errors.New("retention policy name must not be empty")
	}
	for i, r := range p.Rules {
		if err := r.Validate(); err != nil {
			return errors.Wrapf(err, "rule %d", i)
		}
	}
	return nil
}
