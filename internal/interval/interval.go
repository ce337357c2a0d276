// Package interval compiles and parses the retention-policy interval
// expressions of spec.md §4.D and §6: chains of magnitude/unit terms
// combined by addition or subtraction, e.g. "3 days" or
// "2 months - 5 days".
//
// spec.md §9 leaves the exact grammar of mixed +/- sequences as an
// explicit Open Question, to be defined rather than guessed. The
// grammar implemented here (see DESIGN.md) is:
//
//	expression := [sign] term (sign term)*
//	term       := uint ws+ unit
//	sign       := '+' | '-'
//	unit       := "years" | "year" | "months" | "month" |
//	              "days" | "day" | "hours" | "hour" |
//	              "minutes" | "minute"
//
// A leading term with no explicit sign is treated as positive. The
// canonical form (Compile) always emits the plural unit name and a
// single space around each operator, regardless of how the input was
// spelled.
package interval

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Unit is one of the five duration granularities a retention interval
// may be expressed in.
type Unit string

const (
	Years   Unit = "years"
	Months  Unit = "months"
	Days    Unit = "days"
	Hours   Unit = "hours"
	Minutes Unit = "minutes"
)

var singularToUnit = map[string]Unit{
	"year": Years, "years": Years,
	"month": Months, "months": Months,
	"day": Days, "days": Days,
	"hour": Hours, "hours": Hours,
	"minute": Minutes, "minutes": Minutes,
}

// Operand is one signed magnitude/unit term of an Interval.
type Operand struct {
	Negative bool
	Value    uint64
	Unit     Unit
}

// Interval is an ordered list of Operands, matching the original
// catalog's flat opr_list: units may repeat and are never merged.
type Interval struct {
	Operands []Operand
}

// Parse parses a canonical or user-supplied interval expression into
// an Interval. Ambiguous or malformed input is rejected rather than
// guessed at, per spec.md §9.
func Parse(expr string) (Interval, error) {
	var fields = strings.Fields(expr)
	if len(fields) == 0 {
		return Interval{}, errors.New("empty interval expression")
	}

	var out Interval
	var i = 0

	for i < len(fields) {
		var negative = false

		// An explicit sign may precede any term, including the first
		// (a leading bare term is implicitly positive).
		if fields[i] == "+" || fields[i] == "-" {
			negative = fields[i] == "-"
			i++
			if i >= len(fields) {
				return Interval{}, errors.Errorf("interval expression ends with a trailing operator: %q", expr)
			}
		} else if len(out.Operands) > 0 {
			return Interval{}, errors.Errorf("expected '+' or '-' between terms: %q", expr)
		}

		if i+1 >= len(fields) {
			return Interval{}, errors.Errorf("term %q is missing a unit in expression %q", fields[i], expr)
		}
		val, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return Interval{}, errors.Wrapf(err, "term magnitude %q in expression %q", fields[i], expr)
		}
		unit, ok := singularToUnit[strings.ToLower(fields[i+1])]
		if !ok {
			return Interval{}, errors.Errorf("unknown unit %q in expression %q", fields[i+1], expr)
		}
		out.Operands = append(out.Operands, Operand{Negative: negative, Value: val, Unit: unit})

		i += 2
	}

	return out, nil
}

// Compile renders the Interval in canonical on-disk form: "N1 U1 [+/-
// N2 U2]...", always using the plural unit spelling.
func (iv Interval) Compile() (string, error) {
	if len(iv.Operands) == 0 {
		return "", errors.New("interval has no operands")
	}
	var b strings.Builder
	for i, op := range iv.Operands {
		if i > 0 {
			if op.Negative {
				b.WriteString(" - ")
			} else {
				b.WriteString(" + ")
			}
		} else if op.Negative {
			// A negative leading operand is representable (the sign is
			// carried per-operand, not just between terms), but is
			// unusual; emit it explicitly so Parse(Compile(iv)) == iv.
			b.WriteString("- ")
		}
		b.WriteString(strconv.FormatUint(op.Value, 10))
		b.WriteByte(' ')
		b.WriteString(string(op.Unit))
	}
	return b.String(), nil
}

// DatetimeExpr returns a backend-specific SQL datetime() modifier
// expression with '?' placeholders for each operand, and the ordered
// list of bound values to substitute for them, so that user input
// never enters the query text directly (spec.md §4.D).
//
// The returned modifiers are suitable for SQLite's datetime(base,
// modifier, modifier, ...) function: each is of the form "<+/-N>
// <unit>".
func (iv Interval) DatetimeExpr() (modifiers []string, args []interface{}) {
	for _, op := range iv.Operands {
		modifiers = append(modifiers, "?")
		var n = int64(op.Value)
		if op.Negative {
			n = -n
		}
		args = append(args, strconv.FormatInt(n, 10)+" "+string(op.Unit))
	}
	return modifiers, args
}

// Duration approximates the Interval as a time.Duration, using
// calendar-naive conversions (30 days/month, 365 days/year) suitable
// only for in-memory evaluation against a fixed "now", which is how
// the retention evaluator uses it. No catalog query in this module
// uses the SQLite datetime() modifiers produced by DatetimeExpr.
func (iv Interval) Duration() time.Duration {
	var total time.Duration
	for _, op := range iv.Operands {
		var unit time.Duration
		switch op.Unit {
		case Years:
			unit = 365 * 24 * time.Hour
		case Months:
			unit = 30 * 24 * time.Hour
		case Days:
			unit = 24 * time.Hour
		case Hours:
			unit = time.Hour
		case Minutes:
			unit = time.Minute
		}
		var d = unit * time.Duration(op.Value)
		if op.Negative {
			total -= d
		} else {
			total += d
		}
	}
	return total
}
