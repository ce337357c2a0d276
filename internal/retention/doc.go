// Package retention implements the rule compiler and evaluator of
// spec.md §4.D: given a RetentionPolicy and the basebackups of one
// archive, Evaluate produces a CleanupPlan tagging each basebackup
// keep or delete and deriving a WAL cleanup mode from the result.
//
// Evaluation order and precedence follow spec.md §4.D directly: rules
// apply in list order, a basebackup marked keep by any rule is sticky
// (no later drop rule may demote it), and a pinned basebackup is
// implicitly keep. Basebackups untouched by any rule default to
// delete — see DESIGN.md's Open Question decision for why, grounded
// in spec.md §8's end-to-end scenario 4.
package retention
