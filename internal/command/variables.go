package command

import (
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// Variables is a small in-memory runtime-configuration registry
// backing the show/set/reset variable commands. It is process-local
// and never persisted to the catalog: spec.md's variable commands are
// ambient runtime knobs, not catalog-resident entities.
type Variables map[string]string

func defaultVariables() Variables {
	return Variables{
		"log_level":       "info",
		"default_profile": descriptor.DefaultProfileName,
	}
}

func (e *Executor) execShowVariable(cmd *descriptor.Command) (Result, error) {
	if e.vars == nil {
		e.vars = defaultVariables()
	}
	v, ok := e.vars[cmd.VariableName]
	if !ok {
		return Result{}, notFoundVariable(cmd.VariableName)
	}
	return Result{Variable: v}, nil
}

func (e *Executor) execSetVariable(cmd *descriptor.Command) (Result, error) {
	if e.vars == nil {
		e.vars = defaultVariables()
	}
	if _, ok := e.vars[cmd.VariableName]; !ok {
		return Result{}, notFoundVariable(cmd.VariableName)
	}
	e.vars[cmd.VariableName] = cmd.VariableValue
	return Result{Variable: e.vars[cmd.VariableName]}, nil
}

func (e *Executor) execResetVariable(cmd *descriptor.Command) (Result, error) {
	if e.vars == nil {
		e.vars = defaultVariables()
	}
	def := defaultVariables()
	v, ok := def[cmd.VariableName]
	if !ok {
		return Result{}, notFoundVariable(cmd.VariableName)
	}
	e.vars[cmd.VariableName] = v
	return Result{Variable: v}, nil
}

func (e *Executor) execShowVariables() (Result, error) {
	if e.vars == nil {
		e.vars = defaultVariables()
	}
	var out = make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return Result{Variables: out}, nil
}

func notFoundVariable(name string) error {
	return pgerror.NotFound("variable", name)
}
