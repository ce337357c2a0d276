package pgarchivecmd

import (
	"context"
	"fmt"

	"go.pgarchive.dev/core/internal/command"
	"go.pgarchive.dev/core/internal/descriptor"
)

type cmdVarsShow struct {
	Name string `long:"name" description:"Variable to show; omit to show all variables"`
}

type cmdVarsSet struct {
	Name  string `long:"name" required:"true" description:"Variable to set"`
	Value string `long:"value" required:"true" description:"New value"`
}

type cmdVarsReset struct {
	Name string `long:"name" required:"true" description:"Variable to reset to its default"`
}

func init() {
	CommandRegistry.AddCommand("vars", "show", "Show runtime variables", "", &cmdVarsShow{})
	CommandRegistry.AddCommand("vars", "set", "Set a runtime variable", "", &cmdVarsSet{})
	CommandRegistry.AddCommand("vars", "reset", "Reset a runtime variable to its default", "", &cmdVarsReset{})
}

func (cmd *cmdVarsShow) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		if cmd.Name != "" {
			res, err := e.Dispatch(ctx, &descriptor.Command{
				Tag:          descriptor.TagShowVariable,
				VariableName: cmd.Name,
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", cmd.Name, res.Variable)
			return nil
		}
		res, err := e.Dispatch(ctx, &descriptor.Command{Tag: descriptor.TagShowVariables})
		if err != nil {
			return err
		}
		for k, v := range res.Variables {
			fmt.Printf("%s = %s\n", k, v)
		}
		return nil
	})
}

func (cmd *cmdVarsSet) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		_, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:           descriptor.TagSetVariable,
			VariableName:  cmd.Name,
			VariableValue: cmd.Value,
		})
		return err
	})
}

func (cmd *cmdVarsReset) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		_, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:          descriptor.TagResetVariable,
			VariableName: cmd.Name,
		})
		return err
	})
}
