package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (cli *commandLine) autoGradeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "autograde ASSIGNMENT_ID",
		Short: "Grade every submission of a multiple-choice assignment, replacing their grades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Replace the grades of every submission of %s?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return errors.Wrap(errAborted, "not confirmed (use --yes when not on a terminal)")
				}
			}

			changed, err := cli.gradingSvc.AutoGradeMCQ(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "graded %d submission(s)\n", len(changed))
			for _, s := range changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", s.ID, s.StudentID, s.Grade)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
