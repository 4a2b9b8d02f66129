package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/academia/core/catalog"
	"github.com/trezcool/academia/core/school"
)

func (cli *commandLine) semesterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semester",
		Short: "Manage semesters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}

	var ns catalog.NewSemester
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a semester",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns.Name = args[0]
			sem, err := cli.catalogSvc.CreateSemester(cmd.Context(), ns)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sem.ID)
			return nil
		},
	}
	create.Flags().StringVar(&ns.ID, "id", "", "semester ID, generated when empty")

	list := &cobra.Command{
		Use:   "list",
		Short: "List semesters, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			semesters, err := cli.catalogSvc.QuerySemesters(cmd.Context())
			if err != nil {
				return err
			}
			settings, err := cli.catalogSvc.GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			for _, sem := range semesters {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s%s\n", sem.ID, sem.Name, semesterMarks(sem, settings))
			}
			return nil
		},
	}

	setActive := &cobra.Command{
		Use:   "set-active ID",
		Short: "Set the semester new courses and enrollments go to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cli.catalogSvc.SetActiveSemester(cmd.Context(), args[0])
			return err
		},
	}

	setDefault := &cobra.Command{
		Use:   "set-default ID",
		Short: "Set the semester shown by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cli.catalogSvc.SetDefaultSemester(cmd.Context(), args[0])
			return err
		},
	}

	cmd.AddCommand(create, list, setActive, setDefault)
	return cmd
}

func semesterMarks(sem school.Semester, settings school.Settings) string {
	var marks string
	if sem.ID == settings.ActiveSemesterID {
		marks += " (active)"
	}
	if sem.ID == settings.DefaultSemesterID {
		marks += " (default)"
	}
	return marks
}

func (cli *commandLine) copyCoursesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy-courses SOURCE_SEMESTER TARGET_SEMESTER",
		Short: "Copy the courses of a semester into another, skipping codes the target already has",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := cli.catalogSvc.CopyCourses(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d course(s), skipped %d\n", res.Copied, res.Skipped)
			return nil
		},
	}
}
