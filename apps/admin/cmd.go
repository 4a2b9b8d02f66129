package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	dig_container "github.com/trezcool/academia/apps/api/di/dig"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/catalog"
	"github.com/trezcool/academia/core/grading"
	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/storage/database"
)

var (
	newStoreFunc      = dig_container.NewStore // mockable
	openDBFunc        = database.Open          // mockable
	runMigrationsFunc = database.RunMigrations // mockable
	isTerminalFunc    = term.IsTerminal        // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	in     io.Reader
	out    io.Writer

	store      school.Store
	userSvc    *user.Service
	catalogSvc *catalog.Service
	gradingSvc *grading.Service
}

// setStore builds the services on top of store.
func (cli *commandLine) setStore(store school.Store) {
	translator := core.NewTranslator()
	validate := dig_container.NewValidator(translator)

	cli.store = store
	cli.userSvc = user.NewService(school.NewUserRepository(store), validate, translator)
	cli.catalogSvc = catalog.NewService(store, cli.logger, validate, translator)
	cli.gradingSvc = grading.NewService(store, cli.logger, cli.conf)
}

func (cli *commandLine) openStore() error {
	if cli.store != nil {
		return nil
	}
	store, err := newStoreFunc(cli.conf, dig_container.StoreLoggerParam{Logger: cli.logger})
	if err != nil {
		return errors.Wrap(err, "opening store")
	}
	cli.setStore(store)
	return nil
}

func (cli *commandLine) close() {
	if cli.store != nil {
		if err := cli.store.Close(); err != nil {
			cli.logger.Error("closing store", err)
		}
	}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Administer the " + cli.conf.AppName + " rules engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// migrations must run before the store opens (and migrates) the database
			if cmd.Name() == "migrate" {
				return nil
			}
			return cli.openStore()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetIn(cli.in)
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.tokenCmd(),
		cli.semesterCmd(),
		cli.copyCoursesCmd(),
		cli.autoGradeCmd(),
	)
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// confirm asks a yes/no question on the terminal. Without a terminal, nothing is confirmed.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return false, nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "reading answer")
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// errorMessage spells out the field errors of a validation error.
func errorMessage(err error) string {
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) || len(vErr.Fields) == 0 {
		return err.Error()
	}
	msgs := make([]string, len(vErr.Fields))
	for i, fld := range vErr.Fields {
		msgs[i] = fld.Field + ": " + fld.Error
	}
	return strings.Join(msgs, "; ")
}
