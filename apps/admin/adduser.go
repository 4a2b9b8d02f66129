package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	echoapi "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var (
		nu      user.NewUser
		isAdmin bool
	)
	cmd := &cobra.Command{
		Use:   "adduser NAME",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nu.Name = args[0]
			if isAdmin {
				nu.Roles = user.AllRoles
			}
			usr, err := cli.userSvc.Create(cmd.Context(), nu)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&nu.Username, "username", "", "unique username")
	cmd.Flags().StringVar(&nu.Email, "email", "", "unique email")
	cmd.Flags().StringSliceVar(&nu.Roles, "role", nil, "role(s) of the user, eg. student: or teacher:")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "give the user every role")
	return cmd
}

func (cli *commandLine) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token USER_ID",
		Short: "Print an API token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, err := cli.userSvc.GetByID(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrapf(err, "getting user %s", args[0])
			}
			if !usr.IsActive {
				return errors.Errorf("user %s is not active", usr.ID)
			}
			token, err := echoapi.GenerateToken(echoapi.NewClaims(usr, cli.conf), cli.conf.SecretKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
