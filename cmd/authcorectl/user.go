package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewUserCmd creates the user subcommand group.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserRegisterCmd())
	return cmd
}

func newUserRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user account",
		Long: `Create a user account with the same validation and hashing as the API.
The password is prompted for on a terminal and read from the first line of
standard input otherwise.`,
		Args: cobra.NoArgs,
		RunE: runUserRegister,
	}
	cmd.Flags().String("username", "", "username (3-20 characters: letters, digits, space, dot, underscore)")
	cmd.Flags().String("email", "", "email address")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runUserRegister(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")

	pass, err := readPassword(cmd)
	if err != nil {
		return oops.Code("INPUT_FAILED").With("operation", "read password").Wrap(err)
	}

	ctx := cmd.Context()
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := offlineEngine(cfg, db, cfg.logger(cmd))
	if err != nil {
		return err
	}
	defer engine.Close()

	res, err := engine.Register(ctx, username, email, pass)
	if err != nil {
		return oops.Code("REGISTER_FAILED").With("username", username).Wrap(err)
	}

	cmd.Printf("Registered %s with id %d\n", username, res.UserID)
	return nil
}

// readPassword is replaced in tests.
var readPassword = func(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return readLine(cmd.InOrStdin())
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
