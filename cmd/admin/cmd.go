package main

import (
	"context"
	"flag"
	"fmt"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/sadhanalabs/sadhana/core"
	"github.com/sadhanalabs/sadhana/core/user"
	"github.com/sadhanalabs/sadhana/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	conf   *core.Config
	usrSvc *user.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -name NAME -email EMAIL [-admin] - create a user; the password is prompted next")
	fmt.Println("  resetpassword -email EMAIL - reset a user's password")
	fmt.Println("  migrate up|down - apply or roll back database migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Create the user with the admin role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		switch args[2] {
		case "up":
			return database.Migrate(cli.db)
		case "down":
			return database.MigrateDown(cli.db)
		default:
			cli.printUsage()
			return errHelp
		}

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	return string(pwd), err
}

func (cli *commandLine) addUser(name, email, pwd string, admin bool) error {
	role := user.RoleStudent
	if admin || cli.conf.IsAdminEmail(email) {
		role = user.RoleAdmin
	}

	usr := user.User{
		Name:      core.CleanString(name),
		Email:     core.CleanString(email, true /* lower */),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}

	usr, err := cli.usrSvc.UpdateOrCreate(context.Background(), usr)
	if err != nil {
		return err
	}
	fmt.Printf("user %q (%s) saved with role %s\n", usr.Name, usr.Email, usr.Role)
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}

	if _, err = cli.usrSvc.UpdateOrCreate(ctx, usr); err != nil {
		return err
	}
	fmt.Printf("password reset for %s\n", usr.Email)
	return nil
}
