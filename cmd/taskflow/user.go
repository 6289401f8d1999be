package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/francescaartes/task-management-system/internal/store"
)

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			fmt.Fprintf(os.Stderr, "Error: --password is required\n")
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		ok, err := st.CreateUser(args[0], args[1], password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: username or email already taken\n")
			os.Exit(1)
		}

		setupLogger(cfg).Info("user registered", "username", args[0])
		fmt.Printf("Account %s created. Log in with 'taskflow login %s'.\n", args[0], args[0])
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Verify credentials and print your user id",
	Long: `Verify a username/password pair and print the user id on success.

Pass the printed id to task commands with --user. TaskFlow keeps no
session state; the id is all a caller needs for scoping.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		password, _ := cmd.Flags().GetString("password")

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		id, err := st.VerifyUser(args[0], password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if id == 0 {
			fmt.Fprintf(os.Stderr, "Error: incorrect username or password\n")
			os.Exit(1)
		}

		fmt.Printf("%d\n", id)
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd <new-username>",
	Short: "Update username and optionally password",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := requireUser(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		newPassword, _ := cmd.Flags().GetString("password")

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		ok, err := st.UpdateCredentials(userID, args[0], newPassword)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: no such user %d\n", userID)
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: username already taken\n")
			os.Exit(1)
		}

		fmt.Println("Account updated. Log in again.")
	},
}

func init() {
	registerCmd.Flags().StringP("password", "p", "", "account password")
	loginCmd.Flags().StringP("password", "p", "", "account password")
	passwdCmd.Flags().StringP("password", "p", "", "new password (omit to keep current)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(passwdCmd)
}
