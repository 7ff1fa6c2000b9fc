package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/logger"
	"github.com/RealRedbaron07/JobApplier/internal/secrets"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage secrets stored in the OS keyring",
}

var setMailPasswordCmd = &cobra.Command{
	Use:   "set-mail-password",
	Short: "Store the IMAP app password used by the mail discovery source",
	Run: func(cmd *cobra.Command, _ []string) {
		setMailPassword(cmd)
	},
}

var deleteMailPasswordCmd = &cobra.Command{
	Use:   "delete-mail-password",
	Short: "Remove the stored IMAP app password",
	Run: func(cmd *cobra.Command, _ []string) {
		deleteMailPassword(cmd)
	},
}

func init() {
	rootCmd.AddCommand(secretCmd)
	secretCmd.AddCommand(setMailPasswordCmd)
	secretCmd.AddCommand(deleteMailPasswordCmd)

	for _, c := range []*cobra.Command{setMailPasswordCmd, deleteMailPasswordCmd} {
		c.Flags().String("username", "", "mailbox username (defaults to sources.mail.username from the config)")
		c.Flags().String("host", "", "IMAP host with port (defaults to sources.mail.host from the config)")
	}
}

// mailAccount resolves the keyring account from flags, falling back to the
// mail source settings in the config file.
func mailAccount(cmd *cobra.Command) (string, error) {
	username := strings.TrimSpace(cmd.Flag("username").Value.String())
	if username == "" {
		username = strings.TrimSpace(viper.GetString("sources.mail.username"))
	}

	host := strings.TrimSpace(cmd.Flag("host").Value.String())
	if host == "" {
		host = strings.TrimSpace(viper.GetString("sources.mail.host"))
	}

	if username == "" || host == "" {
		return "", fmt.Errorf("mailbox username and host are required (flags or sources.mail in the config)")
	}

	return secrets.KeyringAccount(username, host), nil
}

func setMailPassword(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	account, err := mailAccount(cmd)
	if err != nil {
		logger.Fatal("resolving the keyring account", zap.Error(err))
	}

	passwordPrompt := promptui.Prompt{
		Label: "App password",
		Mask:  '*',
	}

	password, err := passwordPrompt.Run()
	if err != nil {
		logger.Fatal("reading the password", zap.Error(err))
	}

	if err := secrets.SetMailPassword(account, password); err != nil {
		logger.Fatal("storing the password", zap.Error(err))
	}

	logger.Info("mail password stored", zap.String("account", account))
}

func deleteMailPassword(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	account, err := mailAccount(cmd)
	if err != nil {
		logger.Fatal("resolving the keyring account", zap.Error(err))
	}

	if err := secrets.DeleteMailPassword(account); err != nil {
		logger.Fatal("removing the password", zap.Error(err))
	}

	logger.Info("mail password removed", zap.String("account", account))
}
