package secrets

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the application's secrets in the OS keychain.
const KeyringService = "jobapplier"

// KeyringAccount builds the keychain account name for an IMAP mailbox.
func KeyringAccount(username, host string) string {
	return fmt.Sprintf("imap:%s@%s", username, host)
}

// GetMailPassword reads the mailbox password stored in the OS keychain under
// the provided account name.
func GetMailPassword(account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", fmt.Errorf("keyring account name is not configured")
	}

	password, err := keyring.Get(KeyringService, account)
	if err != nil {
		return "", fmt.Errorf("reading mail password for %q from keyring: %w", account, err)
	}

	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("mail password for %q is empty", account)
	}

	return password, nil
}

// SetMailPassword stores the mailbox password in the OS keychain under the
// provided account name.
func SetMailPassword(account, password string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return fmt.Errorf("keyring account name is not configured")
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("mail password is empty")
	}

	if err := keyring.Set(KeyringService, account, password); err != nil {
		return fmt.Errorf("storing mail password for %q in keyring: %w", account, err)
	}

	return nil
}

// DeleteMailPassword removes the mailbox password stored under the provided
// account name from the OS keychain.
func DeleteMailPassword(account string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return fmt.Errorf("keyring account name is not configured")
	}

	if err := keyring.Delete(KeyringService, account); err != nil {
		return fmt.Errorf("deleting mail password for %q from keyring: %w", account, err)
	}

	return nil
}
