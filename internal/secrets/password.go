package secrets

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"

	"leadhunt-engine/internal/config"
)

// KeyringService groups the engine's secrets in the OS keychain.
const KeyringService = "leadhunt"

var ErrNoPassword = eris.New("IMAP password not found (set it in the keychain or inbox.app_password)")

// IMAPPassword returns the keychain password, falling back to the configured
// app password.
func IMAPPassword(cfg config.InboxConfig) (string, error) {
	if pw, err := keyring.Get(KeyringService, IMAPKeyringAccount(cfg)); err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	if pw := strings.TrimSpace(cfg.AppPassword); pw != "" {
		return pw, nil
	}
	return "", ErrNoPassword
}

func SetIMAPPassword(cfg config.InboxConfig, password string) error {
	if strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.IMAPHost) == "" {
		return eris.New("secrets: inbox.username and inbox.imap_host are required")
	}
	if strings.TrimSpace(password) == "" {
		return eris.New("secrets: password is empty")
	}
	return eris.Wrap(keyring.Set(KeyringService, IMAPKeyringAccount(cfg), password), "secrets: keyring set")
}

func DeleteIMAPPassword(cfg config.InboxConfig) error {
	err := keyring.Delete(KeyringService, IMAPKeyringAccount(cfg))
	if eris.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return eris.Wrap(err, "secrets: keyring delete")
}

func IMAPKeyringAccount(cfg config.InboxConfig) string {
	return fmt.Sprintf("leadhunt:imap:%s@%s", cfg.Username, cfg.IMAPHost)
}
