package main

import (
	"bufio"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leadhunt-engine/internal/inbox"
	"leadhunt-engine/internal/secrets"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "IMAP lead-notification intake",
}

var inboxRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the mailbox once and store the leads it contains",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if !cfg.Inbox.Enabled {
			return eris.New("inbox is disabled (set inbox.enabled=true)")
		}

		dir, err := dataDir()
		if err != nil {
			return err
		}
		st, err := openStore(ctx, dir)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sink, err := contactSink(st)
		if err != nil {
			return err
		}
		loc, _, err := loadLocale(dir, "")
		if err != nil {
			return err
		}

		runner := inbox.NewRunner(cfg.Inbox, newPipeline(loc, sink, nil), nil, secrets.IMAPPassword)
		sum, err := runner.RunOnce(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	},
}

var inboxSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the IMAP app password in the OS keychain (read from stdin)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return eris.Wrap(err, "read password")
		}
		if err := secrets.SetIMAPPassword(cfg.Inbox, strings.TrimRight(line, "\r\n")); err != nil {
			return err
		}
		zap.L().Info("inbox: password stored", zap.String("account", secrets.IMAPKeyringAccount(cfg.Inbox)))
		return nil
	},
}

var inboxDeletePasswordCmd = &cobra.Command{
	Use:   "delete-password",
	Short: "Remove the IMAP app password from the OS keychain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return secrets.DeleteIMAPPassword(cfg.Inbox)
	},
}

func init() {
	inboxCmd.AddCommand(inboxRunCmd, inboxSetPasswordCmd, inboxDeletePasswordCmd)
	rootCmd.AddCommand(inboxCmd)
}
