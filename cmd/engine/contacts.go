package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leadhunt-engine/internal/export"
	"leadhunt-engine/internal/store"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Inspect and maintain stored contacts",
}

func listOptsFromFlags(cmd *cobra.Command) store.ListOpts {
	sort, _ := cmd.Flags().GetString("sort")
	window, _ := cmd.Flags().GetString("window")
	limit, _ := cmd.Flags().GetInt("limit")
	return store.ListOpts{Sort: sort, Window: window, Limit: limit}
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored contacts as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), dir)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		contacts, err := st.ListContacts(cmd.Context(), listOptsFromFlags(cmd))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(contacts)
	},
}

var contactsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored contacts to an .xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("out")

		dir, err := dataDir()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), dir)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		contacts, err := st.ListContacts(cmd.Context(), listOptsFromFlags(cmd))
		if err != nil {
			return err
		}

		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "create %s", out)
		}
		if err := export.WriteContactsXLSX(f, contacts); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", out)
		}
		zap.L().Info("contacts: exported", zap.String("file", out), zap.Int("rows", len(contacts)))
		return nil
	},
}

var contactsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete contacts older than --days",
	RunE: func(cmd *cobra.Command, _ []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if days < 1 {
			return eris.New("--days must be >= 1")
		}

		dir, err := dataDir()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), dir)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.CleanupOldContacts(cmd.Context(), time.Now().AddDate(0, 0, -days))
		if err != nil {
			return err
		}
		zap.L().Info("contacts: cleanup done", zap.Int64("deleted", n), zap.Int("days", days))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{contactsListCmd, contactsExportCmd} {
		c.Flags().String("sort", "score", "score, date, company or name")
		c.Flags().String("window", "all", "24h, 7d or all")
		c.Flags().Int("limit", 0, "maximum rows (default 500)")
	}
	contactsExportCmd.Flags().String("out", "contacts.xlsx", "output file")
	contactsCleanupCmd.Flags().Int("days", 90, "age in days")

	contactsCmd.AddCommand(contactsListCmd, contactsExportCmd, contactsCleanupCmd)
	rootCmd.AddCommand(contactsCmd)
}
