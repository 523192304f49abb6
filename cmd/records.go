package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kayz/contentkit/internal/persist"
)

var recordsLimit int

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect assemblies recorded with assemble --record",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent assemblies, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openRecords()
		if err != nil {
			return err
		}
		if store == nil {
			return printRecordList(cmd.OutOrStdout(), nil)
		}
		defer store.Close()

		list, err := store.ListAssemblies(recordsLimit)
		if err != nil {
			return err
		}
		return printRecordList(cmd.OutOrStdout(), list)
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the payload of one recorded assembly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openRecords()
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("assembly %s: %w", args[0], persist.ErrNotFound)
		}
		defer store.Close()

		a, err := store.GetAssembly(args[0])
		if err != nil {
			return err
		}
		return printRecord(cmd.OutOrStdout(), a)
	},
}

func init() {
	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", 20, "Maximum number of records to list")
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	rootCmd.AddCommand(recordsCmd)
}

// openRecords opens the records database. It returns a nil store when
// nothing has been recorded yet, so reading never creates the database.
func openRecords() (*persist.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	path := recordsPath(cfg.PromptBuild)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat records database: %w", err)
	}
	return persist.NewStore(path)
}

func printRecordList(w io.Writer, list []*persist.Assembly) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No recorded assemblies.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tPRESET\tITEMS")
	for _, a := range list {
		preset := a.Preset
		if preset == "" {
			preset = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", a.ID, a.CreatedAt.Local().Format("2006-01-02 15:04:05"), preset, a.ItemCount)
	}
	return tw.Flush()
}

func printRecord(w io.Writer, a *persist.Assembly) error {
	out := struct {
		ID        string          `json:"id"`
		CreatedAt string          `json:"created_at"`
		Preset    string          `json:"preset,omitempty"`
		Request   json.RawMessage `json:"request"`
		Payload   json.RawMessage `json:"payload"`
	}{
		ID:        a.ID,
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Preset:    a.Preset,
		Request:   json.RawMessage(a.RequestJSON),
		Payload:   json.RawMessage(a.PayloadJSON),
	}
	return writeJSON(w, out, true)
}
