package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a record's values for one event",
		Run:   runGet,
	}

	cmd.Flags().Int64P("pid", "p", 0, "Project id (required)")
	cmd.Flags().StringP("record", "r", "", "Record id (required)")
	cmd.Flags().Int64P("event", "e", 0, "Event id (required)")
	cmd.Flags().StringSlice("fields", nil, "Only these fields")

	cmd.MarkFlagRequired("pid")
	cmd.MarkFlagRequired("record")
	cmd.MarkFlagRequired("event")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	pid, _ := cmd.Flags().GetInt64("pid")
	record, _ := cmd.Flags().GetString("record")
	eventID, _ := cmd.Flags().GetInt64("event")
	fields, _ := cmd.Flags().GetStringSlice("fields")

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	data, err := s.GetData(cmd.Context(), pid, record, eventID, fields)
	if err != nil {
		exitErr("get", err)
	}
	printJSON(data.Rows())
}
