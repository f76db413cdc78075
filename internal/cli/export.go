package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export all record values of a project as JSON",
		Run:   runExport,
	}
	exportCmd.Flags().Int64P("pid", "p", 0, "Project id (required)")
	exportCmd.MarkFlagRequired("pid")

	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Show the data log of a record, newest first",
		Run:   runLog,
	}
	logCmd.Flags().Int64P("pid", "p", 0, "Project id (required)")
	logCmd.Flags().StringP("record", "r", "", "Record id (required)")
	logCmd.MarkFlagRequired("pid")
	logCmd.MarkFlagRequired("record")

	RootCmd.AddCommand(exportCmd, logCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	pid, _ := cmd.Flags().GetInt64("pid")

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	data, err := s.Export(cmd.Context(), pid)
	if err != nil {
		exitErr("export", err)
	}
	printJSON(data.Rows())
}

func runLog(cmd *cobra.Command, args []string) {
	pid, _ := cmd.Flags().GetInt64("pid")
	record, _ := cmd.Flags().GetString("record")

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	revs, err := s.Revisions(cmd.Context(), pid, record)
	if err != nil {
		exitErr("log", err)
	}
	printJSON(revs)
}
