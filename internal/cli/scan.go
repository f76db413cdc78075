package cli

import (
	"fmt"

	"github.com/rcliao/qrfield/internal/actiontag"
	"github.com/spf13/cobra"
)

func init() {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "List the @QRCODE directives of a form",
		Run:   runScan,
	}
	scanCmd.Flags().Int64P("pid", "p", 0, "Project id (required)")
	scanCmd.Flags().StringP("form", "f", "", "Instrument name (required)")
	scanCmd.MarkFlagRequired("pid")
	scanCmd.MarkFlagRequired("form")

	pageCmd := &cobra.Command{
		Use:   "page-top",
		Short: "Print the page snippet a form view would include",
		Run:   runPageTop,
	}
	pageCmd.Flags().Int64P("pid", "p", 0, "Project id (required)")
	pageCmd.Flags().StringP("form", "f", "", "Instrument name (required)")
	pageCmd.Flags().Bool("survey", false, "Render for a survey page instead of a data entry form")
	pageCmd.MarkFlagRequired("pid")
	pageCmd.MarkFlagRequired("form")

	RootCmd.AddCommand(scanCmd, pageCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	pid, _ := cmd.Flags().GetInt64("pid")
	form, _ := cmd.Flags().GetString("form")

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.Project(cmd.Context(), pid)
	if err != nil {
		exitErr("project", err)
	}

	directives := actiontag.Scan(p, form)
	if len(directives) == 0 {
		fmt.Println("[]")
		return
	}
	printJSON(directives)
}

func runPageTop(cmd *cobra.Command, args []string) {
	pid, _ := cmd.Flags().GetInt64("pid")
	form, _ := cmd.Flags().GetString("form")
	survey, _ := cmd.Flags().GetBool("survey")

	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m := openModule(cfg, s)
	var snippet string
	if survey {
		snippet, err = m.SurveyPageTop(cmd.Context(), pid, form)
	} else {
		snippet, err = m.DataEntryFormTop(cmd.Context(), pid, form)
	}
	if err != nil {
		exitErr("page-top", err)
	}
	if snippet != "" {
		fmt.Println(snippet)
	}
}
