package cli

import (
	"fmt"

	"github.com/rcliao/qrfield/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Project metadata management",
	}

	importCmd := &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Import a project data dictionary",
		Long:  "Create or replace a project's events, forms and fields from a YAML data dictionary. Record data is kept.",
		Args:  cobra.ExactArgs(1),
		Run:   runProjectImport,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show a project's metadata",
		Run:   runProjectShow,
	}
	showCmd.Flags().Int64P("pid", "p", 0, "Project id (required)")
	showCmd.MarkFlagRequired("pid")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Run:   runProjectList,
	}

	projectCmd.AddCommand(importCmd, showCmd, listCmd)
	RootCmd.AddCommand(projectCmd)
}

func runProjectImport(cmd *cobra.Command, args []string) {
	p, err := config.LoadProject(args[0])
	if err != nil {
		exitErr("read project", err)
	}

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.ImportProject(cmd.Context(), p); err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"project_id":%d,"forms":%d,"fields":%d}`+"\n", p.ID, len(p.Forms), len(p.Fields))
}

func runProjectShow(cmd *cobra.Command, args []string) {
	pid, _ := cmd.Flags().GetInt64("pid")

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.Project(cmd.Context(), pid)
	if err != nil {
		exitErr("project", err)
	}
	printJSON(p)
}

func runProjectList(cmd *cobra.Command, args []string) {
	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	list, err := s.ListProjects(cmd.Context())
	if err != nil {
		exitErr("list projects", err)
	}
	if len(list) == 0 {
		fmt.Println("[]")
		return
	}
	printJSON(list)
}
