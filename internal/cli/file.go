package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	fileCmd := &cobra.Command{
		Use:   "file",
		Short: "Stored file access",
	}

	getCmd := &cobra.Command{
		Use:   "get [doc-id]",
		Short: "Write a stored file to a path or stdout",
		Args:  cobra.ExactArgs(1),
		Run:   runFileGet,
	}
	getCmd.Flags().StringP("out", "o", "", "Output path (default: stdout)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's stored files, deleted ones included",
		Run:   runFileList,
	}
	listCmd.Flags().Int64P("pid", "p", 0, "Project id (required)")
	listCmd.MarkFlagRequired("pid")

	fileCmd.AddCommand(getCmd, listCmd)
	RootCmd.AddCommand(fileCmd)
}

func runFileGet(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("out")

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rc, f, err := s.OpenFile(cmd.Context(), args[0])
	if err != nil {
		exitErr("file", err)
	}
	defer rc.Close()

	if out == "" {
		if _, err := io.Copy(os.Stdout, rc); err != nil {
			exitErr("write", err)
		}
		return
	}

	dst, err := os.Create(out)
	if err != nil {
		exitErr("create", err)
	}
	if _, err := io.Copy(dst, rc); err != nil {
		dst.Close()
		exitErr("write", err)
	}
	if err := dst.Close(); err != nil {
		exitErr("write", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%s, %d bytes)\n", out, f.Name, f.Size)
}

func runFileList(cmd *cobra.Command, args []string) {
	pid, _ := cmd.Flags().GetInt64("pid")

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	files, err := s.ListFiles(cmd.Context(), pid)
	if err != nil {
		exitErr("list files", err)
	}
	if len(files) == 0 {
		fmt.Println("[]")
		return
	}
	printJSON(files)
}
