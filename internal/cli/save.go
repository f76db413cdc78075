package cli

import (
	"fmt"
	"strings"

	"github.com/rcliao/qrfield/internal/hook"
	"github.com/rcliao/qrfield/internal/model"
	"github.com/rcliao/qrfield/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "save [field=value ...]",
		Short: "Save record values and run the save hook",
		Long: `Save values into one instrument of a record the way a form submission does
(file upload fields are skipped), then run the save hook so @QRCODE
destinations on that instrument are rendered. With no assignments only the
hook runs.`,
		Run: runSave,
	}

	cmd.Flags().Int64P("pid", "p", 0, "Project id (required)")
	cmd.Flags().StringP("record", "r", "", "Record id (required)")
	cmd.Flags().StringP("form", "f", "", "Instrument name (required)")
	cmd.Flags().Int64P("event", "e", 0, "Event id (default: the project's first event)")
	cmd.Flags().IntP("instance", "i", 1, "Repeat instance")

	cmd.MarkFlagRequired("pid")
	cmd.MarkFlagRequired("record")
	cmd.MarkFlagRequired("form")

	RootCmd.AddCommand(cmd)
}

func runSave(cmd *cobra.Command, args []string) {
	pid, _ := cmd.Flags().GetInt64("pid")
	record, _ := cmd.Flags().GetString("record")
	form, _ := cmd.Flags().GetString("form")
	eventID, _ := cmd.Flags().GetInt64("event")
	instance, _ := cmd.Flags().GetInt("instance")

	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.Project(cmd.Context(), pid)
	if err != nil {
		exitErr("project", err)
	}
	if eventID == 0 {
		if len(p.Events) == 0 {
			exitErr("save", fmt.Errorf("project %d has no events", pid))
		}
		eventID = p.Events[0].ID
	}
	if _, ok := p.Event(eventID); !ok {
		exitErr("save", fmt.Errorf("unknown event %d", eventID))
	}

	loc := model.NewLocator(p, record, eventID, form, instance)
	var updates []model.FieldUpdate
	for _, a := range args {
		field, value, ok := strings.Cut(a, "=")
		if !ok || field == "" {
			exitErr("save", fmt.Errorf("invalid assignment %q (use field=value)", a))
		}
		updates = append(updates, model.FieldUpdate{Locator: loc, Field: field, Value: value})
	}

	saved, err := s.SaveData(cmd.Context(), pid, updates, store.SaveOptions{SkipFileUploadFields: true})
	if err != nil {
		exitErr("save", err)
	}

	outcomes, err := openModule(cfg, s).SaveRecord(cmd.Context(), hook.SaveEvent{
		ProjectID:  pid,
		Record:     record,
		Instrument: form,
		EventID:    eventID,
		Instance:   instance,
	})
	if err != nil {
		exitErr("save hook", err)
	}

	printJSON(map[string]interface{}{
		"ok":       true,
		"saved":    saved,
		"shape":    loc.Shape().String(),
		"outcomes": outcomes,
	})
}
