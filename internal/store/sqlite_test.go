package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rcliao/qrfield/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"), "")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testProject has a flat event (10), a repeating event (20) and an event
// with a repeating form (30).
func testProject() model.Project {
	return model.Project{
		ID:   7,
		Name: "Badges",
		Events: []model.Event{
			{ID: 10, Name: "baseline"},
			{ID: 20, Name: "visit", Repeating: true},
			{ID: 30, Name: "followup", RepeatingForms: []string{"badge"}},
		},
		Forms: []model.Form{
			{Name: "enrollment", Fields: []string{"record_id", "dob"}},
			{Name: "badge", Fields: []string{"badge_text", "badge_qr", "badge_inline"}},
		},
		Fields: map[string]model.Field{
			"record_id":    {Name: "record_id", Kind: model.KindText},
			"dob":          {Name: "dob", Kind: model.KindText, Validation: "date_ymd"},
			"badge_text":   {Name: "badge_text", Kind: model.KindText, Label: "Badge text"},
			"badge_qr":     {Name: "badge_qr", Kind: model.KindFile, Annotation: `@QRCODE="badge_text"`},
			"badge_inline": {Name: "badge_inline", Kind: model.KindText, Annotation: `@QRCODE='badge_text'`},
		},
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath, "")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
	if info, err := os.Stat(filepath.Join(dir, "sub", "dir", "edocs")); err != nil || !info.IsDir() {
		t.Error("expected default edoc dir next to the database")
	}
}

func TestImportAndLoadProject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.ImportProject(ctx, testProject()); err != nil {
		t.Fatalf("import: %v", err)
	}

	p, err := s.Project(ctx, 7)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if p.Name != "Badges" {
		t.Errorf("expected name 'Badges', got %q", p.Name)
	}
	if len(p.Forms) != 2 || p.Forms[1].Name != "badge" {
		t.Fatalf("expected forms in import order, got %+v", p.Forms)
	}
	if got := p.Forms[1].Fields; len(got) != 3 || got[0] != "badge_text" || got[2] != "badge_inline" {
		t.Errorf("expected badge fields in order, got %v", got)
	}
	qr := p.Fields["badge_qr"]
	if qr.Kind != model.KindFile || qr.Form != "badge" || qr.Annotation != `@QRCODE="badge_text"` {
		t.Errorf("field not persisted correctly: %+v", qr)
	}
	if p.Fields["dob"].Validation != "date_ymd" {
		t.Errorf("expected validation to persist, got %q", p.Fields["dob"].Validation)
	}
	if !p.IsRepeatingEvent(20) || p.IsRepeatingEvent(10) {
		t.Error("repeating event flags not persisted")
	}
	if !p.IsRepeatingForm(30, "badge") || p.IsRepeatingForm(30, "enrollment") {
		t.Error("repeating form setup not persisted")
	}
}

func TestImportReplacesMetadata(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.ImportProject(ctx, testProject())

	next := testProject()
	next.Name = "Badges v2"
	next.Forms = next.Forms[:1]
	next.Events = next.Events[:1]
	if err := s.ImportProject(ctx, next); err != nil {
		t.Fatalf("reimport: %v", err)
	}

	p, _ := s.Project(ctx, 7)
	if p.Name != "Badges v2" {
		t.Errorf("expected renamed project, got %q", p.Name)
	}
	if p.HasForm("badge") {
		t.Error("expected badge form to be removed")
	}
	if len(p.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(p.Events))
	}

	list, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Forms != 1 || list[0].Fields != 2 {
		t.Errorf("unexpected summary: %+v", list)
	}
}

func TestImportProjectsSharingEventIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := model.Project{
		ID:     1,
		Name:   "Screening",
		Events: []model.Event{{ID: 1, Name: "event_1", RepeatingForms: []string{"visit"}}},
		Forms:  []model.Form{{Name: "visit", Fields: []string{"visit_code"}}},
		Fields: map[string]model.Field{"visit_code": {Name: "visit_code", Kind: model.KindText}},
	}
	second := model.Project{
		ID:     2,
		Name:   "Registry",
		Events: []model.Event{{ID: 1, Name: "event_1", Repeating: true}},
		Forms:  []model.Form{{Name: "intake", Fields: []string{"intake_code"}}},
		Fields: map[string]model.Field{"intake_code": {Name: "intake_code", Kind: model.KindText}},
	}
	for _, p := range []model.Project{first, second} {
		if err := s.ImportProject(ctx, p); err != nil {
			t.Fatalf("import project %d: %v", p.ID, err)
		}
	}
	// reimporting one must not touch the other's events
	if err := s.ImportProject(ctx, first); err != nil {
		t.Fatalf("reimport project 1: %v", err)
	}

	p1, err := s.Project(ctx, 1)
	if err != nil {
		t.Fatalf("load project 1: %v", err)
	}
	p2, err := s.Project(ctx, 2)
	if err != nil {
		t.Fatalf("load project 2: %v", err)
	}

	if len(p1.Events) != 1 || len(p2.Events) != 1 {
		t.Fatalf("expected one event each, got %d and %d", len(p1.Events), len(p2.Events))
	}
	if p1.IsRepeatingEvent(1) || !p1.IsRepeatingForm(1, "visit") {
		t.Errorf("project 1 event flags wrong: %+v", p1.Events[0])
	}
	if !p2.IsRepeatingEvent(1) || len(p2.Events[0].RepeatingForms) != 0 {
		t.Errorf("project 2 event flags wrong: %+v", p2.Events[0])
	}
}

func TestImportRejectsUnknownField(t *testing.T) {
	s := newTestStore(t)
	p := testProject()
	p.Forms[0].Fields = append(p.Forms[0].Fields, "ghost")

	err := s.ImportProject(context.Background(), p)
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestProjectNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Project(context.Background(), 99)
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.ImportProject(ctx, testProject())
	s.SaveData(ctx, 7, []model.FieldUpdate{
		{Locator: model.Locator{Record: "1", EventID: 10, Instance: 1}, Field: "badge_text", Value: "a"},
		{Locator: model.Locator{Record: "2", EventID: 10, Instance: 1}, Field: "badge_text", Value: "b"},
	}, SaveOptions{})

	st, err := s.Stats(ctx, "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Projects != 1 || st.Values != 2 || st.Revisions != 2 {
		t.Errorf("unexpected stats: %+v", st)
	}
	if len(st.PerProject) != 1 || st.PerProject[0].Records != 2 {
		t.Errorf("unexpected per-project stats: %+v", st.PerProject)
	}
}
