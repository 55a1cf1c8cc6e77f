package commands_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simpletodo/internal/backend/googletasks"
	"simpletodo/internal/commands"
	"simpletodo/internal/config"
	"simpletodo/internal/exitcode"
	"simpletodo/internal/repository"
	"simpletodo/internal/service"
	"simpletodo/internal/testutil"
)

// runCommand is a helper to run a command against svc.
func runCommand(t *testing.T, cmd commands.Command, svc service.Service, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, svc, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// newRepo returns a repository over a fake store holding texts as a stored
// collection numbered from 1, the way a list looks once its first task is gone.
func newRepo(t *testing.T, texts []string, done ...int) (*repository.Repository, *testutil.FakeStore) {
	t.Helper()
	store := testutil.NewFakeStore()
	if len(texts) > 0 {
		isDone := make(map[int]bool, len(done))
		for _, i := range done {
			isDone[i] = true
		}
		tasks := make([]service.Task, len(texts))
		for i, text := range texts {
			tasks[i] = service.Task{ID: service.ID(i + 1), Text: text, IsDone: isDone[i]}
		}
		data, err := repository.Encode(tasks)
		if err != nil {
			t.Fatal(err)
		}
		store.Seed(t, string(data))
	}
	return testutil.NewRepository(t, store), store
}

func expectResult(t *testing.T, gotOut, gotErr string, gotCode int, wantOut, wantErr string, wantCode int) {
	t.Helper()
	if gotCode != wantCode {
		t.Errorf("expected exit code %d, got %d", wantCode, gotCode)
	}
	if gotOut != wantOut {
		t.Errorf("expected stdout %q, got %q", wantOut, gotOut)
	}
	if gotErr != wantErr {
		t.Errorf("expected stderr %q, got %q", wantErr, gotErr)
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)
	expectResult(t, stdout, stderr, code, "todo 0.1.0\n", "", exitcode.Success)
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{"Usage:", "todo add", "todo serve", "--namespace"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

// Tests for list command
func TestListCommand_WithTasks(t *testing.T) {
	repo, _ := newRepo(t, []string{"Buy milk", "Buy eggs"}, 1)

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, repo, nil, false)
	expectResult(t, stdout, stderr, code, "   1  [ ] Buy milk\n   2  [x] Buy eggs\n", "", exitcode.Success)
}

func TestListCommand_Filters(t *testing.T) {
	repo, _ := newRepo(t, []string{"Buy milk", "Buy eggs"}, 1)

	cmd := &commands.ListCmd{}
	cmd.SetFilter(true, false)
	stdout, _, _ := runCommand(t, cmd, repo, nil, false)
	if stdout != "   1  [ ] Buy milk\n" {
		t.Errorf("--open: got %q", stdout)
	}

	cmd.SetFilter(false, true)
	stdout, _, _ = runCommand(t, cmd, repo, nil, false)
	if stdout != "   2  [x] Buy eggs\n" {
		t.Errorf("--done: got %q", stdout)
	}

	cmd.SetFilter(true, true)
	stdout, stderr, code := runCommand(t, cmd, repo, nil, false)
	expectResult(t, stdout, stderr, code, "", "error: cannot use both --open and --done\n", exitcode.UserError)
}

func TestListCommand_Empty(t *testing.T) {
	repo, _ := newRepo(t, nil)

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, repo, nil, false)
	expectResult(t, stdout, stderr, code, "no tasks found\n", "", exitcode.Success)

	stdout, stderr, code = runCommand(t, &commands.ListCmd{}, repo, nil, true)
	expectResult(t, stdout, stderr, code, "", "", exitcode.Success)
}

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	repo, store := newRepo(t, []string{"first"})

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, repo, []string{"Buy", "milk"}, false)
	expectResult(t, stdout, stderr, code, "ok 2\n", "", exitcode.Success)

	task, err := repo.Get(2)
	if err != nil || task.Text != "Buy milk" || task.IsDone {
		t.Errorf("unexpected task %+v, %v", task, err)
	}
	if !strings.Contains(store.Raw(t), `"text":"Buy milk"`) {
		t.Errorf("task not persisted: %s", store.Raw(t))
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	repo, _ := newRepo(t, nil)

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, repo, []string{"milk"}, true)
	expectResult(t, stdout, stderr, code, "", "", exitcode.Success)
}

func TestAddCommand_NoText(t *testing.T) {
	repo, store := newRepo(t, nil)

	for _, args := range [][]string{nil, {"  "}} {
		stdout, stderr, code := runCommand(t, &commands.AddCmd{}, repo, args, false)
		expectResult(t, stdout, stderr, code, "", "error: task text required\n", exitcode.UserError)
	}
	if store.Puts() != 0 {
		t.Errorf("expected no writes, got %d", store.Puts())
	}
}

func TestAddCommand_StorageFailure(t *testing.T) {
	repo, store := newRepo(t, nil)
	store.PutErr = errors.New("disk full")

	_, stderr, code := runCommand(t, &commands.AddCmd{}, repo, []string{"milk"}, false)
	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.HasPrefix(stderr, "error: backend error:") || !strings.Contains(stderr, "disk full") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if len(repo.List()) != 0 {
		t.Error("task kept after failed write")
	}
}

// Tests for show command
func TestShowCommand(t *testing.T) {
	repo, _ := newRepo(t, []string{"milk"}, 0)

	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, repo, []string{"1"}, false)
	if code != exitcode.Success || stderr != "" {
		t.Fatalf("unexpected result %d %q", code, stderr)
	}
	if !strings.Contains(stdout, "status: done") || !strings.Contains(stdout, "text:   milk") {
		t.Errorf("unexpected details %q", stdout)
	}
}

// Tests for id errors shared by every id-taking command
func TestIDErrors(t *testing.T) {
	cmds := []commands.Command{
		&commands.ShowCmd{},
		&commands.DoneCmd{},
		&commands.UndoCmd{},
		&commands.ToggleCmd{},
		&commands.RmCmd{},
	}
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no id", nil, "error: task id required\n"},
		{"malformed", []string{"x"}, "error: invalid task id: x\n"},
		{"not found", []string{"7"}, "error: task not found: 7\n"},
	}
	for _, cmd := range cmds {
		for _, tt := range tests {
			t.Run(cmd.Name()+"/"+tt.name, func(t *testing.T) {
				repo, _ := newRepo(t, []string{"milk"})
				stdout, stderr, code := runCommand(t, cmd, repo, tt.args, false)
				expectResult(t, stdout, stderr, code, "", tt.wantErr, exitcode.UserError)
			})
		}
	}
}

// Tests for done, undo and toggle
func TestDoneCommand_Success(t *testing.T) {
	repo, _ := newRepo(t, []string{"a", "b", "c"})

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, repo, []string{"1", "3"}, false)
	expectResult(t, stdout, stderr, code, "ok\n", "", exitcode.Success)

	for id, want := range map[service.ID]bool{1: true, 2: false, 3: true} {
		task, _ := repo.Get(id)
		if task.IsDone != want {
			t.Errorf("task %d: expected done=%v", id, want)
		}
	}
}

func TestDoneCommand_MalformedIDAppliesNothing(t *testing.T) {
	repo, store := newRepo(t, []string{"a"})
	before := store.Puts()

	_, _, code := runCommand(t, &commands.DoneCmd{}, repo, []string{"1", "two"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if task, _ := repo.Get(1); task.IsDone {
		t.Error("task 1 changed despite malformed second id")
	}
	if store.Puts() != before {
		t.Error("store written despite malformed id")
	}
}

func TestDoneCommand_AlreadyDoneDoesNotWrite(t *testing.T) {
	repo, store := newRepo(t, []string{"a"}, 0)
	before := store.Puts()

	_, _, code := runCommand(t, &commands.DoneCmd{}, repo, []string{"1"}, true)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if store.Puts() != before {
		t.Error("no-op update was persisted")
	}
}

func TestUndoCommand(t *testing.T) {
	repo, _ := newRepo(t, []string{"a"}, 0)

	_, _, code := runCommand(t, &commands.UndoCmd{}, repo, []string{"1"}, true)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if task, _ := repo.Get(1); task.IsDone {
		t.Error("undo did not reopen the task")
	}
}

func TestToggleCommand(t *testing.T) {
	repo, _ := newRepo(t, []string{"a", "b"}, 1)

	_, _, code := runCommand(t, &commands.ToggleCmd{}, repo, []string{"1", "2"}, true)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	a, _ := repo.Get(1)
	b, _ := repo.Get(2)
	if !a.IsDone || b.IsDone {
		t.Errorf("toggle did not flip both tasks: %+v %+v", a, b)
	}
}

// Tests for edit command
func TestEditCommand(t *testing.T) {
	repo, _ := newRepo(t, []string{"milk"})

	stdout, stderr, code := runCommand(t, &commands.EditCmd{}, repo, []string{"1", "oat", "milk"}, false)
	expectResult(t, stdout, stderr, code, "ok\n", "", exitcode.Success)
	if task, _ := repo.Get(1); task.Text != "oat milk" {
		t.Errorf("expected text %q, got %q", "oat milk", task.Text)
	}

	stdout, stderr, code = runCommand(t, &commands.EditCmd{}, repo, []string{"1"}, false)
	expectResult(t, stdout, stderr, code, "", "error: task text required\n", exitcode.UserError)

	stdout, stderr, code = runCommand(t, &commands.EditCmd{}, repo, []string{"9", "x"}, false)
	expectResult(t, stdout, stderr, code, "", "error: task not found: 9\n", exitcode.UserError)
}

// Tests for rm command
func TestRmCommand_Success(t *testing.T) {
	repo, _ := newRepo(t, []string{"a", "b", "c"})

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, repo, []string{"3", "1"}, false)
	expectResult(t, stdout, stderr, code, "ok\n", "", exitcode.Success)

	got := repo.List()
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("unexpected remaining tasks %+v", got)
	}
}

func TestRmCommand_AbsentIDDeletesNothing(t *testing.T) {
	repo, store := newRepo(t, []string{"a", "b"})
	before := store.Puts()

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, repo, []string{"1", "99"}, false)
	expectResult(t, stdout, stderr, code, "", "error: task not found: 99\n", exitcode.UserError)
	if len(repo.List()) != 2 {
		t.Errorf("tasks deleted despite absent id: %+v", repo.List())
	}
	if store.Puts() != before {
		t.Error("store written despite absent id")
	}
}

func TestRmCommand_RepeatedID(t *testing.T) {
	repo, _ := newRepo(t, []string{"a", "b"})

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, repo, []string{"1", "1"}, false)
	expectResult(t, stdout, stderr, code, "ok\n", "", exitcode.Success)
	if got := repo.List(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("unexpected remaining tasks %+v", got)
	}
}

func TestDoneCommand_AbsentIDChangesNothing(t *testing.T) {
	for _, cmd := range []commands.Command{&commands.DoneCmd{}, &commands.ToggleCmd{}} {
		t.Run(cmd.Name(), func(t *testing.T) {
			repo, store := newRepo(t, []string{"a"})
			before := store.Puts()

			stdout, stderr, code := runCommand(t, cmd, repo, []string{"1", "99"}, false)
			expectResult(t, stdout, stderr, code, "", "error: task not found: 99\n", exitcode.UserError)
			if task, _ := repo.Get(1); task.IsDone {
				t.Error("task 1 changed despite absent second id")
			}
			if store.Puts() != before {
				t.Error("store written despite absent id")
			}
		})
	}
}

func TestAddCommand_FirstIDIsZero(t *testing.T) {
	repo, _ := newRepo(t, nil)

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, repo, []string{"milk"}, false)
	expectResult(t, stdout, stderr, code, "ok 0\n", "", exitcode.Success)
}

// Tests for find command
func TestFindCommand(t *testing.T) {
	repo, _ := newRepo(t, []string{"buy milk", "walk dog", "milk the cow"}, 2)

	stdout, stderr, code := runCommand(t, &commands.FindCmd{}, repo, []string{"milk"}, false)
	if code != exitcode.Success || stderr != "" {
		t.Fatalf("unexpected result %d %q", code, stderr)
	}
	if !strings.Contains(stdout, "buy milk") || !strings.Contains(stdout, "milk the cow") || strings.Contains(stdout, "walk dog") {
		t.Errorf("unexpected hits %q", stdout)
	}

	stdout, _, _ = runCommand(t, &commands.FindCmd{}, repo, []string{"zebra"}, false)
	if stdout != "no tasks found\n" {
		t.Errorf("expected no hits, got %q", stdout)
	}

	stdout, stderr, code = runCommand(t, &commands.FindCmd{}, repo, nil, false)
	expectResult(t, stdout, stderr, code, "", "error: search query required\n", exitcode.UserError)
}

// Tests for export and import
func TestExportCommand_JSONToStdout(t *testing.T) {
	repo, _ := newRepo(t, []string{"milk"}, 0)

	stdout, stderr, code := runCommand(t, &commands.ExportCmd{}, repo, nil, false)
	if code != exitcode.Success || stderr != "" {
		t.Fatalf("unexpected result %d %q", code, stderr)
	}
	want := "[\n  {\n    \"text\": \"milk\",\n    \"id\": 1,\n    \"isDone\": true\n  }\n]\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			src, _ := newRepo(t, []string{"milk", "eggs"}, 1)
			path := filepath.Join(t.TempDir(), "tasks"+ext)

			exp := &commands.ExportCmd{}
			newFlagSet(exp, "--output", path)
			stdout, stderr, code := runCommand(t, exp, src, nil, false)
			expectResult(t, stdout, stderr, code, "ok 2\n", "", exitcode.Success)

			dst, _ := newRepo(t, []string{"existing"})
			stdout, stderr, code = runCommand(t, &commands.ImportCmd{}, dst, []string{path}, false)
			expectResult(t, stdout, stderr, code, "ok 2\n", "", exitcode.Success)

			got := dst.List()
			if len(got) != 3 {
				t.Fatalf("expected 3 tasks, got %+v", got)
			}
			if got[1].ID != 2 || got[1].Text != "milk" || got[1].IsDone {
				t.Errorf("unexpected first import %+v", got[1])
			}
			if got[2].ID != 3 || got[2].Text != "eggs" || !got[2].IsDone {
				t.Errorf("unexpected second import %+v", got[2])
			}
		})
	}
}

func TestExportCommand_PDFNeedsOutput(t *testing.T) {
	repo, _ := newRepo(t, nil)
	cmd := &commands.ExportCmd{}
	newFlagSet(cmd, "--format", "pdf")

	stdout, stderr, code := runCommand(t, cmd, repo, nil, false)
	expectResult(t, stdout, stderr, code, "", "error: pdf export needs --output\n", exitcode.UserError)
}

func TestExportCommand_PDFFile(t *testing.T) {
	repo, _ := newRepo(t, []string{"milk"})
	path := filepath.Join(t.TempDir(), "tasks.pdf")
	cmd := &commands.ExportCmd{}
	newFlagSet(cmd, "-o", path)

	_, stderr, code := runCommand(t, cmd, repo, nil, true)
	if code != exitcode.Success {
		t.Fatalf("expected success, got %d %q", code, stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestImportCommand_BlankRecordAddsNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	if err := os.WriteFile(path, []byte(`[{"text":"ok"},{"text":"  "}]`), 0600); err != nil {
		t.Fatal(err)
	}
	repo, store := newRepo(t, nil)

	stdout, stderr, code := runCommand(t, &commands.ImportCmd{}, repo, []string{path}, false)
	expectResult(t, stdout, stderr, code, "", "error: record 2 has no text\n", exitcode.UserError)
	if store.Puts() != 0 {
		t.Error("import wrote despite invalid record")
	}
}

func TestImportCommand_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	if err := os.WriteFile(path, []byte(`{"text":"not an array"}`), 0600); err != nil {
		t.Fatal(err)
	}
	repo, _ := newRepo(t, nil)

	_, stderr, code := runCommand(t, &commands.ImportCmd{}, repo, []string{path}, false)
	if code != exitcode.UserError || !strings.HasPrefix(stderr, "error: invalid json file:") {
		t.Errorf("unexpected result %d %q", code, stderr)
	}
}

// fakeGoogle serves canned lists for import --google.
type fakeGoogle struct {
	lists map[string][]googletasks.RemoteTask
	err   error
}

func (f *fakeGoogle) ResolveList(ctx context.Context, name string) (googletasks.TaskList, error) {
	if f.err != nil {
		return googletasks.TaskList{}, f.err
	}
	if name == "" {
		name = googletasks.DefaultListID
	}
	if _, ok := f.lists[name]; !ok {
		return googletasks.TaskList{}, googletasks.ErrListNotFound
	}
	return googletasks.TaskList{ID: name, Title: name}, nil
}

func (f *fakeGoogle) OpenTasks(ctx context.Context, listID string) ([]googletasks.RemoteTask, error) {
	return f.lists[listID], nil
}

func TestImportCommand_Google(t *testing.T) {
	repo, _ := newRepo(t, []string{"local"})
	cmd := &commands.ImportCmd{}
	newFlagSet(cmd, "--google", "--list", "Groceries")
	cmd.SetGoogleSource(&fakeGoogle{lists: map[string][]googletasks.RemoteTask{
		"Groceries": {{ID: "a", Title: "milk"}, {ID: "b", Title: " "}, {ID: "c", Title: "eggs"}},
	}})

	stdout, stderr, code := runCommand(t, cmd, repo, nil, false)
	expectResult(t, stdout, stderr, code, "ok 2\n", "", exitcode.Success)

	got := repo.List()
	if len(got) != 3 || got[1].Text != "milk" || got[2].Text != "eggs" || got[2].IsDone {
		t.Errorf("unexpected tasks %+v", got)
	}
}

func TestImportCommand_GoogleErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      *fakeGoogle
		wantErr  string
		wantCode int
	}{
		{"missing list", &fakeGoogle{}, "error: list not found: Groceries\n", exitcode.UserError},
		{"auth", &fakeGoogle{err: googletasks.ErrAuth}, "error: auth error: " + googletasks.ErrAuth.Error() + "\n", exitcode.AuthError},
		{"ambiguous", &fakeGoogle{err: googletasks.ErrAmbiguousList}, "error: ambiguous list name: Groceries\n", exitcode.UserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := newRepo(t, nil)
			cmd := &commands.ImportCmd{}
			newFlagSet(cmd, "--google", "--list", "Groceries")
			cmd.SetGoogleSource(tt.src)

			stdout, stderr, code := runCommand(t, cmd, repo, nil, false)
			expectResult(t, stdout, stderr, code, "", tt.wantErr, tt.wantCode)
		})
	}
}

func TestImportCommand_GoogleNotLoggedIn(t *testing.T) {
	repo, _ := newRepo(t, nil)
	cmd := &commands.ImportCmd{}
	newFlagSet(cmd, "--google")

	_, stderr, code := runCommand(t, cmd, repo, nil, false)
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "oauth_client.json not found") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for serve command
func TestServeCommand_StopsWithContext(t *testing.T) {
	repo, _ := newRepo(t, nil)
	cmd := &commands.ServeCmd{}
	newFlagSet(cmd, "--addr", "127.0.0.1:0")

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := cmd.Run(ctx, cfg, repo, nil, &outBuf, &errBuf)
	expectResult(t, outBuf.String(), errBuf.String(), code, "listening on http://127.0.0.1:0\n", "", exitcode.Success)
}
