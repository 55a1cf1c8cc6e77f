package tui_test

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"simpletodo/internal/repository"
	"simpletodo/internal/service"
	"simpletodo/internal/testutil"
	"simpletodo/internal/tui"
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = keys(" ")
)

// send feeds msgs through Update in order and returns the final model.
func send(t *testing.T, m tui.Model, msgs ...tea.Msg) tui.Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(tui.Model)
	}
	return m
}

func setup(t *testing.T, texts ...string) (tui.Model, *repository.Repository, *testutil.FakeStore) {
	t.Helper()
	store := testutil.NewFakeStore()
	repo := testutil.NewRepository(t, store)
	testutil.SeedTasks(t, repo, texts)
	return tui.New(repo), repo, store
}

func TestNavigation(t *testing.T) {
	m, _, _ := setup(t, "one", "two", "three")

	m = send(t, m, keys("j"), keys("j"), keys("j"))
	if m.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.Cursor())
	}
	m = send(t, m, keys("k"), tea.KeyMsg{Type: tea.KeyUp}, keys("k"))
	if m.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursor())
	}
	m = send(t, m, keys("G"))
	if m.Cursor() != 2 {
		t.Errorf("cursor after G = %d, want 2", m.Cursor())
	}
}

func TestToggle(t *testing.T) {
	m, repo, _ := setup(t, "one", "two")

	m = send(t, m, keys("j"), space)
	task, _ := repo.Get(1)
	if !task.IsDone {
		t.Fatal("space did not mark task done")
	}
	m = send(t, m, keys("x"))
	task, _ = repo.Get(1)
	if task.IsDone {
		t.Error("x did not reopen task")
	}
	if m.Tasks()[1].IsDone {
		t.Error("view not re-derived after toggle")
	}
}

func TestToggleReadsStoredState(t *testing.T) {
	m, repo, _ := setup(t, "one")

	// Change the task behind the model's back; the view still shows it open.
	if err := repo.Update(0, service.SetDone(true)); err != nil {
		t.Fatal(err)
	}
	send(t, m, space)
	task, _ := repo.Get(0)
	if task.IsDone {
		t.Error("toggle used the stale row instead of the stored flag")
	}
}

func TestAdd(t *testing.T) {
	m, repo, _ := setup(t, "one")

	m = send(t, m, keys("a"))
	if m.Mode() != tui.ModeAdd {
		t.Fatalf("mode = %v, want add", m.Mode())
	}
	m = send(t, m, keys("buy milk"), enter)
	if m.Mode() != tui.ModeNormal {
		t.Errorf("mode after enter = %v, want normal", m.Mode())
	}
	got := repo.List()
	if len(got) != 2 || got[1].Text != "buy milk" {
		t.Fatalf("repository = %+v", got)
	}
	if m.Cursor() != 1 {
		t.Errorf("cursor = %d, want new task selected", m.Cursor())
	}
}

func TestAddBlankStaysInInputMode(t *testing.T) {
	m, repo, _ := setup(t)

	m = send(t, m, keys("a"), keys("   "), enter)
	if m.Mode() != tui.ModeAdd {
		t.Errorf("mode = %v, want add after rejected text", m.Mode())
	}
	if m.Status() == "" {
		t.Error("no error shown for blank text")
	}
	if len(repo.List()) != 0 {
		t.Error("blank task added")
	}

	m = send(t, m, esc)
	if m.Mode() != tui.ModeNormal {
		t.Errorf("mode after esc = %v, want normal", m.Mode())
	}
}

func TestEdit(t *testing.T) {
	m, repo, _ := setup(t, "milk")

	m = send(t, m, keys("e"))
	if m.Mode() != tui.ModeEdit {
		t.Fatalf("mode = %v, want edit", m.Mode())
	}
	m = send(t, m, keys(" and eggs"), enter)
	task, _ := repo.Get(0)
	if task.Text != "milk and eggs" {
		t.Errorf("text = %q, want %q", task.Text, "milk and eggs")
	}
	if m.Tasks()[0].Text != "milk and eggs" {
		t.Error("view not re-derived after edit")
	}
}

func TestDelete(t *testing.T) {
	m, repo, _ := setup(t, "one", "two")

	m = send(t, m, keys("j"), keys("d"))
	if got := repo.List(); len(got) != 1 || got[0].Text != "one" {
		t.Fatalf("repository = %+v", got)
	}
	if m.Cursor() != 0 {
		t.Errorf("cursor = %d, want clamped to 0", m.Cursor())
	}

	m = send(t, m, keys("d"), keys("d"))
	if len(m.Tasks()) != 0 {
		t.Error("tasks left after deleting all")
	}
}

func TestStorageErrorShown(t *testing.T) {
	m, repo, store := setup(t, "one")
	store.PutErr = errors.New("disk full")

	m = send(t, m, keys("d"))
	if !strings.Contains(m.View(), "error:") {
		t.Errorf("view does not show the error:\n%s", m.View())
	}
	if len(repo.List()) != 1 {
		t.Error("task removed despite write failure")
	}
}

func TestFilter(t *testing.T) {
	m, repo, _ := setup(t, "one", "two", "three")
	repo.Update(1, service.SetDone(true))
	m = send(t, m, tui.ChangedMsg{})

	m = send(t, m, keys("f"))
	if n := len(m.Tasks()); n != 2 {
		t.Errorf("open filter shows %d tasks, want 2", n)
	}
	m = send(t, m, keys("f"))
	if n := len(m.Tasks()); n != 1 || m.Tasks()[0].ID != 1 {
		t.Errorf("done filter shows %+v", m.Tasks())
	}
	m = send(t, m, keys("f"))
	if n := len(m.Tasks()); n != 3 {
		t.Errorf("all filter shows %d tasks, want 3", n)
	}
}

func TestChangedMsgReloads(t *testing.T) {
	m, repo, _ := setup(t)
	task, _ := repo.Add("from elsewhere", false)

	m = send(t, m, tui.ChangedMsg{Event: service.Event{Kind: service.EventAdded, Task: task}})
	if len(m.Tasks()) != 1 {
		t.Errorf("tasks = %+v, want the added task", m.Tasks())
	}
}

func TestViewAndQuit(t *testing.T) {
	m, _, _ := setup(t, "milk")

	view := m.View()
	for _, want := range []string{"1 open", "[ ] milk", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	_, cmd := m.Update(keys("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
