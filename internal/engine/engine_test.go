package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/taskdeck/taskdeck/internal/task"
)

// fakeGateway scripts remote behavior per test and records what was sent.
type fakeGateway struct {
	listFn   func(ctx context.Context) ([]task.Task, error)
	createFn func(ctx context.Context, title, description string) (task.Task, error)
	updateFn func(ctx context.Context, id string, patch task.Patch) (task.Task, error)
	deleteFn func(ctx context.Context, id string) error

	createCalls int
	updateCalls []task.Patch
	deleteCalls []string
}

func (f *fakeGateway) ListTasks(ctx context.Context) ([]task.Task, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeGateway) CreateTask(ctx context.Context, title, description string) (task.Task, error) {
	f.createCalls++
	if f.createFn == nil {
		return task.Task{ID: "created-id", Title: title, Description: description}, nil
	}
	return f.createFn(ctx, title, description)
}

func (f *fakeGateway) UpdateTask(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	f.updateCalls = append(f.updateCalls, patch)
	if f.updateFn == nil {
		return task.Task{ID: id}, nil
	}
	return f.updateFn(ctx, id, patch)
}

func (f *fakeGateway) DeleteTask(ctx context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

func seedEngine(t *testing.T, gw *fakeGateway, tasks []task.Task, opts ...Option) *Engine {
	t.Helper()
	eng := New(gw, opts...)
	eng.Apply(TasksLoaded{Tasks: tasks})
	if got := len(eng.Snapshot().Tasks); got != len(tasks) {
		t.Fatalf("seeded %d tasks, snapshot has %d", len(tasks), got)
	}
	return eng
}

func findTask(t *testing.T, eng *Engine, id string) task.Task {
	t.Helper()
	for _, candidate := range eng.Snapshot().Tasks {
		if candidate.ID == id {
			return candidate
		}
	}
	t.Fatalf("task %s not in snapshot", id)
	return task.Task{}
}

func run(t *testing.T, cmd Command) Event {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command, got nil")
	}
	return cmd(context.Background())
}

func TestToggleAppliesOptimisticallyBeforeRemoteCall(t *testing.T) {
	gw := &fakeGateway{}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Buy milk"}})

	cmd := eng.ToggleCompletion("a")
	if cmd == nil {
		t.Fatalf("toggle must dispatch for a known task")
	}
	// The command has not run yet, so no remote call happened...
	if len(gw.updateCalls) != 0 {
		t.Fatalf("remote call issued before command ran")
	}
	// ...but the replica already reflects the intent.
	if got := findTask(t, eng, "a"); !got.Completed {
		t.Fatalf("completed not applied optimistically")
	}
	if !eng.InFlight("a") {
		t.Fatalf("task must be in flight after dispatch")
	}
}

func TestTogglePatchCarriesOnlyCompletion(t *testing.T) {
	gw := &fakeGateway{}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Buy milk", Description: "2%"}})

	run(t, eng.ToggleCompletion("a"))
	if len(gw.updateCalls) != 1 {
		t.Fatalf("update calls = %d, want 1", len(gw.updateCalls))
	}
	patch := gw.updateCalls[0]
	if patch.Completed == nil || !*patch.Completed {
		t.Fatalf("patch must carry completed=true")
	}
	if patch.Title != nil || patch.Description != nil {
		t.Fatalf("patch must omit title and description so the store preserves them")
	}
}

func TestToggleRollbackOnFailure(t *testing.T) {
	gw := &fakeGateway{
		updateFn: func(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
			return task.Task{}, errors.New("network down")
		},
	}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Buy milk", Completed: true}})

	ev := run(t, eng.ToggleCompletion("a"))
	if got := findTask(t, eng, "a"); got.Completed {
		t.Fatalf("optimistic flip missing before reconcile")
	}
	eng.Apply(ev)

	// Rollback fidelity: completed equals the value before the toggle.
	if got := findTask(t, eng, "a"); !got.Completed {
		t.Fatalf("rollback did not restore prior completed value")
	}
	if eng.InFlight("a") {
		t.Fatalf("in-flight must clear after failure reconcile")
	}
	if eng.Snapshot().LastErr == "" {
		t.Fatalf("failure must surface an error")
	}
}

func TestInFlightLifecycle(t *testing.T) {
	gw := &fakeGateway{}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Buy milk"}})

	if eng.InFlight("a") {
		t.Fatalf("idle task reported in flight")
	}
	ev := run(t, eng.ToggleCompletion("a"))
	if !eng.InFlight("a") {
		t.Fatalf("in-flight must hold from dispatch until reconcile")
	}
	eng.Apply(ev)
	if eng.InFlight("a") {
		t.Fatalf("in-flight must clear after success reconcile")
	}
}

func TestSecondIntentForInFlightTaskIsRejected(t *testing.T) {
	gw := &fakeGateway{}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Buy milk"}})

	first := eng.ToggleCompletion("a")
	if first == nil {
		t.Fatalf("first toggle must dispatch")
	}
	if second := eng.ToggleCompletion("a"); second != nil {
		t.Fatalf("second toggle for an in-flight task must be rejected")
	}
	// The replica still shows the first optimistic write only.
	if got := findTask(t, eng, "a"); !got.Completed {
		t.Fatalf("rejected intent must not touch the replica")
	}
}

func TestStaleResponseDoesNotOverwriteNewerState(t *testing.T) {
	gw := &fakeGateway{
		updateFn: func(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
			return task.Task{ID: id, Title: "Buy milk", Completed: *patch.Completed}, nil
		},
	}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Buy milk"}})

	// First toggle: dispatched, response held back (slow network).
	staleEv := run(t, eng.ToggleCompletion("a"))
	eng.Apply(staleEv)

	// Second toggle lands fully, producing the newer authoritative value V2.
	eng.Apply(run(t, eng.ToggleCompletion("a")))
	v2 := findTask(t, eng, "a")
	if v2.Completed {
		t.Fatalf("second toggle should have flipped back to false")
	}

	// The first response is delivered again, late. It must not overwrite
	// V2 even though its completion field differs from the current value.
	eng.Apply(staleEv)
	if got := findTask(t, eng, "a"); got.Completed != v2.Completed {
		t.Fatalf("stale response overwrote newer state: completed = %v, want %v", got.Completed, v2.Completed)
	}
	if eng.InFlight("a") {
		t.Fatalf("stale response must not resurrect in-flight status")
	}
}

func TestUpdateSuccessAdoptsServerNormalization(t *testing.T) {
	gw := &fakeGateway{
		updateFn: func(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
			// The service trims the title it stores.
			return task.Task{ID: id, Title: "Buy milk", Description: "trimmed", Completed: false}, nil
		},
	}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Buy milk", Description: "  trimmed  "}})

	eng.BeginEdit("a")
	eng.SetEditDescription("  trimmed  ")
	eng.Apply(run(t, eng.SaveEdit("a")))

	if got := findTask(t, eng, "a"); got.Description != "trimmed" {
		t.Fatalf("authoritative value not adopted, description = %q", got.Description)
	}
}

func TestCreateEmptyTitleIsLocalNoOp(t *testing.T) {
	gw := &fakeGateway{}
	eng := seedEngine(t, gw, nil)

	if cmd := eng.Create("   ", "x"); cmd != nil {
		t.Fatalf("empty trimmed title must not dispatch")
	}
	if gw.createCalls != 0 {
		t.Fatalf("create calls = %d, want 0", gw.createCalls)
	}
	if len(eng.Snapshot().Tasks) != 0 {
		t.Fatalf("store must stay empty")
	}
}

func TestCreateInsertsOnlyOnResponse(t *testing.T) {
	gw := &fakeGateway{
		createFn: func(ctx context.Context, title, description string) (task.Task, error) {
			return task.Task{ID: "srv-1", Title: title, Description: description}, nil
		},
	}
	eng := seedEngine(t, gw, nil)

	cmd := eng.Create("Buy milk", "")
	if cmd == nil {
		t.Fatalf("create must dispatch")
	}
	// No optimistic insert: the ID is not known client-side yet.
	if len(eng.Snapshot().Tasks) != 0 {
		t.Fatalf("store mutated before create response")
	}
	eng.Apply(cmd(context.Background()))
	if gw.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", gw.createCalls)
	}
	snap := eng.Snapshot()
	if len(snap.Tasks) != 1 || snap.Tasks[0].Title != "Buy milk" || snap.Tasks[0].ID != "srv-1" {
		t.Fatalf("unexpected store after create: %+v", snap.Tasks)
	}
}

func TestCreateFailureLeavesStoreUntouched(t *testing.T) {
	gw := &fakeGateway{
		createFn: func(ctx context.Context, title, description string) (task.Task, error) {
			return task.Task{}, errors.New("boom")
		},
	}
	eng := seedEngine(t, gw, nil)

	eng.Apply(run(t, eng.Create("Buy milk", "")))
	if len(eng.Snapshot().Tasks) != 0 {
		t.Fatalf("failed create must not insert")
	}
	if !strings.Contains(eng.Snapshot().LastErr, "create") {
		t.Fatalf("error not surfaced, lastErr = %q", eng.Snapshot().LastErr)
	}
}

func TestSaveEditGuardIgnoresStaleIntent(t *testing.T) {
	gw := &fakeGateway{}
	eng := seedEngine(t, gw, []task.Task{
		{ID: "a", Title: "Alpha"},
		{ID: "b", Title: "Beta"},
	})

	eng.BeginEdit("a")
	eng.SetEditTitle("Alpha edited")
	// The buffer is reopened for another task before the save lands.
	eng.BeginEdit("b")
	if cmd := eng.SaveEdit("a"); cmd != nil {
		t.Fatalf("save for a task no longer being edited must be ignored")
	}
	if len(gw.updateCalls) != 0 {
		t.Fatalf("stale save must not reach the gateway")
	}
	if got := findTask(t, eng, "a"); got.Title != "Alpha" {
		t.Fatalf("stale save mutated the store: %+v", got)
	}
}

func TestSaveEditClosesBufferBeforeDispatch(t *testing.T) {
	gw := &fakeGateway{
		updateFn: func(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
			return task.Task{ID: id, Title: *patch.Title, Description: *patch.Description}, nil
		},
	}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Alpha", Description: "old"}})

	eng.BeginEdit("a")
	eng.SetEditTitle("Alpha 2")
	eng.SetEditDescription("new")
	cmd := eng.SaveEdit("a")
	if cmd == nil {
		t.Fatalf("save must dispatch")
	}
	if eng.Snapshot().Editing != nil {
		t.Fatalf("buffer must close immediately on save")
	}
	// A repeated save intent cannot go out twice.
	if dup := eng.SaveEdit("a"); dup != nil {
		t.Fatalf("duplicate save dispatched")
	}
	eng.Apply(cmd(context.Background()))
	if got := findTask(t, eng, "a"); got.Title != "Alpha 2" || got.Description != "new" {
		t.Fatalf("save result not merged, got %+v", got)
	}
}

func TestSaveEditPatchCarriesDraftFields(t *testing.T) {
	gw := &fakeGateway{}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Alpha", Description: "old"}})

	eng.BeginEdit("a")
	eng.SetEditTitle("Alpha 2")
	eng.SetEditDescription("new")
	run(t, eng.SaveEdit("a"))

	if len(gw.updateCalls) != 1 {
		t.Fatalf("update calls = %d, want 1", len(gw.updateCalls))
	}
	patch := gw.updateCalls[0]
	if patch.Title == nil || *patch.Title != "Alpha 2" {
		t.Fatalf("patch title = %v", patch.Title)
	}
	if patch.Description == nil || *patch.Description != "new" {
		t.Fatalf("patch description = %v", patch.Description)
	}
	if patch.Completed != nil {
		t.Fatalf("save patch must not carry completion")
	}
}

func TestCancelEditDiscardsDrafts(t *testing.T) {
	gw := &fakeGateway{}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Alpha"}})

	eng.BeginEdit("a")
	eng.SetEditTitle("changed")
	eng.CancelEdit()
	if eng.Snapshot().Editing != nil {
		t.Fatalf("buffer must close on cancel")
	}
	if cmd := eng.SaveEdit("a"); cmd != nil {
		t.Fatalf("save after cancel must be ignored")
	}
	if got := findTask(t, eng, "a"); got.Title != "Alpha" {
		t.Fatalf("cancel must not mutate the store")
	}
}

func TestDeleteRemovesOptimisticallyAndRollsBackOnFailure(t *testing.T) {
	gw := &fakeGateway{
		deleteFn: func(ctx context.Context, id string) error {
			return errors.New("remote delete failed")
		},
	}
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Alpha", Description: "keep me"}})

	cmd := eng.DeleteTask("a")
	if cmd == nil {
		t.Fatalf("delete must dispatch")
	}
	if len(eng.Snapshot().Tasks) != 0 {
		t.Fatalf("delete must remove optimistically before confirmation")
	}
	if !eng.InFlight("a") {
		t.Fatalf("deleted task must be in flight")
	}

	eng.Apply(cmd(context.Background()))
	got := findTask(t, eng, "a")
	if got.Title != "Alpha" || got.Description != "keep me" {
		t.Fatalf("failed delete must reinsert the task, got %+v", got)
	}
	if eng.InFlight("a") {
		t.Fatalf("in-flight must clear after failed delete")
	}
	if eng.Snapshot().LastErr == "" {
		t.Fatalf("failed delete must surface an error")
	}
}

func TestDeleteDeclinedIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	decline := WithConfirmer(ConfirmerFunc(func(string) bool { return false }))
	eng := seedEngine(t, gw, []task.Task{{ID: "a", Title: "Alpha"}}, decline)

	if cmd := eng.DeleteTask("a"); cmd != nil {
		t.Fatalf("declined delete must not dispatch")
	}
	if len(eng.Snapshot().Tasks) != 1 {
		t.Fatalf("declined delete must not touch the store")
	}
	if eng.InFlight("a") {
		t.Fatalf("declined delete must not mark in-flight")
	}
	if eng.Snapshot().LastErr != "" {
		t.Fatalf("declining is not an error")
	}
}

func TestDeleteCompletedRemovesExactlyCompletedTasks(t *testing.T) {
	gw := &fakeGateway{}
	eng := seedEngine(t, gw, []task.Task{
		{ID: "a", Title: "Alpha", Completed: true},
		{ID: "b", Title: "Beta"},
		{ID: "c", Title: "Gamma", Completed: true},
	})

	cmds := eng.DeleteCompleted()
	if len(cmds) != 2 {
		t.Fatalf("commands = %d, want 2", len(cmds))
	}
	snap := eng.Snapshot()
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != "b" {
		t.Fatalf("only the pending task should remain, got %+v", snap.Tasks)
	}
	if !eng.InFlight("a") || !eng.InFlight("c") {
		t.Fatalf("both removed tasks must be in flight")
	}
	if eng.InFlight("b") {
		t.Fatalf("pending task must not be in flight")
	}

	for _, cmd := range cmds {
		eng.Apply(cmd(context.Background()))
	}
	if eng.InFlight("a") || eng.InFlight("c") {
		t.Fatalf("in-flight must clear as each delete reconciles")
	}
	if got := len(gw.deleteCalls); got != 2 {
		t.Fatalf("remote deletes = %d, want 2", got)
	}
}

func TestLoadReplacesReplica(t *testing.T) {
	gw := &fakeGateway{
		listFn: func(ctx context.Context) ([]task.Task, error) {
			return []task.Task{{ID: "x", Title: "Fresh"}}, nil
		},
	}
	eng := seedEngine(t, gw, []task.Task{{ID: "old", Title: "Stale"}})

	cmd := eng.Load()
	if !eng.Snapshot().Loading {
		t.Fatalf("loading flag must be set while the listing is outstanding")
	}
	eng.Apply(run(t, cmd))
	snap := eng.Snapshot()
	if snap.Loading {
		t.Fatalf("loading flag must clear")
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != "x" {
		t.Fatalf("replica not replaced, got %+v", snap.Tasks)
	}
}

func TestLoadFailureSurfacesError(t *testing.T) {
	gw := &fakeGateway{
		listFn: func(ctx context.Context) ([]task.Task, error) {
			return nil, errors.New("unreachable")
		},
	}
	eng := New(gw)
	eng.Apply(run(t, eng.Load()))
	if eng.Snapshot().Loading {
		t.Fatalf("loading flag must clear on failure")
	}
	if !strings.Contains(eng.Snapshot().LastErr, "unreachable") {
		t.Fatalf("lastErr = %q", eng.Snapshot().LastErr)
	}
}
