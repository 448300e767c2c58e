package labelmask

import (
	"image"
	"testing"

	"github.com/pixtag/labelmask/history"
	"github.com/pixtag/labelmask/project"
)

// newTestSession builds a headless session over a blank image with one
// layer, one selected category, and an attached history stack.
func newTestSession(t *testing.T, width, height int) (*Session, *project.Category) {
	t.Helper()
	p := project.New()
	p.ImageWidth = width
	p.ImageHeight = height

	s := NewSession(p, WithHistory(history.NewStack(0)))
	t.Cleanup(func() { s.Close() })

	cat, err := s.AddCategory("test", project.Color{255, 0, 0, 255})
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	return s, cat
}

func TestStrokeUndoRedoByteExact(t *testing.T) {
	s, _ := newTestSession(t, 300, 300)
	s.SetTool(ToolBrush)
	s.SetBrushRadius(10)

	layer := s.ActiveLayer()
	Paint(s.Mask(layer.ID), 50, 50, 20, 1)
	before := s.Mask(layer.ID).Clone()

	// Stroke crossing several 128px tiles.
	if err := s.BeginStroke(20, 20); err != nil {
		t.Fatalf("BeginStroke failed: %v", err)
	}
	s.ContinueStroke(150, 150)
	s.ContinueStroke(280, 100)
	cmd := s.EndStroke()
	if cmd == nil {
		t.Fatal("expected a stroke command")
	}
	after := s.Mask(layer.ID).Clone()
	if after.EqualBytes(before) {
		t.Fatal("expected stroke to change the mask")
	}

	cmd.Undo()
	if !s.Mask(layer.ID).EqualBytes(before) {
		t.Error("expected undo to restore pre-stroke bytes exactly")
	}
	cmd.Redo()
	if !s.Mask(layer.ID).EqualBytes(after) {
		t.Error("expected redo to restore post-stroke bytes exactly")
	}
	cmd.Undo()
	if !s.Mask(layer.ID).EqualBytes(before) {
		t.Error("expected second undo to restore pre-stroke bytes")
	}
}

func TestNoOpStrokeLeavesNoHistory(t *testing.T) {
	s, _ := newTestSession(t, 100, 100)
	s.SetTool(ToolErase)
	s.SetEraseRadius(8)
	s.SetEraseMode(EraseAll)

	// Erasing a blank region changes nothing.
	if err := s.BeginStroke(50, 50); err != nil {
		t.Fatalf("BeginStroke failed: %v", err)
	}
	s.ContinueStroke(60, 60)
	if cmd := s.EndStroke(); cmd != nil {
		t.Error("expected nil command for a no-op stroke")
	}
	if s.History().CanUndo() {
		t.Error("expected empty history after no-op stroke")
	}
}

func TestStrokePushedToHistory(t *testing.T) {
	s, _ := newTestSession(t, 100, 100)
	s.SetTool(ToolBrush)

	if err := s.BeginStroke(50, 50); err != nil {
		t.Fatalf("BeginStroke failed: %v", err)
	}
	cmd := s.EndStroke()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if !s.History().CanUndo() {
		t.Fatal("expected command on history stack")
	}
	if got := s.History().Undo(); got != history.Command(cmd) {
		t.Error("expected the stack to pop the same command")
	}
	if s.Mask(s.ActiveLayer().ID).CountIndex(1) != 0 {
		t.Error("expected undo through the stack to clear the dab")
	}
}

func TestRecorderCapturesBeforeFirstMutation(t *testing.T) {
	s, _ := newTestSession(t, 64, 64)
	m := s.Mask(s.ActiveLayer().ID)
	m.Fill(3)

	rec := NewStrokeRecorder(32)
	rec.Begin(s.ActiveLayer().ID)
	rect := image.Rect(0, 0, 16, 16)
	rec.CaptureRect(m, rect)
	m.Set(5, 5, 9)
	// Second capture of the same tile must not overwrite the snapshot.
	rec.CaptureRect(m, rect)
	m.Set(6, 6, 9)

	cmd := rec.BuildCommand(m, s)
	if cmd == nil {
		t.Fatal("expected a command")
	}
	cmd.Undo()
	if m.At(5, 5) != 3 || m.At(6, 6) != 3 {
		t.Error("expected undo to restore the first snapshot")
	}
}

func TestRecorderBeginWhileActivePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on nested Begin")
		}
	}()
	rec := NewStrokeRecorder(0)
	rec.Begin("a")
	rec.Begin("b")
}

func TestStrokeCommandSkipsDeletedLayer(t *testing.T) {
	s, _ := newTestSession(t, 100, 100)
	s.SetTool(ToolBrush)

	if err := s.BeginStroke(50, 50); err != nil {
		t.Fatalf("BeginStroke failed: %v", err)
	}
	cmd := s.EndStroke()
	if cmd == nil {
		t.Fatal("expected a command")
	}

	layerID := s.ActiveLayer().ID
	if err := s.DeleteLayer(layerID); err != nil {
		t.Fatalf("DeleteLayer failed: %v", err)
	}
	// The command resolves its layer by id; a dangling id is a no-op.
	cmd.Undo()
	cmd.Redo()
}

func TestStrokeCommandDirtyRect(t *testing.T) {
	s, _ := newTestSession(t, 200, 200)
	s.SetTool(ToolBrush)
	s.SetBrushRadius(5)

	if err := s.BeginStroke(100, 100); err != nil {
		t.Fatalf("BeginStroke failed: %v", err)
	}
	cmd := s.EndStroke()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	want := image.Rect(95, 95, 106, 106)
	if got := cmd.DirtyRect(); got != want {
		t.Errorf("expected dirty %v, got %v", want, got)
	}
	if got := cmd.Name(); got != "Stroke" {
		t.Errorf("expected name Stroke, got %q", got)
	}
}
