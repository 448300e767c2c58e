// Package history provides a generic undo/redo command stack.
//
// The engine produces commands (one per paint stroke) but deliberately
// does not manage their lifetime; an application embeds a Stack, or any
// equivalent structure, and pushes the commands it wants to keep.
package history

import "sync"

// Command is a reversible operation.
//
// Redo applies the operation; Undo reverts it. Both must be exact
// inverses of each other so a command can be replayed any number of
// times. Push does not call Redo: the engine's commands describe work
// that already happened.
type Command interface {
	// Undo reverts the command's effect.
	Undo()
	// Redo re-applies the command's effect.
	Redo()
	// Name describes the command for menus and logs.
	Name() string
}

// DefaultLimit is the default maximum number of retained commands.
const DefaultLimit = 100

// Stack is an undo/redo history with a bounded depth.
// It is safe for concurrent use, though the commands themselves usually
// mutate single-threaded engine state.
type Stack struct {
	mu    sync.Mutex
	cmds  []Command
	next  int // commands[:next] are done, commands[next:] are undone
	limit int
}

// NewStack creates a stack retaining at most limit commands.
// If limit <= 0, DefaultLimit is used.
func NewStack(limit int) *Stack {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stack{limit: limit}
}

// Push records a command as already applied. Any undone commands beyond
// the current position are discarded, and the oldest command is dropped
// when the stack exceeds its limit.
func (s *Stack) Push(cmd Command) {
	if cmd == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cmds = append(s.cmds[:s.next], cmd)
	if len(s.cmds) > s.limit {
		s.cmds = s.cmds[1:]
	}
	s.next = len(s.cmds)
}

// Undo reverts the most recent done command.
// Returns the command, or nil if there is nothing to undo.
func (s *Stack) Undo() Command {
	s.mu.Lock()
	if s.next == 0 {
		s.mu.Unlock()
		return nil
	}
	s.next--
	cmd := s.cmds[s.next]
	s.mu.Unlock()

	cmd.Undo()
	return cmd
}

// Redo re-applies the most recently undone command.
// Returns the command, or nil if there is nothing to redo.
func (s *Stack) Redo() Command {
	s.mu.Lock()
	if s.next >= len(s.cmds) {
		s.mu.Unlock()
		return nil
	}
	cmd := s.cmds[s.next]
	s.next++
	s.mu.Unlock()

	cmd.Redo()
	return cmd
}

// CanUndo reports whether Undo would revert a command.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next > 0
}

// CanRedo reports whether Redo would re-apply a command.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next < len(s.cmds)
}

// Len returns the number of retained commands (done and undone).
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cmds)
}

// Clear drops all commands, e.g. when a project is replaced.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = nil
	s.next = 0
}
