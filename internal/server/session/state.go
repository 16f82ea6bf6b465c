// Package session keeps the per-conversation navigation state: the folder
// the user is in and the multi-step operation, if any, waiting for input.
package session

// Pending is the operation a conversation is waiting to complete. The set
// of implementations is closed: None, AwaitingAddContent,
// AwaitingEditContent and AwaitingSearchQuery.
type Pending interface {
	pending()
}

// None means no operation is in progress.
type None struct{}

// AwaitingAddContent waits for the label of a node to create in the
// current folder.
type AwaitingAddContent struct{}

// AwaitingEditContent waits for the new label of Target.
type AwaitingEditContent struct {
	Target int64
}

// AwaitingSearchQuery waits for a search query.
type AwaitingSearchQuery struct{}

func (None) pending()                {}
func (AwaitingAddContent) pending()  {}
func (AwaitingEditContent) pending() {}
func (AwaitingSearchQuery) pending() {}

// State is the navigation state of one conversation. The zero value is the
// initial state: at the root with nothing pending.
type State struct {
	CurrentFolderID *int64
	Pending         Pending
}

// PendingOrNone returns the pending operation, treating nil as None.
func (s State) PendingOrNone() Pending {
	if s.Pending == nil {
		return None{}
	}
	return s.Pending
}

// Idle reports whether nothing is pending.
func (s State) Idle() bool {
	_, ok := s.PendingOrNone().(None)
	return ok
}

// Clear drops the pending operation.
func (s *State) Clear() {
	s.Pending = None{}
}

// Reset returns to the root with nothing pending.
func (s *State) Reset() {
	s.CurrentFolderID = nil
	s.Pending = None{}
}
