// Package model holds the terminal application's view state, loaded from
// the Messages store.
package model

import (
	"context"

	"github.com/matheus3301/imsg/internal/store"
)

// ViewModel caches the conversation list and the selected thread. It is
// owned by the UI goroutine and is not safe for concurrent use.
type ViewModel struct {
	reader       store.Reader
	convLimit    int
	messageLimit int

	Conversations []store.Conversation
	Selected      int // index into Conversations, -1 when nothing is selected
	Messages      []store.Message
	Flash         Flash

	selectedID int64
}

// NewViewModel creates an empty view model reading from r.
func NewViewModel(r store.Reader, convLimit, messageLimit int) *ViewModel {
	return &ViewModel{
		reader:       r,
		convLimit:    convLimit,
		messageLimit: messageLimit,
		Selected:     -1,
	}
}

// SelectedConversation returns the selected conversation, if any.
func (vm *ViewModel) SelectedConversation() (store.Conversation, bool) {
	if vm.Selected < 0 || vm.Selected >= len(vm.Conversations) {
		return store.Conversation{}, false
	}
	return vm.Conversations[vm.Selected], true
}

// SelectedID returns the chat id of the selected conversation, or 0.
func (vm *ViewModel) SelectedID() int64 {
	return vm.selectedID
}

// LoadConversations fetches the conversation list from the store.
func (vm *ViewModel) LoadConversations(ctx context.Context) error {
	convs, err := vm.reader.ListConversations(ctx, vm.convLimit)
	if err != nil {
		return err
	}
	vm.SetConversations(convs)
	return nil
}

// SetConversations replaces the list and keeps the selection on the same
// chat id when it is still present.
func (vm *ViewModel) SetConversations(convs []store.Conversation) {
	vm.Conversations = convs
	if vm.selectedID == 0 {
		if vm.Selected >= len(convs) {
			vm.Selected = len(convs) - 1
		}
		return
	}
	for i, c := range convs {
		if c.ID == vm.selectedID {
			vm.Selected = i
			return
		}
	}
	// The selected chat fell out of the window; keep the thread but clamp
	// the cursor.
	vm.Selected = min(vm.Selected, len(convs)-1)
}

// Select makes the conversation at idx current and loads its messages.
func (vm *ViewModel) Select(ctx context.Context, idx int) error {
	if idx < 0 || idx >= len(vm.Conversations) {
		return nil
	}
	conv := vm.Conversations[idx]
	msgs, err := vm.reader.ListMessages(ctx, conv.ID, vm.messageLimit)
	if err != nil {
		return err
	}
	vm.Selected = idx
	vm.selectedID = conv.ID
	vm.Messages = msgs
	return nil
}

// ReloadMessages refetches the selected thread.
func (vm *ViewModel) ReloadMessages(ctx context.Context) error {
	if vm.selectedID == 0 {
		return nil
	}
	msgs, err := vm.reader.ListMessages(ctx, vm.selectedID, vm.messageLimit)
	if err != nil {
		return err
	}
	vm.Messages = msgs
	return nil
}

// AppendNew adds the messages that belong to the selected chat, skipping
// ids already present. It returns how many were appended.
func (vm *ViewModel) AppendNew(batch []store.Message) int {
	if vm.selectedID == 0 {
		return 0
	}
	var last int64
	if n := len(vm.Messages); n > 0 {
		last = vm.Messages[n-1].ID
	}
	added := 0
	for _, m := range batch {
		if m.ChatID != vm.selectedID || m.ID <= last {
			continue
		}
		vm.Messages = append(vm.Messages, m)
		last = m.ID
		added++
	}
	return added
}
