package services

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chat-hub/errors"
	"chat-hub/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func (f fixture) chatService() IChatService {
	return NewChatService(f.chats, f.users, f.messages, f.files, f.emitter, slog.Default())
}

// seedGroup registers count users and puts them all in one group created by
// the first one. Returns the member ids and the chat id.
func seedGroup(t *testing.T, f fixture, count int) ([]string, string) {
	t.Helper()
	req := require.New(t)

	users := f.userService()
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		user := f.register(t, users, fmt.Sprintf("User %d", i), fmt.Sprintf("user%d", i))
		ids = append(ids, user.ID)
	}

	chats := f.chatService()
	req.NoError(chats.NewGroup(ids[0], "The Group", ids[1:]))

	groups, err := f.chats.ChatsByMember(ids[0])
	req.NoError(err)
	req.Len(groups, 1)
	return ids, groups[0].ID
}

func TestChatService_NewGroup_And_Listing(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ids, _ := seedGroup(t, f, 3)
	service := f.chatService()

	// Every member received the welcome alert and a refetch
	req.Contains(f.emitter.names(), "ALERT")
	req.Contains(f.emitter.names(), "REFETCH_CHATS")

	// The group shows up for members, MyGroups only for the creator
	chats, err := service.MyChats(ids[1])
	req.NoError(err)
	req.Len(chats, 1)
	req.True(chats[0].GroupChat)
	req.Equal("The Group", chats[0].Name)
	req.NotContains(chats[0].Members, ids[1])

	groups, err := service.MyGroups(ids[0])
	req.NoError(err)
	req.Len(groups, 1)

	groups, err = service.MyGroups(ids[1])
	req.NoError(err)
	req.Empty(groups)
}

func TestChatService_Direct_Chat_Borrows_Other_Name(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	users := f.userService()

	alice := f.register(t, users, "Alice", "alice42")
	bob := f.register(t, users, "Bob", "bob42")

	req.NoError(users.SendFriendRequest(alice.ID, bob.ID))
	notifications, err := users.Notifications(bob.ID)
	req.NoError(err)
	req.NoError(users.AcceptFriendRequest(bob.ID, notifications[0].ID, true))

	service := f.chatService()
	chats, err := service.MyChats(alice.ID)
	req.NoError(err)
	req.Len(chats, 1)
	req.Equal("Bob", chats[0].Name)

	chats, err = service.MyChats(bob.ID)
	req.NoError(err)
	req.Equal("Alice", chats[0].Name)
}

func TestChatService_Membership_Management(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ids, chatID := seedGroup(t, f, 4)
	service := f.chatService()

	newcomer := f.register(t, f.userService(), "Newcomer", "newcomer1")

	// Only the creator manages members
	req.ErrorIs(service.AddMembers(ids[1], chatID, []string{newcomer.ID}), errors.ErrForbidden)
	req.ErrorIs(service.RemoveMember(ids[1], chatID, ids[2]), errors.ErrForbidden)

	// Adding an existing member is refused
	req.ErrorIs(service.AddMembers(ids[0], chatID, []string{ids[1]}), errors.ErrValidation)

	req.NoError(service.AddMembers(ids[0], chatID, []string{newcomer.ID}))
	chat, err := f.chats.GetChat(chatID)
	req.NoError(err)
	req.Contains(chat.Members, newcomer.ID)

	req.NoError(service.RemoveMember(ids[0], chatID, newcomer.ID))
	chat, err = f.chats.GetChat(chatID)
	req.NoError(err)
	req.NotContains(chat.Members, newcomer.ID)

	// A group never shrinks below three members
	req.NoError(service.RemoveMember(ids[0], chatID, ids[3]))
	req.ErrorIs(service.RemoveMember(ids[0], chatID, ids[2]), errors.ErrValidation)
}

func TestChatService_LeaveGroup_Reassigns_Creator(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ids, chatID := seedGroup(t, f, 4)
	service := f.chatService()

	req.NoError(service.LeaveGroup(ids[0], chatID))

	chat, err := f.chats.GetChat(chatID)
	req.NoError(err)
	req.NotContains(chat.Members, ids[0])
	req.Contains(chat.Members, chat.Creator)
}

func TestChatService_LeaveGroup_Keeps_Minimum_Size(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ids, chatID := seedGroup(t, f, 3)

	req.ErrorIs(f.chatService().LeaveGroup(ids[2], chatID), errors.ErrValidation)
}

func TestChatService_Messages_Pagination(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ids, chatID := seedGroup(t, f, 3)
	service := f.chatService()

	// Given 45 messages spread over time
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 45; i++ {
		req.NoError(f.messages.StoreMessage(repositories.DiskMessage{
			ID:      uuid.New(),
			Chat:    chatID,
			Sender:  ids[i%3],
			Content: fmt.Sprintf("message %02d", i),
			At:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	// Then the first page holds the 20 newest, oldest first within the page
	page, totalPages, err := service.Messages(ids[0], chatID, 1)
	req.NoError(err)
	req.Equal(3, totalPages)
	req.Len(page, 20)
	req.Equal("message 25", page[0].Content)
	req.Equal("message 44", page[19].Content)
	req.Equal("User 1", page[0].Sender.Name)

	// And the last page holds the remainder
	page, _, err = service.Messages(ids[0], chatID, 3)
	req.NoError(err)
	req.Len(page, 5)
	req.Equal("message 00", page[0].Content)

	// Outsiders are rejected
	outsider := f.register(t, f.userService(), "Outsider", "outsider1")
	_, _, err = service.Messages(outsider.ID, chatID, 1)
	req.ErrorIs(err, errors.ErrForbidden)
}

func TestChatService_SendAttachments(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ids, chatID := seedGroup(t, f, 3)
	service := f.chatService()

	_, err := service.SendAttachments(ids[0], chatID, nil)
	req.ErrorIs(err, errors.ErrValidation)

	png := []byte("\x89PNG\r\n\x1a\nfakeimagedata")
	dto, err := service.SendAttachments(ids[0], chatID, [][]byte{png})
	req.NoError(err)
	req.Len(dto.Attachments, 1)
	req.NotEmpty(dto.Attachments[0].URL)
	req.Equal("User 0", dto.Sender.Name)
	req.Contains(f.emitter.names(), "NEW_MESSAGE")
	req.Contains(f.emitter.names(), "NEW_MESSAGE_ALERT")

	stored, err := f.messages.AllByChat(chatID)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal(dto.ID, stored[0].ID.String())
}

func TestChatService_Rename_And_Delete(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ids, chatID := seedGroup(t, f, 3)
	service := f.chatService()

	req.ErrorIs(service.Rename(ids[1], chatID, "hijacked"), errors.ErrForbidden)
	req.NoError(service.Rename(ids[0], chatID, "Renamed"))

	details, err := service.Details(ids[1], chatID, true)
	req.NoError(err)
	req.Equal("Renamed", details.Name)
	req.Len(details.MemberViews, 3)

	req.NoError(f.messages.StoreMessage(repositories.DiskMessage{
		Chat:    chatID,
		Sender:  ids[0],
		Content: "to be erased",
		At:      time.Now().UTC(),
	}))

	// Only the creator deletes a group, and messages go with it
	req.ErrorIs(service.Delete(ids[1], chatID), errors.ErrForbidden)
	req.NoError(service.Delete(ids[0], chatID))

	_, err = f.chats.GetChat(chatID)
	req.ErrorIs(err, errors.ErrNotFound)

	count, err := f.messages.CountByChat(chatID)
	req.NoError(err)
	req.Zero(count)

	remaining := lo.Filter(f.emitter.names(), func(name string, _ int) bool {
		return name == "REFETCH_CHATS"
	})
	req.NotEmpty(remaining)
}
