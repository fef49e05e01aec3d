package usecase

import (
	"context"
	"log"
	"sort"

	"modpanel/internal/domain/entity"
	"modpanel/internal/domain/repository"
	ws "modpanel/internal/infrastructure/websocket"
	"modpanel/pkg/errors"
)

// InboxUseCase builds the derived chat views. Nothing here is persisted: chats
// and tabs are recomputed from the message store on every fetch.
type InboxUseCase struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	wsManager   *ws.Manager
}

func NewInboxUseCase(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	wsManager *ws.Manager,
) *InboxUseCase {
	return &InboxUseCase{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		wsManager:   wsManager,
	}
}

// Chat is one conversation thread seen from the viewer's side.
type Chat struct {
	User        *entity.User      `json:"user"`
	Messages    []*entity.Message `json:"messages"`
	UnreadCount int               `json:"unread_count"`
}

// AdminTab groups moderator chats under the administrator they are currently
// assigned to. The zero-admin tab is the unassigned bucket.
type AdminTab struct {
	Admin *entity.User `json:"admin,omitempty"`
	Chats []*Chat      `json:"chats"`
}

type AdminInbox struct {
	Tabs       []*AdminTab `json:"tabs"`
	Unassigned *AdminTab   `json:"unassigned"`
}

// Inbox carries whichever view matches the viewer's role. Admin is set for
// administrators, Chats for moderators.
type Inbox struct {
	Chats []*Chat
	Admin *AdminInbox
}

// GetInbox resolves the viewer's role and returns the matching view.
func (uc *InboxUseCase) GetInbox(ctx context.Context, viewerID, msgType string) (*Inbox, error) {
	viewer, err := uc.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	if viewer.IsAdministrator() {
		admin, err := uc.GetAdministratorInbox(ctx, viewerID, msgType)
		if err != nil {
			return nil, err
		}
		return &Inbox{Admin: admin}, nil
	}

	chats, err := uc.GetModeratorInbox(ctx, viewerID, msgType)
	if err != nil {
		return nil, err
	}
	return &Inbox{Chats: chats}, nil
}

// GetModeratorInbox returns the flat chat list for a moderator: one chat per
// administrator they have ever exchanged messages with.
func (uc *InboxUseCase) GetModeratorInbox(ctx context.Context, viewerID, msgType string) ([]*Chat, error) {
	if !validMessageType(msgType) {
		return nil, errors.Validation("Message type must be 'message' or 'support'", nil)
	}

	viewer, err := uc.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	messages, err := uc.messageRepo.ListByParticipant(ctx, viewer.DomainID, viewerID, msgType)
	if err != nil {
		log.Printf("GetModeratorInbox Error: Failed to list messages for %s: %v", viewerID, err)
		return nil, err
	}

	users, err := uc.domainUsers(ctx, viewer.DomainID)
	if err != nil {
		return nil, err
	}

	chats := PartitionByCounterparty(viewerID, messages, users)
	for _, chat := range chats {
		uc.stampPresence(chat.User)
	}
	SortChats(chats)

	return chats, nil
}

// GetAdministratorInbox returns the tabbed view: every moderator conversation
// in the domain, bucketed by the moderator's current administrator.
func (uc *InboxUseCase) GetAdministratorInbox(ctx context.Context, viewerID, msgType string) (*AdminInbox, error) {
	if !validMessageType(msgType) {
		return nil, errors.Validation("Message type must be 'message' or 'support'", nil)
	}

	viewer, err := uc.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdministrator() {
		return nil, errors.Forbidden("Administrator inbox requires the administrator role", nil)
	}

	messages, err := uc.messageRepo.ListByDomain(ctx, viewer.DomainID, msgType)
	if err != nil {
		log.Printf("GetAdministratorInbox Error: Failed to list domain messages: %v", err)
		return nil, err
	}

	users, err := uc.domainUsers(ctx, viewer.DomainID)
	if err != nil {
		return nil, err
	}

	inbox := PartitionByAdministrator(messages, users)
	for _, tab := range inbox.Tabs {
		uc.stampPresence(tab.Admin)
		for _, chat := range tab.Chats {
			uc.stampPresence(chat.User)
		}
		SortChats(tab.Chats)
	}
	for _, chat := range inbox.Unassigned.Chats {
		uc.stampPresence(chat.User)
	}
	SortChats(inbox.Unassigned.Chats)

	return inbox, nil
}

func (uc *InboxUseCase) domainUsers(ctx context.Context, domainID string) (map[string]*entity.User, error) {
	users, err := uc.userRepo.ListByDomain(ctx, domainID, "")
	if err != nil {
		log.Printf("InboxUseCase Error: Failed to list users for domain %s: %v", domainID, err)
		return nil, err
	}

	byID := make(map[string]*entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

// stampPresence copies the live online flag onto a user record about to be
// rendered. Presence never feeds unread or read computation.
func (uc *InboxUseCase) stampPresence(user *entity.User) {
	if user != nil {
		user.IsOnline = uc.wsManager.IsOnline(user.ID)
	}
}

// PartitionByCounterparty folds a participant's flat message list into one
// chat per counterparty. Messages keep ascending created_at order.
func PartitionByCounterparty(viewerID string, messages []*entity.Message, users map[string]*entity.User) []*Chat {
	byCounterparty := make(map[string]*Chat)
	var order []string

	for _, msg := range messages {
		otherID := msg.FromUserID
		if otherID == viewerID {
			otherID = msg.ToUserID
		}

		chat, ok := byCounterparty[otherID]
		if !ok {
			chat = &Chat{User: users[otherID]}
			if chat.User == nil {
				chat.User = &entity.User{ID: otherID}
			}
			byCounterparty[otherID] = chat
			order = append(order, otherID)
		}

		chat.Messages = append(chat.Messages, msg)
		if msg.ToUserID == viewerID && !msg.IsRead.Bool() && !msg.IsDeleted {
			chat.UnreadCount++
		}
	}

	chats := make([]*Chat, 0, len(order))
	for _, id := range order {
		chats = append(chats, byCounterparty[id])
	}
	return chats
}

// PartitionByAdministrator buckets every moderator conversation of a domain
// under the moderator's *current* administrator. History never migrates: a
// chat carries all of its messages even when some were addressed to a previous
// administrator; only the bucket follows the current assignment. Moderators
// without an administrator land in the unassigned tab.
//
// A tab's unread badge counts only messages addressed to that tab's admin
// identity, so mark-read issued from the tab can always clear it. Leftover
// unread addressed to a previous administrator never badges the new tab.
func PartitionByAdministrator(messages []*entity.Message, users map[string]*entity.User) *AdminInbox {
	chatsByModerator := make(map[string]*Chat)
	var moderatorOrder []string

	for _, msg := range messages {
		moderatorID := ""
		if u, ok := users[msg.FromUserID]; ok && !u.IsAdministrator() {
			moderatorID = msg.FromUserID
		} else if u, ok := users[msg.ToUserID]; ok && !u.IsAdministrator() {
			moderatorID = msg.ToUserID
		}
		if moderatorID == "" {
			// Admin-to-admin traffic has no tab home.
			continue
		}

		chat, ok := chatsByModerator[moderatorID]
		if !ok {
			chat = &Chat{User: users[moderatorID]}
			chatsByModerator[moderatorID] = chat
			moderatorOrder = append(moderatorOrder, moderatorID)
		}

		chat.Messages = append(chat.Messages, msg)
	}

	inbox := &AdminInbox{Unassigned: &AdminTab{}}
	tabsByAdmin := make(map[string]*AdminTab)

	for _, moderatorID := range moderatorOrder {
		chat := chatsByModerator[moderatorID]
		moderator := users[moderatorID]

		adminID := ""
		if moderator != nil {
			adminID = moderator.AdministratorID
		}
		admin, assigned := users[adminID]
		if adminID == "" || !assigned {
			// No tab identity to scope to; count everything unread on the
			// admin side of the chat.
			chat.UnreadCount = unreadAwayFrom(chat.Messages, moderatorID)
			inbox.Unassigned.Chats = append(inbox.Unassigned.Chats, chat)
			continue
		}

		chat.UnreadCount = unreadAddressedTo(chat.Messages, adminID)

		tab, ok := tabsByAdmin[adminID]
		if !ok {
			tab = &AdminTab{Admin: admin}
			tabsByAdmin[adminID] = tab
			inbox.Tabs = append(inbox.Tabs, tab)
		}
		tab.Chats = append(tab.Chats, chat)
	}

	sort.SliceStable(inbox.Tabs, func(i, j int) bool {
		return inbox.Tabs[i].Admin.Name < inbox.Tabs[j].Admin.Name
	})

	return inbox
}

// unreadAddressedTo counts live unread messages sent to a single identity.
func unreadAddressedTo(messages []*entity.Message, userID string) int {
	count := 0
	for _, msg := range messages {
		if msg.ToUserID == userID && !msg.IsRead.Bool() && !msg.IsDeleted {
			count++
		}
	}
	return count
}

// unreadAwayFrom counts live unread messages addressed away from the given
// user, whoever the recipient is.
func unreadAwayFrom(messages []*entity.Message, userID string) int {
	count := 0
	for _, msg := range messages {
		if msg.ToUserID != userID && !msg.IsRead.Bool() && !msg.IsDeleted {
			count++
		}
	}
	return count
}

// SortChats orders a chat list for display: chats with any unread first, then
// by most recent message, newest conversation on top.
func SortChats(chats []*Chat) {
	lastAt := func(c *Chat) int64 {
		if len(c.Messages) == 0 {
			return 0
		}
		return c.Messages[len(c.Messages)-1].CreatedAt.UnixNano()
	}

	sort.SliceStable(chats, func(i, j int) bool {
		iUnread := chats[i].UnreadCount > 0
		jUnread := chats[j].UnreadCount > 0
		if iUnread != jUnread {
			return iUnread
		}
		return lastAt(chats[i]) > lastAt(chats[j])
	})
}
