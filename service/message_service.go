package service

import (
	"context"
	"fmt"
	"sort"

	"young_network/model"
	"young_network/validation"

	"gorm.io/gorm"
)

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// Send stores a new direct message.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID int64, content string) (*model.Message, error) {
	if senderID <= 0 || receiverID <= 0 {
		return nil, model.NewValidationError("sender_id, receiver_id and content are required")
	}
	content, err := validation.ValidateContent("content", content)
	if err != nil {
		return nil, model.NewValidationError(err.Error())
	}
	if senderID == receiverID {
		return nil, model.NewValidationError("Cannot send a message to yourself")
	}

	db := s.db.WithContext(ctx)
	if err := userExists(db, receiverID, "Receiver"); err != nil {
		return nil, err
	}

	msg := &model.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// MarkRead flags messageID as read when userID is its receiver and does
// nothing otherwise.
func (s *MessageService) MarkRead(ctx context.Context, userID, messageID int64) error {
	if err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND receiver_id = ?", messageID, userID).
		Update("is_read", true).Error; err != nil {
		return fmt.Errorf("failed to mark message as read: %w", err)
	}
	return nil
}

// MarkThreadRead flags every unread message from counterpartID to userID.
func (s *MessageService) MarkThreadRead(ctx context.Context, userID, counterpartID int64) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", userID, counterpartID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark conversation as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Thread returns every message between the two users, oldest first.
func (s *MessageService) Thread(ctx context.Context, userID, counterpartID int64) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, counterpartID, counterpartID, userID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nil
}

type latestMessageRow struct {
	CounterpartID int64
	MessageID     int64
}

type unreadRow struct {
	SenderID int64
	Unread   int64
}

// Conversations summarises userID's inbox: one entry per counterpart with
// the latest message and the count of unread messages from them. Entries
// are ordered by latest activity, then by counterpart id.
func (s *MessageService) Conversations(ctx context.Context, userID int64) ([]model.ConversationSummary, error) {
	db := s.db.WithContext(ctx)

	var latest []latestMessageRow
	err := db.Raw(`
		SELECT counterpart_id, message_id FROM (
			SELECT
				CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS counterpart_id,
				id AS message_id,
				ROW_NUMBER() OVER (
					PARTITION BY CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
					ORDER BY created_at DESC, id DESC
				) AS rn
			FROM messages
			WHERE sender_id = ? OR receiver_id = ?
		) ranked
		WHERE rn = 1`, userID, userID, userID, userID).
		Scan(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	if len(latest) == 0 {
		return []model.ConversationSummary{}, nil
	}

	messageIDs := make([]int64, 0, len(latest))
	counterpartIDs := make([]int64, 0, len(latest))
	for _, row := range latest {
		messageIDs = append(messageIDs, row.MessageID)
		counterpartIDs = append(counterpartIDs, row.CounterpartID)
	}

	var messages []model.Message
	if err := db.Where("id IN ?", messageIDs).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load last messages: %w", err)
	}
	byID := make(map[int64]model.Message, len(messages))
	for _, m := range messages {
		byID[m.ID] = m
	}

	var unread []unreadRow
	if err := db.Model(&model.Message{}).
		Select("sender_id, COUNT(*) AS unread").
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Group("sender_id").
		Scan(&unread).Error; err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	unreadBy := make(map[int64]int64, len(unread))
	for _, row := range unread {
		unreadBy[row.SenderID] = row.Unread
	}

	users, err := loadUsers(db, counterpartIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ConversationSummary, 0, len(latest))
	for _, row := range latest {
		m, ok := byID[row.MessageID]
		if !ok {
			continue
		}
		summary := model.ConversationSummary{
			UserID:          row.CounterpartID,
			LastMessage:     m.Content,
			LastMessageID:   m.ID,
			LastSenderID:    m.SenderID,
			LastMessageTime: m.CreatedAt,
			UnreadCount:     unreadBy[row.CounterpartID],
		}
		if u, ok := users[row.CounterpartID]; ok {
			summary.Username = u.Username
			summary.FullName = u.FullName
			summary.AvatarURL = u.AvatarURL
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.LastMessageTime.Equal(b.LastMessageTime) {
			return a.LastMessageTime.After(b.LastMessageTime)
		}
		return a.UserID < b.UserID
	})
	return summaries, nil
}
