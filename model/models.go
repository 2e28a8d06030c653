package model

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Friendship{},
		&Message{},
		&Post{},
		&Like{},
		&Comment{},
		&Community{},
		&CommunityMember{},
		&Notification{},
		&AdminRequest{},
		&Playlist{},
		&Track{},
		&MusicBookmark{},
	}
}
