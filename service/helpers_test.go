package service

import (
	"context"
	"sync"
	"testing"

	"young_network/model"
	"young_network/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// recordingNotifier captures delivered notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (r *recordingNotifier) SendNotification(ctx context.Context, userID int64, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Type)
	}
	return out
}

func newNotificationService(t *testing.T) (*gorm.DB, *NotificationService, *recordingNotifier) {
	t.Helper()
	db := testutil.NewDB(t)
	notifSvc := NewNotificationService(db)
	rec := &recordingNotifier{}
	notifSvc.SetHubNotifier(rec)
	return db, notifSvc, rec
}

func createUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	name := username
	user := &model.User{
		Username:     &name,
		PasswordHash: "x",
		FullName:     "User " + username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func testUserOptions() UserOptions {
	return UserOptions{AdminPhone: "+10000000000", BcryptCost: bcrypt.MinCost}
}

func countRows(t *testing.T, db *gorm.DB, value interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(value).Where(query, args...).Count(&count).Error)
	return count
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, model.AsAppError(err).Code, err.Error())
}
