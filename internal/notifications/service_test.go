package notifications

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type sequentialIDs struct {
	mu   sync.Mutex
	next int
}

func (s *sequentialIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("id-%d", s.next), nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	counts map[string][]int64
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{counts: make(map[string][]int64)}
}

func (b *recordingBroadcaster) PushCount(userID string, unread int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts[userID] = append(b.counts[userID], unread)
}

func (b *recordingBroadcaster) lastCount(userID string) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pushed := b.counts[userID]
	if len(pushed) == 0 {
		return 0, false
	}
	return pushed[len(pushed)-1], true
}

type stubResolver struct {
	refs map[string]QuestionRef
	err  error
}

func (r *stubResolver) QuestionForSolution(_ context.Context, solutionID string) (QuestionRef, error) {
	return r.lookup(solutionID)
}

func (r *stubResolver) QuestionForVote(_ context.Context, voteID string) (QuestionRef, error) {
	return r.lookup(voteID)
}

func (r *stubResolver) Question(_ context.Context, questionID string) (QuestionRef, error) {
	return r.lookup(questionID)
}

func (r *stubResolver) lookup(referenceID string) (QuestionRef, error) {
	if r.err != nil {
		return QuestionRef{}, r.err
	}
	ref, ok := r.refs[referenceID]
	if !ok {
		return QuestionRef{}, fmt.Errorf("unknown reference %q", referenceID)
	}
	return ref, nil
}

func mustOpenDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "notifications.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Notification{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func mustNewService(t *testing.T, db *gorm.DB, broadcast Broadcaster, resolver ReferenceResolver) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Database:   db,
		IDProvider: &sequentialIDs{},
		Broadcast:  broadcast,
		Resolver:   resolver,
		Clock:      func() time.Time { return time.Unix(1756700000, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

func TestRecordInsertsUnreadNotifications(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db, nil, nil)

	recipients := []Recipient{
		{UserID: "user-1", Type: TypeNewAnswer, ReferenceID: "solution-1"},
		{UserID: "user-2", Type: TypeNewAnswer, ReferenceID: "solution-1"},
	}
	if err := service.Record(db, recipients); err != nil {
		t.Fatalf("unexpected record error: %v", err)
	}

	for _, userID := range []string{"user-1", "user-2"} {
		count, err := service.UnreadCount(context.Background(), userID)
		if err != nil {
			t.Fatalf("unexpected count error: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected one unread for %s, got %d", userID, count)
		}
	}
}

func TestRecordFailureRollsBackCallerTransaction(t *testing.T) {
	db := mustOpenDatabase(t)

	// A primary key collision inside the caller's transaction must discard
	// everything written before it.
	fixed := Notification{ID: "fixed", UserID: "user-2", Type: TypeVote, ReferenceID: "vote-1"}
	if err := db.Create(&fixed).Error; err != nil {
		t.Fatalf("failed to seed notification: %v", err)
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		record := Notification{ID: "tx-row", UserID: "user-3", Type: TypeVote, ReferenceID: "vote-2"}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		duplicate := Notification{ID: "fixed", UserID: "user-2", Type: TypeVote, ReferenceID: "vote-1"}
		return tx.Create(&duplicate).Error
	})
	if err == nil {
		t.Fatalf("expected duplicate insert to fail")
	}
	var count int64
	if err := db.Model(&Notification{}).Where("id = ?", "tx-row").Count(&count).Error; err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected transaction rollback to discard the row")
	}
}

func TestListForUserEnrichesMessages(t *testing.T) {
	db := mustOpenDatabase(t)
	resolver := &stubResolver{refs: map[string]QuestionRef{
		"solution-1": {QuestionID: "question-1", Title: "How do goroutines leak?"},
		"vote-1":     {QuestionID: "question-1", Title: "How do goroutines leak?"},
		"question-2": {QuestionID: "question-2", Title: "What is a slice header?"},
	}}
	service := mustNewService(t, db, nil, resolver)

	recipients := []Recipient{
		{UserID: "user-1", Type: TypeNewAnswer, ReferenceID: "solution-1"},
		{UserID: "user-1", Type: TypeVote, ReferenceID: "vote-1"},
		{UserID: "user-1", Type: TypeFollowUpdate, ReferenceID: "question-2"},
	}
	if err := service.Record(db, recipients); err != nil {
		t.Fatalf("unexpected record error: %v", err)
	}

	page, err := service.ListForUser(context.Background(), "user-1", 1, 20, false)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected three notifications, got %d", len(page.Items))
	}

	messages := make(map[string]string, len(page.Items))
	actions := make(map[string]string, len(page.Items))
	for _, item := range page.Items {
		messages[item.Type] = item.Message
		actions[item.Type] = item.ActionURL
	}
	if messages[string(TypeNewAnswer)] != "New answer on How do goroutines leak?" {
		t.Fatalf("unexpected new answer message: %q", messages[string(TypeNewAnswer)])
	}
	if messages[string(TypeVote)] != "Your answer on How do goroutines leak? received a new vote" {
		t.Fatalf("unexpected vote message: %q", messages[string(TypeVote)])
	}
	if messages[string(TypeFollowUpdate)] != "New follower on What is a slice header?" {
		t.Fatalf("unexpected follow message: %q", messages[string(TypeFollowUpdate)])
	}
	if actions[string(TypeNewAnswer)] != "/questions/question-1" {
		t.Fatalf("unexpected action url: %q", actions[string(TypeNewAnswer)])
	}
	if actions[string(TypeFollowUpdate)] != "/questions/question-2" {
		t.Fatalf("unexpected action url: %q", actions[string(TypeFollowUpdate)])
	}
}

func TestListForUserDegradesWhenResolverFails(t *testing.T) {
	db := mustOpenDatabase(t)
	resolver := &stubResolver{err: fmt.Errorf("resolver unavailable")}
	service := mustNewService(t, db, nil, resolver)

	if err := service.Record(db, []Recipient{{UserID: "user-1", Type: TypeNewAnswer, ReferenceID: "gone"}}); err != nil {
		t.Fatalf("unexpected record error: %v", err)
	}

	page, err := service.ListForUser(context.Background(), "user-1", 1, 20, false)
	if err != nil {
		t.Fatalf("listing must not fail on resolution errors: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one notification, got %d", len(page.Items))
	}
	if page.Items[0].Message == "" {
		t.Fatalf("expected a fallback message")
	}
}

func TestListForUserUnreadOnlyFilters(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db, nil, nil)

	if err := service.Record(db, []Recipient{
		{UserID: "user-1", Type: TypeNewAnswer, ReferenceID: "solution-1"},
		{UserID: "user-1", Type: TypeVote, ReferenceID: "vote-1"},
	}); err != nil {
		t.Fatalf("unexpected record error: %v", err)
	}
	page, err := service.ListForUser(context.Background(), "user-1", 1, 20, false)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if err := service.MarkRead(context.Background(), page.Items[0].ID, "user-1"); err != nil {
		t.Fatalf("unexpected mark error: %v", err)
	}

	unreadPage, err := service.ListForUser(context.Background(), "user-1", 1, 20, true)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(unreadPage.Items) != 1 {
		t.Fatalf("expected one unread notification, got %d", len(unreadPage.Items))
	}
	if unreadPage.Items[0].IsRead {
		t.Fatalf("expected unread notification")
	}
}

func TestMarkReadOwnershipScoped(t *testing.T) {
	db := mustOpenDatabase(t)
	broadcast := newRecordingBroadcaster()
	service := mustNewService(t, db, broadcast, nil)

	if err := service.Record(db, []Recipient{{UserID: "owner", Type: TypeVote, ReferenceID: "vote-1"}}); err != nil {
		t.Fatalf("unexpected record error: %v", err)
	}
	page, err := service.ListForUser(context.Background(), "owner", 1, 20, false)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	notificationID := page.Items[0].ID

	if err := service.MarkRead(context.Background(), notificationID, "intruder"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
	if err := service.MarkRead(context.Background(), notificationID, "owner"); err != nil {
		t.Fatalf("unexpected mark error: %v", err)
	}

	count, err := service.UnreadCount(context.Background(), "owner")
	if err != nil {
		t.Fatalf("unexpected count error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero unread, got %d", count)
	}
	if pushed, ok := broadcast.lastCount("owner"); !ok || pushed != 0 {
		t.Fatalf("expected fresh count pushed after mark read, got %d (pushed=%v)", pushed, ok)
	}
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	db := mustOpenDatabase(t)
	broadcast := newRecordingBroadcaster()
	service := mustNewService(t, db, broadcast, nil)

	if err := service.Record(db, []Recipient{
		{UserID: "user-1", Type: TypeVote, ReferenceID: "vote-1"},
		{UserID: "user-1", Type: TypeNewAnswer, ReferenceID: "solution-1"},
	}); err != nil {
		t.Fatalf("unexpected record error: %v", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		if err := service.MarkAllRead(context.Background(), "user-1"); err != nil {
			t.Fatalf("unexpected mark all error on attempt %d: %v", attempt, err)
		}
	}
	count, err := service.UnreadCount(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected count error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero unread, got %d", count)
	}
}

func TestPushUnreadSendsFreshCounts(t *testing.T) {
	db := mustOpenDatabase(t)
	broadcast := newRecordingBroadcaster()
	service := mustNewService(t, db, broadcast, nil)

	if err := service.Record(db, []Recipient{
		{UserID: "user-1", Type: TypeVote, ReferenceID: "vote-1"},
		{UserID: "user-1", Type: TypeNewAnswer, ReferenceID: "solution-1"},
		{UserID: "user-2", Type: TypeNewAnswer, ReferenceID: "solution-1"},
	}); err != nil {
		t.Fatalf("unexpected record error: %v", err)
	}

	service.PushUnread(context.Background(), "user-1", "user-2")

	if pushed, ok := broadcast.lastCount("user-1"); !ok || pushed != 2 {
		t.Fatalf("expected pushed count 2 for user-1, got %d (pushed=%v)", pushed, ok)
	}
	if pushed, ok := broadcast.lastCount("user-2"); !ok || pushed != 1 {
		t.Fatalf("expected pushed count 1 for user-2, got %d (pushed=%v)", pushed, ok)
	}
}
