package questions

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/moringadesk/backend/internal/notifications"
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

func mustOpenDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "questions.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&Question{}, &Tag{}, &QuestionTag{}, &RelatedQuestion{}, &Follow{},
		&notifications.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func mustNewService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	notificationsService, err := notifications.NewService(notifications.ServiceConfig{
		Database:   db,
		IDProvider: &sequentialIDs{},
	})
	if err != nil {
		t.Fatalf("failed to build notifications service: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database:      db,
		IDProvider:    &sequentialIDs{},
		Notifications: notificationsService,
		Clock:         func() time.Time { return time.Unix(1756700000, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

func mustCreateQuestion(t *testing.T, service *Service, authorID, title string, tags ...string) View {
	t.Helper()
	question, err := service.Create(context.Background(), authorID, CreateInput{
		Title: title,
		Body:  "body of " + title,
		Tags:  tags,
	})
	if err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
	return question
}

func TestCreateQuestionNormalizesTags(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	question := mustCreateQuestion(t, service, "author", "Slices versus arrays", "Go", "go", " slices ")
	if len(question.Tags) != 2 {
		t.Fatalf("expected two distinct tags, got %v", question.Tags)
	}
	if question.Category != "technical" {
		t.Fatalf("expected default category, got %q", question.Category)
	}

	var tagCount int64
	if err := db.Model(&Tag{}).Count(&tagCount).Error; err != nil {
		t.Fatalf("failed to count tags: %v", err)
	}
	if tagCount != 2 {
		t.Fatalf("expected two tag rows, got %d", tagCount)
	}
}

func TestCreateQuestionRejectsEmptyFields(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	if _, err := service.Create(context.Background(), "author", CreateInput{Title: "  ", Body: "body"}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.Create(context.Background(), "author", CreateInput{Title: "title", Body: ""}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListQuestionsFiltersAndSearches(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	mustCreateQuestion(t, service, "author", "Goroutine leak in worker pool")
	if _, err := service.Create(context.Background(), "author", CreateInput{
		Title:    "Career advice for juniors",
		Body:     "where to start",
		Category: "non-technical",
	}); err != nil {
		t.Fatalf("failed to create question: %v", err)
	}

	page, err := service.List(context.Background(), 1, 20, "non-technical", "")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("expected one non-technical question, got %d", page.Total)
	}

	page, err = service.List(context.Background(), 1, 20, "", "GOROUTINE")
	if err != nil {
		t.Fatalf("unexpected search error: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected case-insensitive search to match, got %d", page.Total)
	}
}

func TestUpdateQuestionRequiresAuthorOrAdmin(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	question := mustCreateQuestion(t, service, "author", "Original title")

	if _, err := service.Update(context.Background(), question.ID, "stranger", false, UpdateInput{Title: "hijacked", Body: "x"}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	updated, err := service.Update(context.Background(), question.ID, "moderator", true, UpdateInput{Title: "Moderated title", Body: "cleaned"})
	if err != nil {
		t.Fatalf("unexpected admin update error: %v", err)
	}
	if updated.Title != "Moderated title" {
		t.Fatalf("expected admin update to apply, got %q", updated.Title)
	}
}

func TestDeleteQuestionRemovesAssociations(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	question := mustCreateQuestion(t, service, "author", "Doomed question", "cleanup")
	if err := service.FollowQuestion(context.Background(), question.ID, "follower"); err != nil {
		t.Fatalf("unexpected follow error: %v", err)
	}

	if err := service.Delete(context.Background(), question.ID, "author", false); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if _, err := service.GetByID(context.Background(), question.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	var followCount int64
	if err := db.Model(&Follow{}).Where("question_id = ?", question.ID).Count(&followCount).Error; err != nil {
		t.Fatalf("failed to count follows: %v", err)
	}
	if followCount != 0 {
		t.Fatalf("expected follows to be removed with the question")
	}
}

func TestFollowQuestionIsIdempotentAndNotifiesAuthorOnce(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	question := mustCreateQuestion(t, service, "author", "Follow me")

	for attempt := 0; attempt < 2; attempt++ {
		if err := service.FollowQuestion(context.Background(), question.ID, "follower"); err != nil {
			t.Fatalf("unexpected follow error on attempt %d: %v", attempt, err)
		}
	}

	followerIDs, err := service.FollowerIDs(context.Background(), question.ID)
	if err != nil {
		t.Fatalf("unexpected follower ids error: %v", err)
	}
	if len(followerIDs) != 1 || followerIDs[0] != "follower" {
		t.Fatalf("expected single follower, got %v", followerIDs)
	}

	var notificationCount int64
	err = db.Model(&notifications.Notification{}).
		Where("user_id = ? AND type = ?", "author", notifications.TypeFollowUpdate).
		Count(&notificationCount).Error
	if err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	if notificationCount != 1 {
		t.Fatalf("expected exactly one follow notification, got %d", notificationCount)
	}
}

func TestFollowOwnQuestionStaysSilent(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	question := mustCreateQuestion(t, service, "author", "Self follow")
	if err := service.FollowQuestion(context.Background(), question.ID, "author"); err != nil {
		t.Fatalf("unexpected follow error: %v", err)
	}

	var notificationCount int64
	if err := db.Model(&notifications.Notification{}).Count(&notificationCount).Error; err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	if notificationCount != 0 {
		t.Fatalf("expected no notification for self follow, got %d", notificationCount)
	}
}

func TestUnfollowQuestionIsIdempotent(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	question := mustCreateQuestion(t, service, "author", "Unfollow me")
	if err := service.FollowQuestion(context.Background(), question.ID, "follower"); err != nil {
		t.Fatalf("unexpected follow error: %v", err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		if err := service.UnfollowQuestion(context.Background(), question.ID, "follower"); err != nil {
			t.Fatalf("unexpected unfollow error on attempt %d: %v", attempt, err)
		}
	}
	followerIDs, err := service.FollowerIDs(context.Background(), question.ID)
	if err != nil {
		t.Fatalf("unexpected follower ids error: %v", err)
	}
	if len(followerIDs) != 0 {
		t.Fatalf("expected no followers, got %v", followerIDs)
	}
}

func TestLinkRelatedRejectsSelfLink(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	question := mustCreateQuestion(t, service, "author", "Lonely question")
	if err := service.LinkRelated(context.Background(), question.ID, question.ID); err != ErrSelfLink {
		t.Fatalf("expected ErrSelfLink, got %v", err)
	}
}

func TestLinkRelatedIsIdempotent(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	first := mustCreateQuestion(t, service, "author", "First question")
	second := mustCreateQuestion(t, service, "author", "Second question")

	for attempt := 0; attempt < 2; attempt++ {
		if err := service.LinkRelated(context.Background(), first.ID, second.ID); err != nil {
			t.Fatalf("unexpected link error on attempt %d: %v", attempt, err)
		}
	}
	related, err := service.ListRelated(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("unexpected list related error: %v", err)
	}
	if len(related) != 1 || related[0].ID != second.ID {
		t.Fatalf("expected a single related question, got %d", len(related))
	}
}

func TestQuestionRefResolvesTitle(t *testing.T) {
	db := mustOpenDatabase(t)
	service := mustNewService(t, db)

	question := mustCreateQuestion(t, service, "author", "Referenced title")
	ref, err := service.QuestionRef(context.Background(), question.ID)
	if err != nil {
		t.Fatalf("unexpected ref error: %v", err)
	}
	if ref.QuestionID != question.ID || ref.Title != "Referenced title" {
		t.Fatalf("unexpected ref: %#v", ref)
	}
}
