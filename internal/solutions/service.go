package solutions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/moringadesk/backend/internal/notifications"
	"github.com/moringadesk/backend/internal/questions"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates no solution matches the requested identifier.
	ErrNotFound = errors.New("solutions: not found")
	// ErrInvalidInput indicates missing or malformed solution fields.
	ErrInvalidInput = errors.New("solutions: invalid input")
	// ErrInvalidVote indicates an unrecognized vote direction.
	ErrInvalidVote = errors.New("solutions: vote type must be up or down")
	// ErrForbidden indicates the actor may not modify the solution.
	ErrForbidden = errors.New("solutions: forbidden")

	errMissingDatabase   = errors.New("solutions: database handle is required")
	errMissingIDProvider = errors.New("solutions: id provider is required")
	errMissingQuestions  = errors.New("solutions: questions service is required")
)

// IDProvider issues server-assigned identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the solutions service.
type ServiceConfig struct {
	Database      *gorm.DB
	IDProvider    IDProvider
	Questions     *questions.Service
	Notifications *notifications.Service
	Clock         func() time.Time
	Logger        *zap.Logger
}

// Service manages solutions and their votes, and fans notifications out to
// the interested parties when either changes.
type Service struct {
	db            *gorm.DB
	ids           IDProvider
	questions     *questions.Service
	notifications *notifications.Service
	clock         func() time.Time
	logger        *zap.Logger
}

// NewService constructs the solutions service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	if cfg.Questions == nil {
		return nil, errMissingQuestions
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:            cfg.Database,
		ids:           cfg.IDProvider,
		questions:     cfg.Questions,
		notifications: cfg.Notifications,
		clock:         clock,
		logger:        logger,
	}, nil
}

// Create posts a new solution against a question and notifies the question
// author and every follower, excluding the solution author.
func (s *Service) Create(ctx context.Context, questionID, authorID, content string) (View, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return View{}, ErrInvalidInput
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if errors.Is(err, questions.ErrNotFound) {
		return View{}, ErrNotFound
	}
	if err != nil {
		return View{}, err
	}
	followerIDs, err := s.questions.FollowerIDs(ctx, questionID)
	if err != nil {
		return View{}, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return View{}, err
	}
	solution := Solution{
		ID:         id,
		QuestionID: questionID,
		UserID:     authorID,
		Content:    trimmed,
	}
	recipients := notifications.ResolveAnswerPosted(question.UserID, followerIDs, authorID, solution.ID)

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&solution).Error; err != nil {
			return err
		}
		if s.notifications == nil {
			return nil
		}
		return s.notifications.Record(tx, recipients)
	})
	if txErr != nil {
		return View{}, txErr
	}
	s.pushUnread(ctx, recipients)

	return View{Solution: solution}, nil
}

// GetByID fetches one solution with its vote tallies.
func (s *Service) GetByID(ctx context.Context, solutionID string) (View, error) {
	solution, err := s.find(ctx, solutionID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, solution)
}

// Page holds one page of solutions.
type Page struct {
	Items       []View
	Total       int64
	Pages       int64
	CurrentPage int
	PerPage     int
}

// ListByQuestion returns a page of solutions for a question, accepted first,
// then newest first.
func (s *Service) ListByQuestion(ctx context.Context, questionID string, page, perPage int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).Model(&Solution{}).Where("question_id = ?", questionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page{}, err
	}

	var records []Solution
	err := query.
		Order("is_accepted DESC").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error
	if err != nil {
		return Page{}, err
	}

	items := make([]View, 0, len(records))
	for _, record := range records {
		view, err := s.view(ctx, record)
		if err != nil {
			return Page{}, err
		}
		items = append(items, view)
	}
	pages := (total + int64(perPage) - 1) / int64(perPage)
	return Page{Items: items, Total: total, Pages: pages, CurrentPage: page, PerPage: perPage}, nil
}

// Update replaces the solution content. Only the author or an admin may
// update.
func (s *Service) Update(ctx context.Context, solutionID, actorID string, actorIsAdmin bool, content string) (View, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return View{}, ErrInvalidInput
	}
	solution, err := s.find(ctx, solutionID)
	if err != nil {
		return View{}, err
	}
	if solution.UserID != actorID && !actorIsAdmin {
		return View{}, ErrForbidden
	}

	solution.Content = trimmed
	solution.UpdatedAt = s.clock().UTC()
	err = s.db.WithContext(ctx).Model(&Solution{}).
		Where("id = ?", solutionID).
		Updates(map[string]any{"content": solution.Content, "updated_at": solution.UpdatedAt}).Error
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, solution)
}

// Delete removes a solution and its votes. Only the author or an admin may
// delete.
func (s *Service) Delete(ctx context.Context, solutionID, actorID string, actorIsAdmin bool) error {
	solution, err := s.find(ctx, solutionID)
	if err != nil {
		return err
	}
	if solution.UserID != actorID && !actorIsAdmin {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("solution_id = ?", solutionID).Delete(&Vote{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", solutionID).Delete(&Solution{}).Error
	})
}

// Accept marks a solution as the accepted answer for its question. Only the
// question author may accept, and accepting one clears any prior acceptance
// on the same question.
func (s *Service) Accept(ctx context.Context, solutionID, actorID string) (View, error) {
	solution, err := s.find(ctx, solutionID)
	if err != nil {
		return View{}, err
	}
	question, err := s.questions.GetByID(ctx, solution.QuestionID)
	if err != nil {
		return View{}, err
	}
	if question.UserID != actorID {
		return View{}, ErrForbidden
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Solution{}).
			Where("question_id = ? AND is_accepted = ?", solution.QuestionID, true).
			Update("is_accepted", false).Error
		if err != nil {
			return err
		}
		return tx.Model(&Solution{}).Where("id = ?", solutionID).Update("is_accepted", true).Error
	})
	if txErr != nil {
		return View{}, txErr
	}
	solution.IsAccepted = true
	return s.view(ctx, solution)
}

// CastVote records or redirects the voter's vote on a solution. A vote that
// lands on up from any other state notifies the solution author and the
// question author; every other transition stays silent.
func (s *Service) CastVote(ctx context.Context, solutionID, voterID string, voteType VoteType) (VoteResult, error) {
	if voteType != VoteUp && voteType != VoteDown {
		return VoteResult{}, ErrInvalidVote
	}
	solution, err := s.find(ctx, solutionID)
	if err != nil {
		return VoteResult{}, err
	}
	question, err := s.questions.GetByID(ctx, solution.QuestionID)
	if err != nil {
		return VoteResult{}, err
	}

	var result VoteResult
	var recipients []notifications.Recipient
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Vote
		err := tx.Where("solution_id = ? AND user_id = ?", solutionID, voterID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			id, idErr := s.ids.NewID()
			if idErr != nil {
				return idErr
			}
			created := Vote{ID: id, SolutionID: solutionID, UserID: voterID, Type: voteType}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			result = VoteResult{VoteID: created.ID, Type: voteType, Changed: true}
		case err != nil:
			return err
		case existing.Type == voteType:
			result = VoteResult{VoteID: existing.ID, PreviousType: existing.Type, Type: voteType}
			return nil
		default:
			updates := map[string]any{"vote_type": voteType, "updated_at": s.clock().UTC()}
			if err := tx.Model(&Vote{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return err
			}
			result = VoteResult{VoteID: existing.ID, PreviousType: existing.Type, Type: voteType, Changed: true}
		}

		recipients = notifications.ResolveVoteUpserted(
			solution.UserID,
			question.UserID,
			voterID,
			string(result.PreviousType),
			string(result.Type),
			result.VoteID,
		)
		if s.notifications == nil {
			return nil
		}
		return s.notifications.Record(tx, recipients)
	})
	if txErr != nil {
		return VoteResult{}, txErr
	}
	s.pushUnread(ctx, recipients)

	return result, nil
}

// RemoveVote withdraws the voter's vote on a solution. Removing a vote never
// notifies anyone.
func (s *Service) RemoveVote(ctx context.Context, solutionID, voterID string) error {
	result := s.db.WithContext(ctx).
		Where("solution_id = ? AND user_id = ?", solutionID, voterID).
		Delete(&Vote{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListVotes returns every vote cast on a solution.
func (s *Service) ListVotes(ctx context.Context, solutionID string) ([]Vote, error) {
	var votes []Vote
	err := s.db.WithContext(ctx).
		Where("solution_id = ?", solutionID).
		Order("created_at ASC").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

// QuestionForSolution resolves the question a solution answers.
func (s *Service) QuestionForSolution(ctx context.Context, solutionID string) (notifications.QuestionRef, error) {
	solution, err := s.find(ctx, solutionID)
	if err != nil {
		return notifications.QuestionRef{}, err
	}
	return s.questions.QuestionRef(ctx, solution.QuestionID)
}

// QuestionForVote resolves the question behind a voted solution.
func (s *Service) QuestionForVote(ctx context.Context, voteID string) (notifications.QuestionRef, error) {
	var vote Vote
	err := s.db.WithContext(ctx).Where("id = ?", voteID).Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notifications.QuestionRef{}, ErrNotFound
	}
	if err != nil {
		return notifications.QuestionRef{}, err
	}
	return s.QuestionForSolution(ctx, vote.SolutionID)
}

// Question resolves a question reference directly.
func (s *Service) Question(ctx context.Context, questionID string) (notifications.QuestionRef, error) {
	return s.questions.QuestionRef(ctx, questionID)
}

func (s *Service) find(ctx context.Context, solutionID string) (Solution, error) {
	var solution Solution
	err := s.db.WithContext(ctx).Where("id = ?", solutionID).Take(&solution).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Solution{}, ErrNotFound
	}
	if err != nil {
		return Solution{}, err
	}
	return solution, nil
}

func (s *Service) view(ctx context.Context, solution Solution) (View, error) {
	var upvotes, downvotes int64
	err := s.db.WithContext(ctx).Model(&Vote{}).
		Where("solution_id = ? AND vote_type = ?", solution.ID, VoteUp).
		Count(&upvotes).Error
	if err != nil {
		return View{}, err
	}
	err = s.db.WithContext(ctx).Model(&Vote{}).
		Where("solution_id = ? AND vote_type = ?", solution.ID, VoteDown).
		Count(&downvotes).Error
	if err != nil {
		return View{}, err
	}
	return View{Solution: solution, Upvotes: upvotes, Downvotes: downvotes, Score: upvotes - downvotes}, nil
}

func (s *Service) pushUnread(ctx context.Context, recipients []notifications.Recipient) {
	if s.notifications == nil || len(recipients) == 0 {
		return
	}
	userIDs := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		userIDs = append(userIDs, recipient.UserID)
	}
	s.notifications.PushUnread(ctx, userIDs...)
}
