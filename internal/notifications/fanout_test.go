package notifications

import "testing"

func recipientUserIDs(recipients []Recipient) []string {
	userIDs := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		userIDs = append(userIDs, recipient.UserID)
	}
	return userIDs
}

func assertUserIDs(t *testing.T, recipients []Recipient, expected ...string) {
	t.Helper()
	actual := recipientUserIDs(recipients)
	if len(actual) != len(expected) {
		t.Fatalf("expected recipients %v, got %v", expected, actual)
	}
	seen := make(map[string]bool, len(actual))
	for _, userID := range actual {
		if seen[userID] {
			t.Fatalf("duplicate recipient %q in %v", userID, actual)
		}
		seen[userID] = true
	}
	for _, userID := range expected {
		if !seen[userID] {
			t.Fatalf("expected recipient %q in %v", userID, actual)
		}
	}
}

func TestResolveAnswerPostedNotifiesAuthorAndFollowers(t *testing.T) {
	recipients := ResolveAnswerPosted("author", []string{"follower-1", "follower-2"}, "actor", "solution-1")
	assertUserIDs(t, recipients, "author", "follower-1", "follower-2")
	for _, recipient := range recipients {
		if recipient.Type != TypeNewAnswer {
			t.Fatalf("expected type %q, got %q", TypeNewAnswer, recipient.Type)
		}
		if recipient.ReferenceID != "solution-1" {
			t.Fatalf("expected reference to solution, got %q", recipient.ReferenceID)
		}
	}
}

func TestResolveAnswerPostedExcludesActor(t *testing.T) {
	recipients := ResolveAnswerPosted("author", []string{"follower-1", "actor"}, "actor", "solution-1")
	assertUserIDs(t, recipients, "author", "follower-1")
}

func TestResolveAnswerPostedSelfAnswerSkipsAuthor(t *testing.T) {
	recipients := ResolveAnswerPosted("author", []string{"follower-1"}, "author", "solution-1")
	assertUserIDs(t, recipients, "follower-1")
}

func TestResolveAnswerPostedDeduplicatesFollowingAuthor(t *testing.T) {
	// The question author also follows their own question. One notification.
	recipients := ResolveAnswerPosted("author", []string{"author", "follower-1"}, "actor", "solution-1")
	assertUserIDs(t, recipients, "author", "follower-1")
}

func TestResolveAnswerPostedNoRecipients(t *testing.T) {
	recipients := ResolveAnswerPosted("author", nil, "author", "solution-1")
	if len(recipients) != 0 {
		t.Fatalf("expected no recipients, got %v", recipientUserIDs(recipients))
	}
}

func TestResolveVoteUpsertedFirstUpvoteNotifiesBothAuthors(t *testing.T) {
	recipients := ResolveVoteUpserted("solution-author", "question-author", "voter", "", "up", "vote-1")
	assertUserIDs(t, recipients, "solution-author", "question-author")
	for _, recipient := range recipients {
		if recipient.Type != TypeVote {
			t.Fatalf("expected type %q, got %q", TypeVote, recipient.Type)
		}
		if recipient.ReferenceID != "vote-1" {
			t.Fatalf("expected reference to vote, got %q", recipient.ReferenceID)
		}
	}
}

func TestResolveVoteUpsertedDownToUpNotifies(t *testing.T) {
	recipients := ResolveVoteUpserted("solution-author", "question-author", "voter", "down", "up", "vote-1")
	assertUserIDs(t, recipients, "solution-author", "question-author")
}

func TestResolveVoteUpsertedDownvoteStaysSilent(t *testing.T) {
	if got := ResolveVoteUpserted("solution-author", "question-author", "voter", "", "down", "vote-1"); len(got) != 0 {
		t.Fatalf("expected no recipients for downvote, got %v", recipientUserIDs(got))
	}
}

func TestResolveVoteUpsertedRepeatedUpStaysSilent(t *testing.T) {
	if got := ResolveVoteUpserted("solution-author", "question-author", "voter", "up", "up", "vote-1"); len(got) != 0 {
		t.Fatalf("expected no recipients for unchanged upvote, got %v", recipientUserIDs(got))
	}
}

func TestResolveVoteUpsertedUpToDownStaysSilent(t *testing.T) {
	if got := ResolveVoteUpserted("solution-author", "question-author", "voter", "up", "down", "vote-1"); len(got) != 0 {
		t.Fatalf("expected no recipients for up-to-down, got %v", recipientUserIDs(got))
	}
}

func TestResolveVoteUpsertedSelfVoteExcludesVoter(t *testing.T) {
	recipients := ResolveVoteUpserted("voter", "question-author", "voter", "", "up", "vote-1")
	assertUserIDs(t, recipients, "question-author")
}

func TestResolveVoteUpsertedSameAuthorsSingleRecipient(t *testing.T) {
	// Solution author answered their own question; only one notification.
	recipients := ResolveVoteUpserted("author", "author", "voter", "", "up", "vote-1")
	assertUserIDs(t, recipients, "author")
}

func TestResolveFollowAddedNotifiesQuestionAuthor(t *testing.T) {
	recipients := ResolveFollowAdded("author", "follower", "question-1")
	assertUserIDs(t, recipients, "author")
	if recipients[0].Type != TypeFollowUpdate {
		t.Fatalf("expected type %q, got %q", TypeFollowUpdate, recipients[0].Type)
	}
	if recipients[0].ReferenceID != "question-1" {
		t.Fatalf("expected reference to question, got %q", recipients[0].ReferenceID)
	}
}

func TestResolveFollowAddedSelfFollowStaysSilent(t *testing.T) {
	if got := ResolveFollowAdded("author", "author", "question-1"); len(got) != 0 {
		t.Fatalf("expected no recipients for self follow, got %v", recipientUserIDs(got))
	}
}
