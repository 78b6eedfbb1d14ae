package notifications

// Recipient is one planned notification produced by fan-out resolution.
type Recipient struct {
	UserID      string
	Type        Type
	ReferenceID string
}

// VoteStateUp is the only vote state whose transitions trigger notifications.
const VoteStateUp = "up"

// ResolveAnswerPosted computes the recipients for a new solution.
//
// Recipients are the question's followers plus its author, deduplicated by
// user id, with the solution's author excluded. Each recipient gets exactly
// one new_answer notification referencing the solution.
func ResolveAnswerPosted(questionAuthorID string, followerIDs []string, actorID, solutionID string) []Recipient {
	seen := make(map[string]bool, len(followerIDs)+1)
	recipients := make([]Recipient, 0, len(followerIDs)+1)

	add := func(userID string) {
		if userID == "" || userID == actorID || seen[userID] {
			return
		}
		seen[userID] = true
		recipients = append(recipients, Recipient{
			UserID:      userID,
			Type:        TypeNewAnswer,
			ReferenceID: solutionID,
		})
	}

	for _, followerID := range followerIDs {
		add(followerID)
	}
	add(questionAuthorID)

	return recipients
}

// ResolveVoteUpserted computes the recipients for a vote state change.
//
// Notifications are produced only when the vote transitions into "up" from a
// non-up state (a first vote counts as such a transition). The solution's
// author is notified unless they cast the vote; the question's author is
// notified unless they authored the solution or cast the vote. Down-votes,
// removals, and unchanged votes yield no recipients.
func ResolveVoteUpserted(solutionAuthorID, questionAuthorID, actorID, previousState, newState, voteID string) []Recipient {
	if newState != VoteStateUp || previousState == VoteStateUp {
		return nil
	}

	recipients := make([]Recipient, 0, 2)
	if solutionAuthorID != "" && solutionAuthorID != actorID {
		recipients = append(recipients, Recipient{
			UserID:      solutionAuthorID,
			Type:        TypeVote,
			ReferenceID: voteID,
		})
	}
	if questionAuthorID != "" && questionAuthorID != actorID && questionAuthorID != solutionAuthorID {
		recipients = append(recipients, Recipient{
			UserID:      questionAuthorID,
			Type:        TypeVote,
			ReferenceID: voteID,
		})
	}
	return recipients
}

// ResolveFollowAdded computes the recipient for a new follow subscription: the
// question's author, unless they followed their own question.
func ResolveFollowAdded(questionAuthorID, actorID, questionID string) []Recipient {
	if questionAuthorID == "" || questionAuthorID == actorID {
		return nil
	}
	return []Recipient{{
		UserID:      questionAuthorID,
		Type:        TypeFollowUpdate,
		ReferenceID: questionID,
	}}
}
