package review

import (
	"context"
	"fmt"

	"github.com/launchonomy/orchestrator/internal/communicator"
	"github.com/launchonomy/orchestrator/internal/telemetry"
)

// JSONAsker is the subset of Communicator the review manager needs.
type JSONAsker interface {
	GetJSON(ctx context.Context, agent, prompt, errMsg string, retryLog *communicator.RetryLog) (any, float64, error)
}

// Manager runs peer review rounds over a communicator.
type Manager struct {
	asker  JSONAsker
	logger telemetry.Logger
}

// New constructs a Manager backed by asker.
func New(asker JSONAsker, logger telemetry.Logger) *Manager {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Manager{asker: asker, logger: logger}
}

// excludedFromReview lists roles that never act as peer reviewers,
// regardless of whether they appear in the available agent roster.
var excludedFromReview = map[string]bool{
	"Orchestrator":          true,
	"RetrospectiveAnalyzer": true,
}

// BatchPeerReview asks every eligible agent in availableAgents (everyone
// except subjectName, the orchestrator, and the retrospective analyzer) to
// review content, returning their parsed verdicts and the total cost of the
// round. If no eligible reviewer exists, content is auto-approved with a
// synthesized System review and zero cost.
func (m *Manager) BatchPeerReview(ctx context.Context, subjectName, content string, availableAgents []string, final bool) ([]Review, float64, error) {
	reviewers := make([]string, 0, len(availableAgents))
	for _, name := range availableAgents {
		if name == subjectName || excludedFromReview[name] {
			continue
		}
		reviewers = append(reviewers, name)
	}

	if len(reviewers) == 0 {
		m.logger.Info(ctx, "no eligible peer reviewers, auto-approving", "subject", subjectName)
		return []Review{{
			Reviewer:                      "System",
			Approved:                      true,
			Feedback:                      "Auto-approved: no eligible peer reviewers available.",
			EstimatedConfidenceIfApproved: 1.0,
		}}, 0, nil
	}

	prompt := buildReviewPrompt(subjectName, content, final)
	var reviews []Review
	var totalCost float64
	for _, reviewer := range reviewers {
		var log communicator.RetryLog
		parsed, cost, err := m.asker.GetJSON(ctx, reviewer, prompt, "review must be a JSON object with approved/feedback/estimated_confidence_if_approved", &log)
		totalCost += cost
		if err != nil {
			m.logger.Warn(ctx, "peer review failed, treating as not approved", "reviewer", reviewer, "error", err)
			reviews = append(reviews, Review{Reviewer: reviewer, Approved: false, Feedback: err.Error()})
			continue
		}
		reviews = append(reviews, parseReview(reviewer, parsed))
	}
	return reviews, totalCost, nil
}

// CheckConsensus applies Majority to reviews, the rule peer review uses.
func (m *Manager) CheckConsensus(reviews []Review) bool {
	return Majority(reviews)
}

func buildReviewPrompt(subjectName, content string, final bool) string {
	stage := "draft"
	if final {
		stage = "final"
	}
	return fmt.Sprintf(
		"Review the following %s output from %s:\n\n%s\n\nRespond with a JSON object: "+
			"{\"approved\": bool, \"feedback\": string, \"estimated_confidence_if_approved\": number between 0 and 1}.",
		stage, subjectName, content,
	)
}

func parseReview(reviewer string, parsed any) Review {
	m, ok := parsed.(map[string]any)
	if !ok {
		return Review{Reviewer: reviewer, Approved: false, Feedback: "malformed review payload"}
	}
	approved, _ := m["approved"].(bool)
	feedback, _ := m["feedback"].(string)
	confidence, _ := m["estimated_confidence_if_approved"].(float64)
	return Review{Reviewer: reviewer, Approved: approved, Feedback: feedback, EstimatedConfidenceIfApproved: confidence}
}
