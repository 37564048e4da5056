package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/launchonomy/orchestrator/internal/communicator"
	"github.com/launchonomy/orchestrator/internal/review"
)

// completionParticipants is the fixed {CEO, CRO, CFO} subset consulted for
// the mission-completion consensus vote (a narrower set than the
// four-member strategic planning/review subset).
var completionParticipants = []string{"CEO-Agent", "CRO-Agent", "CFO-Agent"}

// checkCompletionConsensus consults completionParticipants for a
// mission_complete vote once total revenue and successful cycles clear the
// progress thresholds, requiring unanimous agreement to conclude the
// mission successfully.
func (s *Scheduler) checkCompletionConsensus(ctx context.Context, totalRevenue float64, successfulCycles int) (bool, float64) {
	// Strict inequality on revenue matches orchestrator.py's threshold check,
	// not just spec prose's "revenue >= 1000" phrasing.
	if !(totalRevenue > 1000 && successfulCycles >= 3) {
		return false, 0
	}

	var reviews []review.Review
	var cost float64
	for _, name := range completionParticipants {
		agent, ok := s.agents.Get(name)
		if !ok {
			continue
		}
		prompt := fmt.Sprintf(`Mission Progress:
- Total Revenue: $%.2f
- Successful Cycles: %d

As %s, do you believe our mission is complete?
Consider: Have we achieved sustainable, profitable growth?

Respond with JSON: {"mission_complete": true/false, "reasoning": "explanation"}`, totalRevenue, successfulCycles, name)

		text, callCost, err := s.askText(ctx, agent, prompt)
		cost += callCost
		if err != nil {
			s.logger.Warn(ctx, "scheduler: completion consensus ask failed", "agent", name, "error", err)
			reviews = append(reviews, review.Review{Reviewer: name, Approved: false})
			continue
		}

		var parsed struct {
			MissionComplete bool   `json:"mission_complete"`
			Reasoning       string `json:"reasoning"`
		}
		if err := json.Unmarshal([]byte(communicator.ExtractJSON(text)), &parsed); err == nil {
			reviews = append(reviews, review.Review{Reviewer: name, Approved: parsed.MissionComplete, Feedback: parsed.Reasoning})
			continue
		}

		lower := strings.ToLower(text)
		vote := false
		for _, word := range []string{"yes", "complete", "finished", "achieved", "success"} {
			if strings.Contains(lower, word) {
				vote = true
				break
			}
		}
		reviews = append(reviews, review.Review{Reviewer: name, Approved: vote})
	}

	for _, r := range reviews {
		s.metrics.IncCounter("orchestrator.consensus_votes", 1, "reviewer", r.Reviewer, "approved", strconv.FormatBool(r.Approved))
	}

	if len(reviews) == 0 {
		return false, cost
	}
	return review.Unanimous(reviews), cost
}
