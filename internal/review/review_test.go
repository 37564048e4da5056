package review

import (
	"context"
	"testing"

	"github.com/launchonomy/orchestrator/internal/communicator"
)

func TestMajorityRequiresStrictlyMoreThanHalf(t *testing.T) {
	tied := []Review{{Approved: true}, {Approved: false}}
	if Majority(tied) {
		t.Fatal("expected tie to not reach majority")
	}
	majority := []Review{{Approved: true}, {Approved: true}, {Approved: false}}
	if !Majority(majority) {
		t.Fatal("expected 2/3 to reach majority")
	}
}

func TestUnanimousRequiresEveryVote(t *testing.T) {
	allTrue := []Review{{Approved: true}, {Approved: true}}
	if !Unanimous(allTrue) {
		t.Fatal("expected unanimous true")
	}
	oneFalse := []Review{{Approved: true}, {Approved: false}}
	if Unanimous(oneFalse) {
		t.Fatal("expected one dissent to break unanimity")
	}
	if Unanimous(nil) {
		t.Fatal("expected no votes to never be unanimous")
	}
}

func TestWeightedThreshold(t *testing.T) {
	p := Weighted(0.6)
	belowThreshold := []Review{{Approved: true}, {Approved: false}}
	if p(belowThreshold) {
		t.Fatal("expected 50% to fail 60% threshold")
	}
	aboveThreshold := []Review{{Approved: true}, {Approved: true}, {Approved: false}}
	if !p(aboveThreshold) {
		t.Fatal("expected 66% to pass 60% threshold")
	}
}

type fakeAsker struct {
	responses map[string]any
	cost      float64
	errFor    map[string]error
}

func (f *fakeAsker) GetJSON(_ context.Context, agent, _, _ string, _ *communicator.RetryLog) (any, float64, error) {
	if err, ok := f.errFor[agent]; ok {
		return nil, 0, err
	}
	return f.responses[agent], f.cost, nil
}

func TestBatchPeerReviewExcludesSubjectAndReservedRoles(t *testing.T) {
	asker := &fakeAsker{responses: map[string]any{
		"CRO-Agent": map[string]any{"approved": true, "feedback": "looks good", "estimated_confidence_if_approved": 0.9},
	}, cost: 0.02}
	m := New(asker, nil)

	reviews, cost, err := m.BatchPeerReview(context.Background(), "CEO-Agent", "plan content",
		[]string{"CEO-Agent", "CRO-Agent", "Orchestrator", "RetrospectiveAnalyzer"}, false)
	if err != nil {
		t.Fatalf("batch review: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Reviewer != "CRO-Agent" {
		t.Fatalf("expected only CRO-Agent to review, got %+v", reviews)
	}
	if cost != 0.02 {
		t.Fatalf("unexpected total cost: %v", cost)
	}
}

func TestBatchPeerReviewAutoApprovesWhenNoReviewersEligible(t *testing.T) {
	m := New(&fakeAsker{}, nil)
	reviews, cost, err := m.BatchPeerReview(context.Background(), "CEO-Agent", "content", []string{"CEO-Agent"}, false)
	if err != nil {
		t.Fatalf("batch review: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Reviewer != "System" || !reviews[0].Approved {
		t.Fatalf("expected synthesized System approval, got %+v", reviews)
	}
	if cost != 0 {
		t.Fatalf("expected zero cost, got %v", cost)
	}
}

func TestCheckConsensusDelegatesToMajority(t *testing.T) {
	m := New(&fakeAsker{}, nil)
	if m.CheckConsensus([]Review{{Approved: false}, {Approved: false}}) {
		t.Fatal("expected no consensus")
	}
	if !m.CheckConsensus([]Review{{Approved: true}, {Approved: true}, {Approved: false}}) {
		t.Fatal("expected consensus")
	}
}
