// Package review implements peer review and the pluggable consensus
// predicates the scheduler applies to it: simple majority for peer review
// (§ review manager), and unanimous agreement for C-Suite planning and
// completion votes, all expressed as the same Predicate abstraction so the
// scheduler never special-cases vote counting per call site.
package review

// Review is one reviewer's verdict on a piece of content.
type Review struct {
	Reviewer                      string
	Approved                      bool
	Feedback                      string
	EstimatedConfidenceIfApproved float64
}

// Predicate decides whether a set of reviews constitutes consensus.
type Predicate func(reviews []Review) bool

// Majority returns true iff strictly more than half of the reviews approve.
// This is the rule Review Manager applies to peer review.
func Majority(reviews []Review) bool {
	if len(reviews) == 0 {
		return false
	}
	approved := countApproved(reviews)
	return approved*2 > len(reviews)
}

// Unanimous returns true iff every review approves and at least one review
// was cast. This is the rule the scheduler applies to C-Suite planning and
// completion votes.
func Unanimous(reviews []Review) bool {
	if len(reviews) == 0 {
		return false
	}
	return countApproved(reviews) == len(reviews)
}

// Weighted returns a Predicate approving iff the fraction of approving
// reviews is strictly greater than threshold (a value in [0,1]).
func Weighted(threshold float64) Predicate {
	return func(reviews []Review) bool {
		if len(reviews) == 0 {
			return false
		}
		fraction := float64(countApproved(reviews)) / float64(len(reviews))
		return fraction > threshold
	}
}

func countApproved(reviews []Review) int {
	n := 0
	for _, r := range reviews {
		if r.Approved {
			n++
		}
	}
	return n
}
