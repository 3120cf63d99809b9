package service

import (
	"time"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

// StrongVerificationThreshold is the vote count at which a WORKING plurality
// marks a station as strongly verified.
const StrongVerificationThreshold = 3

// SummarizeTallies reduces per-vote counts to a VerificationSummary. Ties on
// the leading vote go to the first vote in model.VoteOrder.
func SummarizeTallies(tallies []model.VoteTally) model.VerificationSummary {
	counts := make(map[model.Vote]int, len(model.VoteOrder))
	var last time.Time
	for _, t := range tallies {
		if t.Count <= 0 {
			continue
		}
		counts[t.Vote] += t.Count
		if t.LastAt.After(last) {
			last = t.LastAt
		}
	}

	s := model.VerificationSummary{
		Working:    counts[model.VoteWorking],
		NotWorking: counts[model.VoteNotWorking],
		Busy:       counts[model.VoteBusy],
	}
	s.TotalVotes = s.Working + s.NotWorking + s.Busy
	if s.TotalVotes == 0 {
		return s
	}

	best := 0
	for _, v := range model.VoteOrder {
		if counts[v] > best {
			leading := v
			s.LeadingVote = &leading
			best = counts[v]
		}
	}
	if !last.IsZero() {
		s.LastVerifiedAt = &last
	}
	s.IsVerified = true
	s.IsStrongVerified = s.TotalVotes >= StrongVerificationThreshold &&
		*s.LeadingVote == model.VoteWorking
	return s
}

// SummarizeVotes summarizes raw verification rows.
func SummarizeVotes(votes []model.Verification) model.VerificationSummary {
	index := make(map[model.Vote]int)
	var tallies []model.VoteTally
	for _, v := range votes {
		i, ok := index[v.Vote]
		if !ok {
			i = len(tallies)
			index[v.Vote] = i
			tallies = append(tallies, model.VoteTally{Vote: v.Vote})
		}
		tallies[i].Count++
		if v.CreatedAt.After(tallies[i].LastAt) {
			tallies[i].LastAt = v.CreatedAt
		}
	}
	return SummarizeTallies(tallies)
}
