package matching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emberdate/matchkit/internal/cache"
	"github.com/emberdate/matchkit/internal/profile"
)

func rankerWith(store profile.Store) *Ranker {
	pairs := NewPairCache(cache.NewMemory(), 0, zap.NewNop())
	engine := NewEngine(pairs, &stubScorer{value: 0.5}, EngineConfig{}, zap.NewNop())
	engine.now = func() time.Time { return testNow }
	finder := NewFinder(store, zap.NewNop())
	return NewRanker(store, finder, engine, 0, zap.NewNop())
}

func TestRankMatchesEndToEnd(t *testing.T) {
	t.Parallel()

	seeker := locatedProfile(1, "female", 30, 40.7128, -74.0060)
	seeker.Preferences = &profile.DatingPreferences{
		GenderPreference: "male",
		MinAge:           28,
		MaxAge:           38,
		MaxDistanceKm:    50,
	}

	candidateX := locatedProfile(2, "male", 33, 40.7580, -73.9855) // ~5 km away
	candidateX.Values = seeker.Values
	candidateX.Interests = seeker.Interests
	candidateZ := locatedProfile(3, "male", 33, 43.6532, -79.3832) // Toronto, ~550 km

	store := &fakeStore{
		profiles: map[int64]*profile.UserProfile{1: seeker},
		// Candidate Y (female) never leaves the store: the gender
		// criteria filters her out before the pipeline runs.
		candidates: []*profile.UserProfile{candidateX, candidateZ},
	}

	matches, err := rankerWith(store).RankMatches(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("expected exactly candidate X, got %d matches", len(matches))
	}
	if matches[0].Candidate.ID != 2 {
		t.Fatalf("expected candidate 2, got %d", matches[0].Candidate.ID)
	}
	if matches[0].Result.Score <= 0 {
		t.Fatalf("expected positive score, got %v", matches[0].Result.Score)
	}
}

func TestRankMatchesLimitEnforcement(t *testing.T) {
	t.Parallel()

	seeker := fullProfile(1, "female", 30)
	candidates := make([]*profile.UserProfile, 0, 50)
	for i := int64(0); i < 50; i++ {
		candidate := fullProfile(100+i, "male", 30)
		candidates = append(candidates, candidate)
	}

	store := &fakeStore{
		profiles:   map[int64]*profile.UserProfile{1: seeker},
		candidates: candidates,
	}

	matches, err := rankerWith(store).RankMatches(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 5 {
		t.Fatalf("expected exactly 5 matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		prev, curr := matches[i-1], matches[i]
		if prev.Result.Score < curr.Result.Score {
			t.Fatalf("expected descending scores at %d: %v then %v",
				i, prev.Result.Score, curr.Result.Score)
		}
		if prev.Result.Score == curr.Result.Score &&
			prev.Candidate.ID >= curr.Candidate.ID {
			t.Fatalf("expected id-ascending tiebreak at %d", i)
		}
	}
}

func TestRankMatchesDeterministicOrder(t *testing.T) {
	t.Parallel()

	seeker := fullProfile(1, "female", 30)

	// Candidates differ only in tag overlap, giving distinct scores.
	strong := fullProfile(2, "male", 30)
	weak := fullProfile(3, "male", 30)
	weak.Values = []profile.Tag{{Name: "honesty"}}
	weak.Interests = []profile.Tag{{Name: "hiking"}}

	run := func() []int64 {
		store := &fakeStore{
			profiles:   map[int64]*profile.UserProfile{1: seeker},
			candidates: []*profile.UserProfile{weak, strong},
		}
		matches, err := rankerWith(store).RankMatches(context.Background(), 1, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids := make([]int64, 0, len(matches))
		for _, match := range matches {
			ids = append(ids, match.Candidate.ID)
		}
		return ids
	}

	first := run()
	if len(first) != 2 || first[0] != 2 {
		t.Fatalf("expected the full-overlap candidate first, got %v", first)
	}
	for i := 0; i < 5; i++ {
		if got := run(); fmt.Sprint(got) != fmt.Sprint(first) {
			t.Fatalf("expected deterministic order %v, got %v", first, got)
		}
	}
}

func TestRankMatchesExcludesZeroScores(t *testing.T) {
	t.Parallel()

	seeker := fullProfile(1, "female", 30)
	seeker.Dealbreakers = []profile.Dealbreaker{{Category: "interest", Value: "gambling"}}

	gated := fullProfile(2, "male", 30)
	gated.Interests = []profile.Tag{{Name: "gambling"}}
	clean := fullProfile(3, "male", 30)

	store := &fakeStore{
		profiles:   map[int64]*profile.UserProfile{1: seeker},
		candidates: []*profile.UserProfile{gated, clean},
	}

	matches, err := rankerWith(store).RankMatches(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("expected only the ungated candidate, got %d", len(matches))
	}
	if matches[0].Candidate.ID != 3 {
		t.Fatalf("expected candidate 3, got %d", matches[0].Candidate.ID)
	}
}

func TestRankMatchesExcludesCandidatesWithoutPreferences(t *testing.T) {
	t.Parallel()

	seeker := fullProfile(1, "female", 30)

	// High tag overlap would rank this candidate well, but without dating
	// preferences they are ineligible to be matched at all.
	ineligible := fullProfile(2, "male", 30)
	ineligible.Preferences = nil
	eligible := fullProfile(3, "male", 30)

	store := &fakeStore{
		profiles:   map[int64]*profile.UserProfile{1: seeker},
		candidates: []*profile.UserProfile{ineligible, eligible},
	}

	matches, err := rankerWith(store).RankMatches(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("expected only the candidate with preferences, got %d matches", len(matches))
	}
	if matches[0].Candidate.ID != 3 {
		t.Fatalf("expected candidate 3, got %d", matches[0].Candidate.ID)
	}
}

func TestRankMatchesMissingSeeker(t *testing.T) {
	t.Parallel()

	store := &fakeStore{profiles: map[int64]*profile.UserProfile{}}

	matches, err := rankerWith(store).RankMatches(context.Background(), 404, 10)
	if err != nil {
		t.Fatalf("expected empty result for missing seeker, got %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}
