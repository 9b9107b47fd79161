package matching

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emberdate/matchkit/internal/ai"
	"github.com/emberdate/matchkit/internal/profile"
)

// Breakdown dimension names.
const (
	DimensionDealbreakers  = "dealbreakers"
	DimensionPreferences   = "datingPreferences"
	DimensionValues        = "values"
	DimensionInterests     = "interests"
	DimensionCommunication = "communication"
	DimensionPhysical      = "physical"
)

// Dealbreaker rule categories.
const (
	DealbreakerAgeMin   = "age_min"
	DealbreakerAgeMax   = "age_max"
	DealbreakerGender   = "gender"
	DealbreakerValue    = "value"
	DealbreakerInterest = "interest"
)

const (
	communicationInstruction = "Rate how compatible the two communication styles described by the documents are."
	physicalInstruction      = "Rate how well the photos listed in document B align with the physical preferences in document A."

	// DefaultScorerTimeout bounds a single semantic scorer call. On timeout
	// the dimension contributes 0 instead of failing the pair.
	DefaultScorerTimeout = 15 * time.Second
)

// Result is the computed compatibility of a user pair: an overall [0,1] score
// plus per-dimension sub-scores.
type Result struct {
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// Weights are the relative dimension weights used by the aggregation. The
// dealbreaker gate carries no weight: it either passes or zeroes the score.
type Weights struct {
	Preferences   float64 `mapstructure:"dating-preferences"`
	Values        float64 `mapstructure:"values"`
	Interests     float64 `mapstructure:"interests"`
	Communication float64 `mapstructure:"communication"`
	Physical      float64 `mapstructure:"physical"`
}

func DefaultWeights() Weights {
	return Weights{
		Preferences:   2,
		Values:        3,
		Interests:     3,
		Communication: 2,
		Physical:      2,
	}
}

func (w Weights) total() float64 {
	return w.Preferences + w.Values + w.Interests + w.Communication + w.Physical
}

// Engine computes compatibility results for user pairs. Dependencies are
// injected so tests can substitute in-memory fakes.
type Engine struct {
	pairs         *PairCache
	scorer        ai.Scorer
	weights       Weights
	scorerTimeout time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// EngineConfig tunes the scoring engine. Zero values fall back to defaults.
type EngineConfig struct {
	Weights       Weights
	ScorerTimeout time.Duration
}

func NewEngine(pairs *PairCache, scorer ai.Scorer, cfg EngineConfig, logger *zap.Logger) *Engine {
	weights := cfg.Weights
	if weights.total() <= 0 {
		weights = DefaultWeights()
	}
	timeout := cfg.ScorerTimeout
	if timeout <= 0 {
		timeout = DefaultScorerTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		pairs:         pairs,
		scorer:        scorer,
		weights:       weights,
		scorerTimeout: timeout,
		logger:        logger,
		now:           time.Now,
	}
}

// Score computes the compatibility of a and b. The result is cached under the
// canonical pair key; a hit skips all computation. Dealbreakers declared by a
// are evaluated against b and a single hit zeroes the score.
func (e *Engine) Score(ctx context.Context, a, b *profile.UserProfile) (*Result, error) {
	if cached, ok := e.pairs.Get(ctx, a.ID, b.ID); ok {
		return cached, nil
	}

	now := e.now()

	if hit := e.findDealbreaker(a, b, now); hit != nil {
		e.logger.Debug("dealbreaker hit",
			zap.Int64("user_id", a.ID),
			zap.Int64("candidate_id", b.ID),
			zap.String("category", hit.Category),
			zap.String("value", hit.Value),
		)
		result := &Result{
			Score:     0,
			Breakdown: map[string]float64{DimensionDealbreakers: 0},
		}
		e.pairs.Put(ctx, a.ID, b.ID, result)
		return result, nil
	}

	breakdown := map[string]float64{
		DimensionDealbreakers:  1,
		DimensionPreferences:   scoreReciprocity(a, b, now),
		DimensionValues:        jaccard(profile.TagNames(a.Values), profile.TagNames(b.Values)),
		DimensionInterests:     jaccard(profile.TagNames(a.Interests), profile.TagNames(b.Interests)),
		DimensionCommunication: e.scoreCommunication(ctx, a, b),
		DimensionPhysical:      e.scorePhysical(ctx, a, b),
	}

	weighted := breakdown[DimensionPreferences]*e.weights.Preferences +
		breakdown[DimensionValues]*e.weights.Values +
		breakdown[DimensionInterests]*e.weights.Interests +
		breakdown[DimensionCommunication]*e.weights.Communication +
		breakdown[DimensionPhysical]*e.weights.Physical

	result := &Result{
		Score:     clamp01(weighted / e.weights.total()),
		Breakdown: breakdown,
	}

	e.pairs.Put(ctx, a.ID, b.ID, result)
	return result, nil
}

// findDealbreaker returns the first of a's rules that b violates, or nil.
// Unrecognized categories are logged and never count as a hit.
func (e *Engine) findDealbreaker(a, b *profile.UserProfile, now time.Time) *profile.Dealbreaker {
	for i := range a.Dealbreakers {
		rule := &a.Dealbreakers[i]
		category := strings.ToLower(strings.TrimSpace(rule.Category))
		value := strings.ToLower(strings.TrimSpace(rule.Value))

		switch category {
		case DealbreakerAgeMin:
			threshold, err := strconv.Atoi(value)
			if err != nil {
				e.warnDealbreaker(a.ID, rule, "non-numeric age threshold")
				continue
			}
			if b.Age(now) < threshold {
				return rule
			}
		case DealbreakerAgeMax:
			threshold, err := strconv.Atoi(value)
			if err != nil {
				e.warnDealbreaker(a.ID, rule, "non-numeric age threshold")
				continue
			}
			if b.Age(now) > threshold {
				return rule
			}
		case DealbreakerGender:
			if strings.EqualFold(strings.TrimSpace(b.Gender), value) {
				return rule
			}
		case DealbreakerValue:
			// The rule means the candidate must NOT possess the tag.
			if _, ok := profile.TagNames(b.Values)[value]; ok {
				return rule
			}
		case DealbreakerInterest:
			if _, ok := profile.TagNames(b.Interests)[value]; ok {
				return rule
			}
		default:
			e.warnDealbreaker(a.ID, rule, "unrecognized category")
		}
	}
	return nil
}

func (e *Engine) warnDealbreaker(userID int64, rule *profile.Dealbreaker, reason string) {
	e.logger.Warn("ignoring dealbreaker rule",
		zap.Int64("user_id", userID),
		zap.String("category", rule.Category),
		zap.String("value", rule.Value),
		zap.String("reason", reason),
	)
}

// scoreReciprocity checks a against b's own stated preferences. Missing data
// on either side yields 0.
func scoreReciprocity(a, b *profile.UserProfile, now time.Time) float64 {
	if a == nil || b == nil || b.Preferences == nil {
		return 0
	}
	if strings.TrimSpace(a.Gender) == "" || a.Birthdate.IsZero() {
		return 0
	}
	if b.Preferences.AcceptsGender(a.Gender) && b.Preferences.AcceptsAge(a.Age(now)) {
		return 1
	}
	return 0
}

func (e *Engine) scoreCommunication(ctx context.Context, a, b *profile.UserProfile) float64 {
	if len(a.Communication) == 0 || len(b.Communication) == 0 {
		return 0
	}

	return e.scoreDimension(ctx, DimensionCommunication, b.ID,
		styleDocument(a.Communication), styleDocument(b.Communication),
		communicationInstruction)
}

func (e *Engine) scorePhysical(ctx context.Context, a, b *profile.UserProfile) float64 {
	if a.Physical == nil || len(b.Photos) == 0 {
		return 0
	}

	return e.scoreDimension(ctx, DimensionPhysical, b.ID,
		physicalDocument(a.Physical), ai.Document{"photos": b.Photos},
		physicalInstruction)
}

// scoreDimension invokes the semantic scorer with its own timeout. Any
// failure degrades the dimension to 0 rather than failing the pair.
func (e *Engine) scoreDimension(ctx context.Context, dimension string, candidateID int64, docA, docB ai.Document, instruction string) float64 {
	if e.scorer == nil {
		return 0
	}

	scoreCtx, cancel := context.WithTimeout(ctx, e.scorerTimeout)
	defer cancel()

	value, err := e.scorer.Score(scoreCtx, docA, docB, instruction)
	if err != nil {
		e.logger.Warn("semantic scoring failed, dimension defaults to 0",
			zap.String("dimension", dimension),
			zap.Int64("candidate_id", candidateID),
			zap.Error(err),
		)
		return 0
	}

	return clamp01(value)
}

func styleDocument(style map[string]float64) ai.Document {
	doc := make(ai.Document, len(style))
	for trait, level := range style {
		doc[trait] = level
	}
	return doc
}

func physicalDocument(p *profile.PhysicalPreferences) ai.Document {
	doc := ai.Document{}
	if p.Description != "" {
		doc["description"] = p.Description
	}
	if p.HeightRange != "" {
		doc["height_range"] = p.HeightRange
	}
	if len(p.BodyTypes) > 0 {
		doc["body_types"] = p.BodyTypes
	}
	for key, value := range p.Extra {
		doc[key] = value
	}
	return doc
}

// jaccard is |A∩B| / |A∪B|; an empty union yields 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for name := range a {
		if _, ok := b[name]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
