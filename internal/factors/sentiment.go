package factors

import (
	"context"
	"fmt"
	"math"
	"time"

	"trade-advisor/internal/types"
)

// ArticleSource supplies sentiment-scored news articles for a symbol.
type ArticleSource interface {
	ScoredArticles(ctx context.Context, symbol string, max int) ([]types.ScoredArticle, error)
}

// MentionSource supplies scored social posts for a symbol.
type MentionSource interface {
	Mentions(ctx context.Context, symbol string) ([]types.SocialMention, error)
}

// News averages article sentiment into one factor signal. Fewer articles
// than the floor means the factor sits out the cycle.
type News struct {
	src         ArticleSource
	minArticles int
	maxArticles int
}

func NewNews(src ArticleSource, minArticles, maxArticles int) *News {
	return &News{src: src, minArticles: minArticles, maxArticles: maxArticles}
}

func (n *News) Name() string { return "news" }

func (n *News) Analyze(ctx context.Context, snap types.MarketSnapshot) ([]types.FactorSignal, error) {
	if n.src == nil {
		return nil, fmt.Errorf("%w: no news source configured", ErrInsufficientData)
	}
	arts, err := n.src.ScoredArticles(ctx, snap.Symbol, n.maxArticles)
	if err != nil {
		return nil, fmt.Errorf("%w: news fetch: %v", ErrInsufficientData, err)
	}
	if len(arts) < n.minArticles {
		return nil, fmt.Errorf("%w: %d articles, need %d", ErrInsufficientData, len(arts), n.minArticles)
	}
	scores := make([]float64, len(arts))
	for i, a := range arts {
		scores[i] = a.Score
	}
	score, agreement := meanAndAgreement(scores)
	conf := clamp01(0.3+0.04*float64(len(arts))) * agreement
	return []types.FactorSignal{{
		Factor:     n.Name(),
		Signal:     types.SignalFromScore(score),
		Score:      score,
		Confidence: clamp01(conf),
		Rationale:  fmt.Sprintf("%d articles, mean sentiment %.2f", len(arts), score),
		Ts:         time.Now().UTC(),
	}}, nil
}

// Social averages mention sentiment, weighting confidence by volume of
// chatter and by how much the crowd agrees with itself.
type Social struct {
	src         MentionSource
	minMentions int
}

func NewSocial(src MentionSource, minMentions int) *Social {
	return &Social{src: src, minMentions: minMentions}
}

func (s *Social) Name() string { return "social" }

func (s *Social) Analyze(ctx context.Context, snap types.MarketSnapshot) ([]types.FactorSignal, error) {
	if s.src == nil {
		return nil, fmt.Errorf("%w: no social source configured", ErrInsufficientData)
	}
	mentions, err := s.src.Mentions(ctx, snap.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: social fetch: %v", ErrInsufficientData, err)
	}
	if len(mentions) < s.minMentions {
		return nil, fmt.Errorf("%w: %d mentions, need %d", ErrInsufficientData, len(mentions), s.minMentions)
	}
	scores := make([]float64, len(mentions))
	for i, m := range mentions {
		scores[i] = m.Score
	}
	score, agreement := meanAndAgreement(scores)
	conf := clamp01(0.2+0.01*float64(len(mentions))) * agreement
	return []types.FactorSignal{{
		Factor:     s.Name(),
		Signal:     types.SignalFromScore(score),
		Score:      score,
		Confidence: clamp01(conf),
		Rationale:  fmt.Sprintf("%d mentions, mean sentiment %.2f", len(mentions), score),
		Ts:         time.Now().UTC(),
	}}, nil
}

// meanAndAgreement returns the mean score and an agreement multiplier in
// (0,1] that shrinks as the sample's spread grows.
func meanAndAgreement(scores []float64) (mean, agreement float64) {
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	varSum := 0.0
	for _, s := range scores {
		d := s - mean
		varSum += d * d
	}
	sd := math.Sqrt(varSum / float64(len(scores)))
	return clamp(mean, -1, 1), clamp01(1 - sd)
}
