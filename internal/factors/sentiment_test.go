package factors

import (
	"context"
	"errors"
	"testing"
	"time"

	"trade-advisor/internal/types"
)

type stubArticles struct {
	scores []float64
	err    error
}

func (s stubArticles) ScoredArticles(_ context.Context, symbol string, _ int) ([]types.ScoredArticle, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]types.ScoredArticle, len(s.scores))
	for i, sc := range s.scores {
		out[i] = types.ScoredArticle{
			Article: types.NewsArticle{Title: "t", URL: "u", PublishedAt: time.Now()},
			Score:   sc,
		}
	}
	return out, nil
}

type stubMentions struct {
	scores []float64
}

func (s stubMentions) Mentions(context.Context, string) ([]types.SocialMention, error) {
	out := make([]types.SocialMention, len(s.scores))
	for i, sc := range s.scores {
		out[i] = types.SocialMention{Score: sc, Ts: time.Now()}
	}
	return out, nil
}

func TestNewsPositiveConsensus(t *testing.T) {
	n := NewNews(stubArticles{scores: []float64{0.6, 0.5, 0.7, 0.6, 0.5}}, 3, 15)
	sigs, err := n.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	s := sigs[0]
	if s.Signal != types.Buy {
		t.Errorf("signal = %s (score %.2f), want BUY", s.Signal, s.Score)
	}
	if s.Confidence <= 0.3 {
		t.Errorf("confidence = %.2f, want > 0.3 for tight positive consensus", s.Confidence)
	}
}

func TestNewsDisagreementCutsConfidence(t *testing.T) {
	tight := NewNews(stubArticles{scores: []float64{0.5, 0.5, 0.5, 0.5}}, 3, 15)
	split := NewNews(stubArticles{scores: []float64{0.9, -0.9, 0.9, -0.9}}, 3, 15)
	a, _ := tight.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"})
	b, _ := split.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"})
	if b[0].Confidence >= a[0].Confidence {
		t.Errorf("split sample confidence %.2f not below consensus %.2f", b[0].Confidence, a[0].Confidence)
	}
	if b[0].Signal != types.Hold {
		t.Errorf("split sample signal = %s, want HOLD", b[0].Signal)
	}
}

func TestNewsBelowArticleFloor(t *testing.T) {
	n := NewNews(stubArticles{scores: []float64{0.9, 0.9}}, 3, 15)
	if _, err := n.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData below the article floor", err)
	}
}

func TestNewsSourceErrorIsInsufficient(t *testing.T) {
	n := NewNews(stubArticles{err: errors.New("scrape failed")}, 3, 15)
	if _, err := n.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestSocialBelowMentionFloor(t *testing.T) {
	s := NewSocial(stubMentions{scores: make([]float64, 9)}, 10)
	if _, err := s.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData below the mention floor", err)
	}
}

func TestSocialNegativeChatter(t *testing.T) {
	scores := make([]float64, 20)
	for i := range scores {
		scores[i] = -0.6
	}
	s := NewSocial(stubMentions{scores: scores}, 10)
	sigs, err := s.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if sigs[0].Signal != types.Sell {
		t.Errorf("signal = %s (score %.2f), want SELL", sigs[0].Signal, sigs[0].Score)
	}
}
