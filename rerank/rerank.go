package rerank

import (
	"context"

	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/validation"
	"github.com/sirupsen/logrus"
)

const DefaultTopN = 10

type Record struct {
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title" validate:"required_without=Content"`
	Content string `json:"content" validate:"required_without=Title"`
}

type Request struct {
	Query   string   `json:"query" validate:"required"`
	Records []Record `json:"records" validate:"required,min=1,dive"`
	TopN    int      `json:"top_n" validate:"gte=0"`
}

// Ranking is one scored record, in the order the ranking service returned it.
type Ranking struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
}

type Ranker interface {
	Rank(ctx context.Context, req Request) ([]Ranking, error)
}

type RerankService struct {
	ranker Ranker
}

func NewRerankService(ranker Ranker) *RerankService {
	return &RerankService{ranker: ranker}
}

func (s *RerankService) HandleRerank(ctx context.Context, req Request, log *logrus.Entry) ([]Ranking, error) {
	const op = "rerank.HandleRerank"

	if req.Query == "" {
		return nil, errors.InvalidInput(op, nil, "query is required")
	}
	if len(req.Records) == 0 {
		return nil, errors.InvalidInput(op, nil, "records is required")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, errors.InvalidInput(op, err, err.Error())
	}

	rankings, err := s.ranker.Rank(ctx, req)
	if err != nil {
		return nil, errors.Downstream("discoveryengine.Rank", err)
	}

	log.WithFields(logrus.Fields{
		"records":  len(req.Records),
		"top_n":    req.TopN,
		"rankings": len(rankings),
	}).Info("Records reranked")

	return rankings, nil
}
