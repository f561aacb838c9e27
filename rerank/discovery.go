package rerank

import (
	"context"
	"fmt"
	"math"

	discoveryengine "cloud.google.com/go/discoveryengine/apiv1"
	"cloud.google.com/go/discoveryengine/apiv1/discoveryenginepb"
	"github.com/googleapis/gax-go/v2"
	"github.com/open-mmpa/functions/errors"
)

type rankAPI interface {
	Rank(ctx context.Context, req *discoveryenginepb.RankRequest, opts ...gax.CallOption) (*discoveryenginepb.RankResponse, error)
}

// DiscoveryRanker scores records with the Vertex AI Search ranking API.
type DiscoveryRanker struct {
	client        rankAPI
	closer        func() error
	rankingConfig string
	model         string
}

func NewDiscoveryRanker(ctx context.Context, projectID, location, rankingConfig, model string) (*DiscoveryRanker, error) {
	client, err := discoveryengine.NewRankClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rank client")
	}

	return &DiscoveryRanker{
		client:        client,
		closer:        client.Close,
		rankingConfig: RankingConfigPath(projectID, location, rankingConfig),
		model:         model,
	}, nil
}

func RankingConfigPath(projectID, location, rankingConfig string) string {
	return fmt.Sprintf("projects/%s/locations/%s/rankingConfigs/%s", projectID, location, rankingConfig)
}

func (d *DiscoveryRanker) Rank(ctx context.Context, req Request) ([]Ranking, error) {
	resp, err := d.client.Rank(ctx, d.request(req))
	if err != nil {
		return nil, errors.Wrap(err, "rank")
	}

	records := resp.GetRecords()
	rankings := make([]Ranking, 0, len(records))
	for _, r := range records {
		rankings = append(rankings, Ranking{ID: r.GetId(), Score: r.GetScore()})
	}
	return rankings, nil
}

func (d *DiscoveryRanker) request(req Request) *discoveryenginepb.RankRequest {
	records := make([]*discoveryenginepb.RankingRecord, 0, len(req.Records))
	for _, r := range req.Records {
		records = append(records, &discoveryenginepb.RankingRecord{
			Id:      r.ID,
			Title:   r.Title,
			Content: r.Content,
		})
	}

	topN := req.TopN
	if topN > math.MaxInt32 {
		topN = math.MaxInt32
	}

	return &discoveryenginepb.RankRequest{
		RankingConfig: d.rankingConfig,
		Model:         d.model,
		TopN:          int32(topN),
		Query:         req.Query,
		Records:       records,
	}
}

func (d *DiscoveryRanker) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}
