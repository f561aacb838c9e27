package embedding

import (
	"context"
	"encoding/base64"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/open-mmpa/functions/errors"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// Default video segmentation used by the multi-modal model.
const (
	videoStartOffsetSec = 0
	videoEndOffsetSec   = 120
	videoIntervalSec    = 16
)

type predictAPI interface {
	Predict(ctx context.Context, req *aiplatformpb.PredictRequest, opts ...gax.CallOption) (*aiplatformpb.PredictResponse, error)
}

// VertexClient serves both text and multi-modal embeddings through the
// Vertex AI prediction endpoint of the project's region.
type VertexClient struct {
	client             predictAPI
	closer             func() error
	textEndpoint       string
	multiModalEndpoint string
}

func NewVertexClient(ctx context.Context, projectID, region, textModel, multiModalModel string) (*VertexClient, error) {
	client, err := aiplatform.NewPredictionClient(ctx,
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", region)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create prediction client")
	}

	return &VertexClient{
		client:             client,
		closer:             client.Close,
		textEndpoint:       modelEndpoint(projectID, region, textModel),
		multiModalEndpoint: modelEndpoint(projectID, region, multiModalModel),
	}, nil
}

func modelEndpoint(projectID, region, model string) string {
	return fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", projectID, region, model)
}

func (v *VertexClient) EmbedText(ctx context.Context, text, taskType string, dimension int) (Vector, error) {
	instance, err := structpb.NewValue(map[string]interface{}{
		"content":   text,
		"task_type": taskType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build text instance")
	}
	params, err := structpb.NewValue(map[string]interface{}{
		"outputDimensionality": dimension,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build text parameters")
	}

	resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:   v.textEndpoint,
		Instances:  []*structpb.Value{instance},
		Parameters: params,
	})
	if err != nil {
		return nil, errors.Wrap(err, "predict text embedding")
	}

	return parseTextPrediction(resp)
}

func parseTextPrediction(resp *aiplatformpb.PredictResponse) (Vector, error) {
	preds := resp.GetPredictions()
	if len(preds) == 0 {
		return nil, errors.New("text embedding response has no predictions")
	}
	embeddings := preds[0].GetStructValue().GetFields()["embeddings"]
	values := embeddings.GetStructValue().GetFields()["values"]
	if values == nil {
		return nil, errors.New("text embedding response has no values")
	}
	return toVector(values)
}

func (v *VertexClient) EmbedMultiModal(ctx context.Context, in MultiModalInput) (*MultiModalOutput, error) {
	fields := map[string]interface{}{}
	if in.ContextualText != "" {
		fields["text"] = in.ContextualText
	}
	if in.Image != nil {
		fields["image"] = mediaField(in.Image)
	}
	if in.Video != nil {
		video := mediaField(in.Video)
		video["videoSegmentConfig"] = map[string]interface{}{
			"startOffsetSec": videoStartOffsetSec,
			"endOffsetSec":   videoEndOffsetSec,
			"intervalSec":    videoIntervalSec,
		}
		fields["video"] = video
	}

	instance, err := structpb.NewValue(fields)
	if err != nil {
		return nil, errors.Wrap(err, "build multimodal instance")
	}
	params, err := structpb.NewValue(map[string]interface{}{
		"dimension": in.Dimension,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build multimodal parameters")
	}

	resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:   v.multiModalEndpoint,
		Instances:  []*structpb.Value{instance},
		Parameters: params,
	})
	if err != nil {
		return nil, errors.Wrap(err, "predict multimodal embedding")
	}

	return parseMultiModalPrediction(resp)
}

func mediaField(m *Media) map[string]interface{} {
	if m.URI != "" {
		return map[string]interface{}{"gcsUri": m.URI}
	}
	return map[string]interface{}{"bytesBase64Encoded": base64.StdEncoding.EncodeToString(m.Bytes)}
}

func parseMultiModalPrediction(resp *aiplatformpb.PredictResponse) (*MultiModalOutput, error) {
	preds := resp.GetPredictions()
	if len(preds) == 0 {
		return nil, errors.New("multimodal embedding response has no predictions")
	}
	fields := preds[0].GetStructValue().GetFields()

	out := &MultiModalOutput{}
	if img, ok := fields["imageEmbedding"]; ok {
		vec, err := toVector(img)
		if err != nil {
			return nil, errors.Wrap(err, "image embedding")
		}
		out.Image = vec
	}

	for i, item := range fields["videoEmbeddings"].GetListValue().GetValues() {
		seg := item.GetStructValue().GetFields()
		vec, err := toVector(seg["embedding"])
		if err != nil {
			return nil, errors.Wrapf(err, "video embedding %d", i)
		}
		out.Video = append(out.Video, VideoSegment{
			StartOffsetSec: int(seg["startOffsetSec"].GetNumberValue()),
			EndOffsetSec:   int(seg["endOffsetSec"].GetNumberValue()),
			Embedding:      vec,
		})
	}

	return out, nil
}

func toVector(v *structpb.Value) (Vector, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, errors.New("expected a list of numbers")
	}
	vec := make(Vector, 0, len(list.GetValues()))
	for i, n := range list.GetValues() {
		if _, ok := n.GetKind().(*structpb.Value_NumberValue); !ok {
			return nil, errors.Errorf("element %d is not a number", i)
		}
		vec = append(vec, float32(n.GetNumberValue()))
	}
	return vec, nil
}

func (v *VertexClient) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer()
}
