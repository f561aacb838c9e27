package embedding

import (
	"context"
	"net/http"
	"testing"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/open-mmpa/functions/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeText struct {
	vec      Vector
	err      error
	calls    int
	taskType string
	dim      int
}

func (f *fakeText) EmbedText(ctx context.Context, text, taskType string, dimension int) (Vector, error) {
	f.calls++
	f.taskType = taskType
	f.dim = dimension
	return f.vec, f.err
}

type fakeMultiModal struct {
	out   *MultiModalOutput
	err   error
	calls int
	in    MultiModalInput
}

func (f *fakeMultiModal) EmbedMultiModal(ctx context.Context, in MultiModalInput) (*MultiModalOutput, error) {
	f.calls++
	f.in = in
	return f.out, f.err
}

func gsResolver() MediaResolver {
	return URIResolver(func(path string) string { return "gs://bucket/" + path })
}

func testLogger() *logrus.Entry {
	return logrus.NewEntry(logrus.New())
}

func TestGenerateTextOnly(t *testing.T) {
	text := &fakeText{vec: Vector{0.1, 0.2}}
	mm := &fakeMultiModal{}
	g := NewGenerator(text, mm, gsResolver())

	result, err := g.Generate(context.Background(), Request{Text: "hello"}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []Vector{{0.1, 0.2}}, result.Flatten())
	assert.Equal(t, TextTaskType, text.taskType)
	assert.Equal(t, TextDimension, text.dim)
	assert.Zero(t, mm.calls)
}

func TestGenerateAllModalities(t *testing.T) {
	text := &fakeText{vec: Vector{1}}
	mm := &fakeMultiModal{out: &MultiModalOutput{
		Image: Vector{2},
		Video: []VideoSegment{
			{StartOffsetSec: 0, EndOffsetSec: 16, Embedding: Vector{3}},
			{StartOffsetSec: 16, EndOffsetSec: 32, Embedding: Vector{4}},
		},
	}}
	g := NewGenerator(text, mm, gsResolver())

	result, err := g.Generate(context.Background(), Request{
		Text:      "a cat",
		ImagePath: "cat.png",
		VideoPath: "gs://other/cat.mp4",
	}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []Vector{{1}, {2}, {3}, {4}}, result.Flatten())
	assert.Equal(t, "a cat", mm.in.ContextualText)
	assert.Equal(t, MultiModalDimension, mm.in.Dimension)
	assert.Equal(t, "gs://bucket/cat.png", mm.in.Image.URI)
}

func TestGenerateVideoOnly(t *testing.T) {
	text := &fakeText{}
	mm := &fakeMultiModal{out: &MultiModalOutput{
		Video: []VideoSegment{{Embedding: Vector{5}}},
	}}
	g := NewGenerator(text, mm, gsResolver())

	result, err := g.Generate(context.Background(), Request{VideoPath: "clip.mp4"}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []Vector{{5}}, result.Flatten())
	assert.Zero(t, text.calls)
	assert.Nil(t, mm.in.Image)
	assert.Empty(t, mm.in.ContextualText)
}

func TestGenerateImageWithoutEmbeddingKeepsPosition(t *testing.T) {
	mm := &fakeMultiModal{out: &MultiModalOutput{}}
	g := NewGenerator(&fakeText{}, mm, gsResolver())

	result, err := g.Generate(context.Background(), Request{ImagePath: "a.png"}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []Vector{{}}, result.Flatten())
}

func TestGenerateNothing(t *testing.T) {
	text := &fakeText{}
	mm := &fakeMultiModal{}
	g := NewGenerator(text, mm, gsResolver())

	result, err := g.Generate(context.Background(), Request{}, testLogger())
	require.NoError(t, err)

	assert.Empty(t, result.Flatten())
	assert.Zero(t, text.calls)
	assert.Zero(t, mm.calls)
}

func TestGenerateTextFailureShortCircuits(t *testing.T) {
	text := &fakeText{err: errors.New("quota exceeded")}
	mm := &fakeMultiModal{out: &MultiModalOutput{Image: Vector{2}}}
	g := NewGenerator(text, mm, gsResolver())

	result, err := g.Generate(context.Background(), Request{Text: "x", ImagePath: "a.png"}, testLogger())

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, errors.StatusCode(err))
	assert.Empty(t, result.Flatten())
	assert.Zero(t, mm.calls)

	stage, ok := FailedStage(err)
	assert.True(t, ok)
	assert.Equal(t, StageText, stage)
}

func TestGenerateMultiModalFailureKeepsText(t *testing.T) {
	text := &fakeText{vec: Vector{1, 2}}
	mm := &fakeMultiModal{err: errors.New("bad video")}
	g := NewGenerator(text, mm, gsResolver())

	result, err := g.Generate(context.Background(), Request{Text: "x", VideoPath: "v.mp4"}, testLogger())

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, errors.StatusCode(err))
	assert.Equal(t, []Vector{{1, 2}}, result.Flatten())

	stage, _ := FailedStage(err)
	assert.Equal(t, StageMultiModal, stage)
}

func TestGenerateResolveFailureKeepsText(t *testing.T) {
	text := &fakeText{vec: Vector{1}}
	mm := &fakeMultiModal{}
	resolve := func(ctx context.Context, path string) (*Media, error) {
		return nil, errors.New("object not found")
	}
	g := NewGenerator(text, mm, resolve)

	result, err := g.Generate(context.Background(), Request{Text: "x", ImagePath: "a.png"}, testLogger())

	require.Error(t, err)
	assert.Equal(t, []Vector{{1}}, result.Flatten())
	assert.Zero(t, mm.calls)

	stage, _ := FailedStage(err)
	assert.Equal(t, StageMedia, stage)
}

func TestBytesResolver(t *testing.T) {
	var requested string
	resolve := BytesResolver(func(ctx context.Context, name string) ([]byte, error) {
		requested = name
		if name == "missing.png" {
			return nil, errors.New("not found")
		}
		return []byte("png"), nil
	})

	media, err := resolve(context.Background(), "gs://bucket/a.png")
	require.NoError(t, err)
	assert.Equal(t, &Media{URI: "gs://bucket/a.png"}, media)
	assert.Empty(t, requested)

	media, err = resolve(context.Background(), "images/a.png")
	require.NoError(t, err)
	assert.Equal(t, &Media{Bytes: []byte("png")}, media)
	assert.Equal(t, "images/a.png", requested)

	_, err = resolve(context.Background(), "missing.png")
	assert.ErrorContains(t, err, "not found")
}

func TestFailedStageWithoutStage(t *testing.T) {
	_, ok := FailedStage(errors.New("plain"))
	assert.False(t, ok)
}

func TestFlattenNil(t *testing.T) {
	var r *Result
	assert.Equal(t, []Vector{}, r.Flatten())
}

type fakePredictAPI struct {
	reqs []*aiplatformpb.PredictRequest
	resp *aiplatformpb.PredictResponse
	err  error
}

func (f *fakePredictAPI) Predict(ctx context.Context, req *aiplatformpb.PredictRequest, opts ...gax.CallOption) (*aiplatformpb.PredictResponse, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func prediction(t *testing.T, fields map[string]interface{}) *aiplatformpb.PredictResponse {
	t.Helper()
	v, err := structpb.NewValue(fields)
	require.NoError(t, err)
	return &aiplatformpb.PredictResponse{Predictions: []*structpb.Value{v}}
}

func testVertexClient(api predictAPI) *VertexClient {
	return &VertexClient{
		client:             api,
		textEndpoint:       modelEndpoint("open-mmpa", "us-central1", "text-embedding-004"),
		multiModalEndpoint: modelEndpoint("open-mmpa", "us-central1", "multimodalembedding@001"),
	}
}

func TestVertexEmbedText(t *testing.T) {
	api := &fakePredictAPI{resp: prediction(t, map[string]interface{}{
		"embeddings": map[string]interface{}{
			"values": []interface{}{0.5, -0.25},
		},
	})}
	v := testVertexClient(api)

	vec, err := v.EmbedText(context.Background(), "hello", TextTaskType, TextDimension)
	require.NoError(t, err)
	assert.Equal(t, Vector{0.5, -0.25}, vec)

	require.Len(t, api.reqs, 1)
	req := api.reqs[0]
	assert.Equal(t, "projects/open-mmpa/locations/us-central1/publishers/google/models/text-embedding-004", req.GetEndpoint())

	instance := req.GetInstances()[0].GetStructValue().AsMap()
	assert.Equal(t, "hello", instance["content"])
	assert.Equal(t, "RETRIEVAL_DOCUMENT", instance["task_type"])
	assert.Equal(t, float64(768), req.GetParameters().GetStructValue().AsMap()["outputDimensionality"])
}

func TestVertexEmbedTextMalformed(t *testing.T) {
	tests := []struct {
		name string
		resp *aiplatformpb.PredictResponse
	}{
		{name: "no predictions", resp: &aiplatformpb.PredictResponse{}},
		{name: "no values", resp: prediction(t, map[string]interface{}{"embeddings": map[string]interface{}{}})},
		{name: "non numeric", resp: prediction(t, map[string]interface{}{
			"embeddings": map[string]interface{}{"values": []interface{}{"x"}},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testVertexClient(&fakePredictAPI{resp: tt.resp})
			_, err := v.EmbedText(context.Background(), "hello", TextTaskType, TextDimension)
			assert.Error(t, err)
		})
	}
}

func TestVertexEmbedMultiModal(t *testing.T) {
	api := &fakePredictAPI{resp: prediction(t, map[string]interface{}{
		"imageEmbedding": []interface{}{1.0, 2.0},
		"videoEmbeddings": []interface{}{
			map[string]interface{}{"startOffsetSec": 0, "endOffsetSec": 16, "embedding": []interface{}{3.0}},
			map[string]interface{}{"startOffsetSec": 16, "endOffsetSec": 32, "embedding": []interface{}{4.0}},
		},
	})}
	v := testVertexClient(api)

	out, err := v.EmbedMultiModal(context.Background(), MultiModalInput{
		Image:          &Media{URI: "gs://bucket/a.png"},
		Video:          &Media{Bytes: []byte("mp4")},
		ContextualText: "a cat",
		Dimension:      MultiModalDimension,
	})
	require.NoError(t, err)

	assert.Equal(t, Vector{1, 2}, out.Image)
	assert.Equal(t, []VideoSegment{
		{StartOffsetSec: 0, EndOffsetSec: 16, Embedding: Vector{3}},
		{StartOffsetSec: 16, EndOffsetSec: 32, Embedding: Vector{4}},
	}, out.Video)

	req := api.reqs[0]
	assert.Equal(t, "projects/open-mmpa/locations/us-central1/publishers/google/models/multimodalembedding@001", req.GetEndpoint())

	instance := req.GetInstances()[0].GetStructValue().AsMap()
	assert.Equal(t, "a cat", instance["text"])
	assert.Equal(t, map[string]interface{}{"gcsUri": "gs://bucket/a.png"}, instance["image"])

	video := instance["video"].(map[string]interface{})
	assert.Equal(t, "bXA0", video["bytesBase64Encoded"])
	assert.Equal(t, map[string]interface{}{
		"startOffsetSec": float64(0),
		"endOffsetSec":   float64(120),
		"intervalSec":    float64(16),
	}, video["videoSegmentConfig"])
	assert.Equal(t, float64(1408), req.GetParameters().GetStructValue().AsMap()["dimension"])
}

func TestVertexEmbedMultiModalOmitsEmptyText(t *testing.T) {
	api := &fakePredictAPI{resp: prediction(t, map[string]interface{}{})}
	v := testVertexClient(api)

	out, err := v.EmbedMultiModal(context.Background(), MultiModalInput{
		Image:     &Media{URI: "gs://bucket/a.png"},
		Dimension: MultiModalDimension,
	})
	require.NoError(t, err)
	assert.Nil(t, out.Image)
	assert.Empty(t, out.Video)

	instance := api.reqs[0].GetInstances()[0].GetStructValue().AsMap()
	_, hasText := instance["text"]
	assert.False(t, hasText)
	_, hasVideo := instance["video"]
	assert.False(t, hasVideo)
}

func TestVertexPredictError(t *testing.T) {
	v := testVertexClient(&fakePredictAPI{err: errors.New("unavailable")})

	_, err := v.EmbedText(context.Background(), "x", TextTaskType, TextDimension)
	assert.ErrorContains(t, err, "unavailable")

	_, err = v.EmbedMultiModal(context.Background(), MultiModalInput{Dimension: MultiModalDimension})
	assert.ErrorContains(t, err, "unavailable")
	assert.NoError(t, v.Close())
}
