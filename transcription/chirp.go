package transcription

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/open-mmpa/functions/errors"
	"google.golang.org/api/option"
)

type recognizeAPI interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

// ChirpRecognizer transcribes audio with Speech-to-Text v2, letting the
// service detect the spoken language.
type ChirpRecognizer struct {
	client     recognizeAPI
	closer     func() error
	recognizer string
	model      string
}

func NewChirpRecognizer(ctx context.Context, projectID, region, model string) (*ChirpRecognizer, error) {
	client, err := speech.NewClient(ctx,
		option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:443", region)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create speech client")
	}

	return &ChirpRecognizer{
		client:     client,
		closer:     client.Close,
		recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", projectID, region),
		model:      model,
	}, nil
}

func (c *ChirpRecognizer) Recognize(ctx context.Context, audio []byte) ([]Segment, error) {
	resp, err := c.client.Recognize(ctx, c.request(audio))
	if err != nil {
		return nil, errors.Wrap(err, "recognize")
	}
	return segmentsFromResponse(resp), nil
}

// The whole payload is sent inline in one request.
func (c *ChirpRecognizer) request(audio []byte) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Recognizer: c.recognizer,
		Config: &speechpb.RecognitionConfig{
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			LanguageCodes: []string{"auto"},
			Model:         c.model,
		},
		AudioSource: &speechpb.RecognizeRequest_Content{
			Content: audio,
		},
	}
}

func segmentsFromResponse(resp *speechpb.RecognizeResponse) []Segment {
	results := resp.GetResults()
	segments := make([]Segment, 0, len(results))
	for _, result := range results {
		var transcript string
		if alts := result.GetAlternatives(); len(alts) > 0 {
			transcript = alts[0].GetTranscript()
		}
		segments = append(segments, Segment{
			Transcript:   transcript,
			LanguageCode: result.GetLanguageCode(),
		})
	}
	return segments
}

func (c *ChirpRecognizer) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
