package synthesis

import (
	"context"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/open-mmpa/functions/errors"
)

type synthesizeAPI interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
}

// GoogleSynthesizer renders text as Ogg Opus audio with a neutral voice.
type GoogleSynthesizer struct {
	client synthesizeAPI
	closer func() error
}

func NewGoogleSynthesizer(ctx context.Context) (*GoogleSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create text-to-speech client")
	}
	return &GoogleSynthesizer{client: client, closer: client.Close}, nil
}

func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_OGG_OPUS,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "synthesize speech")
	}
	return resp.GetAudioContent(), nil
}

func (g *GoogleSynthesizer) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}
