package synthesis

import (
	"context"
	"time"

	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/storage"
	"github.com/sirupsen/logrus"
)

const (
	ContentType = "audio/ogg"

	// nameLayout renders as tts_MMDDYYYY_HHMMSS.ogg.
	nameLayout = "tts_01022006_150405.ogg"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}

type SynthesisService struct {
	synthesizer Synthesizer
	store       storage.Store
	now         func() time.Time
}

func NewSynthesisService(synthesizer Synthesizer, store storage.Store) *SynthesisService {
	return &SynthesisService{
		synthesizer: synthesizer,
		store:       store,
		now:         time.Now,
	}
}

// WithClock replaces the clock used to name uploaded audio.
func (s *SynthesisService) WithClock(now func() time.Time) *SynthesisService {
	s.now = now
	return s
}

// ObjectName returns the storage name for audio synthesized at t.
func ObjectName(t time.Time) string {
	return t.Format(nameLayout)
}

// HandleSynthesis synthesizes text, stores the audio and returns the
// stored object's public name as a single element.
func (s *SynthesisService) HandleSynthesis(ctx context.Context, text, languageCode string, log *logrus.Entry) ([]string, error) {
	log = log.WithField("language_code", languageCode)

	audio, err := s.synthesizer.Synthesize(ctx, text, languageCode)
	if err != nil {
		return nil, errors.Downstream("texttospeech.SynthesizeSpeech", err)
	}

	name := ObjectName(s.now())
	if err := s.store.Upload(ctx, name, audio, ContentType); err != nil {
		return nil, errors.Downstream("storage.Upload", err)
	}

	publicName := storage.PublicName(s.store.PublicURL(name))
	log.WithFields(logrus.Fields{
		"object": publicName,
		"bytes":  len(audio),
	}).Info("Speech synthesized")

	return []string{publicName}, nil
}
