package transcription

import (
	"context"
	"strings"

	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/storage"
	"github.com/sirupsen/logrus"
)

// Segment is one recognized stretch of audio.
type Segment struct {
	Transcript   string
	LanguageCode string
}

type Recognizer interface {
	Recognize(ctx context.Context, audio []byte) ([]Segment, error)
}

type TranscriptionService struct {
	store      storage.Store
	recognizer Recognizer
}

func NewTranscriptionService(store storage.Store, recognizer Recognizer) *TranscriptionService {
	return &TranscriptionService{
		store:      store,
		recognizer: recognizer,
	}
}

// HandleTranscription fetches the recording and returns its transcript as
// alternating transcript/language pairs. No partial result is returned on
// failure.
func (s *TranscriptionService) HandleTranscription(ctx context.Context, recordingFileName string, log *logrus.Entry) ([]string, error) {
	const op = "transcription.HandleTranscription"

	if recordingFileName == "" {
		return nil, errors.InvalidInput(op, nil, "recording_file_name is required")
	}

	log = log.WithField("recording_file_name", recordingFileName)

	audio, err := s.store.Download(ctx, recordingFileName)
	if err != nil {
		return nil, errors.Downstream("storage.Download", err)
	}
	log.WithField("bytes", len(audio)).Debug("Recording downloaded")

	segments, err := s.recognizer.Recognize(ctx, audio)
	if err != nil {
		return nil, errors.Downstream("speech.Recognize", err)
	}
	log.WithField("segments", len(segments)).Info("Recording transcribed")

	return Flatten(segments), nil
}

// Flatten produces [transcript_1, language_1, transcript_2, language_2, ...].
func Flatten(segments []Segment) []string {
	out := make([]string, 0, 2*len(segments))
	for _, seg := range segments {
		out = append(out, strings.TrimSpace(seg.Transcript), seg.LanguageCode)
	}
	return out
}
