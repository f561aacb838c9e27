// Package embedding computes text, image and video embeddings for one
// request and assembles them into a single ordered result.
//
// Two downstream calls are made at most, always in this order:
//
//  1. text embedding, when text is present. A failure here ends the
//     request immediately; the multi-modal call is never attempted.
//  2. multi-modal embedding, when an image or video is present. A failure
//     here keeps the text embedding already computed.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/open-mmpa/functions/errors"
	"github.com/sirupsen/logrus"
)

const (
	TextTaskType        = "RETRIEVAL_DOCUMENT"
	TextDimension       = 768
	MultiModalDimension = 1408
)

type Vector []float32

type Request struct {
	Text      string
	ImagePath string
	VideoPath string
}

func (r Request) HasMedia() bool {
	return r.ImagePath != "" || r.VideoPath != ""
}

// Media points at an image or video either by URI or by inline bytes.
type Media struct {
	URI   string
	Bytes []byte
}

type VideoSegment struct {
	StartOffsetSec int
	EndOffsetSec   int
	Embedding      Vector
}

type MultiModalInput struct {
	Image          *Media
	Video          *Media
	ContextualText string
	Dimension      int
}

type MultiModalOutput struct {
	Image Vector
	Video []VideoSegment
}

type TextEmbedder interface {
	EmbedText(ctx context.Context, text, taskType string, dimension int) (Vector, error)
}

type MultiModalEmbedder interface {
	EmbedMultiModal(ctx context.Context, in MultiModalInput) (*MultiModalOutput, error)
}

// MediaResolver turns a caller supplied path into something the
// multi-modal model can read.
type MediaResolver func(ctx context.Context, path string) (*Media, error)

// URIResolver passes paths through as URIs.
func URIResolver(toURI func(path string) string) MediaResolver {
	return func(ctx context.Context, path string) (*Media, error) {
		return &Media{URI: toURI(path)}, nil
	}
}

// BytesResolver passes gs:// URIs through and reads any other path with
// download, sending the content inline.
func BytesResolver(download func(ctx context.Context, name string) ([]byte, error)) MediaResolver {
	return func(ctx context.Context, path string) (*Media, error) {
		if strings.HasPrefix(path, "gs://") {
			return &Media{URI: path}, nil
		}
		data, err := download(ctx, path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		return &Media{Bytes: data}, nil
	}
}

// Result keeps each modality separately. Text and Image are nil when they
// were not computed.
type Result struct {
	Text  Vector
	Image Vector
	Video []VideoSegment
}

// Flatten produces the positional wire shape: text, then image, then one
// entry per video segment in segment order.
func (r *Result) Flatten() []Vector {
	if r == nil {
		return []Vector{}
	}
	out := make([]Vector, 0, 2+len(r.Video))
	if r.Text != nil {
		out = append(out, r.Text)
	}
	if r.Image != nil {
		out = append(out, r.Image)
	}
	for _, seg := range r.Video {
		out = append(out, seg.Embedding)
	}
	return out
}

type Stage string

const (
	StageText       Stage = "text"
	StageMedia      Stage = "media"
	StageMultiModal Stage = "multimodal"
)

// StageError records which downstream step failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s embedding: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Generator struct {
	text       TextEmbedder
	multiModal MultiModalEmbedder
	resolve    MediaResolver
}

func NewGenerator(text TextEmbedder, multiModal MultiModalEmbedder, resolve MediaResolver) *Generator {
	return &Generator{
		text:       text,
		multiModal: multiModal,
		resolve:    resolve,
	}
}

// Generate always returns a non-nil Result holding every embedding computed
// before any failure.
func (g *Generator) Generate(ctx context.Context, req Request, log *logrus.Entry) (*Result, error) {
	result := &Result{}

	if req.Text != "" {
		vec, err := g.text.EmbedText(ctx, req.Text, TextTaskType, TextDimension)
		if err != nil {
			return result, g.fail(StageText, err)
		}
		result.Text = vec
		log.WithField("dimension", len(vec)).Debug("Text embedded")
	}

	if !req.HasMedia() {
		return result, nil
	}

	in := MultiModalInput{
		ContextualText: req.Text,
		Dimension:      MultiModalDimension,
	}
	var err error
	if req.ImagePath != "" {
		if in.Image, err = g.resolve(ctx, req.ImagePath); err != nil {
			return result, g.fail(StageMedia, err)
		}
	}
	if req.VideoPath != "" {
		if in.Video, err = g.resolve(ctx, req.VideoPath); err != nil {
			return result, g.fail(StageMedia, err)
		}
	}

	out, err := g.multiModal.EmbedMultiModal(ctx, in)
	if err != nil {
		return result, g.fail(StageMultiModal, err)
	}

	if req.ImagePath != "" {
		result.Image = out.Image
		if result.Image == nil {
			result.Image = Vector{}
		}
	}
	if req.VideoPath != "" {
		result.Video = out.Video
	}
	log.WithFields(logrus.Fields{
		"image":          req.ImagePath != "",
		"video_segments": len(result.Video),
	}).Debug("Media embedded")

	return result, nil
}

func (g *Generator) fail(stage Stage, err error) error {
	return errors.Downstream("embedding.Generate", &StageError{Stage: stage, Err: err})
}

// FailedStage reports the stage recorded in err, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
