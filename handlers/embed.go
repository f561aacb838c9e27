package handlers

import (
	"net/http"

	"github.com/open-mmpa/functions/embedding"
	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/middleware"
	"github.com/open-mmpa/functions/params"
	"github.com/open-mmpa/functions/utils"
)

// Embed returns the text, image and video embeddings of the request as one
// positional list.
func (h *Handlers) Embed(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.Embed"

	if !allowMethod(w, r, op) {
		return
	}
	log := middleware.GetLogger(r.Context())

	p := params.FromHTTP(r).ResolveAll(params.Defaults{
		"text":       "",
		"image_path": "",
		"video_path": "",
	})
	log.WithField("sources", p.Sources()).Debug("Parameters resolved")

	req, err := embedRequest(p)
	if err != nil {
		h.fail(w, log, "embed", errors.InvalidInput(op, err, "text, image_path and video_path must be strings"), nil)
		return
	}

	result, err := h.services.Embedder.Generate(r.Context(), req, log)
	if err != nil {
		h.fail(w, log, "embed", err, result.Flatten())
		return
	}

	utils.RespondWithData(w, http.StatusOK, result.Flatten())
}

func embedRequest(p params.Resolved) (embedding.Request, error) {
	var req embedding.Request
	var err error
	if req.Text, err = p.String("text"); err != nil {
		return req, err
	}
	if req.ImagePath, err = p.String("image_path"); err != nil {
		return req, err
	}
	if req.VideoPath, err = p.String("video_path"); err != nil {
		return req, err
	}
	return req, nil
}
