package handlers

import (
	"net/http"

	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/middleware"
	"github.com/open-mmpa/functions/params"
	"github.com/open-mmpa/functions/utils"
)

// Chirp transcribes a stored recording named by recording_file_name.
func (h *Handlers) Chirp(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.Chirp"

	if !allowMethod(w, r, op) {
		return
	}
	log := middleware.GetLogger(r.Context())

	p := params.FromHTTP(r).ResolveAll(params.Defaults{
		"recording_file_name": "",
	})
	log.WithField("sources", p.Sources()).Debug("Parameters resolved")

	name, err := p.String("recording_file_name")
	if err != nil {
		h.fail(w, log, "chirp", errors.InvalidInput(op, err, "recording_file_name must be a string"), nil)
		return
	}

	transcript, err := h.services.Transcriber.HandleTranscription(r.Context(), name, log)
	if err != nil {
		h.fail(w, log, "chirp", err, nil)
		return
	}

	utils.RespondWithData(w, http.StatusOK, transcript)
}
