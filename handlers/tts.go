package handlers

import (
	"net/http"

	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/middleware"
	"github.com/open-mmpa/functions/params"
	"github.com/open-mmpa/functions/utils"
)

// TTS synthesizes text to speech and returns the stored audio's name.
func (h *Handlers) TTS(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.TTS"

	if !allowMethod(w, r, op) {
		return
	}
	log := middleware.GetLogger(r.Context())

	p := params.FromHTTP(r).ResolveAll(params.Defaults{
		"text":          "",
		"language_code": h.languageCode,
	})
	log.WithField("sources", p.Sources()).Debug("Parameters resolved")

	text, err := p.String("text")
	if err != nil {
		h.fail(w, log, "tts", errors.InvalidInput(op, err, "text must be a string"), nil)
		return
	}
	languageCode, err := p.String("language_code")
	if err != nil {
		h.fail(w, log, "tts", errors.InvalidInput(op, err, "language_code must be a string"), nil)
		return
	}

	names, err := h.services.Synthesizer.HandleSynthesis(r.Context(), text, languageCode, log)
	if err != nil {
		h.fail(w, log, "tts", err, nil)
		return
	}

	utils.RespondWithData(w, http.StatusOK, names)
}
