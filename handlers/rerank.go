package handlers

import (
	"net/http"

	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/middleware"
	"github.com/open-mmpa/functions/params"
	"github.com/open-mmpa/functions/rerank"
	"github.com/open-mmpa/functions/utils"
)

// Rerank orders records by relevance to query and returns id/score pairs.
func (h *Handlers) Rerank(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.Rerank"

	if !allowMethod(w, r, op) {
		return
	}
	log := middleware.GetLogger(r.Context())

	p := params.FromHTTP(r).ResolveAll(params.Defaults{
		"query":   "",
		"records": nil,
		"top_n":   rerank.DefaultTopN,
	})
	log.WithField("sources", p.Sources()).Debug("Parameters resolved")

	req, err := rerankRequest(p)
	if err != nil {
		h.fail(w, log, "rerank", errors.InvalidInput(op, err, err.Error()), nil)
		return
	}

	rankings, err := h.services.Reranker.HandleRerank(r.Context(), req, log)
	if err != nil {
		h.fail(w, log, "rerank", err, nil)
		return
	}

	utils.RespondWithData(w, http.StatusOK, rankings)
}

// rerankRequest interprets the resolved parameters. Records sent through
// the query string or a form field are JSON-encoded arrays.
func rerankRequest(p params.Resolved) (rerank.Request, error) {
	req := rerank.Request{TopN: rerank.DefaultTopN}

	var err error
	if req.Query, err = p.String("query"); err != nil {
		return req, err
	}
	if err = p.Decode("records", &req.Records); err != nil {
		return req, err
	}
	if p.Value("top_n") != nil {
		if req.TopN, err = p.Int("top_n"); err != nil {
			return req, err
		}
	}
	return req, nil
}
