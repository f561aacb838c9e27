package utils

import (
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/open-mmpa/functions/errors"
	"github.com/sirupsen/logrus"
)

// Envelope is the body shape of every function response.
type Envelope struct {
	Data interface{} `json:"data"`
}

// RespondWithData writes {"data": data} with the given status. A nil data
// value or nil slice is written as an empty list so callers always receive
// a sequence.
func RespondWithData(w http.ResponseWriter, code int, data interface{}) {
	if isNil(data) {
		data = []interface{}{}
	}
	RespondWithJSON(w, code, Envelope{Data: data})
}

// RespondWithError writes the status carried by err together with whatever
// partial result the handler had already assembled.
func RespondWithError(w http.ResponseWriter, err error, partial interface{}) {
	RespondWithData(w, errors.StatusCode(err), partial)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"data":[]}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		logrus.WithError(err).Error("Failed to write JSON response")
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Ptr:
		return rv.IsNil()
	}
	return false
}
