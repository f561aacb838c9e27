// Package params resolves named request parameters from the JSON body,
// the query string, and form fields, in that order. The first source that
// carries a name wins; sources are never merged for a single name.
package params

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const (
	maxBodyBytes     = 32 << 20
	maxMultipartForm = 32 << 20
	envelopeKey      = "data"
)

type Source int

const (
	SourceDefault Source = iota
	SourceBody
	SourceQuery
	SourceForm
)

func (s Source) String() string {
	switch s {
	case SourceBody:
		return "body"
	case SourceQuery:
		return "query"
	case SourceForm:
		return "form"
	default:
		return "default"
	}
}

// Request holds the three parameter sources of one inbound request.
// Body is nil when the request carried no usable JSON object.
type Request struct {
	Method string
	Body   map[string]interface{}
	Query  url.Values
	Form   url.Values
}

// FromHTTP extracts the parameter sources from r. Body parsing is silent:
// a missing, malformed or non-object JSON body is treated as absent.
func FromHTTP(r *http.Request) *Request {
	req := &Request{
		Method: r.Method,
		Query:  r.URL.Query(),
		Form:   url.Values{},
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		req.Body = decodeBody(r.Body)
	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err == nil {
			req.Form = r.PostForm
		}
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartForm); err == nil && r.MultipartForm != nil {
			req.Form = url.Values(r.MultipartForm.Value)
		}
	}

	return req
}

func decodeBody(body io.Reader) map[string]interface{} {
	if body == nil {
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	dec.UseNumber()

	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil
	}
	return unwrap(doc)
}

// unwrap strips a top-level {"data": {...}} envelope. A "data" key holding
// anything other than an object leaves no usable parameters.
func unwrap(doc map[string]interface{}) map[string]interface{} {
	inner, ok := doc[envelopeKey]
	if !ok {
		return doc
	}
	obj, ok := inner.(map[string]interface{})
	if !ok {
		return nil
	}
	return obj
}

// Lookup finds name following body, query, form precedence.
func (r *Request) Lookup(name string) (interface{}, Source, bool) {
	if r.Body != nil {
		if v, ok := r.Body[name]; ok {
			return v, SourceBody, true
		}
	}
	if vals, ok := r.Query[name]; ok && len(vals) > 0 {
		return vals[0], SourceQuery, true
	}
	if vals, ok := r.Form[name]; ok && len(vals) > 0 {
		return vals[0], SourceForm, true
	}
	return nil, SourceDefault, false
}

// Resolve returns the value for name as found, or def.
func (r *Request) Resolve(name string, def interface{}) interface{} {
	if v, _, ok := r.Lookup(name); ok {
		return v
	}
	return def
}

// Defaults maps each parameter a handler reads to its fallback value.
type Defaults map[string]interface{}

// ResolveAll resolves every parameter in defaults once. The result is not
// modified afterwards.
func (r *Request) ResolveAll(defaults Defaults) Resolved {
	res := Resolved{
		values:  make(map[string]interface{}, len(defaults)),
		sources: make(map[string]Source, len(defaults)),
	}
	for name, def := range defaults {
		v, src, ok := r.Lookup(name)
		if !ok {
			v = def
		}
		res.values[name] = v
		res.sources[name] = src
	}
	return res
}
