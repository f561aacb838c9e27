package params

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(t *testing.T, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(t *testing.T, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantValue  interface{}
		wantSource Source
	}{
		{
			name: "body wins over query",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, "/embed?text=query", `{"text":"body"}`)
			},
			wantValue:  "body",
			wantSource: SourceBody,
		},
		{
			name: "enveloped body wins over query",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, "/embed?text=query", `{"data":{"text":"body"}}`)
			},
			wantValue:  "body",
			wantSource: SourceBody,
		},
		{
			name: "query wins over form",
			req: func(t *testing.T) *http.Request {
				return formRequest(t, "/embed?text=query", "text=form")
			},
			wantValue:  "query",
			wantSource: SourceQuery,
		},
		{
			name: "form when only form",
			req: func(t *testing.T) *http.Request {
				return formRequest(t, "/embed", "text=form")
			},
			wantValue:  "form",
			wantSource: SourceForm,
		},
		{
			name: "default when absent",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, "/embed?other=1", `{"other":"x"}`)
			},
			wantValue:  "fallback",
			wantSource: SourceDefault,
		},
		{
			name: "malformed body falls through to query",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, "/embed?text=query", `{"text":`)
			},
			wantValue:  "query",
			wantSource: SourceQuery,
		},
		{
			name: "json body without json content type is ignored",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/embed?text=query", strings.NewReader(`{"text":"body"}`))
				req.Header.Set("Content-Type", "text/plain")
				return req
			},
			wantValue:  "query",
			wantSource: SourceQuery,
		},
		{
			name: "non-object envelope yields no body parameters",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, "/embed?text=query", `{"data":"text","text":"top"}`)
			},
			wantValue:  "query",
			wantSource: SourceQuery,
		},
		{
			name: "empty query value still counts as present",
			req: func(t *testing.T) *http.Request {
				return formRequest(t, "/embed?text=", "text=form")
			},
			wantValue:  "",
			wantSource: SourceQuery,
		},
		{
			name: "body null counts as present",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, "/embed?text=query", `{"text":null}`)
			},
			wantValue:  nil,
			wantSource: SourceBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromHTTP(tt.req(t))
			resolved := p.ResolveAll(Defaults{"text": "fallback"})

			assert.Equal(t, tt.wantValue, resolved.Value("text"))
			assert.Equal(t, tt.wantSource, resolved.Source("text"))
		})
	}
}

func TestPrecedenceIsPerParameter(t *testing.T) {
	req := jsonRequest(t, "/rerank?top_n=3&query=ignored", `{"data":{"query":"cats"}}`)
	p := FromHTTP(req)

	resolved := p.ResolveAll(Defaults{"query": "", "top_n": 10, "records": nil})

	assert.Equal(t, "cats", resolved.Value("query"))
	assert.Equal(t, SourceBody, resolved.Source("query"))
	assert.Equal(t, "3", resolved.Value("top_n"))
	assert.Equal(t, SourceQuery, resolved.Source("top_n"))
	assert.Nil(t, resolved.Value("records"))
	assert.Equal(t, map[string]string{"query": "body", "top_n": "query", "records": "default"}, resolved.Sources())
}

func TestMultipartForm(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("recording_file_name", "rec.wav"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/chirp", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	v, src, ok := FromHTTP(req).Lookup("recording_file_name")
	assert.True(t, ok)
	assert.Equal(t, "rec.wav", v)
	assert.Equal(t, SourceForm, src)
}

func TestResolveKeepsJSONNumbers(t *testing.T) {
	p := FromHTTP(jsonRequest(t, "/rerank", `{"top_n": 5}`))

	assert.Equal(t, json.Number("5"), p.Resolve("top_n", 10))
	assert.Equal(t, 10, p.Resolve("missing", 10))
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    int
		wantErr bool
	}{
		{in: 10, want: 10},
		{in: json.Number("7"), want: 7},
		{in: "3", want: 3},
		{in: " 4 ", want: 4},
		{in: 2.0, want: 2},
		{in: 2.5, wantErr: true},
		{in: "ten", wantErr: true},
		{in: json.Number("1.5"), wantErr: true},
		{in: []interface{}{}, wantErr: true},
	}

	for _, tt := range tests {
		got, err := AsInt(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %v", tt.in)
			continue
		}
		assert.NoError(t, err, "input %v", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestAsString(t *testing.T) {
	s, err := AsString(nil)
	assert.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = AsString(json.Number("12"))
	assert.NoError(t, err)
	assert.Equal(t, "12", s)

	_, err = AsString(map[string]interface{}{"a": 1})
	assert.Error(t, err)
}

type record struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func TestDecode(t *testing.T) {
	var fromBody []record
	require.NoError(t, Decode([]interface{}{
		map[string]interface{}{"id": "1", "content": "a"},
	}, &fromBody))
	assert.Equal(t, []record{{ID: "1", Content: "a"}}, fromBody)

	var fromQuery []record
	require.NoError(t, Decode(`[{"id":"2","content":"b"}]`, &fromQuery))
	assert.Equal(t, []record{{ID: "2", Content: "b"}}, fromQuery)

	var untouched []record
	require.NoError(t, Decode(nil, &untouched))
	assert.Nil(t, untouched)

	var bad []record
	assert.Error(t, Decode("not json", &bad))
}
