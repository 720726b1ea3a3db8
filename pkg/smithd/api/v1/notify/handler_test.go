package api_v1_notify_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api_v1_notify "github.com/sitesmith/deploy/pkg/smithd/api/v1/notify"
)

var validReport = []byte(`
{
	"email": "user@example.com",
	"task": "markdown-to-html",
	"round": 1,
	"nonce": "ab12",
	"repo_url": "https://github.com/octocat/markdown-to-html-ab12",
	"commit_sha": "f00dcafe",
	"pages_url": "https://octocat.github.io/markdown-to-html-ab12/",
	"pages_live": true,
	"status": "success",
	"timestamp": 1766400000
}
`)

func withoutField(name string) []byte {
	fields := make(map[string]interface{})
	err := json.Unmarshal(validReport, &fields)
	if err != nil {
		panic(err)
	}
	delete(fields, name)
	out, err := json.Marshal(fields)
	if err != nil {
		panic(err)
	}
	return out
}

func post(t *testing.T, body []byte) (*httptest.ResponseRecorder, api_v1_notify.Response) {
	handler := &api_v1_notify.Handler{}
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/notify", bytes.NewReader(body))
	request.Header.Set("content-type", "application/json")

	handler.ServeHTTP(recorder, request)

	decoded := api_v1_notify.Response{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder, decoded
}

func TestHandler_ServeHTTP(t *testing.T) {
	t.Run("valid evaluation report", func(t *testing.T) {
		recorder, decoded := post(t, validReport)
		assert.Equal(t, 200, recorder.Code)
		assert.Equal(t, "accepted", decoded.Status)
		assert.Equal(t, "evaluation received", decoded.Message)
	})

	t.Run("empty request body", func(t *testing.T) {
		recorder, decoded := post(t, []byte(``))
		assert.Equal(t, 400, recorder.Code)
		assert.Equal(t, "unable to unmarshal request body: unexpected end of JSON input", decoded.Message)
	})

	t.Run("missing commit sha", func(t *testing.T) {
		recorder, decoded := post(t, withoutField("commit_sha"))
		assert.Equal(t, 400, recorder.Code)
		assert.Equal(t, "invalid evaluation report: no commit_sha specified", decoded.Message)
	})

	t.Run("missing nonce", func(t *testing.T) {
		recorder, decoded := post(t, withoutField("nonce"))
		assert.Equal(t, 400, recorder.Code)
		assert.Equal(t, "invalid evaluation report: no nonce specified", decoded.Message)
	})
}
