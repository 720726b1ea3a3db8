package api_v1_deploy_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/deploy/pkg/pipeline"
	"github.com/sitesmith/deploy/pkg/smithd/api"
	api_v1_deploy "github.com/sitesmith/deploy/pkg/smithd/api/v1/deploy"
)

type runnerStub struct {
	ops chan *pipeline.Operation
}

func (r *runnerStub) Run(op *pipeline.Operation) {
	r.ops <- op
}

type request struct {
	ContentType string
	Body        json.RawMessage
}

type response struct {
	StatusCode int
	Status     string
	Message    string
}

type testCase struct {
	Name     string
	Request  request
	Response response
	Accepted bool
}

var validPayload = []byte(`
{
	"email": "user@example.com",
	"secret": "s3cr3t",
	"task": "markdown-to-html",
	"round": 1,
	"nonce": "ab12",
	"brief": "Build a markdown converter",
	"checks": ["document.querySelector('#editor') !== null"],
	"evaluation_url": "https://evaluator.example.com/hook"
}
`)

func alteredPayload(alter func(fields map[string]interface{})) []byte {
	fields := make(map[string]interface{})
	err := json.Unmarshal(validPayload, &fields)
	if err != nil {
		panic(err)
	}
	alter(fields)
	out, err := json.Marshal(fields)
	if err != nil {
		panic(err)
	}
	return out
}

// Test case definitions
var tests = []testCase{
	{
		Name: "Empty request body",
		Request: request{
			Body: []byte(``),
		},
		Response: response{
			StatusCode: 400,
			Message:    "unable to unmarshal request body: unexpected end of JSON input",
		},
	},

	{
		Name: "Wrong secret key",
		Request: request{
			Body: alteredPayload(func(fields map[string]interface{}) { fields["secret"] = "letmein" }),
		},
		Response: response{
			StatusCode: 401,
			Message:    "wrong secret key",
		},
	},

	{
		Name: "Missing secret key",
		Request: request{
			Body: alteredPayload(func(fields map[string]interface{}) { delete(fields, "secret") }),
		},
		Response: response{
			StatusCode: 401,
			Message:    "wrong secret key",
		},
	},

	{
		Name: "Missing brief",
		Request: request{
			Body: alteredPayload(func(fields map[string]interface{}) { delete(fields, "brief") }),
		},
		Response: response{
			StatusCode: 400,
			Message:    "invalid deployment request: no brief specified",
		},
	},

	{
		Name: "Round zero",
		Request: request{
			Body: alteredPayload(func(fields map[string]interface{}) { fields["round"] = 0 }),
		},
		Response: response{
			StatusCode: 400,
			Message:    "invalid deployment request: round must be a positive integer",
		},
	},

	{
		Name: "Relative evaluation url",
		Request: request{
			Body: alteredPayload(func(fields map[string]interface{}) { fields["evaluation_url"] = "/hook" }),
		},
		Response: response{
			StatusCode: 400,
			Message:    "invalid deployment request: evaluation_url must be an absolute http(s) URL",
		},
	},

	{
		Name: "Wrong content type",
		Request: request{
			ContentType: "text/plain",
			Body:        validPayload,
		},
		Response: response{
			StatusCode: 415,
		},
	},

	{
		Name: "Valid deployment request",
		Request: request{
			Body: validPayload,
		},
		Response: response{
			StatusCode: 200,
			Status:     "accepted",
			Message:    "deployment started",
		},
		Accepted: true,
	},
}

// Deployment intake tests against the assembled router; see table test
// definitions above.
func TestDeploymentHandler_ServeHTTP(t *testing.T) {
	runner := &runnerStub{ops: make(chan *pipeline.Operation, 1)}

	router := api.New(api.Config{
		MetricsPath: "/metrics",
		SecretKey:   "s3cr3t",
		Runner:      runner,
	})

	for _, test := range tests {
		t.Logf("Running test: %s", test.Name)

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api-endpoint", bytes.NewReader(test.Request.Body))

		contentType := test.Request.ContentType
		if len(contentType) == 0 {
			contentType = "application/json"
		}
		req.Header.Set("content-type", contentType)

		router.ServeHTTP(recorder, req)

		assert.Equal(t, test.Response.StatusCode, recorder.Code)

		if recorder.Code == http.StatusUnsupportedMediaType {
			continue
		}

		decoded := api_v1_deploy.DeploymentResponse{}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
		assert.Equal(t, test.Response.Status, decoded.Status)
		assert.Equal(t, test.Response.Message, decoded.Message)
		assert.NotEmpty(t, decoded.DeliveryID)

		if !test.Accepted {
			select {
			case op := <-runner.ops:
				t.Errorf("pipeline started for a rejected request: %+v", op.Request)
			default:
			}
			continue
		}

		select {
		case op := <-runner.ops:
			assert.Equal(t, decoded.DeliveryID, op.ID)
			assert.Equal(t, "markdown-to-html", op.Request.Task)
			assert.Equal(t, 1, op.Request.Round)

			// The secret is scrubbed before the request leaves the handler.
			assert.Empty(t, op.Request.Secret)

			// The operation must survive the request that spawned it.
			assert.NoError(t, op.Context.Err())
		case <-time.After(time.Second):
			t.Error("accepted request never reached the pipeline")
		}
	}
}
