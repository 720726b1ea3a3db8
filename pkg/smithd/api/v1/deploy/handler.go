package api_v1_deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sitesmith/deploy/pkg/deployment"
	"github.com/sitesmith/deploy/pkg/pipeline"
	api_v1 "github.com/sitesmith/deploy/pkg/smithd/api/v1"
	"github.com/sitesmith/deploy/pkg/smithd/middleware"
)

// Runner consumes an accepted deployment in the background.
type Runner interface {
	Run(op *pipeline.Operation)
}

type DeploymentHandler struct {
	SecretKey string
	Runner    Runner
}

type DeploymentResponse struct {
	Status     string `json:"status,omitempty"`
	Message    string `json:"message,omitempty"`
	DeliveryID string `json:"delivery_id,omitempty"`
}

func (r *DeploymentResponse) render(w io.Writer) {
	json.NewEncoder(w).Encode(r)
}

func (h *DeploymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var deploymentResponse DeploymentResponse

	logger := log.WithFields(middleware.RequestLogFields(r))

	requestID, err := uuid.NewRandom()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		deploymentResponse.Message = "unable to generate delivery id"
		deploymentResponse.render(w)
		logger.Errorf("%s: %s", deploymentResponse.Message, err)
		return
	}

	deploymentResponse.DeliveryID = requestID.String()
	logger = logger.WithField(deployment.LogFieldDeliveryID, deploymentResponse.DeliveryID)

	logger.Tracef("Incoming request")

	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		deploymentResponse.Message = fmt.Sprintf("unable to read request body: %s", err)
		deploymentResponse.render(w)
		logger.Error(deploymentResponse.Message)
		return
	}

	request := &deployment.DeploymentRequest{}
	if err := json.Unmarshal(data, request); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		deploymentResponse.Message = fmt.Sprintf("unable to unmarshal request body: %s", err)
		deploymentResponse.render(w)
		logger.Error(deploymentResponse.Message)
		return
	}

	logger = logger.WithFields(request.LogFields())

	logger.Tracef("Request has valid JSON")

	if !api_v1.ValidSecret(request.Secret, h.SecretKey) {
		w.WriteHeader(http.StatusUnauthorized)
		deploymentResponse.Message = api_v1.FailedAuthenticationMsg
		deploymentResponse.render(w)
		logger.Error(api_v1.FailedAuthenticationMsg)
		return
	}

	logger.Tracef("Request contains a valid secret")

	if err := request.Validate(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		deploymentResponse.Message = fmt.Sprintf("invalid deployment request: %s", err)
		deploymentResponse.render(w)
		logger.Error(deploymentResponse.Message)
		return
	}

	logger.Tracef("Request body validated successfully")

	// The secret must not travel into pipeline logs or reports.
	request.Secret = ""

	// The pipeline outlives this request, so it must not inherit the
	// request context.
	op := pipeline.NewOperation(context.Background(), deploymentResponse.DeliveryID, request)
	go h.Runner.Run(op)

	w.WriteHeader(http.StatusOK)
	deploymentResponse.Status = "accepted"
	deploymentResponse.Message = "deployment started"
	deploymentResponse.render(w)

	logger.Infof("Deployment of %s accepted", request.RepoName())
}
