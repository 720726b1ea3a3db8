package pipeline

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/sitesmith/deploy/pkg/deployment"
)

// Operation is the unit of work for one accepted deployment request.
type Operation struct {
	Context context.Context
	Logger  *log.Entry
	ID      string
	Request *deployment.DeploymentRequest
}

func NewOperation(ctx context.Context, id string, request *deployment.DeploymentRequest) *Operation {
	logger := log.WithFields(request.LogFields()).WithField(deployment.LogFieldDeliveryID, id)
	return &Operation{
		Context: ctx,
		Logger:  logger,
		ID:      id,
		Request: request,
	}
}
