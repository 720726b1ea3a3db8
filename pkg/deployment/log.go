package deployment

import (
	log "github.com/sirupsen/logrus"
)

const (
	LogFieldDeliveryID = "delivery_id"
	LogFieldTask       = "task"
	LogFieldRound      = "round"
	LogFieldNonce      = "nonce"
	LogFieldRepository = "repository"
	LogFieldStage      = "stage"
	LogFieldStatus     = "status"
)

func (r *DeploymentRequest) LogFields() log.Fields {
	return log.Fields{
		LogFieldTask:  r.Task,
		LogFieldRound: r.Round,
		LogFieldNonce: r.Nonce,
	}
}

func (r *Report) LogFields() log.Fields {
	return log.Fields{
		LogFieldTask:   r.Task,
		LogFieldRound:  r.Round,
		LogFieldNonce:  r.Nonce,
		LogFieldStatus: r.Status,
	}
}
