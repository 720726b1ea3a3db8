package api_v1_notify

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sitesmith/deploy/pkg/deployment"
	"github.com/sitesmith/deploy/pkg/smithd/metrics"
	"github.com/sitesmith/deploy/pkg/smithd/middleware"
)

// Handler receives evaluation reports posted back by deployment servers,
// which makes any smithd instance usable as an evaluation endpoint.
type Handler struct{}

type Response struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r *Response) render(w io.Writer) {
	json.NewEncoder(w).Encode(r)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var response Response

	logger := log.WithFields(middleware.RequestLogFields(r))

	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		response.Message = fmt.Sprintf("unable to read request body: %s", err)
		response.render(w)
		logger.Error(response.Message)
		return
	}

	report := &deployment.Report{}
	if err := json.Unmarshal(data, report); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		response.Message = fmt.Sprintf("unable to unmarshal request body: %s", err)
		response.render(w)
		logger.Error(response.Message)
		return
	}

	if err := report.Validate(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		response.Message = fmt.Sprintf("invalid evaluation report: %s", err)
		response.render(w)
		logger.Error(response.Message)
		return
	}

	metrics.EvaluationReceived(report.Status)

	logger.WithFields(report.LogFields()).Infof("Evaluation received: %s round %d is %s", report.Task, report.Round, report.Status)

	w.WriteHeader(http.StatusOK)
	response.Status = "accepted"
	response.Message = "evaluation received"
	response.render(w)
}
