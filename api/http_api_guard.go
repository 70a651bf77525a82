package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/guard"
	"github.com/safetyserv/safetyserv/metrics"
)

type guardValidateRequest struct {
	Text string `json:"text"`
	// Optional overrides on top of the instance guard config.
	Config json.RawMessage `json:"config,omitempty"`
}

type guardValidateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func httpGuardValidateApi(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpGuardValidateApi")
	t := metrics.StartRequestTimer(r.Method, "httpGuardValidateApi")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpGuardValidateApi", w, r)

	if r.Method != http.MethodPost {
		errs.text(http.StatusMethodNotAllowed, "SS_UNRECOGNIZED", "Method not allowed")
		return
	}

	req := &guardValidateRequest{}
	err := parseJsonBody(req, r.Body)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			errs.text(http.StatusRequestEntityTooLarge, "SS_TOO_LARGE", "Request body too large")
		} else {
			errs.text(http.StatusBadRequest, "SS_BAD_JSON", "Invalid JSON")
		}
		return
	}

	guardConfig, err := config.NewGuardConfigForJSON(req.Config)
	if err != nil {
		errs.text(http.StatusBadRequest, "SS_BAD_JSON", "Invalid guard config")
		return
	}
	g, err := guard.NewFromConfig(guardConfig, api.evaluator)
	if err != nil {
		errs.text(http.StatusBadRequest, "SS_INVALID_PARAM", err.Error())
		return
	}

	valid, message := guard.ValidateUserInput(r.Context(), g, req.Text)
	err = respondJson("httpGuardValidateApi", r, w, &guardValidateResponse{
		Valid:   valid,
		Message: message,
	})
	if err != nil {
		errs.err(http.StatusInternalServerError, "SS_UNKNOWN", err)
		return
	}
}
