package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/safetyserv/safetyserv/metrics"
)

// maxBodyBytes - request bodies larger than this are rejected.
const maxBodyBytes = 4 * 1024 * 1024

var errBodyTooLarge = errors.New("request body too large")

func parseJsonBody(val any, r io.Reader) error {
	b, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return err
	}
	if len(b) > maxBodyBytes {
		return errBodyTooLarge
	}
	err = json.Unmarshal(b, &val)
	if err != nil {
		return err
	}
	return nil
}

func respondJson(action string, r *http.Request, w http.ResponseWriter, val any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	defer metrics.RecordHttpResponse(r.Method, action, http.StatusOK)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
	return nil
}
