package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    apperror.Kind  `json:"kind"`
	Message string         `json:"message"`
	Class   apperror.Class `json:"class"`
	ItemID  *int64         `json:"item_id,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as a structured error body. Internal failures are logged and their
// detail withheld from the client.
func Error(w http.ResponseWriter, log logger.ZapLogger, err error) {
	detail := errorDetail{Kind: apperror.KindInternal, Message: "internal error"}

	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal {
		detail.Kind = appErr.Kind
		detail.Message = appErr.Message
		detail.ItemID = appErr.ItemID
	} else {
		log.Error("request failed", zap.Error(err))
	}
	detail.Class = apperror.ClassOf(detail.Kind)

	JSON(w, apperror.HTTPStatus(detail.Kind), errorBody{Error: detail})
}

// Decode reads a JSON request body into v, rejecting unknown fields.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperror.Wrap(err, apperror.KindValidation, "malformed request body: %v", err)
	}
	return nil
}
