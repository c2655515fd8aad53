package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/entrypass/server/internal/entrypass/service"
)

var errBadBody = errors.New("invalid request body")

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// respond writes v as protobuf Struct when the client asked for it and
// as JSON otherwise.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsProtobuf(r) {
		s, err := valueToStruct(v)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
		writeProto(w, status, s)
		return
	}
	writeJSON(w, status, v)
}

// decodeBody reads a JSON or protobuf Struct body into v. Unknown JSON
// fields are rejected.
func decodeBody(r *http.Request, v any) error {
	if isProtobuf(r) {
		s := &structpb.Struct{}
		if err := readProto(r, s); err != nil {
			return errBadBody
		}
		if err := structToValue(s, v); err != nil {
			return errBadBody
		}
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

// statusFor maps an error category to the HTTP status clients see.
func statusFor(c service.Category) int {
	switch c {
	case service.CategoryValidation:
		return http.StatusBadRequest
	case service.CategoryAuthorization:
		return http.StatusForbidden
	case service.CategoryCapacity, service.CategoryDuplicate:
		return http.StatusConflict
	case service.CategoryTransfer:
		return http.StatusPaymentRequired
	case service.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps a service error to a response. Internal errors
// are logged and reported without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	cat := service.CategoryOf(err)
	status := statusFor(cat)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err),
		)
		writeError(w, status, "internal_error", "unexpected server error")
		return
	}
	writeError(w, status, string(cat), err.Error())
}
