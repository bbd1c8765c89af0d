package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/textproto"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbeaudouin05/quitcoach/api/logging"
)

// PathPrefix is where procedures are mounted on the HTTP mux.
const PathPrefix = "/trpc/"

const maxInputBytes = 1 << 20

type successBody struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

type failureBody struct {
	Error ErrorBody `json:"error"`
}

// HeaderMatcher forwards the request id header into gRPC metadata next to the
// gateway defaults.
func HeaderMatcher(key string) (string, bool) {
	if textproto.CanonicalMIMEHeaderKey(key) == "X-Request-Id" {
		return "x-request-id", true
	}
	return runtime.DefaultHeaderMatcher(key)
}

// RegisterGateway mounts every procedure on mux. Queries answer GET with the
// JSON input in ?input=, mutations answer POST with a JSON body.
func (s *Server) RegisterGateway(mux *runtime.ServeMux) error {
	for _, path := range s.Paths() {
		reg := s.byPath[path]
		method := http.MethodGet
		if reg.Kind == KindMutation {
			method = http.MethodPost
		}
		if err := mux.HandlePath(method, PathPrefix+path, s.httpHandler(mux, reg)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) httpHandler(mux *runtime.ServeMux, reg registered) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		ctx, err := runtime.AnnotateIncomingContext(r.Context(), mux, r, reg.method)
		if err != nil {
			writeError(w, status.Error(codes.InvalidArgument, err.Error()), reg.Path())
			return
		}
		raw, err := readInput(r, reg.Kind)
		if err != nil {
			writeError(w, status.Errorf(codes.InvalidArgument, "invalid input: %v", err), reg.Path())
			return
		}
		out, err := s.call(ctx, reg.Procedure, "http", raw.decode)
		if err != nil {
			writeError(w, err, reg.Path())
			return
		}
		var body successBody
		body.Result.Data = out
		writeJSON(w, http.StatusOK, body)
		logging.Ctx(ctx).Debug().Str("path", reg.Path()).Msg("procedure served")
	}
}

func readInput(r *http.Request, kind Kind) (rawMessage, error) {
	if kind == KindQuery {
		return rawMessage(r.URL.Query().Get("input")), nil
	}
	b, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxInputBytes))
	if err != nil {
		return nil, err
	}
	if len(b) > 0 && !json.Valid(b) {
		return nil, errMalformed
	}
	return rawMessage(b), nil
}

var errMalformed = errors.New("malformed JSON")

func writeError(w http.ResponseWriter, err error, path string) {
	body := errorBody(err, path)
	writeJSON(w, body.HTTPStatus, failureBody{Error: body})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
