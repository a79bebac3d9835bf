package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/logging"
	"github.com/copyleftdev/annealhive/internal/objective"
	"github.com/copyleftdev/annealhive/internal/store"
)

// JSON-RPC 2.0 error codes.
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type idParams struct {
	OptimizationID string `json:"optimization_id"`
}

// decodeParams accepts params either as an object or as a one-element array
// holding the object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return errors.New("missing required parameters")
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.New("missing required parameters")
		}
		raw = list[0]
	}
	return json.Unmarshal(raw, v)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", errInvalidArgs, err)
}

func (p idParams) validate() error {
	if p.OptimizationID == "" {
		return errors.New("optimization_id is required")
	}
	return nil
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, r, rpcParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, r, rpcInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var (
		result interface{}
		err    error
	)
	switch request.Method {
	case "optimization.start":
		var req StartRequest
		if err = decodeParams(request.Params, &req); err != nil {
			err = invalid(err)
			break
		}
		var run store.Run
		if run, err = s.start(req); err == nil {
			result = map[string]string{"optimization_id": run.ID, "status": string(run.Status)}
		}
	case "optimization.status":
		var p idParams
		if err = decodeParams(request.Params, &p); err == nil {
			err = p.validate()
		}
		if err != nil {
			err = invalid(err)
			break
		}
		result, err = s.status(p.OptimizationID)
	case "optimization.cancel":
		var p idParams
		if err = decodeParams(request.Params, &p); err == nil {
			err = p.validate()
		}
		if err != nil {
			err = invalid(err)
			break
		}
		if err = s.cancelJob(p.OptimizationID); err == nil {
			result = map[string]string{"status": "cancellation requested"}
		}
	case "objectives.list":
		result = objective.All()
	default:
		s.respondWithError(w, r, rpcMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		code := rpcServerError
		if errors.Is(err, errInvalidArgs) {
			code = rpcInvalidParams
		}
		s.respondWithError(w, r, code, err.Error(), request.ID)
		return
	}

	// Send successful response
	s.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, code int, message string, id interface{}) {
	logging.FromContext(r.Context()).Warn("JSON-RPC error",
		zap.Int("code", code),
		zap.String("message", message),
	)

	s.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}
