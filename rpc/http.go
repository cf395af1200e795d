// Package rpc exposes the contract host over JSON-RPC 2.0 with a websocket
// stream of committed events.
package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"lendcore/config"
	"lendcore/core/events"
	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/indexer"
	"lendcore/observability"
	"lendcore/observability/logging"
	"lendcore/storage"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultMaxBodyBytes = 1 << 20

// Options wires a Server. Events and Indexer are optional.
type Options struct {
	Host    *host.Host
	DB      storage.Database
	Pool    crypto.Address
	Events  *events.Broadcaster
	Indexer *indexer.Indexer
	Logger  *slog.Logger
	Config  config.RPC
}

type Server struct {
	host    *host.Host
	pool    crypto.Address
	nonces  *NonceStore
	events  *events.Broadcaster
	indexer *indexer.Indexer
	logger  *slog.Logger
	limiter *rateLimiter
	cfg     config.RPC
	http    *http.Server
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		host:    opts.Host,
		pool:    opts.Pool,
		nonces:  NewNonceStore(opts.DB),
		events:  opts.Events,
		indexer: opts.Indexer,
		logger:  logger.With(slog.String("component", "rpc")),
		limiter: newRateLimiter(cfg.RateLimitPerSecond, cfg.RateBurst),
		cfg:     cfg,
	}
}

// Handler returns the routed HTTP surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(gr chi.Router) {
		gr.Use(s.limiter.middleware)
		gr.With(observe("rpc")).Post("/", s.handle)
		gr.With(observe("ws")).Get("/ws/events", s.handleEventsWS)
	})
	return otelhttp.NewHandler(r, "lend-rpc")
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: seconds(s.cfg.ReadHeaderTimeout, 5),
		ReadTimeout:       seconds(s.cfg.ReadTimeout, 15),
		WriteTimeout:      seconds(s.cfg.WriteTimeout, 15),
		IdleTimeout:       seconds(s.cfg.IdleTimeout, 60),
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc listening", slog.String("addr", s.cfg.ListenAddress))
		errCh <- s.http.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

func writeError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", err.Error())
		return
	}
	if int64(len(body)) > s.cfg.MaxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large", s.cfg.MaxBodyBytes)
		return
	}
	var req RPCRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}

	switch req.Method {
	case MethodSendCall:
		s.handleSendCall(w, r, &req)
	case MethodQuery:
		s.handleQuery(w, r, &req)
	case MethodGetNonce:
		s.handleGetNonce(w, &req)
	case MethodSequence:
		seq, err := s.host.Sequence()
		if err != nil {
			writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to read sequence", err.Error())
			return
		}
		writeResult(w, req.ID, seq)
	case MethodContracts:
		writeResult(w, req.ID, s.host.Contracts())
	case MethodPosition:
		s.handleGetPosition(w, r, &req)
	case MethodEvents:
		s.handleGetEvents(w, r, &req)
	case MethodLiquidations:
		s.handleGetLiquidations(w, r, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
	}
}

func decodeParam(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "exactly one parameter object required"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return nil
}

func (s *Server) handleSendCall(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params CallParams
	if rpcErr := decodeParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	from, to, input, err := params.verify()
	if errors.Is(err, ErrBadSignature) {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	var out []byte
	err = s.nonces.Use(from, params.Nonce, func() error {
		var callErr error
		out, callErr = s.host.Call(r.Context(), from, to, params.Method, input)
		return callErr
	})
	switch {
	case errors.Is(err, ErrBadNonce):
		observability.RPC().RecordThrottle("stale_nonce")
		expected, _ := s.nonces.Next(from)
		writeError(w, http.StatusConflict, req.ID, codeBadNonce, err.Error(), expected)
		return
	case err != nil:
		s.logger.Info("call failed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
			slog.String("method", params.Method),
			logging.MaskField("signature", params.Signature),
			slog.String("error", err.Error()))
		writeError(w, http.StatusOK, req.ID, codeExecution, err.Error(), nil)
		return
	}
	seq, err := s.host.Sequence()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to read sequence", err.Error())
		return
	}
	writeResult(w, req.ID, CallResult{Output: hex.EncodeToString(out), Sequence: seq})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params QueryParams
	if rpcErr := decodeParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	var from crypto.Address
	if params.From != "" {
		decoded, err := crypto.DecodeAddress(params.From)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
			return
		}
		from = decoded
	}
	to, err := crypto.DecodeAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid to address", err.Error())
		return
	}
	input, err := decodeHex(params.Args)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid args", err.Error())
		return
	}
	out, err := s.host.Query(r.Context(), from, to, params.Method, input)
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeExecution, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, QueryResult{Output: hex.EncodeToString(out)})
}

func (s *Server) handleGetNonce(w http.ResponseWriter, req *RPCRequest) {
	var addr string
	if rpcErr := decodeParam(req, &addr); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	decoded, err := crypto.DecodeAddress(addr)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	nonce, err := s.nonces.Next(decoded)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load nonce", err.Error())
		return
	}
	writeResult(w, req.ID, NonceResult{Address: decoded.String(), Nonce: nonce})
}
