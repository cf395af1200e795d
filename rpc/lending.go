package rpc

import (
	"net/http"

	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/indexer"
	"lendcore/native/lending"
)

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if s.pool.IsZero() {
		writeError(w, http.StatusServiceUnavailable, req.ID, codeUnavailable, "pool address not configured", nil)
		return
	}
	var user string
	if rpcErr := decodeParam(req, &user); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, err := crypto.DecodeAddress(user)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	reader := host.NewSession(r.Context(), s.host, addr).Reader()
	pos, err := lending.PoolClient{Address: s.pool}.Position(reader, addr)
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeExecution, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, PositionResult{
		User:             addr.String(),
		CollateralAssets: nonNil(pos.CollateralAssets),
		DebtAssets:       nonNil(pos.DebtAssets),
		CollateralValue:  pos.CollateralValue.Dec(),
		DebtValue:        pos.DebtValue.Dec(),
		Liquidatable:     pos.Liquidatable,
	})
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if s.indexer == nil {
		writeError(w, http.StatusServiceUnavailable, req.ID, codeUnavailable, "indexer disabled", nil)
		return
	}
	var params EventsParams
	if len(req.Params) > 0 {
		if rpcErr := decodeParam(req, &params); rpcErr != nil {
			writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return
		}
	}
	records, err := s.indexer.Events(r.Context(), indexer.Filter{
		Type:     params.Type,
		Contract: params.Contract,
		FromSeq:  params.FromSeq,
		Limit:    params.Limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to query events", err.Error())
		return
	}
	writeResult(w, req.ID, records)
}

func (s *Server) handleGetLiquidations(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if s.indexer == nil {
		writeError(w, http.StatusServiceUnavailable, req.ID, codeUnavailable, "indexer disabled", nil)
		return
	}
	var user string
	if len(req.Params) > 0 {
		if rpcErr := decodeParam(req, &user); rpcErr != nil {
			writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return
		}
	}
	records, err := s.indexer.Liquidations(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to query liquidations", err.Error())
		return
	}
	writeResult(w, req.ID, records)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
