package rpc

import (
	"net/http"
)

func (s *Server) dispatchChainRPC(r *http.Request, method string) (any, *rpcError, bool) {
	switch method {
	case "chain.session_start":
		result, rpcErr := callWithoutParams(func() (any, error) {
			if err := s.service.StartChainSession(r.Context()); err != nil {
				return nil, err
			}
			return s.service.ChainStatus(r.Context()), nil
		})
		return result, rpcErr, true
	case "chain.session_stop":
		result, rpcErr := callWithoutParams(func() (any, error) {
			s.service.StopChainSession()
			return map[string]bool{"stopped": true}, nil
		})
		return result, rpcErr, true
	case "chain.status":
		result, rpcErr := callWithoutParams(func() (any, error) {
			return s.service.ChainStatus(r.Context()), nil
		})
		return result, rpcErr, true
	case "metrics.get":
		result, rpcErr := callWithoutParams(func() (any, error) {
			return s.service.GetMetrics(), nil
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}
