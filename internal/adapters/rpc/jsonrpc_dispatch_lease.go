package rpc

import (
	"encoding/json"
	"net/http"
)

func (s *Server) dispatchLeaseRPC(r *http.Request, method string, rawParams json.RawMessage) (any, *rpcError, bool) {
	ctx := r.Context()
	switch method {
	case "lease.mint":
		result, rpcErr := callWithSingleStringParam(rawParams, func(houseAddr string) (any, error) {
			return s.service.MintHouse(ctx, houseAddr)
		})
		return result, rpcErr, true
	case "lease.refresh":
		result, rpcErr := callWithSingleStringParam(rawParams, func(houseAddr string) (any, error) {
			return s.service.RefreshLease(ctx, houseAddr)
		})
		return result, rpcErr, true
	case "lease.get":
		result, rpcErr := callWithSingleStringParam(rawParams, func(houseAddr string) (any, error) {
			snapshot, ok := s.service.GetLease(houseAddr)
			if !ok {
				return map[string]any{"found": false}, nil
			}
			return map[string]any{"found": true, "lease": snapshot}, nil
		})
		return result, rpcErr, true
	case "lease.list":
		result, rpcErr := callWithoutParams(func() (any, error) {
			return map[string]any{"leases": s.service.ListLeases()}, nil
		})
		return result, rpcErr, true
	case "lease.apply":
		result, rpcErr := callWithTwoStringParams(rawParams, func(houseAddr, startDate string) (any, error) {
			return s.service.ApplyToRent(ctx, houseAddr, startDate)
		})
		return result, rpcErr, true
	case "lease.pay_rent":
		result, rpcErr := callWithTwoStringParams(rawParams, func(houseAddr, amount string) (any, error) {
			return s.service.PayRent(ctx, houseAddr, amount)
		})
		return result, rpcErr, true
	case "lease.set_terms":
		result, rpcErr := callWithSetTermsParams(rawParams, func(houseAddr, monthlyRent string, durationMonths, depositMonths uint32) (any, error) {
			return s.service.SetRentalTerms(ctx, houseAddr, monthlyRent, durationMonths, depositMonths)
		})
		return result, rpcErr, true
	case "lease.approve_tenant":
		result, rpcErr := callWithTwoStringParams(rawParams, func(houseAddr, tenant string) (any, error) {
			return s.service.ApproveTenant(ctx, houseAddr, tenant)
		})
		return result, rpcErr, true
	case "lease.reclaim":
		result, rpcErr := callWithSingleStringParam(rawParams, func(houseAddr string) (any, error) {
			return s.service.ReclaimHouse(ctx, houseAddr)
		})
		return result, rpcErr, true
	case "lease.applications":
		result, rpcErr := callWithSingleStringParam(rawParams, func(houseAddr string) (any, error) {
			applications, err := s.service.ListApplications(ctx, houseAddr)
			if err != nil {
				return nil, err
			}
			return map[string]any{"applications": applications}, nil
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}
