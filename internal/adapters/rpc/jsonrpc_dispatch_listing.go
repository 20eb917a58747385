package rpc

import (
	"encoding/json"

	"homeseeker/go-backend/pkg/models"
)

func (s *Server) dispatchListingRPC(method string, rawParams json.RawMessage) (any, *rpcError, bool) {
	switch method {
	case "listing.post":
		result, rpcErr := callWithListingParam(rawParams, func(listing models.Listing) (any, error) {
			return s.service.PostListing(listing)
		})
		return result, rpcErr, true
	case "listing.get":
		result, rpcErr := callWithSingleStringParam(rawParams, func(shareCode string) (any, error) {
			listing, ok := s.service.GetListing(shareCode)
			if !ok {
				return map[string]any{"found": false}, nil
			}
			return map[string]any{"found": true, "listing": listing}, nil
		})
		return result, rpcErr, true
	case "listing.list":
		result, rpcErr := callWithoutParams(func() (any, error) {
			return map[string]any{"listings": s.service.GetListings()}, nil
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}
