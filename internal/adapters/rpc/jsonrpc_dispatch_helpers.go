package rpc

import (
	"encoding/json"

	"homeseeker/go-backend/pkg/models"
)

func callWithoutParams(call func() (any, error)) (any, *rpcError) {
	result, err := call()
	if err != nil {
		return nil, rpcWorkflowError(err)
	}
	return result, nil
}

func callWithSingleStringParam(rawParams json.RawMessage, call func(string) (any, error)) (any, *rpcError) {
	param, err := decodeSingleStringParam(rawParams)
	if err != nil {
		return nil, rpcInvalidParams()
	}
	result, err := call(param)
	if err != nil {
		return nil, rpcWorkflowError(err)
	}
	return result, nil
}

func callWithTwoStringParams(rawParams json.RawMessage, call func(string, string) (any, error)) (any, *rpcError) {
	a, b, err := decodeTwoStringParams(rawParams)
	if err != nil {
		return nil, rpcInvalidParams()
	}
	result, err := call(a, b)
	if err != nil {
		return nil, rpcWorkflowError(err)
	}
	return result, nil
}

func callWithSetTermsParams(
	rawParams json.RawMessage,
	call func(houseAddr, monthlyRent string, durationMonths, depositMonths uint32) (any, error),
) (any, *rpcError) {
	houseAddr, monthlyRent, durationMonths, depositMonths, err := decodeSetTermsParams(rawParams)
	if err != nil {
		return nil, rpcInvalidParams()
	}
	result, err := call(houseAddr, monthlyRent, durationMonths, depositMonths)
	if err != nil {
		return nil, rpcWorkflowError(err)
	}
	return result, nil
}

func callWithListingParam(rawParams json.RawMessage, call func(models.Listing) (any, error)) (any, *rpcError) {
	listing, err := decodeListingParam(rawParams)
	if err != nil {
		return nil, rpcInvalidParams()
	}
	result, err := call(listing)
	if err != nil {
		return nil, rpcWorkflowError(err)
	}
	return result, nil
}
