package rpc

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"homeseeker/go-backend/pkg/models"
)

var errInvalidParams = errors.New("invalid params")

func decodeSingleStringParam(raw json.RawMessage) (string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 && arr[0] != "" {
		return arr[0], nil
	}
	return "", errInvalidParams
}

func decodeTwoStringParams(raw json.RawMessage) (string, string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 2 && arr[0] != "" && arr[1] != "" {
		return arr[0], arr[1], nil
	}
	return "", "", errInvalidParams
}

func decodeSetTermsParams(raw json.RawMessage) (string, string, uint32, uint32, error) {
	// Preferred shape: ["12 Main St", "1500000000", 12, 2]
	var arr []any
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 4 {
		houseAddr, ok := arr[0].(string)
		if !ok || strings.TrimSpace(houseAddr) == "" {
			return "", "", 0, 0, errInvalidParams
		}
		rent, ok := arr[1].(string)
		if !ok || strings.TrimSpace(rent) == "" {
			return "", "", 0, 0, errInvalidParams
		}
		duration, err := decodeStrictPositiveUint32(arr[2])
		if err != nil {
			return "", "", 0, 0, errInvalidParams
		}
		deposit, err := decodeStrictPositiveUint32(arr[3])
		if err != nil {
			return "", "", 0, 0, errInvalidParams
		}
		return houseAddr, rent, duration, deposit, nil
	}

	// Alternative shape: { "house_addr": ..., "monthly_rent": ..., ... }
	var payload struct {
		HouseAddr      string `json:"house_addr"`
		MonthlyRent    string `json:"monthly_rent"`
		DurationMonths uint32 `json:"duration_months"`
		DepositMonths  uint32 `json:"deposit_months"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", "", 0, 0, errInvalidParams
	}
	if strings.TrimSpace(payload.HouseAddr) == "" || strings.TrimSpace(payload.MonthlyRent) == "" {
		return "", "", 0, 0, errInvalidParams
	}
	if payload.DurationMonths == 0 || payload.DepositMonths == 0 {
		return "", "", 0, 0, errInvalidParams
	}
	return payload.HouseAddr, payload.MonthlyRent, payload.DurationMonths, payload.DepositMonths, nil
}

func decodeStrictPositiveUint32(raw any) (uint32, error) {
	v, ok := raw.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errInvalidParams
	}
	if v <= 0 || math.Trunc(v) != v || v > float64(math.MaxUint32) {
		return 0, errInvalidParams
	}
	return uint32(v), nil
}

func decodeListingParam(raw json.RawMessage) (models.Listing, error) {
	// Preferred shape: [ { ...listing } ]
	var arr []models.Listing
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 {
		return arr[0], nil
	}

	// Alternative shape: { "listing": { ... } }
	var wrapper struct {
		Listing models.Listing `json:"listing"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Listing.HouseAddr != "" {
		return wrapper.Listing, nil
	}

	return models.Listing{}, errInvalidParams
}
