package rpc

import (
	"encoding/json"
)

func (s *Server) dispatchWalletRPC(method string, rawParams json.RawMessage) (any, *rpcError, bool) {
	switch method {
	case "wallet.status":
		result, rpcErr := callWithoutParams(func() (any, error) {
			return s.service.WalletStatus(), nil
		})
		return result, rpcErr, true
	case "wallet.create":
		result, rpcErr := callWithSingleStringParam(rawParams, func(password string) (any, error) {
			status, mnemonic, err := s.service.CreateWallet(password)
			if err != nil {
				return nil, err
			}
			return map[string]any{"wallet": status, "mnemonic": mnemonic}, nil
		})
		return result, rpcErr, true
	case "wallet.import":
		result, rpcErr := callWithTwoStringParams(rawParams, func(mnemonic, password string) (any, error) {
			status, err := s.service.ImportWallet(mnemonic, password)
			if err != nil {
				return nil, err
			}
			return map[string]any{"wallet": status}, nil
		})
		return result, rpcErr, true
	case "wallet.unlock":
		result, rpcErr := callWithSingleStringParam(rawParams, func(password string) (any, error) {
			status, err := s.service.UnlockWallet(password)
			if err != nil {
				return nil, err
			}
			return map[string]any{"wallet": status}, nil
		})
		return result, rpcErr, true
	case "wallet.lock":
		result, rpcErr := callWithoutParams(func() (any, error) {
			s.service.LockWallet()
			return map[string]bool{"locked": true}, nil
		})
		return result, rpcErr, true
	case "wallet.export":
		result, rpcErr := callWithSingleStringParam(rawParams, func(password string) (any, error) {
			mnemonic, err := s.service.ExportWallet(password)
			if err != nil {
				return nil, err
			}
			return map[string]any{"mnemonic": mnemonic}, nil
		})
		return result, rpcErr, true
	case "wallet.change_password":
		result, rpcErr := callWithTwoStringParams(rawParams, func(oldPassword, newPassword string) (any, error) {
			if err := s.service.ChangeWalletPassword(oldPassword, newPassword); err != nil {
				return nil, err
			}
			return map[string]bool{"changed": true}, nil
		})
		return result, rpcErr, true
	case "wallet.validate_mnemonic":
		result, rpcErr := callWithSingleStringParam(rawParams, func(mnemonic string) (any, error) {
			return map[string]bool{"valid": s.service.ValidateMnemonic(mnemonic)}, nil
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}
