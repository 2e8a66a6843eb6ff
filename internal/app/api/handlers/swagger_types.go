package handlers

import "github.com/syedaatik8/LemmeWrite/pkg/response"

// RespOK documents the generic success envelope for swagger.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    any                      `json:"data"`
}
