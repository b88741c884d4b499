package handlers

import (
    "github.com/casaflow/billing/internal/app/service/refund"
    "github.com/casaflow/billing/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
    Code    response.APIResponseCode `json:"code"`
    Message string                   `json:"message"`
    Data    interface{}              `json:"data"`
}

// RespRefundResult wraps refund.RefundResult in the standard envelope.
type RespRefundResult struct {
    Code    response.APIResponseCode `json:"code"`
    Message string                   `json:"message"`
    Data    refund.RefundResult      `json:"data"`
}

// RespRefundPreview wraps refund.RefundPreview in the standard envelope.
type RespRefundPreview struct {
    Code    response.APIResponseCode `json:"code"`
    Message string                   `json:"message"`
    Data    refund.RefundPreview     `json:"data"`
}

// RespListCreditNotes wraps ListCreditNotesResponse in the standard envelope.
type RespListCreditNotes struct {
    Code    response.APIResponseCode `json:"code"`
    Message string                   `json:"message"`
    Data    ListCreditNotesResponse  `json:"data"`
}
