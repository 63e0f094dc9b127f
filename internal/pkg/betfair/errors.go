package betfair

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

const (
	codeTooMuchData    = "TOO_MUCH_DATA"
	codeInvalidSession = "INVALID_SESSION_INFORMATION"
)

var ErrInvalidSession = errors.New("betfair: invalid session")

// APIError is an APING fault returned inside a JSON-RPC envelope.
type APIError struct {
	Method    string
	Code      int
	ErrorCode string
	Message   string
	Details   string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("betfair %s: %s", e.Method, e.ErrorCode)
	if e.ErrorCode == "" {
		msg = fmt.Sprintf("betfair %s: rpc error %d", e.Method, e.Code)
	}
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

func (e *APIError) Is(target error) bool {
	switch target {
	case models.ErrTooMuchData:
		return e.matches(codeTooMuchData)
	case ErrInvalidSession:
		return e.matches(codeInvalidSession) || e.matches("INVALID_SESSION")
	}
	return false
}

func (e *APIError) matches(code string) bool {
	return e.ErrorCode == code || strings.Contains(strings.ToUpper(e.Message), code)
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		APINGException *struct {
			ErrorCode    string `json:"errorCode"`
			ErrorDetails string `json:"errorDetails"`
		} `json:"APINGException"`
		ErrorCode string `json:"errorCode"`
	} `json:"data"`
}

func newAPIError(method string, e *rpcError) *APIError {
	apiErr := &APIError{Method: method, Code: e.Code, Message: e.Message, ErrorCode: e.Data.ErrorCode}
	if ex := e.Data.APINGException; ex != nil {
		apiErr.ErrorCode = ex.ErrorCode
		apiErr.Details = ex.ErrorDetails
	}
	return apiErr
}
