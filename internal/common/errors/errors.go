// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// NotFoundError: no account matched the identifier. User-correctable.
	ErrCodeAccountNotFound ErrorCode = "ACCOUNT_NOT_FOUND"
	// DataError: upstream numeric or currency field could not be parsed.
	ErrCodeAccountDataInvalid ErrorCode = "ACCOUNT_DATA_INVALID"

	// CollaboratorError family.
	ErrCodeDataSourceFailed     ErrorCode = "DATA_SOURCE_FAILED"
	ErrCodeQueryTimeout         ErrorCode = "QUERY_TIMEOUT"
	ErrCodeLLMGenerationFailed  ErrorCode = "LLM_GENERATION_FAILED"
	ErrCodeLLMTimeout           ErrorCode = "LLM_TIMEOUT"
	ErrCodeSQLAgentFailed       ErrorCode = "SQL_AGENT_FAILED"
	ErrCodeSessionStoreFailed   ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeExportDeliveryFailed ErrorCode = "EXPORT_DELIVERY_FAILED"

	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

func NewAccountNotFoundError(identifier string) *StandardError {
	e := newError(ErrCodeAccountNotFound, "No account matched the identifier", nil, false)
	e.Metadata = map[string]interface{}{"identifier": identifier}
	return e
}

func NewAccountDataInvalidError(err error) *StandardError {
	return newError(ErrCodeAccountDataInvalid, "Account data could not be parsed", err, false)
}

func NewDataSourceFailedError(err error) *StandardError {
	return newError(ErrCodeDataSourceFailed, "Account data source failed", err, true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	e := newError(ErrCodeQueryTimeout, "Query timed out", nil, true)
	e.Details = queryType
	return e
}

func NewLLMGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeLLMGenerationFailed, "Text generation failed", err, true)
}

func NewLLMTimeoutError() *StandardError {
	return newError(ErrCodeLLMTimeout, "Text generation timed out", nil, true)
}

func NewSQLAgentFailedError(err error) *StandardError {
	return newError(ErrCodeSQLAgentFailed, "SQL agent could not answer", err, true)
}

func NewSessionStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store unavailable", err, true)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	e := newError(ErrCodeSessionNotFound, "No account loaded for this session", nil, false)
	e.Details = sessionID
	return e
}

func NewInvalidInputError(details string) *StandardError {
	e := newError(ErrCodeInvalidInput, "Invalid job input", nil, false)
	e.Details = details
	return e
}

func NewExportDeliveryFailedError(err error) *StandardError {
	return newError(ErrCodeExportDeliveryFailed, "Chat export delivery failed", err, true)
}

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeAccountNotFound:      "ACCOUNT_NOT_FOUND",
	ErrCodeAccountDataInvalid:   "ACCOUNT_DATA_INVALID",
	ErrCodeDataSourceFailed:     "DATA_SOURCE_FAILED",
	ErrCodeQueryTimeout:         "QUERY_TIMEOUT",
	ErrCodeLLMGenerationFailed:  "LLM_GENERATION_FAILED",
	ErrCodeLLMTimeout:           "LLM_TIMEOUT",
	ErrCodeSQLAgentFailed:       "SQL_AGENT_FAILED",
	ErrCodeSessionStoreFailed:   "SESSION_STORE_FAILED",
	ErrCodeSessionNotFound:      "SESSION_NOT_FOUND",
	ErrCodeInvalidInput:         "INVALID_INPUT",
	ErrCodeExportDeliveryFailed: "EXPORT_DELIVERY_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDataSourceFailed,
		ErrCodeSessionStoreFailed,
		ErrCodeExportDeliveryFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeLLMGenerationFailed,
		ErrCodeSQLAgentFailed:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		"userMessage":       UserMessage(stdErr),
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError extracts a *StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "ACCOUNT"):
		return "ACCOUNT"
	case strings.Contains(codeStr, "DATA_SOURCE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "SQL_AGENT"):
		return "AI"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "EXPORT"):
		return "COMMUNICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// User-facing texts, in the assistant's language.
const (
	MsgAccountNotFound = "⚠️ Nenhum ISP encontrado com os dados informados. Por favor, verifique o CNPJ ou Razão Social."
	MsgDataInvalid     = "❌ Os dados deste ISP estão inconsistentes na base (valores ou tickets inválidos). Acione o time de dados."
	MsgDataSource      = "❌ Erro ao consultar o banco de dados. Tente novamente em instantes."
	MsgGeneration      = "Desculpe, não consegui processar sua pergunta agora. Tente novamente ou reformule a pergunta."
	MsgSessionNotFound = "Busque um ISP pelo CNPJ ou Razão Social antes de fazer perguntas."
	MsgExport          = "Não foi possível enviar o histórico do chat. Tente novamente."
	MsgInvalidInput    = "Requisição inválida."
	MsgUnexpected      = "Ocorreu um erro inesperado. Tente novamente."
)

// UserMessage maps an error to the message shown to the end user.
func UserMessage(err error) string {
	stdErr, ok := AsStandardError(err)
	if !ok {
		return MsgUnexpected
	}
	switch stdErr.Code {
	case ErrCodeAccountNotFound:
		return MsgAccountNotFound
	case ErrCodeAccountDataInvalid:
		return MsgDataInvalid
	case ErrCodeDataSourceFailed, ErrCodeQueryTimeout:
		return MsgDataSource
	case ErrCodeLLMGenerationFailed, ErrCodeLLMTimeout, ErrCodeSQLAgentFailed, ErrCodeSessionStoreFailed:
		return MsgGeneration
	case ErrCodeSessionNotFound:
		return MsgSessionNotFound
	case ErrCodeExportDeliveryFailed:
		return MsgExport
	case ErrCodeInvalidInput:
		return MsgInvalidInput
	default:
		return MsgUnexpected
	}
}
