package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeNotCancellable    = "ORDER_NOT_CANCELLABLE"
	ErrCodeNoTenant          = "REORDER_NO_TENANT"
	ErrCodeEmptyOrder        = "REORDER_EMPTY_ORDER"
	ErrCodeItemInactive      = "REORDER_ITEM_INACTIVE"
	ErrCodeOutOfStock        = "REORDER_OUT_OF_STOCK"
	ErrCodeUnsupportedOption = "REORDER_UNSUPPORTED_OPTION"
	ErrCodeOptionMismatch    = "REORDER_OPTION_MISMATCH"
	ErrCodeInvalidEventType  = "INVALID_EVENT_TYPE"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a deterministic business-rule rejection. Title and Message
// form the user-facing notification pair; Code is the stable identifier the
// UI and tests branch on.
type DomainError struct {
	Code    string
	Title   string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(code, title, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Title:   title,
		Message: message,
	}
}

// Reorder eligibility rejections. User-facing copy matches the storefront.
var (
	ErrNoTenant = NewDomainError(ErrCodeNoTenant,
		"Não foi possível repetir este pedido",
		"Abra seus pedidos a partir do cardápio da loja para repetir com segurança.")

	ErrEmptyOrder = NewDomainError(ErrCodeEmptyOrder,
		"Pedido sem itens",
		"Não encontramos itens para repetir.")

	ErrItemInactive = NewDomainError(ErrCodeItemInactive,
		"Pedido indisponível para repetir",
		"Algum produto do pedido não está mais disponível no cardápio.")

	ErrItemOutOfStock = NewDomainError(ErrCodeOutOfStock,
		"Pedido indisponível para repetir",
		"Algum item do pedido está sem estoque no momento.")

	ErrUnsupportedOption = NewDomainError(ErrCodeUnsupportedOption,
		"Pedido indisponível para repetir",
		"Este pedido contém itens personalizados (ex.: meio a meio) e precisa ser montado novamente.")

	ErrOptionMismatch = NewDomainError(ErrCodeOptionMismatch,
		"Pedido indisponível para repetir",
		"Alguma opção/variação do pedido não existe mais.")
)

// Other domain errors.
var (
	ErrOrderNotFound = NewDomainError(ErrCodeOrderNotFound,
		"Pedido não encontrado",
		"Não encontramos esse pedido.")

	ErrOrderNotCancellable = NewDomainError(ErrCodeNotCancellable,
		"Não foi possível cancelar",
		"Pedido em preparo. Para cancelar, entre em contato com a loja.")

	ErrInvalidEventType = NewDomainError(ErrCodeInvalidEventType,
		"Evento inválido",
		"O tipo de evento deve ser view, click ou conversion.")
)
