package httpresp

const (
	ErrUnauthorized       = "unauthorized"
	ErrInvalidCredentials = "invalid credentials"
	ErrMissingBearerToken = "bearer token is required"
	ErrInvalidToken       = "invalid token"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CountResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Meta is the pagination block attached to every list response. All four
// fields are derived per request, never stored.
type Meta struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

type ListResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

func NewMessageResponse(message string) MessageResponse {
	return MessageResponse{Message: message}
}

func NewCountResponse(message string, count int) CountResponse {
	return CountResponse{Message: message, Count: count}
}

func NewListResponse(data any, meta Meta) ListResponse {
	return ListResponse{Data: data, Meta: meta}
}

// NewMeta derives pagination metadata. Page and pageSize are echoed as
// given, so a page beyond totalPages simply pairs an empty data set with
// accurate totals.
func NewMeta(totalItems, page, pageSize int) Meta {
	if pageSize <= 0 {
		pageSize = 1
	}
	totalPages := totalItems / pageSize
	if totalItems%pageSize != 0 {
		totalPages++
	}
	return Meta{
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
	}
}

// NewUnpagedMeta is the meta block for paginate=false responses: the whole
// collection on a single page.
func NewUnpagedMeta(totalItems int) Meta {
	return Meta{
		TotalItems:  totalItems,
		TotalPages:  1,
		CurrentPage: 1,
		PageSize:    totalItems,
	}
}
