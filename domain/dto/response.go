package dto

// ErrorResponse is the flat failure envelope returned by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func Failure(msg string) ErrorResponse {
	return ErrorResponse{Success: false, Error: msg}
}
