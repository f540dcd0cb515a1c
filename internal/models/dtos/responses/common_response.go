package responses

// APIResponse is the envelope of every JSON answer
type APIResponse[T any] struct {
	Success bool        `json:"success"`
	Data    *T          `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Message string      `json:"message,omitempty"`
}
