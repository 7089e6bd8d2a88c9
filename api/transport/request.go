package transport

// ItemCreateRequest is the body of POST /items. Quantity is a JSON number and
// may be omitted.
type ItemCreateRequest struct {
	Text     string   `json:"text"`
	Quantity *float64 `json:"quantity,omitempty"`
}

// ItemUpdateRequest is the body of PUT /items/{id}. Absent fields stay as they are.
type ItemUpdateRequest struct {
	Text      *string  `json:"text,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
}
