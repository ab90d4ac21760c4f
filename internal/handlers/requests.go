package handlers

// TransitionRequest represents a request to move a vote to a new status
type TransitionRequest struct {
	Status string `json:"status"`
}

// SubmitResponseRequest represents a voter's selection for a vote
type SubmitResponseRequest struct {
	SelectedOptionIDs []string `json:"selected_option_ids"`
}

// LoginRequest represents an admin login attempt
type LoginRequest struct {
	Password string `json:"password"`
}
