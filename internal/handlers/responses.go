package handlers

// LoginResponse carries the session token issued on a successful login
type LoginResponse struct {
	Token string `json:"token"`
}

// MeResponse describes the authenticated identity
type MeResponse struct {
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
}

// SubmitResponseAck confirms a recorded response
type SubmitResponseAck struct {
	VoteID            string   `json:"vote_id"`
	VoterID           string   `json:"voter_id"`
	SelectedOptionIDs []string `json:"selected_option_ids"`
}

// HasRespondedResponse reports whether the viewer has a recorded response
type HasRespondedResponse struct {
	VoteID    string `json:"vote_id"`
	Responded bool   `json:"responded"`
}

// ShareLinkResponse carries the portal URL for a vote
type ShareLinkResponse struct {
	VoteID string `json:"vote_id"`
	URL    string `json:"url"`
}
