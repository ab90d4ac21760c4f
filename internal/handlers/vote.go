package handlers

import (
	"net/http"

	"github.com/assoportal/pollengine/internal/auth"
	"github.com/assoportal/pollengine/internal/models"
	"github.com/assoportal/pollengine/internal/services"
)

// handleListVotes returns all votes, optionally filtered by ?status=
func (h *Handlers) handleListVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := h.Lifecycle.ListVotes(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, votes)
}

// handleGetVote returns a single vote with its options
func (h *Handlers) handleGetVote(w http.ResponseWriter, r *http.Request) {
	id, err := voteIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	vote, err := h.Lifecycle.GetVote(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, vote)
}

// handleCreateVote creates a new draft vote
func (h *Handlers) handleCreateVote(w http.ResponseWriter, r *http.Request) {
	var req services.NewVote
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actor, _ := auth.IdentityFromContext(r.Context())
	vote, err := h.Lifecycle.CreateVote(r.Context(), actor, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, vote)
}

// handleUpdateVote applies a partial update to a vote
func (h *Handlers) handleUpdateVote(w http.ResponseWriter, r *http.Request) {
	id, err := voteIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req services.VoteUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actor, _ := auth.IdentityFromContext(r.Context())
	vote, err := h.Lifecycle.UpdateVote(r.Context(), actor, id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, vote)
}

// handleTransition moves a vote along its lifecycle
func (h *Handlers) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, err := voteIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actor, _ := auth.IdentityFromContext(r.Context())
	vote, err := h.Lifecycle.Transition(r.Context(), actor, id, models.VoteStatus(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, vote)
}

// handleDeleteVote removes a vote and its responses
func (h *Handlers) handleDeleteVote(w http.ResponseWriter, r *http.Request) {
	id, err := voteIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.Lifecycle.DeleteVote(r.Context(), actor, id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// handleSubmitResponse records or replaces the caller's response. The route
// is deliberately open: the submission service checks the vote's state before
// it checks authentication, so an anonymous caller on a closed vote learns
// the vote is closed, not that they need to log in.
func (h *Handlers) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	id, err := voteIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req SubmitResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	response, err := h.Submission.Submit(r.Context(), id, identity.MemberID, req.SelectedOptionIDs)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, SubmitResponseAck{
		VoteID:            response.VoteID,
		VoterID:           response.VoterID,
		SelectedOptionIDs: response.SelectedOptionIDs,
	})
}

// handleMyResponse reports whether the caller has responded to a vote
func (h *Handlers) handleMyResponse(w http.ResponseWriter, r *http.Request) {
	id, err := voteIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	responded, err := h.Submission.HasResponded(r.Context(), id, identity.MemberID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, HasRespondedResponse{VoteID: id, Responded: responded})
}

// handleGetResults returns aggregated results, subject to the vote's
// visibility policy for the caller
func (h *Handlers) handleGetResults(w http.ResponseWriter, r *http.Request) {
	id, err := voteIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())

	// Administrators bypass the visibility policy
	if identity.IsAdmin() {
		result, err := h.Results.ComputeResults(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondOK(w, result)
		return
	}

	result, err := h.Results.GetResultsForViewer(r.Context(), id, identity.MemberID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// handleShareLink returns the portal URL for a vote
func (h *Handlers) handleShareLink(w http.ResponseWriter, r *http.Request) {
	id, err := voteIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	url, err := h.Share.ShareURL(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ShareLinkResponse{VoteID: id, URL: url})
}

// handleShareQR returns a QR code PNG for a vote's share link
func (h *Handlers) handleShareQR(w http.ResponseWriter, r *http.Request) {
	id, err := voteIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	png, err := h.Share.QRImage(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}
