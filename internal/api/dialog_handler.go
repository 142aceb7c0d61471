package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/api/respond"
	"github.com/ab7289/dining-concierge/internal/dialog"
	"github.com/ab7289/dining-concierge/internal/model"
)

// DialogHandler is the HTTP transport for the dialog dispatcher.
type DialogHandler struct {
	dispatcher *dialog.Dispatcher
	log        zerolog.Logger
}

// NewDialogHandler creates a new dialog handler.
func NewDialogHandler(d *dialog.Dispatcher, log zerolog.Logger) *DialogHandler {
	return &DialogHandler{dispatcher: d, log: log}
}

// HandleTurn handles POST /api/dialog. The body is one dialog turn; the
// response is the directive the bot runtime should execute next.
func (h *DialogHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	var turn model.DialogTurn
	if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	directive, err := h.dispatcher.Dispatch(r.Context(), &turn)
	if err != nil {
		var unsupported *model.UnsupportedIntentError
		var queueDown *model.QueueUnavailableError
		switch {
		case errors.As(err, &unsupported):
			respond.WriteUnprocessable(w, unsupported.Error())
		case errors.As(err, &queueDown):
			h.log.Error().Err(err).Str("intent", turn.IntentName).Msg("reservation queue unavailable")
			respond.WriteBadGateway(w, "reservation queue unavailable")
		default:
			h.log.Error().Err(err).Str("intent", turn.IntentName).Msg("dialog dispatch failed")
			respond.WriteInternalError(w, err.Error())
		}
		return
	}

	respond.WriteJSON(w, http.StatusOK, directive)
}
