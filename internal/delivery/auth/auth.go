package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/JaniM/variant-go-server/internal/httpresponse"
	authUC "github.com/JaniM/variant-go-server/internal/usecase/auth"
	"github.com/JaniM/variant-go-server/internal/utils"
)

type AuthHandler struct {
	usecaseHandler *authUC.UsecaseHandler
	log            *zap.SugaredLogger
}

type IdentifyRequest struct {
	Token string `json:"token"`
	Nick  string `json:"nick"`
}

type IdentifyResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Nick   string `json:"nick"`
}

func NewAuthHandler(uc *authUC.UsecaseHandler, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		usecaseHandler: uc,
		log:            log,
	}
}

// Identify exchanges a token (possibly empty) for a user identity. A
// fresh token is minted when the presented one is unknown; the client
// is expected to store whatever comes back.
func (a *AuthHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		a.log.Errorw("identify: bad request", "error", err)
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := a.usecaseHandler.Identify(r.Context(), req.Token, req.Nick)
	if err != nil {
		a.log.Errorw("identify failed", "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, IdentifyResponse{
		UserID: u.ID,
		Token:  u.AuthToken,
		Nick:   u.Nick,
	})
}
