package portalserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/form"
	restaurantports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
	userports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/ports"
	apierrors "github.com/Apurer/go-gin-restaurant-portal/internal/shared/errors"
)

var problemResponder = apierrors.NewChainedResponder("",
	mapValidationError,
	mapSentinelError,
	mapUpstreamError,
)

func mapValidationError(err error) (apierrors.ProblemDetail, bool) {
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		return apierrors.NewValidationProblem(verr.Fields), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapSentinelError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, identityports.ErrUnauthorized):
		return apierrors.ErrUnauthorized.WithDetail("sign in to continue"), true
	case errors.Is(err, identityports.ErrInvalidCallback):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, restaurantports.ErrNotFound):
		return apierrors.NewNotFoundProblem("restaurant", "me"), true
	case errors.Is(err, userports.ErrNotFound):
		return apierrors.NewNotFoundProblem("user", "me"), true
	case errors.Is(err, restaurantports.ErrRejected):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// mapUpstreamError treats anything left as a failed remote call.
func mapUpstreamError(err error) (apierrors.ProblemDetail, bool) {
	return apierrors.ErrBadGateway.WithDetail(err.Error()), true
}

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	problemResponder.Respond(c, problem)
}

// respondError answers JSON clients with RFC 7807 problems.
func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	problemResponder.RespondError(c, err)
}

// wantsJSON reports whether the client prefers JSON over HTML.
func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

// statusForError picks the HTML status code for a failed remote call.
func statusForError(err error) int {
	switch {
	case errors.Is(err, identityports.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, restaurantports.ErrRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func respondValidation[M ~map[string]string](c *gin.Context, fields M) {
	respondProblem(c, apierrors.NewValidationProblem(fields))
}

func respondProblemBadRequest(c *gin.Context, err error) {
	respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
}
