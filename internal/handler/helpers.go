package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/pkg/errcode"
	apperr "github.com/recapd/recapd/internal/pkg/errors"
	"github.com/recapd/recapd/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, apperr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, apperr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, apperr.ErrNoContent):
		response.Error(c, errcode.ErrNoContent, "no usable transcript content")
	case errors.Is(err, apperr.ErrRetrievalTimeout):
		response.Error(c, errcode.ErrRetrievalTimeout, "retrieval timed out")
	case errors.Is(err, apperr.ErrRetrievalUnavailable):
		response.Error(c, errcode.ErrRetrievalUnavailable, "retrieval unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
