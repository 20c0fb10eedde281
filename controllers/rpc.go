package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/caltrack/services"
	"github.com/cppla/caltrack/utils"
)

// Envelope codes.
const (
	codeInvalidPayload = 40001
	codeInvalidDate    = 40002
	codeInvalidField   = 40003
	codeInvalidQuery   = 40004
	codeParentMissing  = 40401
	codeDuplicateDate  = 40901
	codeInternal       = 50001
)

// ProcedureKey is the gin context key holding the remote procedure name.
const ProcedureKey = "rpc.procedure"

// rejectInput reports a request that never reached the service.
func rejectInput(ctx *gin.Context, code int, message string, err error) {
	utils.Logger.Warn("rpc input rejected",
		zap.String("procedure", ctx.GetString(ProcedureKey)),
		zap.String("request_id", utils.RequestIDFrom(ctx.Request.Context())),
		zap.Error(err),
	)
	utils.Error(ctx, http.StatusBadRequest, code, message)
}

// respondError maps service errors onto the envelope. The service has already logged them.
func respondError(ctx *gin.Context, err error) {
	var verr *services.ValidationError
	var dup *services.DuplicateDateError
	var parent *services.ParentNotFoundError
	switch {
	case errors.As(err, &verr):
		utils.Error(ctx, http.StatusBadRequest, codeInvalidField, verr.Error())
	case errors.As(err, &dup):
		utils.Error(ctx, http.StatusConflict, codeDuplicateDate, dup.Error())
	case errors.As(err, &parent):
		utils.Error(ctx, http.StatusNotFound, codeParentMissing, parent.Error())
	default:
		utils.Error(ctx, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

// queryID reads a required integer query parameter.
func queryID(ctx *gin.Context, name string) (int64, bool) {
	raw := ctx.Query(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		rejectInput(ctx, codeInvalidQuery, name+" must be an integer", err)
		return 0, false
	}
	return id, true
}

// bindJSON decodes the mutation body and runs the binding rules.
func bindJSON(ctx *gin.Context, dst interface{}) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		rejectInput(ctx, codeInvalidPayload, "invalid request payload: "+err.Error(), err)
		return false
	}
	return true
}
