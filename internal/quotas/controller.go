package quotas

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"hutsync/internal/hrs"
	"hutsync/internal/shared/utils/response"
)

// bindingErrors flattens gin's validation failures into per-field messages.
func bindingErrors(err error) interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
	}
	return out
}

type Controller interface {
	ReconcileQuotas(c *gin.Context)
	ImportQuotas(c *gin.Context)
	GetQuotas(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) ReconcileQuotas(c *gin.Context) {
	var req ReconcileRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, bindingErrors(err))
		return
	}

	result, err := ctrl.service.Reconcile(c.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusBadGateway
		if errors.Is(err, ErrValidation) {
			statusCode = http.StatusBadRequest
		} else if errors.Is(err, hrs.ErrAuthentication) {
			statusCode = http.StatusUnauthorized
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	// Per-item failures still return the full result; callers must read the
	// itemized lists, not just the HTTP status.
	status := "success"
	statusCode := http.StatusOK
	if !result.Success {
		status = "error"
		statusCode = http.StatusMultiStatus
	}
	response.RespondJSON(c, status, statusCode, result.Message, result, nil)
}

func (ctrl *controller) ImportQuotas(c *gin.Context) {
	var req ImportRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, bindingErrors(err))
		return
	}

	from, err := hrs.ParseDate(req.DateFrom)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid date_from", nil, err.Error())
		return
	}
	to, err := hrs.ParseDate(req.DateTo)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid date_to", nil, err.Error())
		return
	}

	result, err := ctrl.service.ImportRange(c.Request.Context(), from, to)
	if err != nil {
		statusCode := http.StatusBadGateway
		if errors.Is(err, ErrValidation) {
			statusCode = http.StatusBadRequest
		} else if errors.Is(err, hrs.ErrAuthentication) {
			statusCode = http.StatusUnauthorized
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Quota mirror refreshed", result, nil)
}

func (ctrl *controller) GetQuotas(c *gin.Context) {
	fromStr := c.Query("date_from")
	toStr := c.Query("date_to")
	if fromStr == "" || toStr == "" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "date_from and date_to are required", nil, nil)
		return
	}

	from, err := hrs.ParseDate(fromStr)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid date_from", nil, err.Error())
		return
	}
	to, err := hrs.ParseDate(toStr)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid date_to", nil, err.Error())
		return
	}

	quotas, err := ctrl.service.ListMirror(c.Request.Context(), from, to)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrValidation) {
			statusCode = http.StatusBadRequest
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Quotas retrieved successfully", quotas, nil)
}
