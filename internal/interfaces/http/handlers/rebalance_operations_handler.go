package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mark/internal/domain/entities"
	domainrepos "mark/internal/domain/repositories"
	"mark/internal/interfaces/http/response"
	"mark/pkg/utils"
)

// RebalanceOperationReader is the subset of
// repositories.RebalanceOperationRepository this handler needs.
type RebalanceOperationReader interface {
	GetRebalanceOperations(ctx context.Context, filter domainrepos.RebalanceOperationFilter) ([]*entities.RebalanceOperation, int64, error)
}

// RebalanceOperationsHandler exposes read-only visibility into in-flight and
// settled fund movements, for operators and monitoring.
type RebalanceOperationsHandler struct {
	repo RebalanceOperationReader
}

func NewRebalanceOperationsHandler(repo RebalanceOperationReader) *RebalanceOperationsHandler {
	return &RebalanceOperationsHandler{repo: repo}
}

// ListResponse is the paginated envelope returned by List.
type ListResponse struct {
	Data []*entities.RebalanceOperation `json:"data"`
	Meta utils.PaginationMeta           `json:"meta"`
}

// List handles GET /rebalance-operations?status=&destinationChainId=&tickerHash=&page=&limit=
func (h *RebalanceOperationsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	pp := utils.GetPaginationParams(page, limit)

	filter := domainrepos.RebalanceOperationFilter{
		DestinationChainID: c.Query("destinationChainId"),
		TickerHash:         c.Query("tickerHash"),
		Page:               pp.Page,
		Limit:              pp.Limit,
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []entities.RebalanceOperationStatus{entities.RebalanceOperationStatus(status)}
	}

	ops, total, err := h.repo.GetRebalanceOperations(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, ListResponse{
		Data: ops,
		Meta: utils.CalculateMeta(total, pp.Page, pp.Limit),
	})
}
