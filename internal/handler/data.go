package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zhangyoujia1995/NICE-APS/internal/repository"
	"github.com/zhangyoujia1995/NICE-APS/pkg/errors"
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

// DataHandler 基础数据维护处理器
type DataHandler struct {
	repo *repository.OrderRepository // 可为nil，此时数据端点不可用
}

// NewDataHandler 创建基础数据处理器
func NewDataHandler(repo *repository.OrderRepository) *DataHandler {
	return &DataHandler{repo: repo}
}

func (h *DataHandler) requireRepo(w http.ResponseWriter) bool {
	if h.repo == nil {
		respondError(w, errors.New(errors.CodeInternal, "未配置持久化存储"))
		return false
	}
	return true
}

// Orders 订单数据端点：GET 列出，POST 批量保存
func (h *DataHandler) Orders(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}

	ctx, cancel := contextWithTimeout(r, 30*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		filter := repository.DefaultListFilter().WithLimit(100)
		if search := r.URL.Query().Get("search"); search != "" {
			filter.Search = search
		}
		orders, total, err := h.repo.ListOrders(ctx, filter)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询订单失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"total":  total,
			"orders": orders,
		})

	case http.MethodPost:
		var orders []*model.Order
		if err := json.NewDecoder(r.Body).Decode(&orders); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		if len(orders) == 0 {
			respondError(w, errors.InvalidInput("orders", "订单列表不能为空"))
			return
		}

		ve := errors.NewValidationErrors()
		for _, o := range orders {
			o.Validate(time.Time{}, ve)
		}
		if ve.HasErrors() {
			respondError(w, ve.ToAppError())
			return
		}

		for _, o := range orders {
			if err := h.repo.UpsertOrder(ctx, o); err != nil {
				respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存订单失败"))
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"saved": len(orders)})

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

// Factories 工厂数据端点：GET 列出，POST 批量保存
func (h *DataHandler) Factories(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}

	ctx, cancel := contextWithTimeout(r, 30*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		factories, err := h.repo.ListFactories(ctx)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询工厂失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"total":     len(factories),
			"factories": factories,
		})

	case http.MethodPost:
		var factories []*model.Factory
		if err := json.NewDecoder(r.Body).Decode(&factories); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		if len(factories) == 0 {
			respondError(w, errors.InvalidInput("factories", "工厂列表不能为空"))
			return
		}

		ve := errors.NewValidationErrors()
		for _, f := range factories {
			f.Validate(ve)
		}
		if ve.HasErrors() {
			respondError(w, ve.ToAppError())
			return
		}

		for _, f := range factories {
			if err := h.repo.UpsertFactory(ctx, f); err != nil {
				respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存工厂失败"))
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"saved": len(factories)})

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}
