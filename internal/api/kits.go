package api

import (
	"net/http"

	"github.com/Spok95/labsched/internal/domain/kits"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type kitRequest struct {
	Name  string `json:"name"`
	Items []struct {
		MaterialID int64           `json:"material_id"`
		Quantity   decimal.Decimal `json:"quantity"`
		Form       string          `json:"form"`
	} `json:"items"`
}

func (r kitRequest) input(id int64) service.KitInput {
	in := service.KitInput{ID: id, Name: r.Name, Items: make([]kits.Item, 0, len(r.Items))}
	for _, it := range r.Items {
		in.Items = append(in.Items, kits.Item{
			MaterialID: it.MaterialID, Quantity: it.Quantity, Form: materials.Form(it.Form),
		})
	}
	return in
}

func (h *handler) listKits(c *gin.Context) {
	ks, err := h.svc.Kits.List(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewAll(ks, viewKit))
}

func (h *handler) createKit(c *gin.Context) {
	h.saveKit(c, 0, http.StatusCreated)
}

func (h *handler) updateKit(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.saveKit(c, id, http.StatusOK)
}

func (h *handler) saveKit(c *gin.Context, id int64, status int) {
	var req kitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("body", err))
		return
	}
	k, err := h.svc.Kits.Upsert(c.Request.Context(), principal(c), req.input(id))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, viewKit(k))
}

func (h *handler) deleteKit(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Kits.Delete(c.Request.Context(), principal(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
