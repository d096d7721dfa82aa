package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/report"
	"github.com/Spok95/labsched/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handler) listLabs(c *gin.Context) {
	ls, err := h.svc.Labs.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewAll(ls, viewLab))
}

type labRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

func (h *handler) createLab(c *gin.Context) {
	var req labRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("body", err))
		return
	}
	l, err := h.svc.Labs.Create(c.Request.Context(), principal(c), labs.Lab{
		Name: req.Name, Location: req.Location, Capacity: req.Capacity,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewLab(l))
}

func (h *handler) listMaterials(c *gin.Context) {
	ms, err := h.svc.Materials.List(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewAll(ms, viewMaterial))
}

type materialRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Category    string          `json:"category"`
	Class       string          `json:"class"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

func (h *handler) createMaterial(c *gin.Context) {
	var req materialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("body", err))
		return
	}
	m, err := h.svc.Materials.Create(c.Request.Context(), principal(c), service.NewMaterial{
		Name: req.Name, Description: req.Description, Location: req.Location, Category: req.Category,
		Class: materials.Class(req.Class), Quantity: req.Quantity, Unit: materials.Unit(req.Unit),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewMaterial(m))
}

type adjustRequest struct {
	Delta decimal.Decimal `json:"delta"`
}

func (h *handler) adjustMaterial(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("body", err))
		return
	}
	e, err := h.svc.Materials.Adjust(c.Request.Context(), principal(c), id, req.Delta)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewEntry(e))
}

func (h *handler) deleteMaterial(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Materials.Delete(c.Request.Context(), principal(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) materialHistory(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	limit := 100
	if s := c.Query("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			h.fail(c, badRequest("limit", err))
			return
		}
	}
	es, err := h.svc.Materials.History(c.Request.Context(), principal(c), id, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewAll(es, viewEntry))
}

func (h *handler) undo(c *gin.Context) {
	res, err := h.svc.Undo.UndoLast(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          res.Message,
		"material_removed": res.MaterialRemoved,
		"entry":            viewEntry(res.Entry),
	})
}

func (h *handler) exportStock(c *gin.Context) {
	ms, err := h.svc.Materials.List(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := report.StockWorkbook(ms)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.sendXLSX(c, "estoque", data)
}

func (h *handler) exportLog(c *gin.Context) {
	ctx := c.Request.Context()
	p := principal(c)
	es, err := h.svc.Materials.History(ctx, p, 0, 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	ms, err := h.svc.Materials.List(ctx, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	names := report.Names{Materials: make(map[int64]string, len(ms))}
	for _, m := range ms {
		names.Materials[m.ID] = m.Name
	}
	if names.Users, err = h.svc.Users.Names(ctx); err != nil {
		h.fail(c, err)
		return
	}
	data, err := report.LedgerWorkbook(es, names, h.loc)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.sendXLSX(c, "movimentacoes", data)
}

func (h *handler) sendXLSX(c *gin.Context, prefix string, data []byte) {
	name := fmt.Sprintf("%s_%s.xlsx", prefix, time.Now().In(h.loc).Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxType, data)
}
