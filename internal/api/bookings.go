package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type bookingRequest struct {
	LabID int64     `json:"lab_id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Notes string    `json:"notes"`
	KitID *int64    `json:"kit_id"`
	Items []struct {
		MaterialID int64           `json:"material_id"`
		Quantity   decimal.Decimal `json:"quantity"`
		Form       string          `json:"form"`
	} `json:"items"`
}

func (h *handler) createBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("body", err))
		return
	}
	in := service.NewBooking{LabID: req.LabID, Start: req.Start, End: req.End, Notes: req.Notes, KitID: req.KitID}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.NewBookingItem{
			MaterialID: it.MaterialID, Quantity: it.Quantity, Form: materials.Form(it.Form),
		})
	}
	b, err := h.svc.Bookings.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewBooking(b))
}

type listFunc func(context.Context, auth.Principal) ([]bookings.Booking, error)

func (h *handler) listBookings(c *gin.Context, list listFunc) {
	bs, err := list(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewAll(bs, viewBooking))
}

func (h *handler) listAllBookings(c *gin.Context)     { h.listBookings(c, h.svc.Bookings.ListAll) }
func (h *handler) listOwnBookings(c *gin.Context)     { h.listBookings(c, h.svc.Bookings.ListOwn) }
func (h *handler) listPendingBookings(c *gin.Context) { h.listBookings(c, h.svc.Bookings.ListPending) }
func (h *handler) listBookingHistory(c *gin.Context)  { h.listBookings(c, h.svc.Bookings.ListHistory) }

func (h *handler) getBooking(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	b, err := h.svc.Bookings.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewBooking(b))
}

type statusRequest struct {
	Status          string `json:"status" binding:"required"`
	SolutionWeights []struct {
		MaterialID int64           `json:"material_id"`
		Weight     decimal.Decimal `json:"weight"`
	} `json:"solution_weights"`
}

func (h *handler) setBookingStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("body", err))
		return
	}
	in := service.SetStatusInput{BookingID: id, Target: bookings.Status(req.Status)}
	if len(req.SolutionWeights) > 0 {
		in.SolutionWeights = make(map[int64]decimal.Decimal, len(req.SolutionWeights))
		for _, w := range req.SolutionWeights {
			in.SolutionWeights[w.MaterialID] = w.Weight
		}
	}
	b, err := h.svc.Lifecycle.SetStatus(c.Request.Context(), principal(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewBooking(b))
}

func (h *handler) cancelBooking(c *gin.Context) {
	h.bookingAction(c, h.svc.Lifecycle.Cancel)
}

func (h *handler) completeBooking(c *gin.Context) {
	h.bookingAction(c, h.svc.Lifecycle.Complete)
}

func (h *handler) bookingAction(c *gin.Context, act func(context.Context, auth.Principal, int64) (bookings.Booking, error)) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	b, err := act(c.Request.Context(), principal(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewBooking(b))
}
