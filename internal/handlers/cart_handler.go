package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go-pos-billing/internal/cart"
	"go-pos-billing/internal/utils"

	"github.com/gin-gonic/gin"
)

var errSoldOut = errors.New("item is out of stock")

type AddLineRequest struct {
	ItemID uint `json:"item_id" binding:"required"`
}

type ChangeQtyRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func cartResponse(ct cart.Cart) gin.H {
	total := ct.Total()
	return gin.H{
		"lines":         ct.Lines,
		"total":         total,
		"total_display": utils.FormatINR(total),
	}
}

func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartResponse(h.carts.Get(cartKey(c))))
}

// --- POST: /api/cart/lines ---
// Sold out items leave the cart untouched; "added" tells the client which happened.
func (h *Handler) AddCartLine(c *gin.Context) {
	var req AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}

	item, err := h.store.GetStock(c.Request.Context(), req.ItemID)
	if err != nil {
		h.fail(c, "AddCartLine", err)
		return
	}

	ct, err := h.carts.Update(cartKey(c), func(ct *cart.Cart) error {
		if !ct.AddLine(*item, item.Quantity) {
			return errSoldOut
		}
		return nil
	})
	resp := cartResponse(ct)
	resp["added"] = err == nil
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ChangeCartLine(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
		return
	}
	var req ChangeQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta is required"})
		return
	}

	ct, err := h.carts.Update(cartKey(c), func(ct *cart.Cart) error {
		return ct.ChangeQty(index, req.Delta)
	})
	if err != nil {
		h.fail(c, "ChangeCartLine", err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(ct))
}

func (h *Handler) RemoveCartLine(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
		return
	}

	ct, err := h.carts.Update(cartKey(c), func(ct *cart.Cart) error {
		return ct.RemoveLine(index)
	})
	if err != nil {
		h.fail(c, "RemoveCartLine", err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(ct))
}

func (h *Handler) ClearCart(c *gin.Context) {
	h.carts.Clear(cartKey(c))
	c.JSON(http.StatusOK, cartResponse(h.carts.Get(cartKey(c))))
}
