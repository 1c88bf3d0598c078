package handlers

import (
	"net/http"

	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/cart"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CommitBillRequest struct {
	Seller  string          `json:"seller"`
	Contact string          `json:"contact"`
	Cash    decimal.Decimal `json:"cash"`
	UPI     decimal.Decimal `json:"upi"`
}

// --- POST: /api/bills ---
// Commits the session cart. The cart is held for the whole commit and cleared
// only when it fully succeeds, so a repeated submit finds it empty.
func (h *Handler) CommitBill(c *gin.Context) {
	var req CommitBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var receipt *billing.Receipt
	err := h.carts.Checkout(cartKey(c), func(ct cart.Cart) error {
		var err error
		receipt, err = h.bills.Commit(c.Request.Context(), billing.Request{
			Cart:    ct,
			Seller:  req.Seller,
			Contact: req.Contact,
			Cash:    req.Cash,
			UPI:     req.UPI,
		})
		return err
	})
	if err != nil {
		h.fail(c, "CommitBill", err)
		return
	}

	resp := gin.H{
		"message":       "Bill saved",
		"receipt":       receipt,
		"total_display": utils.FormatINR(receipt.Bill.Total),
	}
	// the counter re-renders the menu from fresh quantities
	items, err := h.store.ListStock(c.Request.Context(), database.StockFilter{})
	if msg, ok := readFailed(err); ok {
		resp["stock_error"] = msg
	} else if err == nil {
		resp["stock"] = items
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) GetBill(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bill, err := h.store.GetBill(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetBill", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill, "total_display": utils.FormatINR(bill.Total)})
}

// --- GET: /api/commits/pending ---
// Commits that stopped between writes in overwrite mode.
func (h *Handler) PendingCommits(c *gin.Context) {
	intents, err := h.bills.PendingCommits(c.Request.Context())
	if err != nil {
		h.fail(c, "PendingCommits", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": intents})
}
