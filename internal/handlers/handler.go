package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go-pos-billing/internal/auth"
	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/cart"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const moduleName = "handlers"

// Assistant answers free-form admin questions about the shop.
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
}

type Deps struct {
	Store             database.Store
	Billing           *billing.Service
	Carts             *cart.Store
	Auth              *auth.Provider
	Assistant         Assistant
	Logger            logrus.FieldLogger
	Location          *time.Location
	LowStockThreshold int
	Now               func() time.Time
	// Ping reports backing store health for /health. Optional.
	Ping func(ctx context.Context) error
}

type Handler struct {
	store     database.Store
	bills     *billing.Service
	carts     *cart.Store
	auth      *auth.Provider
	assistant Assistant
	log       logrus.FieldLogger
	loc       *time.Location
	lowStock  int
	now       func() time.Time
	ping      func(ctx context.Context) error

	sub *auth.Subscription
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.LowStockThreshold <= 0 {
		d.LowStockThreshold = 3
	}
	h := &Handler{
		store:     d.Store,
		bills:     d.Billing,
		carts:     d.Carts,
		auth:      d.Auth,
		assistant: d.Assistant,
		log:       d.Logger,
		loc:       d.Location,
		lowStock:  d.LowStockThreshold,
		now:       d.Now,
		ping:      d.Ping,
	}
	// a signed-out session never gets its cart back
	h.sub = d.Auth.OnSessionChange(func(ev auth.SessionEvent) {
		if ev.Type == auth.EventSignedOut && ev.Session != nil {
			h.carts.Clear(ev.Session.TokenID)
		}
	})
	return h
}

// Close releases the session subscription.
func (h *Handler) Close() {
	h.sub.Unsubscribe()
}

// fail maps domain errors onto status codes. Unknown errors are logged and
// reported as 500 with the message kept verbatim.
func (h *Handler) fail(c *gin.Context, funcName string, err error) {
	var commitErr *billing.CommitError

	switch {
	case billing.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &commitErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stage": commitErr.Stage})
	case errors.Is(err, database.ErrNotFound), errors.Is(err, cart.ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrQtyBelowOne):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		config.LogError(h.log, moduleName, funcName, c.FullPath(), logrus.Fields{"correlation_id": c.GetString(middleware.CorrelationKey)}, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// cartKey scopes carts to the token, so two logins never share a cart.
func cartKey(c *gin.Context) string {
	if s := middleware.CurrentSession(c); s != nil {
		return s.TokenID
	}
	return ""
}
