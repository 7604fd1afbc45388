package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/service/cart"
)

// Quantities are bounded by domain.MaxQuantity (2147483647).
type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"max=2147483647"`
}

type updateItemRequest struct {
	Delta *int `json:"delta" binding:"required,min=-2147483647,max=2147483647"`
}

// store returns the device's cart, bound to the signed-in customer. The bind
// is a no-op once the cart is synced and retries a sync that failed. A
// request without a session gets an anonymous cart: a cart still bound from
// an earlier session on the device is signed out first.
func (h *handlers) store(c *gin.Context) *cart.Store {
	st := h.deps.Carts.Get(currentDevice(c))
	customer := currentCustomer(c)
	if customer == nil {
		if st.State() != cart.StateAnonymous {
			h.logger.Info("unbinding cart, request has no session", zap.String("user_id", st.UserID()))
			st.SignOut()
		}
		return st
	}
	if res := st.SignIn(c.Request.Context(), customer.ID); res != cart.SyncAlreadyBound {
		h.logger.Debug("cart bind", zap.String("customer_id", customer.ID), zap.Stringer("result", res))
	}
	return st
}

func (h *handlers) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.store(c).Snapshot())
}

// addCartItem snapshots the current catalog price and metadata into the line.
func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId is required and quantity must not exceed 2147483647")
		return
	}
	product, err := h.deps.ProductSvc.Get(c.Request.Context(), strings.TrimSpace(req.ProductID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.writeError(c, err)
		return
	}
	st := h.store(c)
	st.AddItem(product.CartLine(req.Quantity))
	c.JSON(http.StatusOK, st.Snapshot())
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "delta is required and must fit in 32 bits")
		return
	}
	st := h.store(c)
	st.UpdateQuantity(c.Param("productId"), *req.Delta)
	c.JSON(http.StatusOK, st.Snapshot())
}

func (h *handlers) removeCartItem(c *gin.Context) {
	st := h.store(c)
	st.RemoveItem(c.Param("productId"))
	c.JSON(http.StatusOK, st.Snapshot())
}

func (h *handlers) emptyCart(c *gin.Context) {
	st := h.store(c)
	st.EmptyCart()
	c.JSON(http.StatusOK, st.Snapshot())
}
