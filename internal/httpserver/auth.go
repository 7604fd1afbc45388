package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/service/cart"
	customersvc "techzone-storefront/internal/service/customer"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type customerResponse struct {
	Customer *domain.Customer `json:"customer"`
}

type loginResponse struct {
	Customer    *domain.Customer `json:"customer"`
	AccessToken string           `json:"accessToken"`
	TokenType   string           `json:"tokenType"`
	ExpiresIn   int              `json:"expiresIn"`
	Cart        cart.Snapshot    `json:"cart"`
}

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email, password and fullName are required")
		return
	}
	customer, err := h.deps.CustomerSvc.Signup(c.Request.Context(), customersvc.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customerResponse{Customer: customer})
}

// login signs the customer in and merges the device cart into their cart
// before responding, so the returned cart is already the merged one.
func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	device := currentDevice(c)
	customer, token, err := h.deps.CustomerSvc.Login(c.Request.Context(), device, req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		Customer:    customer,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.CustomerSvc.AccessTTLSeconds(),
		Cart:        h.deps.Carts.Get(device).Snapshot(),
	})
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.CustomerSvc.Logout(c.Request.Context(), currentDevice(c), currentToken(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, customerResponse{Customer: currentCustomer(c)})
}

func (h *handlers) updateProfile(c *gin.Context) {
	var update domain.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid profile payload: "+err.Error())
		return
	}
	customer, err := h.deps.CustomerSvc.UpdateProfile(c.Request.Context(), currentCustomer(c).ID, update)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, customerResponse{Customer: customer})
}

func (h *handlers) changePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "currentPassword and newPassword are required")
		return
	}
	if err := h.deps.CustomerSvc.ChangePassword(c.Request.Context(), currentCustomer(c).ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) accountView(c *gin.Context) {
	tab, err := domain.ParseAccountTab(c.Param("tab"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	view, err := h.deps.AccountSvc.View(c.Request.Context(), currentCustomer(c), tab)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
