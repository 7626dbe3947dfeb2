package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kalhuss/property-manage/internal/auth"
	"github.com/kalhuss/property-manage/internal/models"
	"github.com/kalhuss/property-manage/internal/services"
)

type BankHandler struct {
	bankService *services.BankService
}

func NewBankHandler(bankService *services.BankService) *BankHandler {
	return &BankHandler{
		bankService: bankService,
	}
}

// AddBankDetails registers the caller's payout account
// POST /api/bank
func (h *BankHandler) AddBankDetails(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	var req models.AddBankDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	details, err := h.bankService.AddBankDetails(c.Request.Context(), userID, &req, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, details)
}

// GetBankDetails returns the caller's bank details, account number masked
// GET /api/bank
func (h *BankHandler) GetBankDetails(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	details, err := h.bankService.GetBankDetails(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// CreateVerificationSession starts identity verification for the caller
// POST /api/verification/session
func (h *BankHandler) CreateVerificationSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	url, sessionID, err := h.bankService.CreateVerificationSession(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"session_id": sessionID,
	})
}

// CheckVerification polls a verification session's outcome
// POST /api/verification/check
func (h *BankHandler) CheckVerification(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	var req models.VerificationCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	verified, err := h.bankService.CheckVerification(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": verified})
}
