package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
)

type TableController struct {
	Tables *services.TableService
}

func NewTableController(tables *services.TableService) *TableController {
	return &TableController{Tables: tables}
}

// CreateTable -> adds a table and returns its generated security code once
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Number uint   `json:"number" binding:"required"`
		Name   string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.Create(c.Request.Context(), req.Number, req.Name)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", gin.H{
		"table":         table,
		"security_code": table.SecurityCode,
		"scan_url":      tc.Tables.ScanURL(table),
	})
}

// GetAllTables -> every table with its session state
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.ListWithSessions(c.Request.Context())
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableQRCode -> PNG to print on the table
func (tc *TableController) GetTableQRCode(c *gin.Context) {
	number, err := uintParam(c, "table_number")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	png, err := tc.Tables.QRCode(c.Request.Context(), number)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
