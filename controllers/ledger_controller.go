package controllers

import (
	"net/http"
	"strconv"

	"radio_fleet_tool/app"
	"radio_fleet_tool/ledger"

	"github.com/gin-gonic/gin"
)

type LedgerController struct{ *Srv }

func NewLedgerController(s *Srv) *LedgerController { return &LedgerController{Srv: s} }

// GET /api/dashboard
func (lc *LedgerController) Dashboard(c *gin.Context) {
	stats, err := lc.Ledger.Dashboard(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/loans/history?deviceId=&from=&to=&page=&pageSize=
func (lc *LedgerController) History(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 0 // 让服务层按“< 1”拒绝
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(ledger.DefaultPageSize)))
	if err != nil {
		pageSize = 0
	}

	res, err := lc.Ledger.History(c.Request.Context(), ledger.HistoryQuery{
		RadioID:  c.Query("deviceId"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/loans/borrowers?q=&limit=
func (lc *LedgerController) Suggestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	out, err := lc.Ledger.Suggestions(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"suggestions": out})
}
