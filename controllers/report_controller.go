package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/services"
	"github.com/tailorworks/tailorshop-api/utils"
)

func reportService() *services.ReportService {
	return services.NewReportService(config.GetDB())
}

// DailyReport handles GET /api/v1/reports/daily?date=YYYY-MM-DD (defaults to today)
func DailyReport(c *gin.Context) {
	date := time.Now()
	if value := c.Query("date"); value != "" {
		parsed, err := utils.ParseDate(value)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
			return
		}
		date = parsed
	}

	report, err := reportService().DailyReport(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, report)
}

// MonthlyReport handles GET /api/v1/reports/monthly?month=&year=
func MonthlyReport(c *gin.Context) {
	monthValue, yearValue := c.Query("month"), c.Query("year")
	if monthValue == "" || yearValue == "" {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "month and year are required")
		return
	}

	month, err := strconv.Atoi(monthValue)
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "INVALID_MONTH", "month must be a number between 1 and 12")
		return
	}
	year, err := strconv.Atoi(yearValue)
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "INVALID_YEAR", "year must be a number")
		return
	}

	report, err := reportService().MonthlyReport(c.Request.Context(), month, year)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, report)
}

// EmployeeReport handles GET /api/v1/reports/employees?from=&to=
func EmployeeReport(c *gin.Context) {
	from, err := optionalDateQuery(c, "from")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}
	to, err := optionalDateQuery(c, "to")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}
	if to != nil {
		end := utils.EndOfDay(*to)
		to = &end
	}

	report, err := reportService().EmployeeReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, report)
}
