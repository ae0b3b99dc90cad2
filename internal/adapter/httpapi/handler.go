package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/nobilauto-it/Meta-Leads/internal/infra/bitrix"
	"github.com/nobilauto-it/Meta-Leads/internal/usecase"
)

// Handler — операционная HTTP-поверхность сервиса: просмотр истории,
// ручной запуск инжеста и переотправка строк в Bitrix24.
type Handler struct {
	ingest *usecase.IngestUsecase
	source usecase.SheetSource
	crm    *bitrix.Client
	logger *slog.Logger
}

func NewHandler(ingest *usecase.IngestUsecase, source usecase.SheetSource, crm *bitrix.Client, logger *slog.Logger) *Handler {
	return &Handler{ingest: ingest, source: source, crm: crm, logger: logger}
}

func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "server running"})
	})

	r.GET("/api/leads/history", h.history)
	r.GET("/api/leads/new", h.newLeads)
	r.GET("/api/leads/last", h.lastRow)
	r.GET("/api/bitrix/debug", h.debug)
	r.GET("/api/test/send_last_to_bitrix", h.sendLast)
	r.GET("/api/test/send_row_to_bitrix", h.sendRow)
	r.GET("/api/stats/daily.png", h.dailyChart)

	return r
}

func (h *Handler) history(c *gin.Context) {
	c.JSON(http.StatusOK, h.ingest.HistoryWithBaseline(c.Request.Context()))
}

// newLeads запускает один прогон инжеста. Сбои отправки отдельных строк
// наружу не видны — за ними следит /api/bitrix/debug.
func (h *Handler) newLeads(c *gin.Context) {
	rows, err := h.ingest.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("ingest run failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) lastRow(c *gin.Context) {
	rows, err := h.source.Rows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, rows[len(rows)-1])
}

func (h *Handler) debug(c *gin.Context) {
	rec, ok := h.crm.LastDebug()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"msg": "Нет запросов"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) sendLast(c *gin.Context) {
	rows, err := h.source.Rows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Нет строк"})
		return
	}
	h.ingest.SubmitRow(c.Request.Context(), rows[len(rows)-1])
	rec, _ := h.crm.LastDebug()
	c.JSON(http.StatusOK, rec)
}

// sendRow переотправляет строку по номеру из таблицы.
// Нумерация как в Google Sheets: строка 1 — заголовок, данные с 2-й.
func (h *Handler) sendRow(c *gin.Context) {
	rows, err := h.source.Rows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No rows in Google Sheet"})
		return
	}

	rowParam := c.Query("row")
	if rowParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query param 'row' is required, example: ?row=2"})
		return
	}
	rowNumber, err := strconv.Atoi(rowParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query param 'row' must be an integer"})
		return
	}
	if rowNumber < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Row must be >= 2 (row 1 is header)"})
		return
	}

	rowIndex := rowNumber - 2
	if rowIndex >= len(rows) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "Row out of range",
			"requested_row":     rowNumber,
			"max_row_with_data": len(rows) + 1,
		})
		return
	}

	h.ingest.SubmitRow(c.Request.Context(), rows[rowIndex])
	rec, _ := h.crm.LastDebug()
	c.JSON(http.StatusOK, gin.H{
		"requested_row":     rowNumber,
		"row_index_in_data": rowIndex,
		"bitrix_debug":      rec,
	})
}

// dailyChart рисует PNG-график «лидов в день» по истории инжеста.
func (h *Handler) dailyChart(c *gin.Context) {
	labels, values := usecase.DailyCounts(h.ingest.History())
	if len(labels) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "История пуста"})
		return
	}

	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i := range labels {
		if values[i] > maxVal {
			maxVal = values[i]
		}
		bars = append(bars, chart.Value{Value: float64(values[i]), Label: labels[i]})
	}
	// Избежать ошибки invalid data range при нулевых значениях
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Width:    1100,
		Height:   600,
		BarWidth: 56,
		Background: chart.Style{Padding: chart.Box{
			Top:   50,
			Left:  16,
			Right: 16,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}

	c.Header("Content-Type", "image/png")
	if err := graph.Render(chart.PNG, c.Writer); err != nil {
		h.logger.Error("chart render failed", "error", err)
	}
}
