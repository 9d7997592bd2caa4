package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/thr-api/internal/service"
)

// ReconciliationHandler обрабатывает административные запросы сверки
type ReconciliationHandler struct {
	reconciliationService *service.ReconciliationService
}

// NewReconciliationHandler создает новый обработчик сверки
func NewReconciliationHandler(reconciliationService *service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

// Scan запускает проход сверки и возвращает отчет о расхождениях
func (h *ReconciliationHandler) Scan(c *gin.Context) {
	report, err := h.reconciliationService.Scan(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Repair запускает полный цикл сверки: свежий скан и починка найденного.
// Возвращает и отчет, и результат починки.
func (h *ReconciliationHandler) Repair(c *gin.Context) {
	report, repaired, err := h.reconciliationService.ScanAndRepair(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":   report,
		"repaired": repaired,
	})
}

// Export выгружает отчет сверки файлом (csv по умолчанию, xlsx по запросу)
func (h *ReconciliationHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	report, err := h.reconciliationService.Scan(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("drift_report_%s", time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, report, filename)
	default:
		h.exportCSV(c, report, filename)
	}
}

// Строка отчета в плоском виде для выгрузки. Kind — participant_balance,
// reward_stock или duplicate_answer.
func driftRows(report *service.DriftReport) [][]string {
	var rows [][]string
	for _, d := range report.ParticipantDrifts {
		rows = append(rows, []string{
			"participant_balance",
			strconv.FormatUint(uint64(d.ParticipantID), 10),
			strconv.FormatUint(uint64(d.RoomID), 10),
			strconv.FormatInt(d.Actual, 10),
			strconv.FormatInt(d.Expected, 10),
			strconv.FormatInt(d.Delta, 10),
			"",
		})
	}
	for _, d := range report.RewardDrifts {
		rows = append(rows, []string{
			"reward_stock",
			strconv.FormatUint(uint64(d.RewardID), 10),
			strconv.FormatUint(uint64(d.RoomID), 10),
			strconv.Itoa(d.Actual),
			strconv.Itoa(d.Expected),
			strconv.Itoa(d.Delta),
			sanitizeForExcel(d.Name),
		})
	}
	for _, g := range report.DuplicateAnswers {
		rows = append(rows, []string{
			"duplicate_answer",
			strconv.FormatUint(uint64(g.ParticipantID), 10),
			"",
			strconv.Itoa(len(g.ExtraIDs) + 1),
			"1",
			strconv.Itoa(len(g.ExtraIDs)),
			fmt.Sprintf("question #%d, keep answer #%d", g.QuestionID, g.KeepID),
		})
	}
	return rows
}

var driftHeaders = []string{"Тип", "ID цели", "Комната", "Фактически", "Ожидается", "Дельта", "Примечание"}

func (h *ReconciliationHandler) exportCSV(c *gin.Context, report *service.DriftReport, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(driftHeaders)
	for _, row := range driftRows(report) {
		writer.Write(row)
	}
}

func (h *ReconciliationHandler) exportXLSX(c *gin.Context, report *service.DriftReport, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Расхождения"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ReconciliationHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(driftHeaders))
	for i, hdr := range driftHeaders {
		headers[i] = hdr
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[ReconciliationHandler] Ошибка записи заголовков: %v", err)
	}

	for i, row := range driftRows(report) {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := sw.SetRow(cell, cells); err != nil {
			log.Printf("[ReconciliationHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ReconciliationHandler] Ошибка при Flush: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ReconciliationHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует значения, начинающиеся с символов формул
// Excel/LibreOffice: = + - @ \t \r
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
