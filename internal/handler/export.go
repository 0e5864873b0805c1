package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gamecore-market/internal/models"
	"gamecore-market/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler 负责钱包流水导出
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

// 流水类型的展示文案
func entryKindText(kind string) string {
	switch kind {
	case models.EntryKindCredit:
		return "入账"
	case models.EntryKindDebit:
		return "出账"
	case models.EntryKindTransferIn:
		return "交易入账"
	case models.EntryKindTransferOut:
		return "交易出账"
	}
	return kind
}

// ExportCSV 导出钱包流水为 CSV
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}

	var entries []models.LedgerEntry
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查询失败")
		return
	}

	// 设置响应头
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"wallet_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// UTF-8 BOM（让 Excel 正确识别中文）
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	// 写入表头
	writer.Write([]string{"流水号", "类型", "变动(点)", "变动前", "变动后", "说明", "时间"})

	// 写入数据
	for _, e := range entries {
		writer.Write([]string{
			e.Ref,
			entryKindText(e.Kind),
			strconv.FormatInt(e.Amount, 10),
			strconv.FormatInt(e.BalanceBefore, 10),
			strconv.FormatInt(e.BalanceAfter, 10),
			e.Description,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// ExportXLSX 导出钱包流水为 XLSX
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}

	var entries []models.LedgerEntry
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查询失败")
		return
	}

	f := excelize.NewFile()
	sheetName := "钱包流水"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "创建工作表失败")
		return
	}
	f.SetActiveSheet(index)

	// 设置表头
	headers := []string{"流水号", "类型", "变动(点)", "变动前", "变动后", "说明", "时间"}
	for i, head := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, head)
	}

	// 写入数据
	for idx, e := range entries {
		row := idx + 2

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), e.Ref)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), entryKindText(e.Kind))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), e.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), e.BalanceBefore)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), e.BalanceAfter)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), e.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), e.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "E", 10)
	f.SetColWidth(sheetName, "F", "F", 30)
	f.SetColWidth(sheetName, "G", "G", 20)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"wallet_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "导出失败")
	}
}
