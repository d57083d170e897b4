package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// SubmissionService 提交记录服务
type SubmissionService struct {
	repo        *repository.SubmissionRepository
	forms       *FormService
	collections *CollectionService
	deps        Deps
}

// NewSubmissionService 创建提交记录服务
func NewSubmissionService(repo *repository.SubmissionRepository, forms *FormService, collections *CollectionService, deps Deps) *SubmissionService {
	return &SubmissionService{repo: repo, forms: forms, collections: collections, deps: deps}
}

// SubmitRequest 提交请求
type SubmitRequest struct {
	FormID         string           `json:"formId"`
	CollectionName string           `json:"collectionName"`
	FormName       string           `json:"formName"`
	Data           map[string]any   `json:"data"`
	Files          []entity.FileRef `json:"files"`
}

// Submit 写入提交记录；提供 formId 时先按表单定义校验，失败返回 *ValidationError 且不写入
func (s *SubmissionService) Submit(ctx context.Context, req *SubmitRequest) (*entity.Submission, error) {
	data := req.Data
	if data == nil {
		data = map[string]any{}
	}
	collection := strings.TrimSpace(req.CollectionName)
	formName := req.FormName

	if req.FormID != "" {
		form, err := s.forms.Get(ctx, req.FormID)
		if err != nil {
			return nil, err
		}
		report := s.deps.Engine.Submit(form.Fields(), data)
		if !report.Empty() {
			return nil, &ValidationError{Message: report.Error(), Report: &report}
		}
		if collection == "" {
			collection = form.CollectionName
		}
		if formName == "" {
			formName = form.FormName
		}
	}
	if _, err := s.collections.Ensure(ctx, collection); err != nil {
		return nil, err
	}

	files := req.Files
	if files == nil {
		files = []entity.FileRef{}
	}
	sub := &entity.Submission{
		ID:             newID(),
		FormID:         req.FormID,
		CollectionName: collection,
		FormName:       formName,
		Data:           datatypes.JSONMap(data),
		Files:          datatypes.NewJSONType(files),
		SubmittedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	s.deps.Events.Publish("submission", sub.ID, ActionCreated)
	return sub, nil
}

// List 提交记录列表
func (s *SubmissionService) List(ctx context.Context, filter repository.SubmissionFilter) ([]entity.Submission, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	if items == nil {
		items = []entity.Submission{}
	}
	return items, nil
}

// exportColumn 导出列
type exportColumn struct {
	key    string
	header string
}

// exportColumns 优先使用集合的表单结构镜像，缺失时取所有提交数据的键
func (s *SubmissionService) exportColumns(ctx context.Context, collection string, items []entity.Submission) ([]exportColumn, error) {
	mirror, err := s.forms.Schema(ctx, collection)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	var cols []exportColumn
	if mirror != nil {
		for _, f := range mirror.FormJSON.Data().Fields {
			b := f.Common()
			if b.Type.IsLayout() {
				continue
			}
			header := b.Label
			if header == "" {
				header = b.ID
			}
			cols = append(cols, exportColumn{key: b.ID, header: header})
		}
		return cols, nil
	}

	seen := map[string]bool{}
	var keys []string
	for _, it := range items {
		for k := range it.Data {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		cols = append(cols, exportColumn{key: k, header: k})
	}
	return cols, nil
}

// cellValue 复合值序列化为 JSON 文本
func cellValue(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case string, bool, float64, float32, int, int64, json.Number:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// lookupData 按字段ID取值，不存在时按字段名
func lookupData(data map[string]any, key string, fields schema.FieldList) any {
	if v, ok := data[key]; ok {
		return v
	}
	if f, ok := fields.Find(key); ok && f.Common().Name != "" {
		return data[f.Common().Name]
	}
	return nil
}

// Export 导出集合内全部提交记录为 xlsx
func (s *SubmissionService) Export(ctx context.Context, collection string) (*excelize.File, string, error) {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, "", invalid("Collection name is required")
	}
	items, err := s.List(ctx, repository.SubmissionFilter{Collection: collection})
	if err != nil {
		return nil, "", err
	}
	cols, err := s.exportColumns(ctx, collection, items)
	if err != nil {
		return nil, "", err
	}
	var fields schema.FieldList
	if mirror, err := s.forms.Schema(ctx, collection); err == nil {
		fields = mirror.FormJSON.Data().Fields
	}

	f := excelize.NewFile()
	sheet := "Submissions"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	headers := []string{"ID", "Submitted At"}
	for _, c := range cols {
		headers = append(headers, c.header)
	}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, it := range items {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), it.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), it.SubmittedAt.Format(time.RFC3339))
		for i, c := range cols {
			col, _ := excelize.ColumnNumberToName(i + 3)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), cellValue(lookupData(it.Data, c.key, fields)))
		}
	}

	f.SetColWidth(sheet, "A", "A", 34)
	f.SetColWidth(sheet, "B", "B", 22)
	if len(cols) > 0 {
		last, _ := excelize.ColumnNumberToName(len(cols) + 2)
		f.SetColWidth(sheet, "C", last, 20)
	}

	filename := fmt.Sprintf("%s_%s.xlsx", collection, time.Now().Format("20060102"))
	return f, filename, nil
}
