package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/class-points-bot/internal/models"
)

// SheetSpec: лист отчёта. Числа пишутся числами, остальное строками.
type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]any
}

func NewWorkbook(sheets []SheetSpec) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook: no sheets")
	}
	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Title); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Title); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", s.Title, err)
		}

		for c, h := range s.Header {
			if err := f.SetCellStr(s.Title, fmt.Sprintf("%s1", columnName(c+1)), h); err != nil {
				return nil, fmt.Errorf("set header: %w", err)
			}
		}
		for r, row := range s.Rows {
			for c, v := range row {
				cell := fmt.Sprintf("%s%d", columnName(c+1), r+2)
				if err := f.SetCellValue(s.Title, cell, v); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		if err := ApplyDefaultExcelFormatting(f, s.Title); err != nil {
			return nil, fmt.Errorf("format %q: %w", s.Title, err)
		}
	}
	return f, nil
}

// RankingReport: рейтинг учеников и групп, сводка и ленты дня.
func RankingReport(students, groups []models.RankRow, st *models.Stats, loc *time.Location) (*excelize.File, error) {
	sheets := []SheetSpec{
		{Title: "Ученики", Header: []string{"Место", "Ученик", "Код", "Группа", "Баллы"}},
		{Title: "Группы", Header: []string{"Место", "Группа", "Баллы"}},
	}
	for _, r := range students {
		sheets[0].Rows = append(sheets[0].Rows, []any{r.Rank, r.Name, r.Code, r.Group, r.Points})
	}
	for _, r := range groups {
		sheets[1].Rows = append(sheets[1].Rows, []any{r.Rank, r.Name, r.Points})
	}
	if st != nil {
		sheets = append(sheets,
			SheetSpec{
				Title:  "Сводка",
				Header: []string{"День", "Учеников", "Средний балл", "Минимум", "Максимум"},
				Rows:   [][]any{{st.Day.In(loc).Format("2006-01-02"), st.Students, st.AvgPoints, st.MinPoints, st.MaxPoints}},
			},
			feedSheet("Плюсы", st.Plus, loc),
			feedSheet("Минусы", st.Minus, loc),
		)
	}
	return NewWorkbook(sheets)
}

func feedSheet(title string, items []models.FeedItem, loc *time.Location) SheetSpec {
	s := SheetSpec{Title: title, Header: []string{"Время", "Ученик", "Причина", "Баллы", "Записей"}}
	for _, it := range items {
		who := it.StudentName
		if it.Collapsed {
			who = fmt.Sprintf("%d учеников", it.Count)
		}
		count := it.Count
		if count == 0 {
			count = 1
		}
		s.Rows = append(s.Rows, []any{it.CreatedAt.In(loc).Format("15:04"), who, it.Reason, it.Amount, count})
	}
	return s
}

// StandardsReport: каталог стандартных причин.
func StandardsReport(stds []models.PointStandard) (*excelize.File, error) {
	s := SheetSpec{Title: "Стандарты", Header: []string{"Область", "Категория", "Название", "Баллы"}}
	for _, st := range stds {
		s.Rows = append(s.Rows, []any{st.Area, st.Category, st.Name, st.DefaultPoints})
	}
	return NewWorkbook([]SheetSpec{s})
}

func WriteBuffer(f *excelize.File) (*bytes.Buffer, error) {
	defer func() { _ = f.Close() }()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
