package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Spok95/school-platform-api/internal/db"
	"github.com/Spok95/school-platform-api/internal/models"
	"github.com/xuri/excelize/v2"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

// AuditWorkbook — книга с аудитом пользователей: по ролям, по школам,
// неподтверждённые аккаунты. Заменяет ручные SELECT-ы при разборах.
type AuditWorkbook struct {
	File *excelize.File
}

func NewAuditWorkbook(users []models.User, schools []db.SchoolUserCount, unverified []models.User) (*AuditWorkbook, error) {
	sheets := []SheetSpec{
		usersSheet("Пользователи", users),
		schoolsSheet(schools),
		usersSheet("Без верификации", unverified),
	}
	f := excelize.NewFile()

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("new sheet: %w", err)
			}
		}
		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		// жирный заголовок + автофильтр в первой строке
		end := colName(len(s.Header)) + "1"
		_ = f.SetCellStyle(name, "A1", end, bold)
		_ = f.AutoFilter(name, "A1:"+end, nil)

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		// эвристическая ширина: по длине заголовка и первых строк
		for c := 1; c <= len(s.Header); c++ {
			maxim := len(s.Header[c-1])
			for r := 0; r < minim(50, len(s.Rows)); r++ {
				if l := len(s.Rows[r][c-1]); l > maxim {
					maxim = l
				}
			}
			w := float64(maxim) * 0.9
			if w < 12 {
				w = 12
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}
	return &AuditWorkbook{File: f}, nil
}

// WriteTo пишет книгу в произвольный writer (например, http.ResponseWriter).
func (w *AuditWorkbook) WriteTo(dst io.Writer) error {
	return w.File.Write(dst)
}

func usersSheet(title string, users []models.User) SheetSpec {
	s := SheetSpec{
		Title:  title,
		Header: []string{"ID", "ФИО", "Email", "Роль", "Школа", "Верифицирован", "Создан"},
	}
	for _, u := range users {
		school := ""
		if u.SchoolID.Valid {
			school = strconv.FormatInt(u.SchoolID.Int64, 10)
		}
		verified := "нет"
		if u.IsVerified {
			verified = "да"
		}
		s.Rows = append(s.Rows, []string{
			strconv.FormatInt(u.ID, 10),
			u.FullName,
			u.Email,
			string(u.Role),
			school,
			verified,
			u.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return s
}

func schoolsSheet(schools []db.SchoolUserCount) SheetSpec {
	s := SheetSpec{
		Title:  "Школы",
		Header: []string{"ID", "Название", "Код", "Админы", "Учителя", "Ученики"},
	}
	for _, c := range schools {
		s.Rows = append(s.Rows, []string{
			strconv.FormatInt(c.SchoolID, 10),
			c.SchoolName,
			c.Code,
			strconv.Itoa(c.Admins),
			strconv.Itoa(c.Teachers),
			strconv.Itoa(c.Students),
		})
	}
	return s
}

// helpers
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}
