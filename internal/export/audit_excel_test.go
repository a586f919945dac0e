package export

import (
	"bytes"
	"database/sql"
	"testing"
	"time"

	"github.com/Spok95/school-platform-api/internal/db"
	"github.com/Spok95/school-platform-api/internal/models"
)

func TestAuditWorkbook(t *testing.T) {
	now := time.Now()
	users := []models.User{
		{ID: 1, FullName: "Главный Админ", Email: "root@platform.io", Role: models.Superadmin, IsVerified: true, CreatedAt: now},
		{ID: 2, FullName: "Админ Школы", Email: "admin@haileybury.com", Role: models.SchoolAdmin,
			SchoolID: sql.NullInt64{Int64: 1, Valid: true}, IsVerified: true, CreatedAt: now},
	}
	schools := []db.SchoolUserCount{
		{SchoolID: 1, SchoolName: "International school Haileybury Almaty", Code: "SCHOOL1", Admins: 1},
	}
	unverified := []models.User{
		{ID: 3, FullName: "Ожидает", Email: "pending@haileybury.com", Role: models.Teacher,
			SchoolID: sql.NullInt64{Int64: 1, Valid: true}, CreatedAt: now},
	}

	wb, err := NewAuditWorkbook(users, schools, unverified)
	if err != nil {
		t.Fatal(err)
	}

	sheets := wb.File.GetSheetList()
	want := []string{"Пользователи", "Школы", "Без верификации"}
	if len(sheets) != len(want) {
		t.Fatalf("листы: %v", sheets)
	}
	for i, name := range want {
		if sheets[i] != name {
			t.Fatalf("лист %d = %q, ожидали %q", i, sheets[i], name)
		}
	}

	got, err := wb.File.GetCellValue("Пользователи", "C3")
	if err != nil {
		t.Fatal(err)
	}
	if got != "admin@haileybury.com" {
		t.Fatalf("ячейка C3 = %q", got)
	}

	var buf bytes.Buffer
	if err := wb.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("пустая книга")
	}
}

func TestColName(t *testing.T) {
	cases := map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ"}
	for n, want := range cases {
		if got := colName(n); got != want {
			t.Fatalf("colName(%d) = %q, ожидали %q", n, got, want)
		}
	}
}
