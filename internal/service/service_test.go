//go:build testutil
// +build testutil

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-platform-api/internal/apperr"
	"github.com/Spok95/school-platform-api/internal/auth"
	"github.com/Spok95/school-platform-api/internal/db"
	"github.com/Spok95/school-platform-api/internal/models"
	"github.com/Spok95/school-platform-api/internal/policy"
	"github.com/Spok95/school-platform-api/internal/service"
	"github.com/Spok95/school-platform-api/internal/testutil/testdb"
)

const testSecret = "test-secret"

func startServices(t *testing.T, ctx context.Context) (*testdb.DBHandle, *service.Provisioning, *service.Auth, *service.Bootstrap) {
	t.Helper()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	log := zap.NewNop().Sugar()
	prov := &service.Provisioning{DB: h.DB, Log: log}
	authSvc := &service.Auth{DB: h.DB, Secret: testSecret, TokenTTL: time.Hour, Log: log}
	boot := &service.Bootstrap{DB: h.DB, Log: log}
	return h, prov, authSvc, boot
}

func superCaller(t *testing.T, ctx context.Context, boot *service.Bootstrap) policy.Caller {
	t.Helper()
	u, err := boot.CreateFirstSuperadmin(ctx, "Главный Админ", "root@platform.io", "RootPass1!")
	if err != nil {
		t.Fatal(err)
	}
	return policy.Caller{UserID: u.ID, Role: u.Role, SchoolID: u.SchoolID}
}

// Сценарий из боевой приёмки: школа Haileybury Almaty, её админ, вход.
func TestProvisionAndLoginScenario(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, prov, authSvc, boot := startServices(t, ctx)
	defer h.Close()

	super := superCaller(t, ctx, boot)

	school, err := prov.CreateSchool(ctx, super, "International school Haileybury Almaty", "SCHOOL1")
	if err != nil {
		t.Fatal(err)
	}
	if school.ID == 0 {
		t.Fatal("ожидали сгенерированный id школы")
	}

	admin, gotSchool, err := prov.CreateSchoolAdmin(ctx, super, "Админ Школы", "admin@haileybury.com", "Admin123!", school.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotSchool.ID != school.ID {
		t.Fatalf("админ привязан к школе %d, ожидали %d", gotSchool.ID, school.ID)
	}
	if admin.Role != models.SchoolAdmin {
		t.Fatalf("роль %q, ожидали school_admin", admin.Role)
	}
	if !admin.IsVerified {
		t.Fatal("созданный админ должен быть верифицирован")
	}
	if admin.PasswordHash == "Admin123!" {
		t.Fatal("пароль сохранён в открытом виде")
	}

	res, err := authSvc.Login(ctx, "admin@haileybury.com", "Admin123!")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := auth.ParseToken(testSecret, res.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Role != "school_admin" {
		t.Fatalf("в токене роль %q, ожидали school_admin", claims.Role)
	}
	// subject токена резолвится обратно в созданного пользователя
	id, err := claims.UserID()
	if err != nil {
		t.Fatal(err)
	}
	back, err := db.GetUserByID(ctx, h.DB, id)
	if err != nil {
		t.Fatal(err)
	}
	if back == nil || back.ID != admin.ID || back.Email != "admin@haileybury.com" {
		t.Fatalf("subject не резолвится в созданного админа: %#v", back)
	}
}

func TestCreateSchoolForbiddenForTeacher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, prov, _, boot := startServices(t, ctx)
	defer h.Close()

	super := superCaller(t, ctx, boot)
	if _, err := prov.CreateSchool(ctx, super, "Школа", "SCH1"); err != nil {
		t.Fatal(err)
	}

	before, err := db.CountSchools(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}

	teacher := policy.Caller{UserID: 99, Role: models.Teacher}
	if _, err := prov.CreateSchool(ctx, teacher, "Нелегальная школа", "HACK1"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}

	after, err := db.CountSchools(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Fatalf("таблица школ изменилась: %d -> %d", before, after)
	}
}

func TestCreateSchoolAdminErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, prov, _, boot := startServices(t, ctx)
	defer h.Close()

	super := superCaller(t, ctx, boot)
	school, err := prov.CreateSchool(ctx, super, "Школа", "SCH1")
	if err != nil {
		t.Fatal(err)
	}

	// несуществующая школа
	if _, _, err := prov.CreateSchoolAdmin(ctx, super, "Админ", "a@s.edu", "Pass123!", school.ID+1000); !errors.Is(err, apperr.ErrUnknownSchool) {
		t.Fatalf("ожидали ErrUnknownSchool, получили %v", err)
	}

	if _, _, err := prov.CreateSchoolAdmin(ctx, super, "Админ", "a@s.edu", "Pass123!", school.ID); err != nil {
		t.Fatal(err)
	}

	before, err := db.CountUsers(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	// занятый email — и число пользователей не меняется
	if _, _, err := prov.CreateSchoolAdmin(ctx, super, "Другой", "a@s.edu", "Pass456!", school.ID); !errors.Is(err, apperr.ErrDuplicateEmail) {
		t.Fatalf("ожидали ErrDuplicateEmail, получили %v", err)
	}
	after, err := db.CountUsers(ctx, h.DB)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Fatalf("число пользователей изменилось: %d -> %d", before, after)
	}
}

func TestLoginUniformFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, prov, authSvc, boot := startServices(t, ctx)
	defer h.Close()

	super := superCaller(t, ctx, boot)
	school, err := prov.CreateSchool(ctx, super, "Школа", "SCH1")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := prov.CreateSchoolAdmin(ctx, super, "Админ", "known@s.edu", "Correct1!", school.ID); err != nil {
		t.Fatal(err)
	}

	_, errUnknown := authSvc.Login(ctx, "nosuch@s.edu", "whatever")
	_, errWrongPass := authSvc.Login(ctx, "known@s.edu", "Wrong1!")

	// «нет пользователя» и «не тот пароль» неразличимы снаружи
	if !errors.Is(errUnknown, apperr.ErrInvalidCredentials) {
		t.Fatalf("неизвестный email: ожидали ErrInvalidCredentials, получили %v", errUnknown)
	}
	if !errors.Is(errWrongPass, apperr.ErrInvalidCredentials) {
		t.Fatalf("неверный пароль: ожидали ErrInvalidCredentials, получили %v", errWrongPass)
	}
	if apperr.KindOf(errUnknown) != apperr.KindOf(errWrongPass) {
		t.Fatal("kind ошибок должен совпадать")
	}
}

func TestBootstrapOnlyOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, _, _, boot := startServices(t, ctx)
	defer h.Close()

	if _, err := boot.CreateFirstSuperadmin(ctx, "Первый", "root@platform.io", "RootPass1!"); err != nil {
		t.Fatal(err)
	}
	if _, err := boot.CreateFirstSuperadmin(ctx, "Второй", "root2@platform.io", "RootPass1!"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("повторный bootstrap должен быть запрещён, получили %v", err)
	}
}

// Мониторинговое свойство: суперадмин ровно один. Тест шумит, если
// инвариант нарушен, а не молча проходит.
func TestSuperadminInvariant(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, _, _, boot := startServices(t, ctx)
	defer h.Close()

	log := zap.NewNop().Sugar()

	n, err := service.CheckSuperadminInvariant(ctx, h.DB, log)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("в пустой системе суперадминов %d", n)
	}

	if _, err := boot.CreateFirstSuperadmin(ctx, "Главный", "root@platform.io", "RootPass1!"); err != nil {
		t.Fatal(err)
	}

	n, err = service.CheckSuperadminInvariant(ctx, h.DB, log)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("суперадминов %d, инвариант требует ровно 1", n)
	}
}
