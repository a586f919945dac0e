// Смоук-прогон против развёрнутого API: логин суперадмина, создание школы,
// создание её администратора, вход под ним. Раньше это был bash со строкой
// curl-ов; теперь — типизированный клиент с явными результатами.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Spok95/school-platform-api/internal/apiclient"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "базовый URL API")
	email := flag.String("email", os.Getenv("SUPERADMIN_EMAIL"), "email суперадмина")
	password := flag.String("password", os.Getenv("SUPERADMIN_PASSWORD"), "пароль суперадмина")
	schoolName := flag.String("school", "International school Haileybury Almaty", "название школы")
	schoolCode := flag.String("code", "SCHOOL1", "код школы")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("нужны -email и -password (или SUPERADMIN_EMAIL / SUPERADMIN_PASSWORD)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cl := apiclient.New(*baseURL)

	super, err := cl.Login(ctx, *email, *password)
	if err != nil {
		log.Fatalf("вход суперадмина: %v", err)
	}
	if super.Role != "superadmin" {
		log.Fatalf("ожидали роль superadmin, получили %q", super.Role)
	}
	log.Printf("вход выполнен: %s (%s)", super.FullName, super.Role)

	admin := cl.WithToken(super.AccessToken)

	school, err := admin.CreateSchool(ctx, *schoolName, *schoolCode)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Kind == "duplicate_code" {
			log.Fatalf("школа с кодом %s уже существует — прогон не повторяем", *schoolCode)
		}
		log.Fatalf("создание школы: %v", err)
	}
	log.Printf("школа создана: id=%d code=%s", school.ID, school.Code)

	created, err := admin.CreateSchoolAdmin(ctx, "Админ Школы", "admin@haileybury.com", "Admin123!", school.ID)
	if err != nil {
		log.Fatalf("создание админа школы: %v", err)
	}
	log.Printf("админ школы создан: id=%d school=%s", created.UserID, created.SchoolName)

	schoolAdmin, err := cl.Login(ctx, "admin@haileybury.com", "Admin123!")
	if err != nil {
		log.Fatalf("вход админа школы: %v", err)
	}
	if schoolAdmin.Role != "school_admin" {
		log.Fatalf("ожидали роль school_admin, получили %q", schoolAdmin.Role)
	}
	log.Printf("смоук пройден: вход админа школы ок, school_id=%v", *schoolAdmin.SchoolID)
}
