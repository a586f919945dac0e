package auth

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Admin123!")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "Admin123!" {
		t.Fatal("пароль сохранён в открытом виде")
	}
	if err := CheckPassword(hash, "Admin123!"); err != nil {
		t.Fatalf("ожидали совпадение пароля: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("ожидали несовпадение пароля")
	}
}

func TestPasswordHashesDiffer(t *testing.T) {
	h1, err := HashPassword("secret")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashPassword("secret")
	if err != nil {
		t.Fatal(err)
	}
	// bcrypt солит каждый хеш, одинаковые пароли дают разные хеши
	if h1 == h2 {
		t.Fatal("хеши одинаковых паролей не должны совпадать")
	}
}
