// seed_demo creates one account per role for local testing.
package main

import (
	"fmt"
	"log"

	"cloudsqlconsole/internal/core"
	"cloudsqlconsole/internal/data"
	"cloudsqlconsole/internal/logger"
	"cloudsqlconsole/internal/service"
)

func main() {
	logger.InitDiscard()

	db, err := data.InitDB(data.DefaultDBPath())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	userRepo := data.NewUserRepo(db)
	authSvc := service.NewAuthService(userRepo, data.NewSessionRepo(db))

	if err := authSvc.BootstrapDefaultAdmin(); err != nil {
		log.Fatal(err)
	}

	demo := []struct {
		username string
		role     core.Role
	}{
		{"dev", core.RoleDeveloper},
		{"analyst", core.RoleBusinessUser},
	}

	for _, d := range demo {
		if _, err := userRepo.GetByUsername(d.username); err == nil {
			fmt.Printf("User '%s' already exists.\n", d.username)
			continue
		}
		hash, err := authSvc.HashSecret(d.username + "-demo")
		if err != nil {
			log.Fatal(err)
		}
		if _, err := userRepo.Create(d.username, hash, d.role); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Created %s account '%s' with password '%s-demo'.\n", d.role, d.username, d.username)
	}

	fmt.Println("Demo accounts ready.")
}
