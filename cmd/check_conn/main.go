// check_conn pings a registered connection profile from the command line,
// useful when a profile fails its liveness test through the UI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"cloudsqlconsole/internal/config"
	"cloudsqlconsole/internal/data"
	"cloudsqlconsole/internal/logger"
	"cloudsqlconsole/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: check_conn <profile-name>")
		os.Exit(1)
	}
	name := os.Args[1]

	logger.InitDiscard()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := data.InitDB(data.DefaultDBPath())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	cipher, err := service.NewSecretCipher(cfg.ConsoleKey)
	if err != nil {
		log.Fatal(err)
	}

	profiles, err := data.NewConnectionRepo(db).GetAll()
	if err != nil {
		log.Fatal(err)
	}

	executor := service.NewQueryExecutor(cipher)
	for _, p := range profiles {
		if p.Name != name {
			continue
		}
		if executor.TestConnection(context.Background(), &p) {
			fmt.Printf("Connection '%s' (%s %s:%d) is reachable.\n", p.Name, p.Engine, p.Host, p.Port)
			return
		}
		fmt.Printf("Connection '%s' (%s %s:%d) is NOT reachable.\n", p.Name, p.Engine, p.Host, p.Port)
		os.Exit(1)
	}

	fmt.Printf("Connection '%s' not found.\n", name)
	os.Exit(1)
}
