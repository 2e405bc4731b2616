package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	devenv "waterbill-backend/dev/env"
	configlibsql "waterbill-backend/lib/configutil/libsql"
	"waterbill-backend/services/bills/db"
)

func createDb(file, schema string) error {
	path, err := devenv.ResolvePath(file)
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	database, err := configlibsql.Struct{File: file}.OpenDB(schema)
	if err != nil {
		return err
	}
	return database.Close()
}

func create(recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		err = os.RemoveAll("dev/.state")
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	err = os.MkdirAll("dev/.state", 0777)
	if err != nil {
		return err
	}

	err = createDb("<dev_state>/waterbill.db", db.Schema)
	if err != nil {
		return err
	}

	slog.Info("point database.file in config.local.json5 at <dev_state>/waterbill.db to use the dev database.")
	slog.Info("the live portal tests are skipped until <dev_state>/bsaonline_test.json5 exists, see `go test -v ./lib/scrapers/bsaonline`.")
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created sucessfully!")
}
