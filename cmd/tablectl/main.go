// Command tablectl runs the offline maintenance tasks: admin
// provisioning, category merging, URL verification, seeding and
// backups.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/colefield/tablefinder/internal/auth"
	"github.com/colefield/tablefinder/internal/backup"
	"github.com/colefield/tablefinder/internal/database"
	"github.com/colefield/tablefinder/internal/logging"
	"github.com/colefield/tablefinder/internal/merge"
	"github.com/colefield/tablefinder/internal/seed"
	"github.com/colefield/tablefinder/internal/store"
	"github.com/colefield/tablefinder/internal/urlcheck"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: tablectl <command> [args]

commands:
  make-admin <username> <password>   create an admin user, or promote an existing one
  merge-categories                   fold scraped categories into the curated groups
  verify-urls                        check restaurant websites and stamp dead ones
  seed <file.json>                   load a scraped restaurant export
  backup                             snapshot the database and upload it to S3`)
	os.Exit(2)
}

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		usage()
	}

	logger := logging.Setup(os.Getenv("TABLEFINDER_LOG_LEVEL"))

	dbPath := os.Getenv("TABLEFINDER_DB_PATH")
	if dbPath == "" {
		dbPath = "tablefinder.db"
	}
	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch os.Args[1] {
	case "make-admin":
		if len(os.Args) != 4 {
			usage()
		}
		err = makeAdmin(db, os.Args[2], os.Args[3])
	case "merge-categories":
		var res merge.Result
		res, err = merge.Run(db, logger)
		if err == nil {
			fmt.Printf("merged %d categories (%d mapped names not present)\n", res.Merged, res.Skipped)
		}
	case "verify-urls":
		checker := urlcheck.NewChecker(store.NewRestaurantStore(db), logger)
		var res urlcheck.Result
		res, err = checker.Run(context.Background())
		if err == nil {
			fmt.Printf("checked %d urls, %d unreachable\n", res.Checked, res.Unreachable)
		}
	case "seed":
		if len(os.Args) != 3 {
			usage()
		}
		seeder := seed.NewSeeder(store.NewRestaurantStore(db), store.NewCategoryStore(db), logger)
		var n int
		n, err = seeder.File(os.Args[2])
		if err == nil {
			fmt.Printf("seeded %d restaurants\n", n)
		}
	case "backup":
		cfg := backup.Config{
			Endpoint:  os.Getenv("TABLEFINDER_S3_ENDPOINT"),
			Bucket:    os.Getenv("TABLEFINDER_S3_BUCKET"),
			Region:    os.Getenv("TABLEFINDER_S3_REGION"),
			AccessKey: os.Getenv("TABLEFINDER_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("TABLEFINDER_S3_SECRET_KEY"),
		}
		uploader := backup.NewUploader(cfg, db, logger)
		var key string
		key, err = uploader.Run(context.Background())
		if err == nil {
			fmt.Printf("uploaded %s\n", key)
		}
	default:
		usage()
	}

	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// makeAdmin creates the user as an admin. An existing account is
// promoted in place; its stored password is left alone.
func makeAdmin(db *sql.DB, username, password string) error {
	users := store.NewUserStore(db)
	existing, err := users.GetByUsername(username)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}

	if existing == nil {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		if _, err := users.Create(username, hash, true); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Printf("created admin %s\n", username)
		return nil
	}

	if err := users.SetAdmin(existing.ID, true); err != nil {
		return fmt.Errorf("promote user: %w", err)
	}
	fmt.Printf("promoted %s to admin\n", username)
	return nil
}
