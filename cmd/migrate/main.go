package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/damoang/angple-elements/internal/config"
	"github.com/damoang/angple-elements/internal/migration"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "config file path (default configs/config.<APP_ENV>.yaml)")
	dryRun := flag.Bool("dry-run", false, "show what would be migrated without executing")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	if *dryRun {
		log.Println("[dry-run] Tables:")
		for _, m := range migration.Models() {
			log.Printf("  - %T", m)
		}
		for _, t := range migration.VersionedTables() {
			log.Printf("  - %s", t)
		}
		return
	}

	config.LoadDotEnv()
	path := *configPath
	if path == "" {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "local"
		}
		path = fmt.Sprintf("configs/config.%s.yaml", env)
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migration complete")
}
