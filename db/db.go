package db

import (
	"fmt"
	"log"
	"os"

	"radio_fleet_tool/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.AdminUser{}, &models.Radio{}, &models.Loan{}); err != nil {
		return err
	}

	// 同一台设备最多一条“未归还”
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_radio
	  ON %s (radio_id)
	  WHERE returned_at IS NULL;
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// Dashboard and history both scan open loans newest-first.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_radio_borrowedat_desc
	  ON %s (radio_id, borrowed_at DESC)
	  WHERE returned_at IS NULL;
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	return nil
}
