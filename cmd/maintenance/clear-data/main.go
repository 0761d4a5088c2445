package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/lagiexpress/booking-backend/internal/config"
	"github.com/lagiexpress/booking-backend/internal/database"
)

// Development utility: wipes all booking data. Trips and admin users
// survive; re-run the server to regenerate the trip horizon.
func main() {
	var dbURLFlag string
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database. Truncating tables...")

	truncateSQL := `
TRUNCATE TABLE
    payment_audits,
    payment_intents,
    bookings,
    holds,
    hold_rate_limits
RESTART IDENTITY CASCADE;`

	if _, err := db.Exec(truncateSQL); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	// Reset sold seats on trips without deleting the generated horizon
	if _, err := db.Exec(`UPDATE trips SET seats_booked = '{}', updated_at = NOW()`); err != nil {
		log.Fatalf("failed to reset trip inventory: %v", err)
	}

	fmt.Println("All booking data cleared successfully (tables truncated, trip inventory reset).")

	// Verify by printing row counts for each table
	tables := []string{
		"payment_audits",
		"payment_intents",
		"bookings",
		"holds",
		"hold_rate_limits",
	}

	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
