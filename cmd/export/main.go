package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"byov-backend/internal/config"
	"byov-backend/internal/database"
	"byov-backend/internal/features/enrollment"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const createTable = `
CREATE TABLE IF NOT EXISTS technicians (
	tech_id             TEXT PRIMARY KEY,
	full_name           TEXT,
	district            TEXT,
	state               TEXT,
	referred_by         TEXT,
	industries          TEXT,
	vehicle_year        TEXT,
	vehicle_make        TEXT,
	vehicle_model       TEXT,
	vin                 TEXT,
	truck_number        TEXT,
	is_new_hire         BOOLEAN,
	insurance_exp       TEXT,
	registration_exp    TEXT,
	submission_date     TEXT,
	dashboard_tech_id   TEXT,
	last_upload_report  TEXT,
	synced_at           TIMESTAMPTZ,
	exported_at         TIMESTAMPTZ NOT NULL
)`

const upsert = `
INSERT INTO technicians (
	tech_id, full_name, district, state, referred_by, industries,
	vehicle_year, vehicle_make, vehicle_model, vin, truck_number,
	is_new_hire, insurance_exp, registration_exp, submission_date,
	dashboard_tech_id, last_upload_report, synced_at, exported_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (tech_id) DO UPDATE SET
	full_name = $2, district = $3, state = $4, referred_by = $5,
	industries = $6, vehicle_year = $7, vehicle_make = $8,
	vehicle_model = $9, vin = $10, truck_number = $11, is_new_hire = $12,
	insurance_exp = $13, registration_exp = $14, submission_date = $15,
	dashboard_tech_id = $16, last_upload_report = $17, synced_at = $18,
	exported_at = $19`

// export copies approved enrollments into the production postgres so the
// downstream payroll tooling can read them without touching Mongo.
func main() {
	dryRun := flag.Bool("dry-run", false, "list what would be exported without writing")
	flag.Parse()

	cfg, _ := config.LoadConfig()
	if cfg.PostgresURI == "" && !*dryRun {
		log.Fatal("POSTGRES_URI not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	db := &database.MongodbDB{DB: client.Database(cfg.DBName)}
	enrollRepo := enrollment.NewEnrollmentRepository(db)

	recs, err := enrollRepo.ListApproved(ctx)
	if err != nil {
		log.Fatalf("list approved enrollments: %v", err)
	}
	log.Printf("%d approved enrollments to export", len(recs))

	if *dryRun {
		for _, rec := range recs {
			fmt.Printf("%s\t%s\t(synced: %v)\n", rec.TechID, rec.FullName, rec.SyncedAt != nil)
		}
		return
	}

	pg, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pg.Close()

	if err := pg.PingContext(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}
	if _, err := pg.ExecContext(ctx, createTable); err != nil {
		log.Fatalf("ensure technicians table: %v", err)
	}

	now := time.Now()
	count := 0
	for _, rec := range recs {
		var syncedAt interface{}
		if rec.SyncedAt != nil {
			syncedAt = *rec.SyncedAt
		}

		_, err := pg.ExecContext(ctx, upsert,
			strings.ToUpper(rec.TechID), rec.FullName, rec.District, rec.State,
			rec.ReferredBy, strings.Join(rec.Industries, ", "),
			rec.Year, rec.Make, rec.Model, rec.VIN, rec.TruckNumber,
			rec.IsNewHire, rec.InsuranceExp, rec.RegistrationExp,
			rec.SubmissionDate, rec.DashboardTechID, rec.LastUploadReport,
			syncedAt, now,
		)
		if err != nil {
			log.Printf("export %s failed: %v", rec.TechID, err)
			continue
		}
		count++
	}

	log.Printf("exported %d/%d enrollments", count, len(recs))
}
