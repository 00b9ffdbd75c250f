package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"byov-backend/internal/config"
	"byov-backend/internal/database"
	"byov-backend/internal/features/dashsync"
	"byov-backend/internal/features/document"
	"byov-backend/internal/features/enrollment"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// syncrun pushes one enrollment to the dashboard from the command line:
//
//	syncrun -id <enrollment-id> [-mode push|push-inline|retry|report]
func main() {
	var (
		id   = flag.String("id", "", "enrollment id to sync")
		mode = flag.String("mode", "push", "push, push-inline, retry or report")
	)
	flag.Parse()

	if *id == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, _ := config.LoadConfig()

	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	db := &database.MongodbDB{DB: client.Database(cfg.DBName)}

	enrollRepo := enrollment.NewEnrollmentRepository(db)
	docRepo := document.NewDocumentRepository(db)
	storage := document.NewLocalStorage(cfg)
	state := dashsync.NewSyncStateStore(enrollRepo)
	syncLogs := dashsync.NewSyncLogRepository(db)
	svc := dashsync.NewSyncService(cfg, enrollRepo, docRepo, storage, state, syncLogs, nil, zl)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var out interface{}
	switch *mode {
	case "push":
		out, err = svc.Push(ctx, *id)
	case "push-inline":
		out, err = svc.PushInline(ctx, *id)
	case "retry":
		out, err = svc.RetryFailed(ctx, *id)
	case "report":
		out, err = svc.LastReport(ctx, *id)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", *mode, err)
	}

	pretty, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(pretty))
}
