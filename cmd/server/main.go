package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	webAdapter "github.com/tbellembois/chimitheque-db-sub000/internal/adapters/web"
	"github.com/tbellembois/chimitheque-db-sub000/internal/app"
	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
	"github.com/tbellembois/chimitheque-db-sub000/internal/db"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	personService := core.NewPersonService(pool)
	permissionService := core.NewPermissionService(pool)
	entityService := core.NewEntityService(pool)
	locationService := core.NewStoreLocationService(pool)
	storageService := core.NewStorageService(pool)
	unitService := core.NewUnitService(pool)
	stockService := core.NewStockService(unitService, locationService, storageService)

	lookups := map[string]core.LookupService{
		"tag":      core.NewTagService(pool),
		"symbol":   core.NewSymbolService(pool),
		"category": core.NewCategoryService(pool),
		"supplier": core.NewSupplierService(pool),
		"producer": core.NewProducerService(pool),
	}

	svc := app.NewAppService(
		personService,
		permissionService,
		entityService,
		locationService,
		storageService,
		unitService,
		stockService,
		lookups,
	)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
