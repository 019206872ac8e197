package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/openshelf/circulation/config"
	"github.com/openshelf/circulation/handlers"
	"github.com/openshelf/circulation/middleware"
	"github.com/openshelf/circulation/service"
	"github.com/openshelf/circulation/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Println("mongodb disconnect:", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal("mongodb indexes:", err)
	}

	inventory := service.NewInventory(db)
	circulation := service.NewCirculation(inventory, db, cfg.LoanPeriodDays, cfg.LateFeePerDay)
	reservation := service.NewReservation(inventory, db, db, cfg.HoldWindow, cfg.HoldPolicy)
	sweeper := service.NewSweeper(db, reservation, circulation, cfg.SweepInterval)
	catalog := service.NewCatalogClient()

	authHandler := &handlers.AuthHandler{
		DB:           db,
		JWTSecret:    cfg.JWTSecret,
		DefaultEmail: cfg.AuthEmail,
		DefaultPass:  cfg.AuthPass,
	}
	booksHandler := &handlers.BooksHandler{DB: db, Catalog: catalog, Inventory: inventory}
	loansHandler := &handlers.LoansHandler{Circulation: circulation}
	holdsHandler := &handlers.HoldsHandler{Reservation: reservation}
	myBooksHandler := &handlers.MyBooksHandler{
		Circulation:   circulation,
		Reservation:   reservation,
		LateFeePerDay: cfg.LateFeePerDay,
	}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome to circulation."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Post("/books", booksHandler.Add)
			r.Get("/books", booksHandler.List)
			r.Get("/books/{id}", booksHandler.Get)
			r.Post("/books/{id}/copies", booksHandler.AddCopies)
			r.Delete("/books/{id}", booksHandler.Delete)

			r.Post("/loans", loansHandler.Issue)
			r.Post("/loans/{id}/return", loansHandler.Return)
			r.Get("/loans", loansHandler.List)

			r.Post("/holds", holdsHandler.Create)
			r.Post("/holds/{id}/confirm", holdsHandler.Confirm)
			r.Get("/holds", holdsHandler.List)

			r.Get("/my-books", myBooksHandler.Get)
		})
	})

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	go sweeper.Run(sweepCtx)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopSweeper()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}
