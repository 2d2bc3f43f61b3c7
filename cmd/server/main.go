package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/gatherly/gatherly-backend/internal/config"
    "github.com/gatherly/gatherly-backend/internal/database"
    "github.com/gatherly/gatherly-backend/internal/handler"
    "github.com/gatherly/gatherly-backend/internal/queue"
    "github.com/gatherly/gatherly-backend/internal/repository"
    "github.com/gatherly/gatherly-backend/internal/router"
    "github.com/gatherly/gatherly-backend/internal/sms"
)

func main() {
    // .env is optional; real deployments inject the environment.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; rate limiting and caching disabled")
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    otps := repository.NewOTPRepo(db)
    rooms := repository.NewRoomRepo(db)
    participants := repository.NewParticipantRepo(db)
    friends := repository.NewFriendRepo(db)
    contacts := repository.NewContactRepo(db)

    sender := sms.New(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber)

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Handlers{
        Auth:         handler.NewAuthHandler(cfg, users, tokens, otps, sender),
        Users:        handler.NewUserHandler(users),
        Rooms:        handler.NewRoomHandler(rooms, participants, users),
        Participants: handler.NewParticipantHandler(rooms, participants, users),
        Browse:       handler.NewBrowseHandler(rooms),
        Friends:      handler.NewFriendHandler(friends, users),
        Contacts:     handler.NewContactHandler(contacts, users),
    }, cfg, rdb)

    // Room activity log consumer; reconnects forever in the background.
    go func() {
        if err := queue.StartRoomActivityConsumer(); err != nil {
            log.Printf("room consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
