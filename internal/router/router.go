// Package router defines how HTTP routes are registered for the API.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/gatherly/gatherly-backend/internal/config"
    "github.com/gatherly/gatherly-backend/internal/handler"
    "github.com/gatherly/gatherly-backend/internal/middleware"
)

// Handlers collects every handler the router wires up.
type Handlers struct {
    Auth         *handler.AuthHandler
    Users        *handler.UserHandler
    Rooms        *handler.RoomHandler
    Participants *handler.ParticipantHandler
    Browse       *handler.BrowseHandler
    Friends      *handler.FriendHandler
    Contacts     *handler.ContactHandler
}

// Register wires every route.  OTP generation sits behind the Redis
// token bucket; the room listing sits behind the response cache.  All
// routes except health and the OTP pair require a Bearer token.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
    e.GET("/healthz", handler.Health)

    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    // Unauthenticated: the OTP login flow and token exchange.
    auth := e.Group("/v1/auth")
    auth.POST("/otp/generate", h.Auth.GenerateOTP, limiter)
    auth.POST("/otp/verify", h.Auth.VerifyOTP)
    auth.POST("/refresh", h.Auth.Refresh)
    auth.POST("/logout", h.Auth.Logout)

    // Everything else requires a valid access token.
    v1 := e.Group("/v1")
    v1.Use(middleware.JWTAuth(cfg.JWTSecret))

    v1.GET("/me", h.Users.Me)
    v1.PATCH("/me", h.Users.UpdateMe)
    v1.POST("/logout", h.Auth.Logout)

    v1.GET("/rooms", h.Browse.List, cache)
    v1.POST("/rooms", h.Rooms.Create)
    v1.GET("/rooms/:id", h.Rooms.Get)
    v1.PUT("/rooms/:id", h.Rooms.Update)
    v1.DELETE("/rooms/:id", h.Rooms.Delete)
    v1.POST("/rooms/:id/activate", h.Rooms.Activate)
    v1.POST("/rooms/:id/archive", h.Rooms.Archive)
    v1.GET("/rooms/:id/stats", h.Rooms.Stats)

    v1.POST("/rooms/:id/join", h.Participants.Join)
    v1.GET("/rooms/:id/participants", h.Participants.List)
    v1.PUT("/rooms/:id/participants/:user_id", h.Participants.SetStatus)
    v1.PUT("/rooms/:id/participants", h.Participants.BulkSetStatus)
    v1.POST("/rooms/:id/invites", h.Participants.Invite)
    v1.POST("/rooms/:id/respond", h.Participants.Respond)

    v1.GET("/friends", h.Friends.List)
    v1.DELETE("/friends/:user_id", h.Friends.Unfriend)
    v1.POST("/friends/requests", h.Friends.SendRequest)
    v1.GET("/friends/requests/incoming", h.Friends.ListIncoming)
    v1.GET("/friends/requests/outgoing", h.Friends.ListOutgoing)
    v1.PUT("/friends/requests/:id", h.Friends.Respond)
    v1.DELETE("/friends/requests/:id", h.Friends.Cancel)
    v1.POST("/friends/block", h.Friends.Block)
    v1.DELETE("/friends/block/:user_id", h.Friends.Unblock)

    v1.POST("/contacts/sync", h.Contacts.Sync)
}
