package routes

import (
	"log"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hlira-mx/ChambaAppBack/internal/config"
	"github.com/hlira-mx/ChambaAppBack/internal/contactguard"
	"github.com/hlira-mx/ChambaAppBack/internal/handlers"
	"github.com/hlira-mx/ChambaAppBack/internal/middleware"
	"github.com/hlira-mx/ChambaAppBack/internal/repository"
	"github.com/hlira-mx/ChambaAppBack/internal/services"
	chatws "github.com/hlira-mx/ChambaAppBack/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewServiceRequestRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	onsiteRepo := repository.NewOnsiteQuoteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	var checkout *services.MercadoPagoCheckout
	if cfg.MercadoPagoAccessToken != "" {
		var err error
		checkout, err = services.NewMercadoPagoCheckout(cfg.MercadoPagoAccessToken, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
		if err != nil {
			log.Printf("mercadopago checkout disabled: %v", err)
		}
	}

	fcmService := services.NewFCMService(cfg.FirebaseCredentialsFile)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, fcmService)

	guardPolicy := contactguard.Policy{
		Mode:    contactguard.Mode(cfg.ContactPolicy),
		Message: cfg.ContactBlockedMessage,
	}

	offerService := services.NewOfferService(offerRepo, agreementRepo, conversationRepo, messageRepo, notificationService, guardPolicy)
	quoteService := services.NewQuoteService(quoteRepo, conversationRepo, storageService)
	onsiteService := services.NewOnsiteQuoteService(onsiteRepo, conversationRepo, messageRepo, notificationService, checkout)
	chatService := services.NewChatService(db, conversationRepo, messageRepo, userRepo)

	chatHub := chatws.NewHub()
	go chatHub.Run()

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	requestHandler := handlers.NewRequestHandler(requestRepo)
	offerHandler := handlers.NewOfferHandler(offerService)
	quoteHandler := handlers.NewQuoteHandler(quoteService, storageService)
	onsiteHandler := handlers.NewOnsiteQuoteHandler(onsiteService)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, notificationService, cfg.JWTSecret)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewPaymentWebhookHandler(checkout, offerService, onsiteService)
	adminHandler := handlers.NewAdminHandler(offerRepo)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "status": "healthy"})
	})

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)
	auth.Put("/fcm-token", middleware.AuthRequired(cfg.JWTSecret), authHandler.UpdateFCMToken)

	api.Post("/v1/payments/webhook", webhookHandler.Handle)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	requests := authProtected.Group("/requests")
	requests.Post("", requestHandler.Create)
	requests.Get("", requestHandler.ListMine)
	requests.Get("/:id", requestHandler.Get)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/quotes", quoteHandler.SubmitQuote)
	conversations.Get("/:id/quotes", quoteHandler.ListQuotes)
	conversations.Post("/:id/quotes/attachment", quoteHandler.UploadAttachment)

	offers := authProtected.Group("/offers")
	offers.Post("", offerHandler.CreateOffer)
	offers.Get("/:id", offerHandler.GetOffer)
	offers.Post("/:id/accept", offerHandler.AcceptOffer)
	offers.Post("/:id/reject", offerHandler.RejectOffer)

	onsiteQuotes := authProtected.Group("/onsite-quotes")
	onsiteQuotes.Post("", onsiteHandler.Create)
	onsiteQuotes.Post("/:id/checkout", onsiteHandler.Checkout)
	onsiteQuotes.Post("/:id/accept", onsiteHandler.Accept)
	onsiteQuotes.Post("/:id/reject", onsiteHandler.Reject)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.List)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	admin := authProtected.Group("/admin", middleware.AdminOnly(cfg.AdminEmails))
	admin.Get("/offers", adminHandler.ListOffers)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
