package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/paseto/nfse-betha/internal/application/signing"
	"github.com/paseto/nfse-betha/internal/infrastructure/xmldsig"
	httpRouter "github.com/paseto/nfse-betha/internal/interfaces/http"
	"github.com/paseto/nfse-betha/pkg/config"
	"github.com/paseto/nfse-betha/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando serviço de assinatura NFS-e")

	// Identidade carregada uma única vez; a carga já rejeita contêiner
	// inválido, senha errada e certificado vencido.
	identity, err := xmldsig.LoadFile(cfg.NFSE.CertPath, cfg.NFSE.CertPassword)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.NFSE.CertPath).Msg("carregar certificado A1")
	}
	info := identity.Info()
	log.Info().
		Str("subject", info.Subject).
		Time("notAfter", info.NotAfter).
		Msg("certificado carregado")

	signingUC := signing.NewUseCase(identity, log, signing.Config{
		RecheckExpiry: cfg.NFSE.RecheckExpiry,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{SigningUC: signingUC})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Fatal().Err(err).Msg("servidor HTTP")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("encerrando serviço")
	_ = app.ShutdownWithTimeout(5 * time.Second)
}
