package main

import (
	"context"
	"log/slog"
	"os"

	"firecms/config"
	"firecms/internal/container"
	"firecms/internal/delivery"
	"firecms/internal/delivery/http"
	"firecms/internal/delivery/http/responder"
	"firecms/internal/delivery/http/router/handler"
	"firecms/internal/domain/service"
	"firecms/internal/infra/auth"
	logs "firecms/internal/infra/log"
	"firecms/internal/infra/mail"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectContainer(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newPasswordHasher,
			newMailer,
			newResponder,
		),
	)
}

// newPasswordHasher resolves the password section into a hasher
func newPasswordHasher(cfg *config.Config) (service.PasswordHasher, error) {
	return auth.NewPasswordHasher(cfg.Password.Options())
}

// newMailer resolves the mailer section and closes the template store on stop
func newMailer(ctx context.Context, lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	mailer, err := mail.NewMailer(ctx, logger, cfg.Mailer.Options())
	if err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(mailer.Close))

	return mailer, nil
}

func newResponder(cfg *config.Config, logger *slog.Logger) responder.Responder {
	return responder.New(responder.Config{
		PoweredBy:  cfg.Security.PoweredBy,
		PolicyPath: cfg.Security.CSPPolicyPath,
	}, logger)
}

func injectContainer() fx.Option {
	return fx.Options(
		fx.Provide(container.New),
		fx.Invoke(container.Set),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewContactHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
