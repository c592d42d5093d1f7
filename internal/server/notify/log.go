package notify

import (
	"context"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

// LogGateway writes codes to the log instead of sending them. Development only.
type LogGateway struct {
	logger logging.Logger
}

func NewLogGateway(logger logging.Logger) *LogGateway {
	return &LogGateway{logger: logger.With("module", "notify")}
}

func (g *LogGateway) SendOTP(ctx context.Context, account *models.Account, code string) error {
	g.logger.Info(ctx, "otp issued", "email", account.EmailAddress, "code", code)
	return nil
}
