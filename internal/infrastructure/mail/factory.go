package mail

import (
	"fmt"
	"strings"

	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Provider names accepted in mail.provider
const (
	ProviderLog  = "log"
	ProviderHTTP = "http"
)

// New returns the mailer selected by cfg.Provider
func New(cfg config.MailConfig, logger *zap.Logger) (notification.Mailer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderLog:
		return NewLogMailer(logger), nil
	case ProviderHTTP:
		return NewHTTPMailer(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
