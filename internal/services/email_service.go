package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	pkglogger "github.com/colemarsh/gatehouse/pkg/logger"
)

// EmailService defines the interface for the outbound email collaborator.
// Delivery is out-of-band; the core only hands over the address and token.
type EmailService interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, baseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

// SendVerificationEmail sends the account verification link to the user
func (s *AWSSESEmailService) SendVerificationEmail(ctx context.Context, email, token string) error {
	verificationLink := fmt.Sprintf("%s/auth/verify?token=%s", s.baseURL, token)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body>
    <h1>Verify your email address</h1>
    <p>Thank you for creating an account. To complete your registration, open the link below:</p>
    <p><a href="%s">Verify email address</a></p>
    <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
    <p>This link expires in 24 hours. If you did not sign up, you can ignore this email.</p>
</body>
</html>
`, verificationLink, verificationLink)

	textBody := fmt.Sprintf(`Verify your email address

Thank you for creating an account. To complete your registration, open:

%s

This link expires in 24 hours. If you did not sign up, you can ignore this email.
`, verificationLink)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Verify your email address"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send verification email via SES",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("verification email sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", *result.MessageId))

	return nil
}

// LogEmailService logs instead of sending. Development fallback when no SES
// credentials are configured. Never logs the token itself.
type LogEmailService struct {
	logger *slog.Logger
}

func NewLogEmailService(logger *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: logger}
}

func (s *LogEmailService) SendVerificationEmail(ctx context.Context, email, token string) error {
	s.logger.Info("verification email suppressed (dev mode)",
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}
