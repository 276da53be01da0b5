package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclients "presales-mvp/internal/common/aws"
	apperrors "presales-mvp/internal/common/errors"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/common/metrics"
	"presales-mvp/internal/models"
)

const (
	channelSNS = "sns"
	channelSES = "ses"

	maxBriefExcerpt = 500
)

// ApprovalNotifier sends approval notices over SNS and SES.
type ApprovalNotifier struct {
	config    *NotifierConfig
	snsClient awsclients.SNSService
	sesClient awsclients.SESService
	logger    logger.Logger
}

// NewApprovalNotifier builds a notifier. A nil client disables its channel.
func NewApprovalNotifier(config *NotifierConfig, snsClient awsclients.SNSService, sesClient awsclients.SESService, log logger.Logger) *ApprovalNotifier {
	return &ApprovalNotifier{
		config:    config,
		snsClient: snsClient,
		sesClient: sesClient,
		logger:    log.WithFields(map[string]interface{}{"component": "approval-notifier"}),
	}
}

// NotifyApproval sends the notice on every configured channel. Each channel
// is attempted even when another fails.
func (n *ApprovalNotifier) NotifyApproval(ctx context.Context, brief string, pack *models.PricingPack) error {
	subject := approvalSubject(pack)
	body := approvalBody(brief, pack)

	var errs []error

	if n.snsClient != nil && n.config.TopicARN != "" {
		_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(n.config.TopicARN),
			Subject:  aws.String(subject),
			Message:  aws.String(body),
		})
		errs = append(errs, n.record(channelSNS, err))
	}

	if n.sesClient != nil && n.config.FromEmail != "" && len(n.config.ToEmails) > 0 {
		_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
			Destination: &types.Destination{
				ToAddresses: n.config.ToEmails,
			},
			Message: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
			Source: aws.String(n.config.FromEmail),
		})
		errs = append(errs, n.record(channelSES, err))
	}

	return errors.Join(errs...)
}

func (n *ApprovalNotifier) record(channel string, err error) error {
	if err != nil {
		metrics.ApprovalNotifications.WithLabelValues(channel, "error").Inc()
		return apperrors.NewCollaboratorError(apperrors.ServiceNotification, channel+" send", err)
	}
	metrics.ApprovalNotifications.WithLabelValues(channel, "sent").Inc()
	n.logger.Info("approval notice sent", map[string]interface{}{"channel": channel})
	return nil
}

func approvalSubject(pack *models.PricingPack) string {
	return fmt.Sprintf("Pricing approval needed: %s %s", pack.Currency, FormatAmount(pack.TotalAfterDiscount))
}

func approvalBody(brief string, pack *models.PricingPack) string {
	var b strings.Builder

	excerpt := strings.TrimSpace(brief)
	if r := []rune(excerpt); len(r) > maxBriefExcerpt {
		excerpt = string(r[:maxBriefExcerpt]) + "..."
	}

	fmt.Fprintf(&b, "Brief:\n%s\n\n", excerpt)
	fmt.Fprintf(&b, "Total before discount: %s %s\n", pack.Currency, FormatAmount(pack.TotalBeforeDiscount))
	fmt.Fprintf(&b, "Discount: %s%%\n", FormatAmount(pack.DiscountPct))
	fmt.Fprintf(&b, "Total after discount: %s %s\n", pack.Currency, FormatAmount(pack.TotalAfterDiscount))

	if len(pack.ApprovalReasons) > 0 {
		b.WriteString("\nApproval reasons:\n")
		for _, reason := range pack.ApprovalReasons {
			fmt.Fprintf(&b, "- %s\n", reason)
		}
	}

	return b.String()
}
