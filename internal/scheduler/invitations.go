package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/taskboard-dev/taskboard/internal/metrics"
	"github.com/taskboard-dev/taskboard/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ExpireInvitationsJob = "expire-invitations"

// ExpireInvitations marks pending invitations past their expiry as expired.
func ExpireInvitations(conn *gorm.DB, m *metrics.Metrics, now func() time.Time) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res := conn.WithContext(ctx).
			Model(&models.ProjectInvitation{}).
			Where("status = ? AND expires_at < ?", models.InvitationPending, now()).
			Update("status", models.InvitationExpired)

		if res.Error != nil {
			return fmt.Errorf("expire invitations: %w", res.Error)
		}

		if res.RowsAffected > 0 {
			zap.L().Info("expired invitations", zap.Int64("count", res.RowsAffected))
			if m != nil {
				m.ExpiredInvites.Add(float64(res.RowsAffected))
			}
		}

		return nil
	}
}
