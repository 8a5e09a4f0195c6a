// Package job contains the background jobs scheduled by the web server.
package job

import (
	"time"

	"github.com/usergate/usergate/logger"
	"github.com/usergate/usergate/util/common"
	"github.com/usergate/usergate/web/service"
)

// CodeCleanupJob clears reset and verification codes past their TTL so stale
// tokens stop resolving even between requests.
type CodeCleanupJob struct {
	userService *service.UserService
	ttl         time.Duration
}

func NewCodeCleanupJob(userService *service.UserService, ttl time.Duration) *CodeCleanupJob {
	return &CodeCleanupJob{userService: userService, ttl: ttl}
}

func (j *CodeCleanupJob) Run() {
	defer common.Recover("code cleanup job")

	n, err := j.userService.ClearExpiredCodes(j.ttl)
	if err != nil {
		logger.Warning("code cleanup failed:", err)
		return
	}
	if n > 0 {
		logger.Infof("code cleanup cleared %d expired codes", n)
	}
}
