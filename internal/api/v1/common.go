package v1

import (
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/publisher"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/gin-gonic/gin"
)

// publishEvents sends the completion signals of an operation that already
// committed. A failed publish is logged and the response still succeeds.
func publishEvents(c *gin.Context, pub publisher.LifecycleEventPublisher, log *logger.Logger, events []types.LifecycleEvent) {
	if len(events) == 0 {
		return
	}
	if err := pub.Publish(c.Request.Context(), events...); err != nil {
		log.Warnw("lifecycle events not published",
			"error", err,
			"count", len(events),
			"request_id", types.GetRequestID(c.Request.Context()),
		)
	}
}
