package listpage

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/listctl"
	"github.com/jetdesk/jetadmin/internal/middleware"
	"github.com/jetdesk/jetadmin/internal/workspace"
)

// Toast queues a notice for the next response of the session.
func Toast(q *listctl.NoticeQueue, level listctl.Level, msg string) {
	q.Notify(listctl.Notice{Level: level, Message: msg})
}

// FlushNotices drains q into an HX-Trigger showToast event. One notice is
// sent as an object, several as an array.
func FlushNotices(c *gin.Context, q *listctl.NoticeQueue) {
	notices := q.Drain()
	if len(notices) == 0 {
		return
	}
	var payload any = notices
	if len(notices) == 1 {
		payload = notices[0]
	}
	trigger, err := json.Marshal(map[string]any{"showToast": payload})
	if err != nil {
		return
	}
	c.Header("HX-Trigger", string(trigger))
}

// Redirect finishes an htmx form post by telling htmx to navigate to url.
// Queued notices stay queued and are shown by the next full page.
func Redirect(c *gin.Context, url string) {
	c.Header("HX-Redirect", url)
	c.Status(http.StatusOK)
}

// Reject answers an htmx request with a toast and no swap.
func Reject(c *gin.Context, q *listctl.NoticeQueue, status int, level listctl.Level, msg string) {
	Toast(q, level, msg)
	FlushNotices(c, q)
	c.Header("HX-Reswap", "none")
	c.Status(status)
}

// SafeMessage returns the message of a user-facing AppError, or fallback for
// anything that could leak internals.
func SafeMessage(err error, fallback string) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		switch appErr.Code {
		case domain.CodeNotFound, domain.CodeAlreadyExists, domain.CodeValidation,
			domain.CodeNetwork, domain.CodePartialBulk:
			return appErr.Message
		}
	}
	return fallback
}

// Workspace returns the caller's workspace. Session must have run.
func Workspace(c *gin.Context, reg *workspace.Registry) *workspace.Workspace {
	return reg.Get(middleware.GetSessionID(c))
}

// APIWorkspace is Workspace for read-only API calls. A caller without a
// session cookie gets a detached workspace so it never occupies a registry
// slot. The returned func releases the workspace and must always be called.
func APIWorkspace(c *gin.Context, reg *workspace.Registry) (*workspace.Workspace, func()) {
	if middleware.IsNewSession(c) {
		ws := reg.Detached()
		return ws, ws.Close
	}
	return Workspace(c, reg), func() {}
}
