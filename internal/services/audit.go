package services

import (
	"strconv"

	"github.com/csmith1188/digipogs/internal/models"
	repo "github.com/csmith1188/digipogs/internal/repository"
	"github.com/csmith1188/digipogs/internal/worker"
)

// auditor writes best-effort audit entries off the request path.
type auditor struct {
	logs repo.AuditLogs
	wp   *worker.Pool
}

func (a *auditor) write(entityType string, entityID int64, action string, details map[string]any) {
	if a.logs == nil {
		return
	}
	id := strconv.FormatInt(entityID, 10)
	l := models.AuditLog{
		EntityType: entityType,
		EntityID:   &id,
		Action:     action,
		Details:    details,
	}
	if a.wp != nil {
		a.wp.Submit(func() { _ = a.logs.Create(l) })
		return
	}
	_ = a.logs.Create(l)
}
