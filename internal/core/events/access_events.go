package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeActivationChanged  = "entitlement.activation.changed"
	EventTypeGrantsChanged      = "authorization.grants.changed"
	EventTypeAssignmentsChanged = "authorization.assignments.changed"
)

// TenantScoped is what invalidation subscribers look for on an event: all
// the resolver cache needs to know is which tenant's entries are now stale.
type TenantScoped interface {
	ScopedTenantID() string
}

// TenantScopedEvent is the shape shared by every invalidation event.
type TenantScopedEvent struct {
	BaseEvent
	TenantID string `json:"tenant_id"`
}

func (e *TenantScopedEvent) ScopedTenantID() string {
	return e.TenantID
}

func newTenantEvent(eventType, tenantID string, data map[string]interface{}) *TenantScopedEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["tenant_id"] = tenantID
	return &TenantScopedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		TenantID: tenantID,
	}
}

func NewActivationChangedEvent(tenantID string, moduleID int64, active bool) *TenantScopedEvent {
	return newTenantEvent(EventTypeActivationChanged, tenantID, map[string]interface{}{
		"module_id": moduleID,
		"active":    active,
	})
}

func NewGrantsChangedEvent(tenantID string, roleID int64) *TenantScopedEvent {
	return newTenantEvent(EventTypeGrantsChanged, tenantID, map[string]interface{}{
		"role_id": roleID,
	})
}

func NewAssignmentsChangedEvent(tenantID string, userID int64) *TenantScopedEvent {
	return newTenantEvent(EventTypeAssignmentsChanged, tenantID, map[string]interface{}{
		"user_id": userID,
	})
}
