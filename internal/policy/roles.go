package policy

import (
	"github.com/diewo77/go-hoardings/gate"
	"github.com/diewo77/go-hoardings/internal/models"
)

// Resource types checked by the console.
const (
	ResourceSites      = "sites"
	ResourceClients    = "clients"
	ResourceActivities = "activities"
	ResourceDashboard  = "dashboard"
)

// Profiles returns the built-in profile of every backend role.
func Profiles() map[string]gate.Profile {
	manager := []gate.Permission{
		gate.NewPermission(ResourceDashboard, gate.ActionView),
		gate.NewPermission(ResourceActivities, gate.ActionExport),
	}
	for _, res := range []string{ResourceSites, ResourceClients, ResourceActivities} {
		for _, act := range []gate.Action{gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate} {
			manager = append(manager, gate.NewPermission(res, act))
		}
	}
	return map[string]gate.Profile{
		models.RoleAdmin:   gate.NewStaticProfile(models.RoleAdmin, gate.PermissionSuperAdmin),
		models.RoleManager: gate.NewStaticProfile(models.RoleManager, manager...),
		models.RoleViewer: gate.NewStaticProfile(models.RoleViewer,
			gate.Permission(gate.WildcardAll+":"+string(gate.ActionList)),
			gate.Permission(gate.WildcardAll+":"+string(gate.ActionView)),
		),
	}
}
