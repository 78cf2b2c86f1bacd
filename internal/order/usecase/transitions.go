package usecase

import "github.com/fekuna/omnipos-restaurant-service/internal/model"

type edge struct {
	from, to model.OrderStatus
}

// Pending to Complete is the walk-up shortcut for counter sales.
var edges = map[edge]bool{
	{model.StatusPending, model.StatusReady}:    true,
	{model.StatusReady, model.StatusComplete}:   true,
	{model.StatusPending, model.StatusComplete}: true,
}

var roleEdges = map[model.Role]map[edge]bool{
	model.RoleAdmin: edges,
	model.RoleKitchen: {
		{model.StatusPending, model.StatusReady}:  true,
		{model.StatusReady, model.StatusComplete}: true,
	},
	model.RoleCashier: {
		{model.StatusPending, model.StatusComplete}: true,
		{model.StatusReady, model.StatusComplete}:   true,
	},
}

func validTransition(from, to model.OrderStatus) bool {
	return edges[edge{from, to}]
}

func roleMayTransition(role model.Role, from, to model.OrderStatus) bool {
	return roleEdges[role][edge{from, to}]
}

func roleMayAdvance(role model.Role) bool {
	_, ok := roleEdges[role]
	return ok
}
