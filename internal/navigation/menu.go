// Package navigation describes the portal menus and the routes the API
// points clients to after auth and booking actions.
package navigation

import "autoshop/internal/models"

const (
	RouteHome           = "/"
	RouteLogin          = "/login"
	RouteAdmin          = "/gestao"
	RouteBookingSuccess = "/agendamento-sucesso"
)

// MenuItem is one link. RequiredRole RoleNone means everyone may see it.
type MenuItem struct {
	Path         string      `json:"path"`
	Label        string      `json:"label"`
	Icon         string      `json:"icon"`
	End          bool        `json:"end,omitempty"`
	RequiredRole models.Role `json:"required_role,omitempty"`
}

type Section struct {
	Title string     `json:"title"`
	Items []MenuItem `json:"items"`
}

var adminSections = []Section{
	{
		Title: "Operacional",
		Items: []MenuItem{
			{Path: "/gestao", Label: "Dashboard", Icon: "layout-dashboard", End: true, RequiredRole: models.RoleAdmin},
			{Path: "/gestao/ordens-servico", Label: "Ordens de Serviço", Icon: "clipboard-list", RequiredRole: models.RoleAdmin},
			{Path: "/gestao/patio", Label: "Pátio", Icon: "car", RequiredRole: models.RoleAdmin},
			{Path: "/gestao/agendamentos", Label: "Agendamentos", Icon: "calendar", RequiredRole: models.RoleAdmin},
		},
	},
	{
		Title: "Cadastros",
		Items: []MenuItem{
			{Path: "/gestao/clientes", Label: "Clientes", Icon: "users", RequiredRole: models.RoleAdmin},
			{Path: "/gestao/servicos", Label: "Serviços", Icon: "wrench", RequiredRole: models.RoleAdmin},
		},
	},
	{
		Title: "Financeiro",
		Items: []MenuItem{
			{Path: "/gestao/financeiro", Label: "Financeiro", Icon: "dollar-sign", RequiredRole: models.RoleManagement},
		},
	},
	{
		Title: "Equipe",
		Items: []MenuItem{
			{Path: "/gestao/analytics-mecanicos", Label: "Analytics", Icon: "bar-chart-3", RequiredRole: models.RoleManagement},
			{Path: "/gestao/feedback-mecanicos", Label: "Feedback", Icon: "message-square", RequiredRole: models.RoleManagement},
		},
	},
	{
		Title: "Sistema",
		Items: []MenuItem{
			{Path: "/gestao/configuracoes", Label: "Configurações", Icon: "settings", RequiredRole: models.RoleAdmin},
		},
	},
}

var bottomNav = []MenuItem{
	{Path: "/", Label: "Início", Icon: "home", End: true, RequiredRole: models.RoleCustomer},
	{Path: "/agenda", Label: "Agenda", Icon: "calendar", RequiredRole: models.RoleCustomer},
	{Path: "/avisos", Label: "Avisos", Icon: "bell", RequiredRole: models.RoleCustomer},
	{Path: "/perfil", Label: "Perfil", Icon: "user", RequiredRole: models.RoleCustomer},
}

// AdminSections returns the console menu as seen by role. Sections left
// without items are omitted.
func AdminSections(role models.Role) []Section {
	var out []Section
	for _, s := range adminSections {
		items := Visible(s.Items, role)
		if len(items) == 0 {
			continue
		}
		out = append(out, Section{Title: s.Title, Items: items})
	}
	return out
}

// BottomNav is the customer tab bar.
func BottomNav(role models.Role) []MenuItem {
	return Visible(bottomNav, role)
}

func Visible(items []MenuItem, role models.Role) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if models.Allows(role, item.RequiredRole) {
			out = append(out, item)
		}
	}
	return out
}

// CanOpenAdmin reports whether role may enter the management console.
func CanOpenAdmin(role models.Role) bool {
	return models.Allows(role, models.RoleAdmin)
}

// AfterDemoLogin is the landing route for a demo sign-in as role.
func AfterDemoLogin(role models.Role) string {
	if CanOpenAdmin(role) {
		return RouteAdmin
	}
	return RouteHome
}
