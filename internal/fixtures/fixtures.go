// Package fixtures holds the demo data set: the profiles local-mode sign-in
// picks from and the shop records seeded into an empty database.
package fixtures

import (
	"fmt"
	"os"
	"time"

	"autoshop/internal/models"

	"gopkg.in/yaml.v2"
)

type Fixtures struct {
	Profiles      []models.Profile      `yaml:"profiles"`
	Vehicles      []models.Vehicle      `yaml:"vehicles"`
	Services      []models.Service      `yaml:"services"`
	Appointments  []models.Appointment  `yaml:"appointments"`
	ServiceOrders []models.ServiceOrder `yaml:"service_orders"`
	Patio         []models.PatioVehicle `yaml:"patio"`
	Alerts        []models.Alert        `yaml:"alerts"`
}

// Load reads fixtures from a YAML file. An empty path yields Default().
func Load(path string) (*Fixtures, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}

	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks ids are unique and references resolve.
func (f *Fixtures) Validate() error {
	profiles := make(map[string]bool, len(f.Profiles))
	for _, p := range f.Profiles {
		if p.ID == "" {
			return fmt.Errorf("profile %q has empty id", p.Email)
		}
		if profiles[p.ID] {
			return fmt.Errorf("duplicate profile id: %s", p.ID)
		}
		if !p.Role.Valid() {
			return fmt.Errorf("profile %s has invalid role %q", p.ID, p.Role)
		}
		profiles[p.ID] = true
	}

	vehicles := make(map[string]bool, len(f.Vehicles))
	for _, v := range f.Vehicles {
		if vehicles[v.ID] {
			return fmt.Errorf("duplicate vehicle id: %s", v.ID)
		}
		if !profiles[v.UserID] {
			return fmt.Errorf("vehicle %s references unknown user %s", v.ID, v.UserID)
		}
		vehicles[v.ID] = true
	}

	services := make(map[string]bool, len(f.Services))
	for _, s := range f.Services {
		if services[s.ID] {
			return fmt.Errorf("duplicate service id: %s", s.ID)
		}
		services[s.ID] = true
	}

	for _, a := range f.Appointments {
		if !vehicles[a.VehicleID] || !services[a.ServiceID] {
			return fmt.Errorf("appointment %s references unknown vehicle or service", a.ID)
		}
	}

	for _, p := range f.Patio {
		if !vehicles[p.VehicleID] {
			return fmt.Errorf("patio entry %s references unknown vehicle %s", p.ID, p.VehicleID)
		}
	}
	return nil
}

// ProfileList returns a copy of the fixture profiles in file order.
func (f *Fixtures) ProfileList() []models.Profile {
	out := make([]models.Profile, len(f.Profiles))
	copy(out, f.Profiles)
	return out
}

func strPtr(s string) *string { return &s }

var seedTime = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// Default is the built-in demo data set.
func Default() *Fixtures {
	return &Fixtures{
		Profiles: []models.Profile{
			{ID: "1", Email: "gestao@doctorauto.com.br", FullName: "Carlos Mendes", Phone: strPtr("11987654321"), Role: models.RoleManagement, CreatedAt: seedTime, UpdatedAt: seedTime},
			{ID: "2", Email: "joao.silva@email.com", FullName: "João Silva", Phone: strPtr("11912345678"), Role: models.RoleCustomer, CreatedAt: seedTime, UpdatedAt: seedTime},
			{ID: "3", Email: "maria.santos@email.com", FullName: "Maria Santos", Phone: strPtr("11955554444"), Role: models.RoleCustomer, CreatedAt: seedTime, UpdatedAt: seedTime},
			{ID: "4", Email: "oficina@doctorauto.com.br", FullName: "Pedro Oliveira", Role: models.RoleAdmin, CreatedAt: seedTime, UpdatedAt: seedTime},
			{ID: "5", Email: "dev@doctorauto.com.br", FullName: "Equipe Dev", Role: models.RoleDeveloper, CreatedAt: seedTime, UpdatedAt: seedTime},
		},
		Vehicles: []models.Vehicle{
			{ID: "v1", UserID: "2", Brand: "Honda", Model: "Civic", Year: 2020, Plate: "ABC1D23", Color: "Prata", Mileage: 38500},
			{ID: "v2", UserID: "2", Brand: "Toyota", Model: "Corolla", Year: 2019, Plate: "XYZ9K87", Color: "Preto", Mileage: 52000},
			{ID: "v3", UserID: "3", Brand: "Volkswagen", Model: "Gol", Year: 2018, Plate: "QWE4R56", Color: "Branco", Mileage: 71000},
		},
		Services: []models.Service{
			{ID: "s1", Name: "Troca de Óleo", Description: "Troca de óleo do motor e filtro", Category: "Manutenção", Price: 189.9, DurationMinutes: 45, IsActive: true},
			{ID: "s2", Name: "Alinhamento e Balanceamento", Description: "Alinhamento de direção e balanceamento das quatro rodas", Category: "Suspensão", Price: 149.9, DurationMinutes: 60, IsActive: true},
			{ID: "s3", Name: "Revisão Completa", Description: "Revisão preventiva com checklist de 40 itens", Category: "Manutenção", Price: 499.9, DurationMinutes: 180, IsActive: true},
			{ID: "s4", Name: "Troca de Pastilhas de Freio", Description: "Substituição das pastilhas dianteiras", Category: "Freios", Price: 259.9, DurationMinutes: 90, IsActive: true},
			{ID: "s5", Name: "Diagnóstico Eletrônico", Description: "Leitura de falhas com scanner", Category: "Elétrica", Price: 120, DurationMinutes: 40, IsActive: true},
			{ID: "s6", Name: "Higienização do Ar-condicionado", Description: "Limpeza do sistema de ar", Category: "Conforto", Price: 99.9, DurationMinutes: 30, IsActive: false},
		},
		Appointments: []models.Appointment{
			{ID: "a1", UserID: "2", VehicleID: "v1", ServiceID: "s1", ScheduledDate: "2026-01-20", ScheduledTime: "09:00", Status: models.AppointmentConfirmed, CreatedAt: seedTime},
			{ID: "a2", UserID: "2", VehicleID: "v2", ServiceID: "s2", ScheduledDate: "2026-01-22", ScheduledTime: "14:00", Status: models.AppointmentPending, CreatedAt: seedTime},
			{ID: "a3", UserID: "3", VehicleID: "v3", ServiceID: "s4", ScheduledDate: "2026-01-14", ScheduledTime: "10:00", Status: models.AppointmentCompleted, CreatedAt: seedTime},
			{ID: "a4", UserID: "3", VehicleID: "v3", ServiceID: "s3", ScheduledDate: "2026-01-20", ScheduledTime: "08:00", Status: models.AppointmentInProgress, CreatedAt: seedTime},
		},
		ServiceOrders: []models.ServiceOrder{
			{ID: "o1", UserID: "3", VehicleID: "v3", AppointmentID: "a3", Status: models.OrderCompleted, Total: 259.9, CreatedAt: seedTime.AddDate(0, 0, 13)},
			{ID: "o2", UserID: "3", VehicleID: "v3", AppointmentID: "a4", Status: models.OrderInProgress, Total: 499.9, CreatedAt: seedTime.AddDate(0, 0, 19)},
			{ID: "o3", UserID: "2", VehicleID: "v1", AppointmentID: "a1", Status: models.OrderWaitingApproval, Total: 189.9, CreatedAt: seedTime.AddDate(0, 0, 19)},
			{ID: "o4", UserID: "2", VehicleID: "v2", Status: models.OrderCancelled, Total: 80, CreatedAt: seedTime.AddDate(0, 0, 5)},
			{ID: "o5", UserID: "2", VehicleID: "v2", Status: models.OrderCompleted, Total: 149.9, CreatedAt: seedTime.AddDate(0, 0, 2)},
		},
		Patio: []models.PatioVehicle{
			{ID: "p1", VehicleID: "v3", OrderID: "o2", Status: models.PatioInService, EnteredAt: seedTime.AddDate(0, 0, 19)},
			{ID: "p2", VehicleID: "v1", OrderID: "o3", Status: models.PatioWaiting, EnteredAt: seedTime.AddDate(0, 0, 19)},
			{ID: "p3", VehicleID: "v2", Status: models.PatioDelivered, EnteredAt: seedTime.AddDate(0, 0, 2)},
		},
		Alerts: []models.Alert{
			{ID: "al1", UserID: "2", Type: models.AlertReminder, Title: "Lembrete de Agendamento", Message: "Seu agendamento de Troca de Óleo é amanhã às 09:00.", Date: time.Date(2026, 1, 19, 10, 0, 0, 0, time.UTC), ActionURL: "/agenda", ActionLabel: "Ver Agenda"},
			{ID: "al2", UserID: "2", Type: models.AlertMaintenance, Title: "Revisão Programada", Message: "Seu Honda Civic está próximo da quilometragem para revisão (40.000 km).", Date: time.Date(2026, 1, 18, 14, 0, 0, 0, time.UTC), ActionURL: "/novo-agendamento", ActionLabel: "Agendar"},
			{ID: "al3", UserID: "2", Type: models.AlertPromo, Title: "Promoção Especial", Message: "Alinhamento + Balanceamento com 20% de desconto! Válido até 31/01.", Date: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC), Read: true, ActionURL: "/novo-agendamento?service=s2", ActionLabel: "Aproveitar"},
			{ID: "al4", UserID: "2", Type: models.AlertInfo, Title: "Serviço Concluído", Message: "A troca de pastilhas de freio do seu Toyota Corolla foi concluída.", Date: time.Date(2026, 1, 14, 16, 30, 0, 0, time.UTC), Read: true},
		},
	}
}
