package models

const (
	AppointmentPending    = "pending"
	AppointmentConfirmed  = "confirmed"
	AppointmentInProgress = "in_progress"
	AppointmentCompleted  = "completed"
	AppointmentCancelled  = "cancelled"
)

const (
	OrderOpen            = "open"
	OrderInProgress      = "in_progress"
	OrderWaitingApproval = "waiting_approval"
	OrderCompleted       = "completed"
	OrderCancelled       = "cancelled"
)

const (
	PatioWaiting   = "waiting"
	PatioInService = "in_service"
	PatioReady     = "ready"
	PatioDelivered = "delivered"
)

const (
	AlertReminder    = "reminder"
	AlertMaintenance = "maintenance"
	AlertPromo       = "promo"
	AlertInfo        = "info"
)

// Layouts of the string dates and times stored on appointments.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

const (
	// DefaultRecordTTL время жизни сессии и черновика в хранилище
	DefaultRecordTTL = 24 * 60 * 60 // 24 часа в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128

	// AuthRateLimitAttempts попыток входа в окне
	AuthRateLimitAttempts = 10

	// AuthRateLimitWindow окно ограничения попыток входа
	AuthRateLimitWindow = 60 // 1 минута в секундах

	// DashboardRecentOrders количество заказов на дашборде
	DashboardRecentOrders = 4

	// HomeFeaturedServices количество услуг на главной
	HomeFeaturedServices = 4
)
