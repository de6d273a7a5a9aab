package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Device holds the counters of a device runtime
type Device struct {
	// Enrollment results by outcome: "success" or a failure reason
	Enrollments *prometheus.CounterVec

	// Access poll results: "matched", "no_match", "error"
	Authentications *prometheus.CounterVec

	// Status report outcomes
	StatusReports *prometheus.CounterVec
}

// NewDevice creates the device counters registered with reg
func NewDevice(reg prometheus.Registerer) *Device {
	factory := promauto.With(reg)
	return &Device{
		Enrollments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veriloc_enrollments_total",
			Help: "Total enrollment sessions by outcome",
		}, []string{"outcome"}),

		Authentications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veriloc_authentications_total",
			Help: "Total access classification attempts by result",
		}, []string{"result"}),

		StatusReports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veriloc_status_reports_total",
			Help: "Total status reports submitted by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementEnrollment records a finished enrollment session
func (m *Device) IncrementEnrollment(outcome string) {
	if m != nil {
		m.Enrollments.WithLabelValues(outcome).Inc()
	}
}

// IncrementAuthentication records one access classification
func (m *Device) IncrementAuthentication(result string) {
	if m != nil {
		m.Authentications.WithLabelValues(result).Inc()
	}
}

// IncrementStatusReport records one submitted status report
func (m *Device) IncrementStatusReport(outcome string) {
	if m != nil {
		m.StatusReports.WithLabelValues(outcome).Inc()
	}
}

// Server holds the counters of the remote authority
type Server struct {
	// Device status updates by result: "accepted" or an error code
	RoomStatusUpdates *prometheus.CounterVec

	// Admin login attempts: "success" or "failure"
	AdminLogins *prometheus.CounterVec
}

// NewServer creates the server counters registered with reg
func NewServer(reg prometheus.Registerer) *Server {
	factory := promauto.With(reg)
	return &Server{
		RoomStatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veriloc_room_status_updates_total",
			Help: "Total device room status updates by result",
		}, []string{"result"}),

		AdminLogins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veriloc_admin_logins_total",
			Help: "Total admin login attempts by result",
		}, []string{"result"}),
	}
}

// IncrementRoomStatusUpdate records one device status update
func (m *Server) IncrementRoomStatusUpdate(result string) {
	if m != nil {
		m.RoomStatusUpdates.WithLabelValues(result).Inc()
	}
}

// IncrementAdminLogin records one login attempt
func (m *Server) IncrementAdminLogin(result string) {
	if m != nil {
		m.AdminLogins.WithLabelValues(result).Inc()
	}
}
