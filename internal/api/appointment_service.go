package api

import (
	"context"
	"strings"

	"github.com/chatconsole/chatconsole/internal/rpc"
	"github.com/chatconsole/chatconsole/internal/store"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// AppointmentService imports appointment records.
type AppointmentService struct {
	db     *store.DB
	logger *zap.Logger
}

// NewAppointmentService creates a new appointment service.
func NewAppointmentService(db *store.DB, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{db: db, logger: logger}
}

func (s *AppointmentService) ImportAppointments(ctx context.Context, req *rpc.ImportAppointmentsRequest) (*rpc.ImportAppointmentsResponse, error) {
	if _, err := operator(ctx); err != nil {
		return nil, err
	}
	appts := make([]store.Appointment, 0, len(req.Appointments))
	for i, a := range req.Appointments {
		email := strings.TrimSpace(a.PatientEmail)
		if email == "" {
			return nil, grpcstatus.Errorf(codes.InvalidArgument, "appointment %d: patient email is required", i)
		}
		appts = append(appts, store.Appointment{
			PatientEmail: email,
			PatientName:  a.PatientName,
			Age:          a.Age,
			Gender:       a.Gender,
			Symptoms:     a.Symptoms,
			PatientPhone: a.PatientPhone,
			Urgency:      a.Urgency,
		})
	}
	if err := s.db.BulkAddAppointments(ctx, appts); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("appointments imported", zap.Int("count", len(appts)))
	return &rpc.ImportAppointmentsResponse{Imported: len(appts)}, nil
}
