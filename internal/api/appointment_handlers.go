package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/appointment"
)

func createAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in appointment.CreateInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		appt, err := svc.Create(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, appt)
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := appointmentFilter(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		list, total, err := svc.List(r.Context(), f)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newList(list, total, f.Page))
	}
}

func appointmentFilter(r *http.Request) (appointment.ListFilter, error) {
	var f appointment.ListFilter
	var err error
	if f.DoctorID, err = queryID(r, "doctor_id"); err != nil {
		return f, err
	}
	if f.PatientID, err = queryID(r, "patient_id"); err != nil {
		return f, err
	}
	if f.DateFrom, err = queryDate(r, "date_from"); err != nil {
		return f, err
	}
	if f.DateTo, err = queryDate(r, "date_to"); err != nil {
		return f, err
	}
	if f.Page, err = parsePage(r); err != nil {
		return f, err
	}
	f.Status = appointment.Status(r.URL.Query().Get("status"))
	return f, nil
}

func appointmentAction(fn func(r *http.Request, id uuid.UUID) (*appointment.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		appt, err := fn(r, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return appointmentAction(func(r *http.Request, id uuid.UUID) (*appointment.Appointment, error) {
		return svc.Get(r.Context(), id)
	})
}

func getAppointmentByNumberHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := svc.GetByNumber(r.Context(), chi.URLParam(r, "number"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func updateAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return appointmentAction(func(r *http.Request, id uuid.UUID) (*appointment.Appointment, error) {
		var in appointment.DetailsInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return svc.UpdateDetails(r.Context(), id, in)
	})
}

func rescheduleHandler(svc AppointmentService) http.HandlerFunc {
	return appointmentAction(func(r *http.Request, id uuid.UUID) (*appointment.Appointment, error) {
		var in appointment.RescheduleInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return svc.Reschedule(r.Context(), id, in)
	})
}

type StatusRequest struct {
	Status appointment.Status `json:"status"`
	Reason string             `json:"cancellation_reason"`
}

func appointmentStatusHandler(svc AppointmentService) http.HandlerFunc {
	return appointmentAction(func(r *http.Request, id uuid.UUID) (*appointment.Appointment, error) {
		var req StatusRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return svc.TransitionStatus(r.Context(), id, req.Status, req.Reason)
	})
}

type CancelRequest struct {
	Reason string `json:"cancellation_reason"`
}

func cancelAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return appointmentAction(func(r *http.Request, id uuid.UUID) (*appointment.Appointment, error) {
		var req CancelRequest
		if err := decodeOptionalJSON(r, &req); err != nil {
			return nil, err
		}
		return svc.Cancel(r.Context(), id, req.Reason)
	})
}

type BulkStatusRequest struct {
	IDs    []uuid.UUID        `json:"appointment_ids"`
	Status appointment.Status `json:"status"`
	Reason string             `json:"cancellation_reason"`
}

func bulkStatusHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, r, err)
			return
		}
		results, err := svc.BulkStatus(r.Context(), req.IDs, req.Status, req.Reason)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

func checkConflictHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in appointment.ConflictCheck
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		res, err := svc.CheckConflict(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func dailySummaryHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := queryDate(r, "from")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		to, err := queryDate(r, "to")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if to.IsZero() {
			to = from
		}
		doctorID, err := queryID(r, "doctor_id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		days, err := svc.DailySummary(r.Context(), from, to, doctorID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if days == nil {
			days = []appointment.DailySummary{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"days": days})
	}
}
