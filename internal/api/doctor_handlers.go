package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

func createDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in doctor.CreateInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		d, err := svc.Create(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

func listDoctorsHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		list, total, err := svc.List(r.Context(), doctor.ListFilter{
			Specialization: r.URL.Query().Get("specialization"),
			Status:         queryStatus(r),
			Page:           page,
		})
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newList(list, total, page))
	}
}

func doctorAction(fn func(r *http.Request, id uuid.UUID) (*doctor.Doctor, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		d, err := fn(r, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func getDoctorHandler(svc DoctorService) http.HandlerFunc {
	return doctorAction(func(r *http.Request, id uuid.UUID) (*doctor.Doctor, error) {
		return svc.Get(r.Context(), id)
	})
}

func updateDoctorHandler(svc DoctorService) http.HandlerFunc {
	return doctorAction(func(r *http.Request, id uuid.UUID) (*doctor.Doctor, error) {
		var in doctor.UpdateInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return svc.Update(r.Context(), id, in)
	})
}

func deactivateDoctorHandler(svc DoctorService) http.HandlerFunc {
	return doctorAction(func(r *http.Request, id uuid.UUID) (*doctor.Doctor, error) {
		return svc.Deactivate(r.Context(), id)
	})
}

func restoreDoctorHandler(svc DoctorService) http.HandlerFunc {
	return doctorAction(func(r *http.Request, id uuid.UUID) (*doctor.Doctor, error) {
		return svc.Restore(r.Context(), id)
	})
}

func setScheduleHandler(svc DoctorService) http.HandlerFunc {
	return doctorAction(func(r *http.Request, id uuid.UUID) (*doctor.Doctor, error) {
		var sched schedule.WeeklySchedule
		if err := decodeJSON(r, &sched); err != nil {
			return nil, err
		}
		return svc.SetSchedule(r.Context(), id, sched)
	})
}

func setOfficesHandler(svc DoctorService) http.HandlerFunc {
	return doctorAction(func(r *http.Request, id uuid.UUID) (*doctor.Doctor, error) {
		var offices []doctor.Office
		if err := decodeJSON(r, &offices); err != nil {
			return nil, err
		}
		return svc.SetOffices(r.Context(), id, offices)
	})
}

type SlotsResponse struct {
	DoctorID    uuid.UUID       `json:"doctor_id"`
	Date        schedule.Date   `json:"date"`
	SlotMinutes int             `json:"slot_minutes,omitempty"`
	Slots       []schedule.Slot `json:"slots"`
}

func availableSlotsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, date, err := doctorDay(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		minutes, err := queryInt(r, "slot_minutes")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		slots, err := svc.AvailableSlots(r.Context(), id, date, minutes)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if slots == nil {
			slots = []schedule.Slot{}
		}
		writeJSON(w, http.StatusOK, SlotsResponse{DoctorID: id, Date: date, SlotMinutes: minutes, Slots: slots})
	}
}

func suggestedTimesHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, date, err := doctorDay(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		minutes, err := queryInt(r, "duration")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		suggestions, err := svc.SuggestedTimes(r.Context(), id, date, minutes)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
	}
}

// doctorDay reads the doctor id from the path and the date query.
func doctorDay(r *http.Request) (uuid.UUID, schedule.Date, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return uuid.Nil, schedule.Date{}, err
	}
	date, err := queryDate(r, "date")
	if err != nil {
		return uuid.Nil, schedule.Date{}, err
	}
	return id, date, nil
}
