package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/patient"
)

func createPatientHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in patient.CreateInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		p, err := svc.Create(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func searchPatientsHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		list, total, err := svc.Search(r.Context(), patient.SearchFilter{
			Query:  r.URL.Query().Get("q"),
			Status: queryStatus(r),
			Page:   page,
		})
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newList(list, total, page))
	}
}

func getPatientByKeyHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		p, err := svc.GetByKey(r.Context(), q.Get("mobile"), q.Get("first_name"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// patientAction adapts a by-id patient operation into a handler.
func patientAction(fn func(r *http.Request, id uuid.UUID) (*patient.Patient, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		p, err := fn(r, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func getPatientHandler(svc PatientService) http.HandlerFunc {
	return patientAction(func(r *http.Request, id uuid.UUID) (*patient.Patient, error) {
		return svc.Get(r.Context(), id)
	})
}

func updatePatientHandler(svc PatientService) http.HandlerFunc {
	return patientAction(func(r *http.Request, id uuid.UUID) (*patient.Patient, error) {
		var in patient.UpdateInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return svc.Update(r.Context(), id, in)
	})
}

func deactivatePatientHandler(svc PatientService) http.HandlerFunc {
	return patientAction(func(r *http.Request, id uuid.UUID) (*patient.Patient, error) {
		return svc.Deactivate(r.Context(), id)
	})
}

func restorePatientHandler(svc PatientService) http.HandlerFunc {
	return patientAction(func(r *http.Request, id uuid.UUID) (*patient.Patient, error) {
		return svc.Restore(r.Context(), id)
	})
}

func familyHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.Family(r.Context(), chi.URLParam(r, "mobile"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func eligibilityHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Eligibility(r.Context(), chi.URLParam(r, "mobile"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

type ValidateMemberRequest struct {
	MobileNumber string               `json:"mobile_number"`
	FirstName    string               `json:"first_name"`
	Relationship patient.Relationship `json:"relationship_to_primary"`
}

func validateMemberHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateMemberRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, r, err)
			return
		}
		v, err := svc.ValidateFamilyMember(r.Context(), req.MobileNumber, req.FirstName, req.Relationship)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func patientPrescriptionsHandler(svc PrescriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		page, err := parsePage(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		list, total, err := svc.ListByPatient(r.Context(), id, page)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newList(list, total, page))
	}
}
