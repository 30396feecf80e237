package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/prescription"
)

func createPrescriptionHandler(svc PrescriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in prescription.CreateInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		rx, err := svc.Create(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rx)
	}
}

func listPrescriptionsHandler(svc PrescriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f prescription.ListFilter
		var err error
		if f.PatientID, err = queryID(r, "patient_id"); err != nil {
			writeAppError(w, r, err)
			return
		}
		if f.DoctorID, err = queryID(r, "doctor_id"); err != nil {
			writeAppError(w, r, err)
			return
		}
		if f.Page, err = parsePage(r); err != nil {
			writeAppError(w, r, err)
			return
		}
		f.Status = prescription.Status(r.URL.Query().Get("status"))

		list, total, err := svc.List(r.Context(), f)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newList(list, total, f.Page))
	}
}

func prescriptionAction(fn func(r *http.Request, id uuid.UUID) (*prescription.Prescription, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		rx, err := fn(r, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rx)
	}
}

func getPrescriptionHandler(svc PrescriptionService) http.HandlerFunc {
	return prescriptionAction(func(r *http.Request, id uuid.UUID) (*prescription.Prescription, error) {
		return svc.Get(r.Context(), id)
	})
}

func updatePrescriptionHandler(svc PrescriptionService) http.HandlerFunc {
	return prescriptionAction(func(r *http.Request, id uuid.UUID) (*prescription.Prescription, error) {
		var in prescription.DetailsInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return svc.UpdateDetails(r.Context(), id, in)
	})
}

func addPrescriptionItemHandler(svc PrescriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		var in prescription.ItemInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		rx, err := svc.AddItem(r.Context(), id, in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rx)
	}
}

func removePrescriptionItemHandler(svc PrescriptionService) http.HandlerFunc {
	return prescriptionAction(func(r *http.Request, id uuid.UUID) (*prescription.Prescription, error) {
		itemID, err := pathID(r, "itemID")
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), id, itemID)
	})
}

type ApplyShortKeyRequest struct {
	Code string `json:"code"`
}

func applyShortKeyHandler(svc PrescriptionService) http.HandlerFunc {
	return prescriptionAction(func(r *http.Request, id uuid.UUID) (*prescription.Prescription, error) {
		var req ApplyShortKeyRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return svc.ApplyShortKey(r.Context(), id, req.Code)
	})
}

type PrescriptionStatusRequest struct {
	Status prescription.Status `json:"status"`
}

func prescriptionStatusHandler(svc PrescriptionService) http.HandlerFunc {
	return prescriptionAction(func(r *http.Request, id uuid.UUID) (*prescription.Prescription, error) {
		var req PrescriptionStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return svc.TransitionStatus(r.Context(), id, req.Status)
	})
}
