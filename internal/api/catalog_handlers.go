package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/medicine"
)

func createMedicineHandler(svc MedicineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in medicine.CreateInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		m, err := svc.Create(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func searchMedicinesHandler(svc MedicineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		q := r.URL.Query()
		list, total, err := svc.Search(r.Context(), medicine.SearchFilter{
			Query:  q.Get("q"),
			Form:   medicine.Form(q.Get("form")),
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

func medicineAction(fn func(r *http.Request, id uuid.UUID) (*medicine.Medicine, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		m, err := fn(r, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func getMedicineHandler(svc MedicineService) http.HandlerFunc {
	return medicineAction(func(r *http.Request, id uuid.UUID) (*medicine.Medicine, error) {
		return svc.Get(r.Context(), id)
	})
}

func updateMedicineHandler(svc MedicineService) http.HandlerFunc {
	return medicineAction(func(r *http.Request, id uuid.UUID) (*medicine.Medicine, error) {
		var in medicine.UpdateInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return svc.Update(r.Context(), id, in)
	})
}

func deactivateMedicineHandler(svc MedicineService) http.HandlerFunc {
	return medicineAction(func(r *http.Request, id uuid.UUID) (*medicine.Medicine, error) {
		return svc.Deactivate(r.Context(), id)
	})
}

func restoreMedicineHandler(svc MedicineService) http.HandlerFunc {
	return medicineAction(func(r *http.Request, id uuid.UUID) (*medicine.Medicine, error) {
		return svc.Restore(r.Context(), id)
	})
}

func createShortKeyHandler(svc MedicineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in medicine.ShortKeyInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		k, err := svc.CreateShortKey(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, k)
	}
}

func listShortKeysHandler(svc MedicineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := queryID(r, "doctor_id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		page, err := parsePage(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		list, total, err := svc.ListShortKeys(r.Context(), medicine.ShortKeyFilter{
			DoctorID: doctorID,
			Status:   queryStatus(r),
			Page:     page,
		})
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newList(list, total, page))
	}
}

func shortKeyAction(fn func(r *http.Request, id uuid.UUID) (*medicine.ShortKey, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		k, err := fn(r, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, k)
	}
}

func getShortKeyHandler(svc MedicineService) http.HandlerFunc {
	return shortKeyAction(func(r *http.Request, id uuid.UUID) (*medicine.ShortKey, error) {
		return svc.GetShortKey(r.Context(), id)
	})
}

func getShortKeyByCodeHandler(svc MedicineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, err := svc.GetShortKeyByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, k)
	}
}

func updateShortKeyHandler(svc MedicineService) http.HandlerFunc {
	return shortKeyAction(func(r *http.Request, id uuid.UUID) (*medicine.ShortKey, error) {
		var in medicine.ShortKeyUpdate
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return svc.UpdateShortKey(r.Context(), id, in)
	})
}

func deactivateShortKeyHandler(svc MedicineService) http.HandlerFunc {
	return shortKeyAction(func(r *http.Request, id uuid.UUID) (*medicine.ShortKey, error) {
		return svc.DeactivateShortKey(r.Context(), id)
	})
}

func expandShortKeyHandler(svc MedicineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		lines, err := svc.Expand(r.Context(), code)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"code":  medicine.NormalizeCode(code),
			"items": lines,
		})
	}
}
