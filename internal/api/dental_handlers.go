package api

import (
	"net/http"

	"github.com/hackgods/clinicdesk/internal/dental"
)

func recordObservationHandler(svc DentalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		var in dental.ObservationInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		obs, err := svc.RecordObservation(r.Context(), patientID, in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, obs)
	}
}

func listObservationsHandler(svc DentalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		tooth, err := queryInt(r, "tooth")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		list, err := svc.ListObservations(r.Context(), patientID, tooth)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if list == nil {
			list = []dental.Observation{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"observations": list})
	}
}

func planProcedureHandler(svc DentalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		var in dental.ProcedureInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		proc, err := svc.PlanProcedure(r.Context(), patientID, in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, proc)
	}
}

func listProceduresHandler(svc DentalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		list, err := svc.ListProcedures(r.Context(), patientID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if list == nil {
			list = []dental.Procedure{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"procedures": list})
	}
}

func dentalChartHandler(svc DentalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		chart, err := svc.Chart(r.Context(), patientID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, chart)
	}
}

type ProcedureStatusRequest struct {
	Status dental.ProcedureStatus `json:"status"`
}

func procedureStatusHandler(svc DentalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		var req ProcedureStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, r, err)
			return
		}
		proc, err := svc.TransitionProcedure(r.Context(), id, req.Status)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, proc)
	}
}

