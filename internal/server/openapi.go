package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/codesheet"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/handler/health"
)

// deviceActionErrors are the statuses every state-changing device action
// may answer with besides 200.
var deviceActionErrors = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusLocked,
	http.StatusUnprocessableEntity,
	http.StatusServiceUnavailable,
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Speurtocht API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Checkpoint progression for the QR scavenger hunt.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of the route store and the progress backend.")
	getHealthz.AddRespStructure(health.Report{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Report{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/route
	getRoute, _ := r.NewOperationContext(http.MethodGet, "/api/route")
	getRoute.SetSummary("Active route")
	getRoute.SetDescription("Returns the intro of the active season, or the reason no route is loaded.")
	getRoute.AddRespStructure(RouteInfo{}, openapi.WithHTTPStatus(http.StatusOK))
	getRoute.AddRespStructure(RouteInfo{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getRoute)

	// GET /api/devices/{device}/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/devices/{device}/state")
	getState.SetSummary("Device state")
	getState.SetDescription("Returns the current state and session of a device. Devices are created on first use.")
	getState.AddRespStructure(DeviceStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getState)

	// POST /api/devices/{device}/scan
	postScan, _ := r.NewOperationContext(http.MethodPost, "/api/devices/{device}/scan")
	postScan.SetSummary("Scan code")
	postScan.SetDescription("Submits decoded QR text. Accepted while scanning or awaiting the puzzle scan.")
	postScan.AddReqStructure(ScanRequest{})
	addActionResponses(postScan)
	_ = r.AddOperation(postScan)

	// POST /api/devices/{device}/submit
	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/api/devices/{device}/submit")
	postSubmit.SetSummary("Submit answer")
	postSubmit.SetDescription("Checks an answer to the active task. A wrong answer is a 200 with an answer_rejected event.")
	postSubmit.AddReqStructure(SubmitRequest{})
	addActionResponses(postSubmit)
	_ = r.AddOperation(postSubmit)

	for _, op := range []struct{ path, summary, description string }{
		{"/api/devices/{device}/hint", "Reveal hint", "Reveals the hint of the active checkpoint. Counted once per checkpoint."},
		{"/api/devices/{device}/puzzle-scan", "Scan puzzle", "Switches a puzzle checkpoint to waiting for the assembled QR."},
		{"/api/devices/{device}/continue", "Continue", "Acknowledges the navigation and returns to scanning."},
		{"/api/devices/{device}/reset", "Reset", "Clears all progress of the device."},
	} {
		oc, _ := r.NewOperationContext(http.MethodPost, op.path)
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		addActionResponses(oc)
		_ = r.AddOperation(oc)
	}

	// GET /api/devices/{device}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/devices/{device}/events")
	getEvents.SetSummary("Event stream")
	getEvents.SetDescription("Server-sent events: one state snapshot, then every engine event of the device.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/devices/{device}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/devices/{device}/ws")
	getWS.SetSummary("Scanner socket")
	getWS.SetDescription("WebSocket: text frames in are decoded QR codes, frames out are engine events.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/admin/route
	getAdminRoute, _ := r.NewOperationContext(http.MethodGet, "/api/admin/route")
	getAdminRoute.SetSummary("Export route")
	getAdminRoute.SetDescription("Returns the stored route document as JSON, or YAML with ?format=yaml. Requires basic auth.")
	getAdminRoute.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getAdminRoute.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getAdminRoute.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getAdminRoute)

	// PUT /api/admin/route
	putAdminRoute, _ := r.NewOperationContext(http.MethodPut, "/api/admin/route")
	putAdminRoute.SetSummary("Import route")
	putAdminRoute.SetDescription("Validates, stores and activates a JSON or YAML route document. Requires basic auth.")
	putAdminRoute.AddRespStructure(RouteImportResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putAdminRoute.AddRespStructure(RouteProblemsResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	putAdminRoute.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(putAdminRoute)

	// GET /api/admin/codes
	getCodes, _ := r.NewOperationContext(http.MethodGet, "/api/admin/codes")
	getCodes.SetSummary("List codes")
	getCodes.SetDescription("Returns every QR payload of the active route in print order. Requires basic auth.")
	getCodes.AddRespStructure([]codesheet.Code{}, openapi.WithHTTPStatus(http.StatusOK))
	getCodes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	getCodes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getCodes)

	// GET /api/admin/codes.xlsx
	getCodesXLSX, _ := r.NewOperationContext(http.MethodGet, "/api/admin/codes.xlsx")
	getCodesXLSX.SetSummary("Code sheet")
	getCodesXLSX.SetDescription("Downloads the codes of the active route as a spreadsheet. Requires basic auth.")
	getCodesXLSX.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	getCodesXLSX.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getCodesXLSX)

	// GET /api/admin/devices
	getDevices, _ := r.NewOperationContext(http.MethodGet, "/api/admin/devices")
	getDevices.SetSummary("List devices")
	getDevices.SetDescription("Returns open devices with their state, plus devices with stored progress. Requires basic auth.")
	getDevices.AddRespStructure([]AdminDevice{}, openapi.WithHTTPStatus(http.StatusOK))
	getDevices.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getDevices)

	return r.Spec
}

func addActionResponses(oc openapi.OperationContext) {
	oc.AddRespStructure(ActionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	for _, status := range deviceActionErrors {
		oc.AddRespStructure(ActionResponse{}, openapi.WithHTTPStatus(status))
	}
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
