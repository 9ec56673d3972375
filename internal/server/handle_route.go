package server

import "net/http"

// RouteInfo is the response for GET /api/route.
type RouteInfo struct {
	AppName     string `json:"appName,omitempty"`
	Season      string `json:"season,omitempty"`
	Title       string `json:"title,omitempty"`
	Intro       string `json:"intro,omitempty"`
	Start       string `json:"start,omitempty"`
	Total       int    `json:"total"`
	FinishTitle string `json:"finishTitle,omitempty"`
	Error       string `json:"error,omitempty"`
}

func handleRouteInfo(devices *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := devices.Active()
		if active.Route == nil {
			msg := "no route loaded"
			if active.Err != nil {
				msg = active.Err.Error()
			}
			writeJSON(w, http.StatusServiceUnavailable, RouteInfo{Error: msg})
			return
		}

		rt := active.Route
		writeJSON(w, http.StatusOK, RouteInfo{
			AppName:     active.AppName,
			Season:      rt.Season,
			Title:       rt.Title,
			Intro:       rt.Intro.Text,
			Start:       rt.Intro.Start,
			Total:       rt.Len(),
			FinishTitle: rt.Finish.Title,
		})
	}
}
